package ui

import (
	"wisatamap/internal/render"
	"wisatamap/internal/view"

	"github.com/gdamore/tcell/v2"
)

// DetailView is the popup describing the focused feature
type DetailView struct {
	popup         *view.Popup
	x, y          int
	width, height int
}

// NewDetailView creates a new detail popup anchored in the given region
func NewDetailView(x, y, width, height int) *DetailView {
	return &DetailView{
		x:      x,
		y:      y,
		width:  width,
		height: height,
	}
}

// SetPopup sets the feature to display; nil hides the popup
func (d *DetailView) SetPopup(p *view.Popup) {
	d.popup = p
}

// Visible reports whether a feature is shown
func (d *DetailView) Visible() bool {
	return d.popup != nil
}

// Contains reports whether a screen position lies on the popup
func (d *DetailView) Contains(sx, sy int) bool {
	return d.popup != nil && sx >= d.x && sx < d.x+d.width && sy >= d.y && sy < d.y+d.height
}

func (d *DetailView) lines() []string {
	p := d.popup
	inner := d.width - 4
	lines := []string{
		"Kategori: " + p.Category,
		"Alamat:   " + orDash(p.Address),
		"Posisi:   " + p.Position,
		"",
	}
	desc := wrap(orDash(p.Description), inner)
	if room := d.height - 3 - len(lines); len(desc) > room && room > 0 {
		desc = append(desc[:room-1], "…")
	}
	return append(lines, desc...)
}

// Draw renders the popup to the screen
func (d *DetailView) Draw(screen tcell.Screen) {
	if d.popup == nil {
		return
	}
	drawPanel(screen, d.x, d.y, d.width, d.height, render.Truncate(d.popup.Title, d.width-4), render.StyleHeader)

	inner := d.width - 4
	for i, line := range d.lines() {
		y := d.y + 1 + i
		if y >= d.y+d.height-2 {
			break
		}
		drawText(screen, d.x+2, y, inner, line, render.StyleLabel)
	}

	hint := "[t] rute [e] ubah [d] hapus [Esc] tutup"
	if d.popup.Routed {
		hint = "[x] hapus rute [e] ubah [d] hapus [Esc] tutup"
	}
	drawCentered(screen, d.x+1, d.y+d.height-2, d.width-2, hint, render.StyleDim)
}

// UpdateDimensions updates the view dimensions
func (d *DetailView) UpdateDimensions(x, y, width, height int) {
	d.x = x
	d.y = y
	d.width = width
	d.height = height
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
