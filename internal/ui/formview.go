package ui

import (
	"wisatamap/internal/poi"
	"wisatamap/internal/render"

	"github.com/gdamore/tcell/v2"
)

type formMode int

const (
	formClosed formMode = iota
	formCreate
	formEdit
)

var formLabels = [...]string{"Nama", "Jenis", "Alamat", "Deskripsi"}

// FormView edits the attributes of a new or existing feature
type FormView struct {
	mode       formMode
	editID     string
	values     [len(formLabels)][]rune
	field      int
	submitting bool
	width      int
	height     int
	x, y       int
}

// NewFormView creates a closed form centered in a w x h region
func NewFormView(screenW, screenH int) *FormView {
	f := &FormView{}
	f.UpdateDimensions(screenW, screenH)
	return f
}

// OpenCreate shows the form for a freshly drawn geometry
func (f *FormView) OpenCreate(a poi.Attributes) {
	f.open(formCreate, "", a)
}

// OpenEdit shows the form prefilled with the feature being edited
func (f *FormView) OpenEdit(id string, a poi.Attributes) {
	f.open(formEdit, id, a)
}

func (f *FormView) open(mode formMode, id string, a poi.Attributes) {
	f.mode = mode
	f.editID = id
	f.field = 0
	f.submitting = false
	f.values = [len(formLabels)][]rune{
		[]rune(a.Name),
		[]rune(a.Category),
		[]rune(a.Address),
		[]rune(a.Description),
	}
}

// Close hides the form
func (f *FormView) Close() {
	f.mode = formClosed
	f.editID = ""
	f.submitting = false
}

// IsOpen reports whether the form is shown
func (f *FormView) IsOpen() bool {
	return f.mode != formClosed
}

// Creating reports whether the form describes a new feature
func (f *FormView) Creating() bool {
	return f.mode == formCreate
}

// EditID returns the feature being edited
func (f *FormView) EditID() string {
	return f.editID
}

// Attributes returns the entered values
func (f *FormView) Attributes() poi.Attributes {
	return poi.Attributes{
		Name:        string(f.values[0]),
		Category:    string(f.values[1]),
		Address:     string(f.values[2]),
		Description: string(f.values[3]),
	}
}

// SetSubmitting shows or hides the saving indicator
func (f *FormView) SetSubmitting(b bool) {
	f.submitting = b
}

// Submitting reports whether a save is in flight
func (f *FormView) Submitting() bool {
	return f.submitting
}

// Next moves to the next field, wrapping around
func (f *FormView) Next() {
	f.field = (f.field + 1) % len(formLabels)
}

// Prev moves to the previous field, wrapping around
func (f *FormView) Prev() {
	f.field = (f.field + len(formLabels) - 1) % len(formLabels)
}

// OnLastField reports whether the cursor is on the final field
func (f *FormView) OnLastField() bool {
	return f.field == len(formLabels)-1
}

// Insert types r into the current field
func (f *FormView) Insert(r rune) {
	f.values[f.field] = append(f.values[f.field], r)
}

// Backspace removes the last rune of the current field
func (f *FormView) Backspace() {
	if v := f.values[f.field]; len(v) > 0 {
		f.values[f.field] = v[:len(v)-1]
	}
}

// Clear empties the current field
func (f *FormView) Clear() {
	f.values[f.field] = nil
}

// Draw renders the form as a centered panel
func (f *FormView) Draw(screen tcell.Screen) {
	if !f.IsOpen() {
		return
	}
	title := "Tambah Objek"
	if f.mode == formEdit {
		title = "Ubah " + f.editID
	}
	drawPanel(screen, f.x, f.y, f.width, f.height, render.Truncate(title, f.width-4), render.StyleHeader)

	labelW := 0
	for _, l := range formLabels {
		labelW = max(labelW, render.TextWidth(l))
	}
	labelW += 2
	inputW := f.width - 4 - labelW

	for i, label := range formLabels {
		y := f.y + 2 + i*2
		drawText(screen, f.x+2, y, labelW, label, render.StyleLabel)

		style := render.StyleDim.Reverse(true)
		text := string(f.values[i])
		if i == f.field && !f.submitting {
			style = render.StyleInput
			text += "_"
		}
		if render.TextWidth(text) > inputW {
			r := []rune(text)
			for len(r) > 0 && render.TextWidth(string(r)) > inputW {
				r = r[1:]
			}
			text = string(r)
		}
		drawTextPadded(screen, f.x+2+labelW, y, inputW, text, style)
	}

	hint := "[Tab] pindah [Ctrl-S] simpan [Esc] batal"
	style := render.StyleDim
	if f.submitting {
		hint = "Menyimpan..."
		style = render.StyleHeader
	}
	drawCentered(screen, f.x+1, f.y+f.height-2, f.width-2, hint, style)
}

// UpdateDimensions re-centers the form for a new screen size
func (f *FormView) UpdateDimensions(screenW, screenH int) {
	f.width = min(60, screenW)
	f.height = min(len(formLabels)*2+4, screenH)
	f.x = (screenW - f.width) / 2
	f.y = (screenH - f.height) / 2
}
