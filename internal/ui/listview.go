package ui

import (
	"fmt"

	"wisatamap/internal/render"
	"wisatamap/internal/view"

	"github.com/gdamore/tcell/v2"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowCategory
	rowItem
)

// listRow is one line of the sidebar. Headers cannot take the cursor.
type listRow struct {
	kind     rowKind
	key      string // category name or feature id
	text     string
	category string
	active   bool
}

func (r listRow) selectable() bool {
	return r.kind != rowHeader
}

// ListView displays the category list followed by the visible features
type ListView struct {
	rows          []listRow
	selectedIndex int
	scrollOffset  int
	maxVisible    int
	focused       string
	x, y          int
	width, height int
}

// NewListView creates a new sidebar list view
func NewListView(x, y, width, height int) *ListView {
	l := &ListView{}
	l.UpdateDimensions(x, y, width, height)
	return l
}

// Update rebuilds the rows from the sidebar model. The cursor stays on the
// same row when it still exists and jumps to a newly focused feature.
func (l *ListView) Update(sb view.Sidebar) {
	var prev listRow
	if l.selectedIndex >= 0 && l.selectedIndex < len(l.rows) {
		prev = l.rows[l.selectedIndex]
	}

	rows := make([]listRow, 0, len(sb.Categories)+len(sb.Items)+2)
	rows = append(rows, listRow{kind: rowHeader, text: "Kategori"})
	for _, c := range sb.Categories {
		rows = append(rows, listRow{
			kind:     rowCategory,
			key:      c.Name,
			text:     fmt.Sprintf("%s (%d)", c.Label, c.Count),
			category: c.Name,
			active:   c.Active,
		})
	}
	rows = append(rows, listRow{kind: rowHeader, text: fmt.Sprintf("Objek (%d)", len(sb.Items))})

	focused := ""
	for _, it := range sb.Items {
		rows = append(rows, listRow{
			kind:     rowItem,
			key:      it.ID,
			text:     it.Label,
			category: it.Category,
			active:   it.Selected,
		})
		if it.Selected {
			focused = it.ID
		}
	}
	l.rows = rows

	l.selectedIndex = -1
	if focused != "" && focused != l.focused {
		l.selectedIndex = l.find(rowItem, focused)
	}
	if l.selectedIndex < 0 && prev.selectable() {
		l.selectedIndex = l.find(prev.kind, prev.key)
	}
	if l.selectedIndex < 0 {
		l.selectedIndex = l.next(-1, 1)
	}
	l.focused = focused

	l.adjustScroll()
}

func (l *ListView) find(kind rowKind, key string) int {
	for i, r := range l.rows {
		if r.kind == kind && r.key == key {
			return i
		}
	}
	return -1
}

// next returns the first selectable row after from in direction dir
func (l *ListView) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(l.rows); i += dir {
		if l.rows[i].selectable() {
			return i
		}
	}
	return -1
}

// SelectNext moves selection down
func (l *ListView) SelectNext() {
	if i := l.next(l.selectedIndex, 1); i >= 0 {
		l.selectedIndex = i
		l.adjustScroll()
	}
}

// SelectPrev moves selection up
func (l *ListView) SelectPrev() {
	if i := l.next(l.selectedIndex, -1); i >= 0 {
		l.selectedIndex = i
		l.adjustScroll()
	}
	// Keep the first header in view at the top
	if l.next(l.selectedIndex, -1) < 0 {
		l.scrollOffset = 0
	}
}

// adjustScroll adjusts scroll offset to keep selected item visible
func (l *ListView) adjustScroll() {
	if l.selectedIndex >= l.scrollOffset+l.maxVisible {
		l.scrollOffset = l.selectedIndex - l.maxVisible + 1
	}

	if l.selectedIndex < l.scrollOffset {
		l.scrollOffset = l.selectedIndex
	}

	if maxOffset := len(l.rows) - l.maxVisible; l.scrollOffset > maxOffset {
		l.scrollOffset = maxOffset
	}
	if l.scrollOffset < 0 {
		l.scrollOffset = 0
	}
}

// GetSelected returns the row under the cursor
func (l *ListView) GetSelected() (listRow, bool) {
	if l.selectedIndex >= 0 && l.selectedIndex < len(l.rows) {
		return l.rows[l.selectedIndex], true
	}
	return listRow{}, false
}

// HitTest returns the selectable row at a screen position and moves the
// cursor onto it
func (l *ListView) HitTest(sx, sy int) (listRow, bool) {
	if sx <= l.x || sx >= l.x+l.width-1 || sy <= l.y || sy >= l.y+l.height-1 {
		return listRow{}, false
	}
	i := l.scrollOffset + sy - l.y - 1
	if i >= len(l.rows) || !l.rows[i].selectable() {
		return listRow{}, false
	}
	l.selectedIndex = i
	return l.rows[i], true
}

// Draw renders the list view to the screen. The cursor is only shown while
// the list has keyboard focus.
func (l *ListView) Draw(screen tcell.Screen, palette *render.Palette, hasFocus bool) {
	border := render.StyleDim
	if hasFocus {
		border = render.StyleLabel
	}
	drawPanel(screen, l.x, l.y, l.width, l.height, "Wisata", border)

	inner := l.width - 2
	visibleCount := min(l.maxVisible, len(l.rows)-l.scrollOffset)
	for i := 0; i < visibleCount; i++ {
		idx := l.scrollOffset + i
		row := l.rows[idx]
		x := l.x + 1
		y := l.y + i + 1

		if row.kind == rowHeader {
			drawTextPadded(screen, x, y, inner, row.text, render.StyleHeader.Underline(true))
			continue
		}

		style := render.StyleListItem
		if row.active {
			style = style.Bold(true)
		}
		if hasFocus && idx == l.selectedIndex {
			style = render.StyleListSelected
		}

		marker := ' '
		switch {
		case row.kind == rowCategory && row.active:
			marker = '▸'
		case row.kind == rowItem:
			marker = render.GlyphPoint
		}
		markerStyle := style
		if !(hasFocus && idx == l.selectedIndex) && row.kind == rowItem {
			markerStyle = palette.Style(row.category)
		}
		screen.SetContent(x, y, marker, nil, markerStyle)
		screen.SetContent(x+1, y, ' ', nil, style)
		drawTextPadded(screen, x+2, y, inner-2, row.text, style)
	}

	if len(l.rows) > l.maxVisible {
		screen.SetContent(l.x+l.width-2, l.y, '↕', nil, render.StyleLabel)
	}
}

// UpdateDimensions updates the view dimensions
func (l *ListView) UpdateDimensions(x, y, width, height int) {
	l.x = x
	l.y = y
	l.width = width
	l.height = height
	l.maxVisible = height - 2
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
	l.adjustScroll()
}
