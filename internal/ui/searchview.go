package ui

import (
	"slices"

	"wisatamap/internal/render"

	"github.com/gdamore/tcell/v2"
)

const searchPrompt = "Cari: "

// SearchView is the search box above the map with its suggestion dropdown
type SearchView struct {
	term        string
	suggestions []string
	open        bool
	cursor      int
	x, y        int
	width       int
}

// NewSearchView creates a search box on row y
func NewSearchView(x, y, width int) *SearchView {
	return &SearchView{x: x, y: y, width: width, cursor: -1}
}

// Update copies the search state from the model. The cursor is reset when
// the suggestions change.
func (s *SearchView) Update(term string, suggestions []string, open bool) {
	if !slices.Equal(s.suggestions, suggestions) || !open {
		s.cursor = -1
	}
	s.term = term
	s.suggestions = suggestions
	s.open = open && len(suggestions) > 0
}

// SelectNext moves the suggestion cursor down
func (s *SearchView) SelectNext() {
	if s.open && s.cursor < len(s.suggestions)-1 {
		s.cursor++
	}
}

// SelectPrev moves the suggestion cursor up, back to the input at the top
func (s *SearchView) SelectPrev() {
	if s.cursor >= 0 {
		s.cursor--
	}
}

// Selected returns the suggestion under the cursor
func (s *SearchView) Selected() (string, bool) {
	if s.open && s.cursor >= 0 && s.cursor < len(s.suggestions) {
		return s.suggestions[s.cursor], true
	}
	return "", false
}

// Open reports whether the dropdown is shown
func (s *SearchView) Open() bool {
	return s.open
}

// OnInput reports whether a screen position lies on the input row
func (s *SearchView) OnInput(sx, sy int) bool {
	return sy == s.y && sx >= s.x && sx < s.x+s.width
}

// HitTest returns the suggestion at a screen position
func (s *SearchView) HitTest(sx, sy int) (string, bool) {
	if !s.open {
		return "", false
	}
	w := s.dropdownWidth()
	i := sy - s.y - 2
	if sx <= s.x || sx >= s.x+w-1 || i < 0 || i >= len(s.suggestions) {
		return "", false
	}
	return s.suggestions[i], true
}

func (s *SearchView) dropdownWidth() int {
	w := render.TextWidth(searchPrompt) + 4
	for _, it := range s.suggestions {
		w = max(w, render.TextWidth(it)+4)
	}
	return min(w, s.width)
}

// Draw renders the input row and, when open, the dropdown below it
func (s *SearchView) Draw(screen tcell.Screen, hasFocus bool) {
	style := render.StyleDim
	if hasFocus {
		style = render.StyleInput
	}
	n := drawText(screen, s.x, s.y, s.width, searchPrompt, style.Bold(true))
	text := s.term
	if hasFocus {
		text += "_"
	} else if text == "" {
		text = "tekan / untuk mencari"
	}
	// Keep the end of a long term visible while typing
	if avail := s.width - n; render.TextWidth(text) > avail && hasFocus {
		r := []rune(text)
		for len(r) > 0 && render.TextWidth(string(r)) > avail {
			r = r[1:]
		}
		text = string(r)
	}
	drawTextPadded(screen, s.x+n, s.y, s.width-n, text, style)

	if !s.open {
		return
	}
	w := s.dropdownWidth()
	drawPanel(screen, s.x, s.y+1, w, len(s.suggestions)+2, "", render.StyleLabel)
	for i, it := range s.suggestions {
		st := render.StyleListItem
		if i == s.cursor {
			st = render.StyleListSelected
		}
		drawTextPadded(screen, s.x+1, s.y+2+i, w-2, " "+it, st)
	}
}

// UpdateDimensions updates the view dimensions
func (s *SearchView) UpdateDimensions(x, y, width int) {
	s.x = x
	s.y = y
	s.width = width
}
