package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// drawText writes text at x,y clipped to maxWidth columns and returns the
// columns used
func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) int {
	if maxWidth <= 0 {
		return 0
	}
	if runewidth.StringWidth(text) > maxWidth {
		text = runewidth.Truncate(text, maxWidth, "…")
	}
	col := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		screen.SetContent(col, y, r, nil, style)
		col += w
	}
	return col - x
}

// drawTextPadded writes text and fills the rest of the width with style
func drawTextPadded(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	n := drawText(screen, x, y, width, text, style)
	for i := n; i < width; i++ {
		screen.SetContent(x+i, y, ' ', nil, style)
	}
}

// drawCentered writes text centered in width columns starting at x
func drawCentered(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	w := runewidth.StringWidth(text)
	if w > width {
		w = width
	}
	drawText(screen, x+(width-w)/2, y, width, text, style)
}

// clearRect fills a region with blanks, making a panel opaque
func clearRect(screen tcell.Screen, x, y, width, height int, style tcell.Style) {
	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

// drawPanel clears a region and draws a titled border around it
func drawPanel(screen tcell.Screen, x, y, width, height int, title string, style tcell.Style) {
	if width < 2 || height < 2 {
		return
	}
	clearRect(screen, x+1, y+1, width-2, height-2, tcell.StyleDefault)

	screen.SetContent(x, y, '┌', nil, style)
	screen.SetContent(x+width-1, y, '┐', nil, style)
	screen.SetContent(x, y+height-1, '└', nil, style)
	screen.SetContent(x+width-1, y+height-1, '┘', nil, style)

	for i := 1; i < width-1; i++ {
		screen.SetContent(x+i, y, '─', nil, style)
		screen.SetContent(x+i, y+height-1, '─', nil, style)
	}

	for i := 1; i < height-1; i++ {
		screen.SetContent(x, y+i, '│', nil, style)
		screen.SetContent(x+width-1, y+i, '│', nil, style)
	}

	if title != "" {
		drawCentered(screen, x+1, y, width-2, " "+title+" ", style)
	}
}

// wrap breaks text into lines of at most width columns at spaces
func wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
			for runewidth.StringWidth(line) > width {
				head := runewidth.Truncate(line, width, "")
				if head == "" {
					_, size := utf8.DecodeRuneInString(line)
					head = line[:size]
				}
				lines = append(lines, head)
				line = line[len(head):]
			}
		}
		lines = append(lines, line)
	}
	return lines
}
