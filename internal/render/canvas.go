package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Canvas represents a 2D grid of cells for terminal rendering
type Canvas struct {
	width  int
	height int
	cells  [][]Cell
}

// Cell represents a single character cell with style
type Cell struct {
	Char  rune
	Style tcell.Style
	// cont marks the right half of a double-width rune
	cont bool
}

var blank = Cell{Char: ' ', Style: tcell.StyleDefault}

// NewCanvas creates a new blank canvas
func NewCanvas(width, height int) *Canvas {
	cells := make([][]Cell, height)
	for i := range cells {
		cells[i] = make([]Cell, width)
		for j := range cells[i] {
			cells[i][j] = blank
		}
	}

	return &Canvas{
		width:  width,
		height: height,
		cells:  cells,
	}
}

// Set sets the character and style at the given position
// Coordinates are 0-indexed with (0,0) at top-left
func (c *Canvas) Set(x, y int, char rune, style tcell.Style) {
	if c.inside(x, y) {
		c.cells[y][x] = Cell{Char: char, Style: style}
	}
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// Get retrieves the cell at the given position
func (c *Canvas) Get(x, y int) Cell {
	if c.inside(x, y) {
		return c.cells[y][x]
	}
	return blank
}

// IsBlank reports whether nothing has been drawn at the position
func (c *Canvas) IsBlank(x, y int) bool {
	cell := c.Get(x, y)
	return cell.Char == ' ' && !cell.cont
}

// Clear resets the entire canvas to spaces with default style
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = blank
		}
	}
}

// DrawText draws a string at the given position and returns the number of
// columns used. Wide runes take two columns.
func (c *Canvas) DrawText(x, y int, text string, style tcell.Style) int {
	col := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		c.Set(col, y, r, style)
		if w == 2 && c.inside(col+1, y) {
			c.cells[y][col+1] = Cell{Char: ' ', Style: style, cont: true}
		}
		col += w
	}
	return col - x
}

// Truncate shortens s to at most width display columns
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// TextWidth returns the display width of s
func TextWidth(s string) int {
	return runewidth.StringWidth(s)
}

// DrawLine implements Bresenham's line algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, char rune, style tcell.Style) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)

	sx := -1
	if x0 < x1 {
		sx = 1
	}

	sy := -1
	if y0 < y1 {
		sy = 1
	}

	err := dx - dy

	for {
		c.Set(x0, y0, char, style)

		if x0 == x1 && y0 == y1 {
			break
		}

		e2 := 2 * err

		if e2 > -dy {
			err -= dy
			x0 += sx
		}

		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Width returns the canvas width
func (c *Canvas) Width() int {
	return c.width
}

// Blit renders the canvas to a tcell screen
func (c *Canvas) Blit(screen tcell.Screen, offsetX, offsetY int) {
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			cell := c.cells[y][x]
			if cell.cont {
				continue
			}
			screen.SetContent(offsetX+x, offsetY+y, cell.Char, nil, cell.Style)
		}
	}
}
