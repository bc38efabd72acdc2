package render

import (
	"hash/fnv"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Style definitions for map layers and panels
var (
	StyleBasemap      = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	StyleRoute        = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	StyleRoutePending = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Dim(true)
	StyleOrigin       = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	StyleDraft        = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	StyleProvisional  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Blink(true)
	StyleLabel        = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	StyleHeader       = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	StyleListItem     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	StyleListSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	StyleDim          = tcell.StyleDefault.Foreground(tcell.ColorGray)
	StyleStatus       = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorTeal)
	StyleError        = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMaroon)
	StyleInfo         = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	StyleInput        = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
)

// Map glyphs
const (
	GlyphPoint       = '●'
	GlyphArea        = '■'
	GlyphOutline     = '#'
	GlyphRoute       = '•'
	GlyphOrigin      = '◎'
	GlyphVertex      = '+'
	GlyphDraftEdge   = '.'
	GlyphDraftPoint  = 'X'
	GlyphProvisional = '?'
	GlyphBasemap     = '·'
)

// Palette assigns every category a distinct colour. Known categories get
// evenly spaced hues; others get a hue derived from the name.
type Palette struct {
	mu     sync.RWMutex
	colors map[string]tcell.Color
}

// NewPalette spreads hues over the given categories in order
func NewPalette(categories []string) *Palette {
	p := &Palette{}
	p.Update(categories)
	return p
}

// Update recomputes the colours for a new category list
func (p *Palette) Update(categories []string) {
	colors := make(map[string]tcell.Color, len(categories))
	n := len(categories)
	for i, c := range categories {
		colors[c] = hueColor(360 * float64(i) / float64(n))
	}

	p.mu.Lock()
	p.colors = colors
	p.mu.Unlock()
}

// Color returns the colour of category
func (p *Palette) Color(category string) tcell.Color {
	p.mu.RLock()
	c, ok := p.colors[category]
	p.mu.RUnlock()
	if ok {
		return c
	}

	h := fnv.New32a()
	h.Write([]byte(category))
	return hueColor(float64(h.Sum32() % 360))
}

// Style returns a foreground style in the category colour
func (p *Palette) Style(category string) tcell.Style {
	return tcell.StyleDefault.Foreground(p.Color(category))
}

func hueColor(hue float64) tcell.Color {
	c := colorful.Hcl(math.Mod(hue+40, 360), 0.55, 0.72).Clamped()
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
