package ui

import (
	"wisatamap/internal/events"
	"wisatamap/internal/render"

	"github.com/gdamore/tcell/v2"
)

// drawModal draws a centered box with wrapped text and a key hint
func drawModal(screen tcell.Screen, title, text, hint string, style tcell.Style) {
	sw, sh := screen.Size()
	w := min(56, sw-2)
	if w < 10 {
		return
	}
	lines := wrap(text, w-4)
	h := min(len(lines)+5, sh)
	x := (sw - w) / 2
	y := (sh - h) / 2

	drawPanel(screen, x, y, w, h, title, style)
	for i, line := range lines {
		if 2+i >= h-2 {
			break
		}
		drawText(screen, x+2, y+2+i, w-4, line, render.StyleLabel)
	}
	drawCentered(screen, x+1, y+h-2, w-2, hint, render.StyleDim)
}

func drawNotice(screen tcell.Screen, n events.Notice) {
	title, style := "Info", render.StyleHeader
	if n.Level == events.LevelError {
		title, style = "Gagal", render.StyleError
	}
	drawModal(screen, title, n.Message, "[Enter] tutup", style)
}

func drawConfirmDelete(screen tcell.Screen, id string) {
	drawModal(screen, "Hapus", "Hapus "+id+"?", "[y] ya [n] tidak", render.StyleError)
}
