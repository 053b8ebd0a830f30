package render

import "github.com/rook-computer/statuslcd/internal/render/font"

// DrawGlyph draws one character cell at (x, y): the 5x7 glyph followed by a
// spacing column, all in fg or bg. Clipping is left to PutPixel.
func DrawGlyph(fb *Framebuffer, x, y int, r rune, fg, bg Color) {
	glyph := font.For(r)
	for col := 0; col < font.Width; col++ {
		for row := 0; row < font.Height; row++ {
			c := bg
			if glyph.On(col, row) {
				c = fg
			}
			fb.PutPixel(x+col, y+row, c)
		}
	}
	for row := 0; row < font.Height; row++ {
		fb.PutPixel(x+font.Width, y+row, bg)
	}
}

// DrawText lays text out left to right from (x, y). A newline, or a character
// whose cell would cross the right edge, moves the cursor back to x and one
// line down. Drawing stops once a new line would not fit vertically.
//
// Text is walked byte by byte; anything outside printable ASCII, including
// each byte of a multi-byte rune, draws the fallback glyph.
func DrawText(fb *Framebuffer, x, y int, text string, fg, bg Color) {
	cx, cy := x, y
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\n' {
			cx = x
			cy += font.LineHeight
			if cy+font.Height > fb.Height() {
				return
			}
			continue
		}
		if cx != x && cx+font.Advance > fb.Width() {
			cx = x
			cy += font.LineHeight
			if cy+font.Height > fb.Height() {
				return
			}
		}
		DrawGlyph(fb, cx, cy, rune(ch), fg, bg)
		cx += font.Advance
	}
}
