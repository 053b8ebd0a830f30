package render

import (
	"fmt"
	"image"
	"image/color"
)

// Color is a packed RGB565 pixel.
type Color uint16

const (
	Black Color = 0x0000
	White Color = 0xFFFF
)

// RGB packs 8-bit channels into RGB565.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGBA implements color.Color, expanding each channel back to 16 bits.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2
	return r8 | r8<<8, g8 | g8<<8, b8 | b8<<8, 0xFFFF
}

// RGB565Model converts any color to Color.
var RGB565Model = color.ModelFunc(func(c color.Color) color.Color {
	if rgb, ok := c.(Color); ok {
		return rgb
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
})

// Framebuffer is a fixed-size row-major RGB565 pixel grid.
type Framebuffer struct {
	width  int
	height int
	pix    []uint16
}

func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid framebuffer size %dx%d", width, height)
	}
	return &Framebuffer{width: width, height: height, pix: make([]uint16, width*height)}, nil
}

func (f *Framebuffer) Width() int  { return f.width }
func (f *Framebuffer) Height() int { return f.height }

func (f *Framebuffer) Clear(c Color) {
	v := uint16(c)
	for i := range f.pix {
		f.pix[i] = v
	}
}

// PutPixel writes c at (x, y). Coordinates outside the buffer are ignored.
func (f *Framebuffer) PutPixel(x, y int, c Color) {
	if uint(x) >= uint(f.width) || uint(y) >= uint(f.height) {
		return
	}
	f.pix[y*f.width+x] = uint16(c)
}

func (f *Framebuffer) Pixel(x, y int) Color {
	if uint(x) >= uint(f.width) || uint(y) >= uint(f.height) {
		return 0
	}
	return Color(f.pix[y*f.width+x])
}

// Pix exposes the backing buffer for transmission. It is not a copy; do not
// write to the framebuffer while a sink holds it.
func (f *Framebuffer) Pix() []uint16 { return f.pix }

func (f *Framebuffer) Clone() *Framebuffer {
	pix := make([]uint16, len(f.pix))
	copy(pix, f.pix)
	return &Framebuffer{width: f.width, height: f.height, pix: pix}
}

func (f *Framebuffer) ColorModel() color.Model { return RGB565Model }

func (f *Framebuffer) Bounds() image.Rectangle { return image.Rect(0, 0, f.width, f.height) }

func (f *Framebuffer) At(x, y int) color.Color { return f.Pixel(x, y) }

func (f *Framebuffer) Set(x, y int, c color.Color) {
	f.PutPixel(x, y, RGB565Model.Convert(c).(Color))
}
