package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	fb "github.com/gonutz/framebuffer"
	"github.com/rook-computer/statuslcd/internal/render/layout"
	xdraw "golang.org/x/image/draw"
)

// FBSink presents frames on a Linux framebuffer device, scaled up
// nearest-neighbor and centered on the screen.
type FBSink struct {
	Path string
	// Margin keeps the scaled frame this many device pixels away from the edges.
	Margin int
	// PixelPerfect restricts scaling to whole-number factors.
	PixelPerfect bool
	Background   color.Color
	Logger       interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	dev    *fb.Device
	canvas *image.RGBA
}

// fbDevice is the part of the framebuffer device the blit needs.
type fbDevice interface {
	Bounds() image.Rectangle
	Set(x, y int, c color.Color)
}

func NewFBSink(path string) *FBSink { return &FBSink{Path: path} }

func (s *FBSink) Open() error {
	path := s.Path
	if path == "" {
		path = "/dev/fb0"
	}
	dev, err := fb.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.dev = dev
	if s.Logger != nil {
		bounds := dev.Bounds()
		s.Logger.Infof("fb", "framebuffer open, bounds=%dx%d", bounds.Dx(), bounds.Dy())
	}
	return nil
}

func (s *FBSink) Close() error {
	if s.dev != nil {
		s.dev.Close()
		s.dev = nil
	}
	return nil
}

func (s *FBSink) Transmit(pix []uint16, rect image.Rectangle) error {
	if s.dev == nil {
		return errors.New("framebuffer not open")
	}
	return s.blit(s.dev, pix, rect)
}

func (s *FBSink) blit(dev fbDevice, pix []uint16, rect image.Rectangle) error {
	if len(pix) < rect.Dx()*rect.Dy() {
		return fmt.Errorf("short frame: %d pixels for %dx%d", len(pix), rect.Dx(), rect.Dy())
	}
	bounds := dev.Bounds()
	if s.canvas == nil || s.canvas.Bounds() != bounds {
		s.canvas = image.NewRGBA(bounds)
	}
	draw.Draw(s.canvas, bounds, &image.Uniform{C: s.background()}, image.Point{}, draw.Src)

	dst := s.target(bounds, rect.Dx(), rect.Dy())
	xdraw.NearestNeighbor.Scale(s.canvas, dst, pixImage{pix: pix, rect: rect}, rect, xdraw.Src, nil)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dev.Set(x, y, s.canvas.RGBAAt(x, y))
		}
	}
	return nil
}

func (s *FBSink) target(bounds image.Rectangle, w, h int) image.Rectangle {
	area := layout.Inset(bounds, s.Margin)
	if !s.PixelPerfect {
		return layout.FitCentered(area, w, h)
	}
	scale := layout.IntegerScale(area, w, h)
	x := area.Min.X + (area.Dx()-w*scale)/2
	y := area.Min.Y + (area.Dy()-h*scale)/2
	return image.Rect(x, y, x+w*scale, y+h*scale)
}

func (s *FBSink) background() color.Color {
	if s.Background == nil {
		return color.Black
	}
	return s.Background
}

// pixImage views a transmitted RGB565 buffer as an image without copying.
type pixImage struct {
	pix  []uint16
	rect image.Rectangle
}

func (p pixImage) ColorModel() color.Model { return RGB565Model }
func (p pixImage) Bounds() image.Rectangle { return p.rect }

func (p pixImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.rect) {
		return Black
	}
	return Color(p.pix[(y-p.rect.Min.Y)*p.rect.Dx()+(x-p.rect.Min.X)])
}
