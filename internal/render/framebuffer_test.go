package render

import (
	"image/color"
	"testing"
)

func newTestFB(t *testing.T, w, h int) *Framebuffer {
	t.Helper()
	fb, err := NewFramebuffer(w, h)
	if err != nil {
		t.Fatalf("NewFramebuffer(%d, %d) err=%v", w, h, err)
	}
	return fb
}

func samePix(a, b *Framebuffer) bool {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return false
	}
	pa, pb := a.Pix(), b.Pix()
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func TestNewFramebufferRejectsBadSize(t *testing.T) {
	for _, size := range [][2]int{{0, 128}, {128, 0}, {-1, 5}} {
		if _, err := NewFramebuffer(size[0], size[1]); err == nil {
			t.Fatalf("expected error for %dx%d", size[0], size[1])
		}
	}
	fb := newTestFB(t, 128, 128)
	if len(fb.Pix()) != 128*128 {
		t.Fatalf("expected %d pixels, got %d", 128*128, len(fb.Pix()))
	}
}

func TestPutPixelOutOfBoundsIsNoop(t *testing.T) {
	fb := newTestFB(t, 128, 128)
	fb.Clear(RGB(10, 20, 30))
	before := fb.Clone()

	for _, p := range [][2]int{{128, 0}, {0, 128}, {-1, 0}, {0, -1}, {500, 500}, {-500, 3}, {127, 128}} {
		fb.PutPixel(p[0], p[1], White)
	}
	if !samePix(fb, before) {
		t.Fatalf("out of bounds writes changed the buffer")
	}

	fb.PutPixel(127, 127, White)
	if fb.Pixel(127, 127) != White {
		t.Fatalf("in bounds write at the last pixel was dropped")
	}
}

func TestClearIdempotent(t *testing.T) {
	fb := newTestFB(t, 16, 8)
	fb.PutPixel(3, 3, White)
	c := RGB(0, 255, 0)
	fb.Clear(c)
	once := fb.Clone()
	fb.Clear(c)
	if !samePix(fb, once) {
		t.Fatalf("second clear changed the buffer")
	}
	for i, p := range fb.Pix() {
		if Color(p) != c {
			t.Fatalf("pixel %d = %#04x, want %#04x", i, p, c)
		}
	}
}

func TestRGBPacking(t *testing.T) {
	cases := []struct {
		r, g, b uint8
		want    Color
	}{
		{0, 0, 0, Black},
		{255, 255, 255, White},
		{255, 0, 0, 0xF800},
		{0, 255, 0, 0x07E0},
		{0, 0, 255, 0x001F},
	}
	for _, tc := range cases {
		if got := RGB(tc.r, tc.g, tc.b); got != tc.want {
			t.Fatalf("RGB(%d,%d,%d)=%#04x, want %#04x", tc.r, tc.g, tc.b, got, tc.want)
		}
	}
	r, g, b, a := White.RGBA()
	if r != 0xFFFF || g != 0xFFFF || b != 0xFFFF || a != 0xFFFF {
		t.Fatalf("White.RGBA() = %x %x %x %x", r, g, b, a)
	}
}

func TestFramebufferAsDrawImage(t *testing.T) {
	fb := newTestFB(t, 4, 4)
	fb.Set(1, 2, color.RGBA{R: 255, A: 255})
	if fb.Pixel(1, 2) != 0xF800 {
		t.Fatalf("Set via color.Color stored %#04x", fb.Pixel(1, 2))
	}
	if fb.At(1, 2) != Color(0xF800) {
		t.Fatalf("At returned %v", fb.At(1, 2))
	}
	fb.Set(9, 9, color.White)
	if fb.Bounds().Dx() != 4 || fb.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", fb.Bounds())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	fb := newTestFB(t, 2, 2)
	cp := fb.Clone()
	fb.PutPixel(0, 0, White)
	if cp.Pixel(0, 0) != Black {
		t.Fatalf("clone shares storage with the original")
	}
}
