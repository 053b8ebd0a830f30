package layout

import "image"

// Inset shrinks rect by paddingPx on all sides.
func Inset(rect image.Rectangle, paddingPx int) image.Rectangle {
	if paddingPx <= 0 {
		return rect
	}
	out := image.Rect(rect.Min.X+paddingPx, rect.Min.Y+paddingPx, rect.Max.X-paddingPx, rect.Max.Y-paddingPx)
	return Normalize(out)
}

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// FitCentered returns the largest rectangle with the aspect ratio
// widthPx:heightPx that fits into rect, centered on both axes.
// It returns an empty rectangle at rect's center when either size is not positive.
func FitCentered(rect image.Rectangle, widthPx, heightPx int) image.Rectangle {
	rect = Normalize(rect)
	if widthPx <= 0 || heightPx <= 0 {
		c := image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
		return image.Rectangle{Min: c, Max: c}
	}
	outW := rect.Dx()
	outH := outW * heightPx / widthPx
	if outH > rect.Dy() {
		outH = rect.Dy()
		outW = outH * widthPx / heightPx
	}
	x := rect.Min.X + (rect.Dx()-outW)/2
	y := rect.Min.Y + (rect.Dy()-outH)/2
	return image.Rect(x, y, x+outW, y+outH)
}

// IntegerScale returns the largest whole-number factor by which a
// widthPx x heightPx image can be enlarged and still fit into rect.
// The result is at least 1.
func IntegerScale(rect image.Rectangle, widthPx, heightPx int) int {
	rect = Normalize(rect)
	if widthPx <= 0 || heightPx <= 0 {
		return 1
	}
	s := rect.Dx() / widthPx
	if sy := rect.Dy() / heightPx; sy < s {
		s = sy
	}
	if s < 1 {
		s = 1
	}
	return s
}
