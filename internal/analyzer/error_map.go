package analyzer

import (
	"image"
)

// ErrorMap is the single-channel recompression error of an image.
// It is created once per analysis and never mutated afterwards.
type ErrorMap struct {
	gray *image.Gray
	hist [256]int
}

// NewErrorMap wraps a grayscale grid. The pixels are copied so later changes
// to gray do not leak into the map.
func NewErrorMap(gray *image.Gray) *ErrorMap {
	b := gray.Bounds()
	own := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		copy(own.Pix[y*own.Stride:y*own.Stride+b.Dx()], gray.Pix[off:off+b.Dx()])
	}
	return newErrorMapOwned(own)
}

// newErrorMapOwned takes ownership of gray, which must have a zero origin.
func newErrorMapOwned(gray *image.Gray) *ErrorMap {
	m := &ErrorMap{gray: gray}
	w, h := m.Width(), m.Height()
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for _, v := range row {
			m.hist[v]++
		}
	}
	return m
}

// Width returns the number of columns
func (m *ErrorMap) Width() int { return m.gray.Rect.Dx() }

// Height returns the number of rows
func (m *ErrorMap) Height() int { return m.gray.Rect.Dy() }

// Len returns the total number of pixels
func (m *ErrorMap) Len() int { return m.Width() * m.Height() }

// At returns the error value at (x, y)
func (m *ErrorMap) At(x, y int) uint8 {
	return m.gray.Pix[y*m.gray.Stride+x]
}

// Row returns a read-only view of row y. Callers must not modify it.
func (m *ErrorMap) Row(y int) []uint8 {
	w := m.Width()
	return m.gray.Pix[y*m.gray.Stride : y*m.gray.Stride+w]
}

// Histogram256 returns the count of pixels for every possible value
func (m *ErrorMap) Histogram256() [256]int {
	return m.hist
}

// Min returns the smallest value, or 0 for an empty map
func (m *ErrorMap) Min() uint8 {
	for v := 0; v < 256; v++ {
		if m.hist[v] > 0 {
			return uint8(v)
		}
	}
	return 0
}

// Max returns the largest value, or 0 for an empty map
func (m *ErrorMap) Max() uint8 {
	for v := 255; v >= 0; v-- {
		if m.hist[v] > 0 {
			return uint8(v)
		}
	}
	return 0
}

