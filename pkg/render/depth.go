package render

import "math"

// DepthBuffer stores the depth of the nearest surface drawn at each pixel.
// Larger values are nearer the viewer (+Z points out of the screen).
// Unwritten pixels hold -Inf so any finite depth wins.
type DepthBuffer struct {
	Width  int
	Height int
	Values []float64
}

// NewDepthBuffer creates a cleared depth buffer.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
	d.Clear()
	return d
}

// Clear resets every pixel to -Inf.
func (d *DepthBuffer) Clear() {
	n := len(d.Values)
	if n == 0 {
		return
	}
	d.Values[0] = math.Inf(-1)
	for i := 1; i < n; i *= 2 {
		copy(d.Values[i:], d.Values[:i])
	}
}

// At returns the stored depth at (x, y), or -Inf out of bounds.
func (d *DepthBuffer) At(x, y int) float64 {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return math.Inf(-1)
	}
	return d.Values[x+y*d.Width]
}

// TestAndSet stores z at (x, y) and returns true only if z is strictly
// greater than the stored value. Out-of-bounds pixels always fail.
func (d *DepthBuffer) TestAndSet(x, y int, z float64) bool {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return false
	}
	i := x + y*d.Width
	if !(z > d.Values[i]) {
		return false
	}
	d.Values[i] = z
	return true
}
