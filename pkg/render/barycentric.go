package render

import (
	"math"

	"github.com/taigrr/rast/pkg/math3d"
)

// degenerateWeights is returned for zero-area triangles. Its negative
// component classifies every point as outside.
var degenerateWeights = math3d.V3(-1, 1, 1)

// Barycentric returns the weights of p relative to t's vertices
// (P[0], P[1], P[2]). The weights sum to 1 by construction; p is inside iff
// all three are non-negative.
//
// For a degenerate (collinear) triangle the weights are (-1, 1, 1).
func Barycentric(t Triangle2D, p math3d.Point) math3d.Vec3 {
	a, b, c := t.P[0], t.P[1], t.P[2]
	u := math3d.V3(float64(c.X-a.X), float64(b.X-a.X), float64(a.X-p.X)).Cross(
		math3d.V3(float64(c.Y-a.Y), float64(b.Y-a.Y), float64(a.Y-p.Y)))
	if math.Abs(u.Z) < 1 {
		return degenerateWeights
	}
	return math3d.V3(1-(u.X+u.Y)/u.Z, u.Y/u.Z, u.X/u.Z)
}

// Degenerate reports whether the triangle has zero area in screen space.
// Integer vertices give a cross product z of exactly zero in that case.
func (t Triangle2D) Degenerate() bool {
	a, b, c := t.P[0], t.P[1], t.P[2]
	z := (c.X-a.X)*(b.Y-a.Y) - (b.X-a.X)*(c.Y-a.Y)
	return z == 0
}

// Inside reports whether barycentric weights describe a covered point.
func Inside(w math3d.Vec3) bool {
	return w.X >= 0 && w.Y >= 0 && w.Z >= 0
}
