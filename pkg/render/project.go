package render

import (
	"math"

	"github.com/taigrr/rast/pkg/math3d"
)

// ToScreen maps a vertex in normalized device coordinates to a pixel:
//
//	x = floor((v.X+1) * width/2)
//	y = floor((v.Y+1) * height/2)
//
// Both axes are clamped into [0, dim-1], so (1, 1) lands on the last
// pixel rather than one past it. Z is ignored.
func ToScreen(v math3d.Vec3, width, height int) math3d.Point {
	return math3d.Point{
		X: toPixel(v.X, width),
		Y: toPixel(v.Y, height),
	}
}

func toPixel(c float64, dim int) int {
	f := math.Floor((c + 1) * float64(dim) / 2)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > float64(dim-1):
		return max(dim-1, 0)
	}
	return int(f)
}
