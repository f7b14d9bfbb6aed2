package render

import (
	"image/color"
	"math"

	"github.com/taigrr/rast/pkg/math3d"
)

// DrawLine rasterizes the segment from (x0, y0) toward (x1, y1) with an
// incremental error accumulator. One pixel is written per unit step along
// the longer axis and the far endpoint (after left-to-right ordering) is
// not drawn. A zero-length segment draws the single point (x0, y0).
// Pixels outside the framebuffer are dropped.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	p0, p1 := math3d.Pt(x0, y0), math3d.Pt(x1, y1)

	// Steep lines are walked along Y by drawing them transposed.
	steep := absInt(p1.Y-p0.Y) > absInt(p1.X-p0.X)
	if steep {
		p0, p1 = p0.Transpose(), p1.Transpose()
	}
	if p0.X > p1.X {
		p0, p1 = p1, p0
	}

	dx := p1.X - p0.X
	if dx == 0 {
		fb.plot(p0, steep, c)
		return
	}

	slope := math.Abs(float64(p1.Y-p0.Y) / float64(dx))
	ystep := 1
	if p1.Y < p0.Y {
		ystep = -1
	}

	var acc float64
	p := p0
	for ; p.X < p1.X; p.X++ {
		fb.plot(p, steep, c)
		acc += slope
		if acc >= 0.5 {
			p.Y += ystep
			acc--
		}
	}
}

func (fb *Framebuffer) plot(p math3d.Point, transposed bool, c color.RGBA) {
	if transposed {
		p = p.Transpose()
	}
	fb.SetPixel(p.X, p.Y, c)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
