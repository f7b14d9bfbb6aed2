package render

import "github.com/taigrr/rast/pkg/math3d"

// BoundingBox is an inclusive pixel rectangle. A box with Min > Max on
// either axis is empty.
type BoundingBox struct {
	Min, Max math3d.Point
}

// NewBoundingBox returns the smallest box containing every point. With no
// points the box is empty.
func NewBoundingBox(points ...math3d.Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{Min: math3d.Pt(0, 0), Max: math3d.Pt(-1, -1)}
	}
	b := BoundingBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	return b
}

// Bounds returns the bounding box of the triangle's screen points.
func (t Triangle2D) Bounds() BoundingBox {
	return NewBoundingBox(t.P[0], t.P[1], t.P[2])
}

// Empty reports whether the box contains no pixels.
func (b BoundingBox) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y
}

// Clip intersects the box with [0,width-1] × [0,height-1].
func (b BoundingBox) Clip(width, height int) BoundingBox {
	b.Min.X = max(b.Min.X, 0)
	b.Min.Y = max(b.Min.Y, 0)
	b.Max.X = min(b.Max.X, width-1)
	b.Max.Y = min(b.Max.Y, height-1)
	return b
}

// ClipRows restricts the box to rows [y0, y1).
func (b BoundingBox) ClipRows(y0, y1 int) BoundingBox {
	b.Min.Y = max(b.Min.Y, y0)
	b.Max.Y = min(b.Max.Y, y1-1)
	return b
}
