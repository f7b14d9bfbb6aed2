package math3d

// Vec2 is a 2D float vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Scale returns a * s.
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Point is an integer pixel coordinate.
type Point struct {
	X, Y int
}

// Pt creates a new Point.
func Pt(x, y int) Point {
	return Point{x, y}
}

// Transpose swaps X and Y.
func (p Point) Transpose() Point {
	return Point{p.Y, p.X}
}
