package render

import "github.com/taigrr/rast/pkg/math3d"

// Triangle3D holds three vertices in normalized device coordinates,
// roughly [-1, 1] per axis.
type Triangle3D struct {
	V [3]math3d.Vec3
}

// Triangle2D holds three integer screen points.
type Triangle2D struct {
	P [3]math3d.Point
}

// TriangleTexture holds the UV of each vertex, parallel to Triangle3D.V.
type TriangleTexture struct {
	UV [3]math3d.Vec2
}

// Project maps every vertex to screen space for a width × height target.
func (t Triangle3D) Project(width, height int) Triangle2D {
	return Triangle2D{P: [3]math3d.Point{
		ToScreen(t.V[0], width, height),
		ToScreen(t.V[1], width, height),
		ToScreen(t.V[2], width, height),
	}}
}

// Depth interpolates the pre-projection z at barycentric weights w.
func (t Triangle3D) Depth(w math3d.Vec3) float64 {
	return w.X*t.V[0].Z + w.Y*t.V[1].Z + w.Z*t.V[2].Z
}

// Interpolate returns the UV at barycentric weights w.
func (t TriangleTexture) Interpolate(w math3d.Vec3) math3d.Vec2 {
	return t.UV[0].Scale(w.X).Add(t.UV[1].Scale(w.Y)).Add(t.UV[2].Scale(w.Z))
}
