package render

import "github.com/taigrr/rast/pkg/math3d"

// LightDirection is the fixed directional light, pointing into the screen.
var LightDirection = math3d.V3(0, 0, -1)

// FaceNormal returns normalize(cross(v3-v1, v2-v1)). A zero-area triangle
// yields the zero vector.
func (t Triangle3D) FaceNormal() math3d.Vec3 {
	return t.V[2].Sub(t.V[0]).Cross(t.V[1].Sub(t.V[0])).Normalize()
}

// FaceIntensity returns the flat light intensity of t and whether the face
// should be drawn. Faces turned away from the light (negative intensity)
// and faces without a normal are rejected.
func FaceIntensity(t Triangle3D) (float64, bool) {
	n := t.FaceNormal()
	if n.IsZero() {
		return 0, false
	}
	intensity := n.Dot(LightDirection)
	if intensity < 0 {
		return 0, false
	}
	return intensity, true
}
