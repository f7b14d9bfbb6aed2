package math3d

// Vec4 is a homogeneous 3D coordinate.
type Vec4 struct {
	X, Y, Z, W float64
}

// Point4 lifts a point into homogeneous space (w=1).
func Point4(v Vec3) Vec4 {
	return Vec4{v.X, v.Y, v.Z, 1}
}

// PerspectiveDivide converts back to Cartesian by dividing through W.
// A zero W leaves the components unchanged.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return Vec3{v.X, v.Y, v.Z}
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}
