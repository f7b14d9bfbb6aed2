// Package models loads triangulated meshes and exposes them through a
// validated, index-safe accessor.
package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/rast/pkg/math3d"
)

// ErrInvalidMesh is returned when the flattened mesh arrays are malformed.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is a triangle mesh in flattened form. Positions holds three floats
// per vertex, TexCoords two floats per vertex (or is empty), and Indices
// three vertex indices per face.
//
// A Mesh returned by NewMesh or a loader has been validated: every index is
// in range and the accessors never panic for i < FaceCount / VertexCount.
type Mesh struct {
	Name      string
	Positions []float64
	TexCoords []float64
	Indices   []int

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh validates the flattened arrays and wraps them in a Mesh.
// texcoords may be nil for an untextured mesh.
func NewMesh(name string, positions, texcoords []float64, indices []int) (*Mesh, error) {
	m := &Mesh{
		Name:      name,
		Positions: positions,
		TexCoords: texcoords,
		Indices:   indices,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.CalculateBounds()
	return m, nil
}

// Validate checks array arity and index ranges.
func (m *Mesh) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats is not a multiple of 3", ErrInvalidMesh, len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	if len(m.TexCoords) > 0 {
		if len(m.TexCoords)%2 != 0 {
			return fmt.Errorf("%w: %d texcoord floats is not a multiple of 2", ErrInvalidMesh, len(m.TexCoords))
		}
		if len(m.TexCoords)/2 != len(m.Positions)/3 {
			return fmt.Errorf("%w: %d texcoords for %d vertices", ErrInvalidMesh, len(m.TexCoords)/2, len(m.Positions)/3)
		}
	}
	n := m.VertexCount()
	for i, idx := range m.Indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: index %d at face %d out of range [0,%d)", ErrInvalidMesh, idx, i/3, n)
		}
	}
	return nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 3
}

// HasTexCoords reports whether every vertex carries a texture coordinate.
func (m *Mesh) HasTexCoords() bool {
	return len(m.TexCoords) > 0
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) math3d.Vec3 {
	p := m.Positions[3*i : 3*i+3]
	return math3d.V3(p[0], p[1], p[2])
}

// TexCoord returns the texture coordinate of vertex i.
func (m *Mesh) TexCoord(i int) math3d.Vec2 {
	t := m.TexCoords[2*i : 2*i+2]
	return math3d.V2(t[0], t[1])
}

// Face returns the three vertex indices of face i.
func (m *Mesh) Face(i int) [3]int {
	f := m.Indices[3*i : 3*i+3]
	return [3]int{f[0], f[1], f[2]}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if m.VertexCount() == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}

	m.BoundsMin = m.Position(0)
	m.BoundsMax = m.BoundsMin
	for i := 1; i < m.VertexCount(); i++ {
		p := m.Position(i)
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// Transform applies mat to every position in place and refreshes the bounds.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.VertexCount() {
		p := mat.MulVec3(m.Position(i))
		m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2] = p.X, p.Y, p.Z
	}
	m.CalculateBounds()
}

// FitTransform returns the matrix that centers the mesh on the origin and
// scales its largest extent to span [-margin, margin].
func (m *Mesh) FitTransform(margin float64) math3d.Mat4 {
	maxDim := m.Size().MaxComponent()
	if maxDim <= 0 || math.IsInf(maxDim, 0) || math.IsNaN(maxDim) {
		return math3d.Translate(m.Center().Scale(-1))
	}
	s := 2 * margin / maxDim
	return math3d.ScaleUniform(s).Mul(math3d.Translate(m.Center().Scale(-1)))
}

// Fit centers the mesh and scales it into normalized device coordinates.
func (m *Mesh) Fit(margin float64) {
	m.Transform(m.FitTransform(margin))
}
