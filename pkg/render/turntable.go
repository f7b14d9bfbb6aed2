package render

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/rast/pkg/math3d"
)

// Turntable produces spring-eased Y rotation angles for a multi-frame
// render. The model accelerates from rest and settles near one full turn.
type Turntable struct {
	Frames int
	Tilt   float64 // radians about X, applied after the spin
	spring harmonica.Spring
}

// NewTurntable creates a turntable over frames frames. The spring is
// critically damped so the rotation never overshoots.
func NewTurntable(frames int) *Turntable {
	return &Turntable{
		Frames: frames,
		spring: harmonica.NewSpring(harmonica.FPS(max(frames, 1)), 6.0, 1.0),
	}
}

// Angles returns the rotation in radians for every frame. Frame 0 is 0.
func (t *Turntable) Angles() []float64 {
	angles := make([]float64, t.Frames)
	var pos, vel float64
	for i := range angles {
		angles[i] = pos
		pos, vel = t.spring.Update(pos, vel, 2*math.Pi)
	}
	return angles
}

// RenderTurntable renders one frame per turntable angle, rotating the mesh
// about Y and then tilting it about X on top of the configured transform, and hands each finished
// frame to emit. The framebuffer passed to emit is reused between frames.
func (r *Rasterizer) RenderTurntable(ctx context.Context, mesh Mesh, t *Turntable, emit func(frame int, fb *Framebuffer) error) (Stats, error) {
	base := r.opts.Transform
	defer r.SetTransform(base)

	var total Stats
	for i, angle := range t.Angles() {
		r.SetTransform(math3d.RotateX(t.Tilt).Mul(math3d.RotateY(angle)).Mul(base))
		stats, err := r.RenderContext(ctx, mesh)
		if err != nil {
			return total, fmt.Errorf("frame %d: %w", i, err)
		}
		total.Add(stats)

		if err := emit(i, r.fb); err != nil {
			return total, fmt.Errorf("frame %d: %w", i, err)
		}
		Logger().Debug("turntable frame", "frame", i, "angle", angle, "drawn", stats.Drawn)
	}
	return total, nil
}
