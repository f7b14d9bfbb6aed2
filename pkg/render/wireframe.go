package render

import (
	"context"
	"image/color"
)

// DrawTriangleOutline draws the three edges of t with the line drawer.
func (fb *Framebuffer) DrawTriangleOutline(t Triangle2D, c color.RGBA) {
	for k := range 3 {
		a, b := t.P[k], t.P[(k+1)%3]
		fb.DrawLine(a.X, a.Y, b.X, b.Y, c)
	}
}

// drawWireframe projects every face and outlines it. Faces are neither
// culled nor depth tested.
func (r *Rasterizer) drawWireframe(ctx context.Context, mesh Mesh, stats *Stats) error {
	for i := range mesh.FaceCount() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		tri, _ := r.gather(mesh, i)
		r.fb.DrawTriangleOutline(tri.Project(r.opts.Width, r.opts.Height), r.opts.WireColor)
		stats.Drawn++
	}
	return nil
}
