package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/rast/pkg/math3d"
)

var (
	// ErrMissingTexCoords is returned when textured rendering is requested
	// for a mesh without texture coordinates.
	ErrMissingTexCoords = errors.New("render: textured mode requires texture coordinates")

	// ErrMissingTexture is returned when textured rendering is requested
	// without a texture.
	ErrMissingTexture = errors.New("render: textured mode requires a texture")

	// ErrInvalidSize is returned for non-positive frame dimensions.
	ErrInvalidSize = errors.New("render: width and height must be positive")
)

// Mode selects how faces are colored.
type Mode int

const (
	ModeTextured  Mode = iota // Nearest-neighbor texture, flat lit
	ModeRandom                // One random color per face, flat lit
	ModeWireframe             // Face edges via the line drawer, no fill
)

var modeNames = map[Mode]string{
	ModeTextured:  "textured",
	ModeRandom:    "random",
	ModeWireframe: "wireframe",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("render: unknown mode %q (want textured, random or wireframe)", s)
}

// Mesh is the indexed triangle data the rasterizer consumes. Implementations
// must have validated their indices; the rasterizer does not re-check them.
type Mesh interface {
	FaceCount() int
	Face(i int) [3]int
	Position(i int) math3d.Vec3
	TexCoord(i int) math3d.Vec2
	HasTexCoords() bool
}

// Options configures a Rasterizer.
type Options struct {
	Width  int
	Height int
	Mode   Mode

	// Texture is sampled in ModeTextured.
	Texture *Texture

	Background Color
	// WireColor is the line color in ModeWireframe.
	WireColor Color
	// Seed drives ModeRandom colors.
	Seed uint64

	// Workers > 1 splits the frame into row bands rasterized concurrently.
	// Output is identical to the serial path.
	Workers int

	// Transform is applied to every vertex before projection. The zero
	// matrix means identity.
	Transform math3d.Mat4

	// Markers plots orientation pixels before the final flip.
	Markers bool
}

// FaceResult classifies what happened to a face.
type FaceResult int

const (
	FaceDrawn FaceResult = iota
	FaceBackFacing
	FaceDegenerate
)

// Stats summarizes one render pass.
type Stats struct {
	Faces      int
	Drawn      int
	BackFacing int
	Degenerate int
	Pixels     int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Faces += o.Faces
	s.Drawn += o.Drawn
	s.BackFacing += o.BackFacing
	s.Degenerate += o.Degenerate
	s.Pixels += o.Pixels
}

func (s *Stats) record(r FaceResult) {
	switch r {
	case FaceDrawn:
		s.Drawn++
	case FaceBackFacing:
		s.BackFacing++
	case FaceDegenerate:
		s.Degenerate++
	}
}

// Rasterizer owns a frame buffer and a depth buffer of the same size and
// renders meshes into them.
type Rasterizer struct {
	opts  Options
	fb    *Framebuffer
	depth *DepthBuffer
}

// NewRasterizer allocates buffers for opts.Width × opts.Height.
func NewRasterizer(opts Options) (*Rasterizer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Transform == (math3d.Mat4{}) {
		opts.Transform = math3d.Identity()
	}
	if opts.WireColor == (Color{}) {
		opts.WireColor = ColorWhite
	}
	opts.Background.A = 255

	return &Rasterizer{
		opts:  opts,
		fb:    NewFramebuffer(opts.Width, opts.Height),
		depth: NewDepthBuffer(opts.Width, opts.Height),
	}, nil
}

// Framebuffer returns the color buffer.
func (r *Rasterizer) Framebuffer() *Framebuffer { return r.fb }

// Depth returns the depth buffer.
func (r *Rasterizer) Depth() *DepthBuffer { return r.depth }

// Options returns the effective options.
func (r *Rasterizer) Options() Options { return r.opts }

// SetTransform replaces the vertex transform used by later passes.
func (r *Rasterizer) SetTransform(m math3d.Mat4) { r.opts.Transform = m }

// Clear resets the frame buffer to the background and the depth buffer
// to -Inf.
func (r *Rasterizer) Clear() {
	r.fb.Clear(r.opts.Background)
	r.depth.Clear()
}

// Check reports whether mesh can be rendered with the configured mode.
func (r *Rasterizer) Check(mesh Mesh) error {
	if r.opts.Mode != ModeTextured {
		return nil
	}
	if mesh.FaceCount() > 0 && !mesh.HasTexCoords() {
		return ErrMissingTexCoords
	}
	if r.opts.Texture == nil {
		return ErrMissingTexture
	}
	return nil
}

// Render runs a full pass: clear, draw every face, optional markers, and
// the final 180° rotation.
func (r *Rasterizer) Render(mesh Mesh) (Stats, error) {
	return r.RenderContext(context.Background(), mesh)
}

// RenderContext is Render with cancellation. On cancellation the buffers
// hold a partial frame and ctx.Err() is returned.
func (r *Rasterizer) RenderContext(ctx context.Context, mesh Mesh) (Stats, error) {
	if err := r.Check(mesh); err != nil {
		return Stats{}, err
	}

	r.Clear()
	stats := Stats{Faces: mesh.FaceCount()}

	var err error
	switch {
	case r.opts.Mode == ModeWireframe:
		err = r.drawWireframe(ctx, mesh, &stats)
	case r.opts.Workers <= 1:
		err = r.drawSerial(ctx, mesh, &stats)
	default:
		var jobs []faceJob
		jobs, err = r.prepare(ctx, mesh, &stats)
		if err == nil {
			stats.Pixels, err = r.fill(ctx, jobs)
		}
	}
	if err != nil {
		return stats, err
	}

	if r.opts.Markers {
		r.fb.DrawMarkers()
	}
	r.fb.Rotate180()

	Logger().Debug("render pass complete",
		"mode", r.opts.Mode,
		"faces", stats.Faces,
		"drawn", stats.Drawn,
		"backfacing", stats.BackFacing,
		"degenerate", stats.Degenerate,
		"pixels", stats.Pixels,
	)
	return stats, nil
}

// faceJob is a face that passed shading and projection, ready to fill.
type faceJob struct {
	tri       Triangle3D
	screen    Triangle2D
	uv        TriangleTexture
	box       BoundingBox
	intensity float64
	flat      Color
	textured  bool
}

// gather builds the transformed triangle and its UVs for face i.
func (r *Rasterizer) gather(mesh Mesh, i int) (Triangle3D, TriangleTexture) {
	var tri Triangle3D
	var uv TriangleTexture
	f := mesh.Face(i)
	textured := r.opts.Mode == ModeTextured
	for k, idx := range f {
		tri.V[k] = r.opts.Transform.MulVec3(mesh.Position(idx))
		if textured {
			uv.UV[k] = mesh.TexCoord(idx)
		}
	}
	return tri, uv
}

// newPalette returns the face color source for ModeRandom, or nil.
func (r *Rasterizer) newPalette() *RandomPalette {
	if r.opts.Mode != ModeRandom {
		return nil
	}
	return NewRandomPalette(r.opts.Seed)
}

// drawSerial shades and fills each face as soon as it is gathered.
func (r *Rasterizer) drawSerial(ctx context.Context, mesh Mesh, stats *Stats) error {
	palette := r.newPalette()
	for i := range mesh.FaceCount() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		tri, uv := r.gather(mesh, i)
		var flat Color
		if palette != nil {
			flat = palette.Next()
		}

		res, n := r.DrawTriangle(tri, uv, flat)
		stats.record(res)
		stats.Pixels += n
	}
	return nil
}

// prepare shades and projects every face in order. Faces that cannot
// produce pixels are counted and dropped.
func (r *Rasterizer) prepare(ctx context.Context, mesh Mesh, stats *Stats) ([]faceJob, error) {
	palette := r.newPalette()
	jobs := make([]faceJob, 0, mesh.FaceCount())
	for i := range mesh.FaceCount() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tri, uv := r.gather(mesh, i)
		var flat Color
		if palette != nil {
			// Drawn for every face so colors stay tied to face order.
			flat = palette.Next()
		}

		job, res := r.setup(tri, uv, flat)
		stats.record(res)
		if res == FaceDrawn {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// setup runs the flat shader and projection for one triangle.
func (r *Rasterizer) setup(tri Triangle3D, uv TriangleTexture, flat Color) (faceJob, FaceResult) {
	intensity, ok := FaceIntensity(tri)
	if !ok {
		return faceJob{}, FaceBackFacing
	}

	screen := tri.Project(r.opts.Width, r.opts.Height)
	if screen.Degenerate() {
		return faceJob{}, FaceDegenerate
	}

	return faceJob{
		tri:       tri,
		screen:    screen,
		uv:        uv,
		box:       screen.Bounds().Clip(r.opts.Width, r.opts.Height),
		intensity: intensity,
		flat:      flat,
		textured:  r.opts.Mode == ModeTextured,
	}, FaceDrawn
}

// DrawTriangle shades and fills a single triangle into the buffers without
// clearing or rotating. In ModeTextured the configured texture is sampled;
// otherwise base is used as the surface color. It returns the outcome and
// the number of pixels written.
func (r *Rasterizer) DrawTriangle(tri Triangle3D, uv TriangleTexture, base Color) (FaceResult, int) {
	textured := r.opts.Mode == ModeTextured && r.opts.Texture != nil
	job, res := r.setup(tri, uv, base)
	if res != FaceDrawn {
		return res, 0
	}
	job.textured = textured
	return res, r.fillRows(&job, 0, r.opts.Height)
}

// fill rasterizes every job. Each band of rows is owned by one goroutine
// and visits the faces in submission order, so depth ties resolve as in
// drawSerial.
func (r *Rasterizer) fill(ctx context.Context, jobs []faceJob) (int, error) {
	h := r.opts.Height
	bands := min(r.opts.Workers*2, h)
	if len(jobs) == 0 {
		bands = 1
	}

	counts := make([]int, bands)
	rowsPer := (h + bands - 1) / bands

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for b := range bands {
		y0 := b * rowsPer
		y1 := min(y0+rowsPer, h)
		g.Go(func() error {
			for i := range jobs {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				counts[b] += r.fillRows(&jobs[i], y0, y1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	Logger().Debug("fill complete", "faces", len(jobs), "bands", bands, "workers", r.opts.Workers)

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}

// fillRows writes the pixels of job that fall in rows [y0, y1) and returns
// how many passed the depth test.
func (r *Rasterizer) fillRows(job *faceJob, y0, y1 int) int {
	box := job.box.ClipRows(y0, y1)
	if box.Empty() {
		return 0
	}

	written := 0
	for y := box.Min.Y; y <= box.Max.Y; y++ {
		for x := box.Min.X; x <= box.Max.X; x++ {
			w := Barycentric(job.screen, math3d.Pt(x, y))
			if !Inside(w) {
				continue
			}
			if !r.depth.TestAndSet(x, y, job.tri.Depth(w)) {
				continue
			}

			base := job.flat
			if job.textured {
				base = r.opts.Texture.Sample(job.uv.Interpolate(w))
			}
			r.fb.SetPixel(x, y, ShadeColor(base, job.intensity))
			written++
		}
	}
	return written
}
