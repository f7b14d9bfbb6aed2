package render

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/taigrr/rast/pkg/math3d"
)

// testMesh implements Mesh over plain slices.
type testMesh struct {
	positions []math3d.Vec3
	uvs       []math3d.Vec2
	faces     [][3]int
}

func (m *testMesh) FaceCount() int             { return len(m.faces) }
func (m *testMesh) Face(i int) [3]int          { return m.faces[i] }
func (m *testMesh) Position(i int) math3d.Vec3 { return m.positions[i] }
func (m *testMesh) TexCoord(i int) math3d.Vec2 { return m.uvs[i] }
func (m *testMesh) HasTexCoords() bool         { return len(m.uvs) == len(m.positions) }

// singleTriangle returns a mesh holding one triangle.
func singleTriangle(a, b, c math3d.Vec3, withUV bool) *testMesh {
	m := &testMesh{
		positions: []math3d.Vec3{a, b, c},
		faces:     [][3]int{{0, 1, 2}},
	}
	if withUV {
		m.uvs = []math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0.5, Y: 1}}
	}
	return m
}

// overlapMesh returns several overlapping front-facing triangles at
// different depths.
func overlapMesh() *testMesh {
	m := &testMesh{}
	add := func(z float64, dx, dy float64) {
		base := len(m.positions)
		m.positions = append(m.positions,
			math3d.V3(-0.9+dx, -0.9+dy, z),
			math3d.V3(0.7+dx, -0.8+dy, z+0.2),
			math3d.V3(-0.1+dx, 0.8+dy, z-0.1),
		)
		m.faces = append(m.faces, [3]int{base, base + 1, base + 2})
	}
	add(0, 0, 0)
	add(0.3, 0.2, 0.1)
	add(-0.2, -0.1, 0.15)
	add(0.1, 0.15, -0.2)
	add(0.5, -0.3, -0.3)
	return m
}

// solidTexture returns a width×height texture of a single color.
func solidTexture(width, height int, c Color) *Texture {
	tex := NewTexture(width, height)
	for i := range tex.Pixels {
		tex.Pixels[i] = c
	}
	return tex
}

func newTestRasterizer(t testing.TB, opts Options) *Rasterizer {
	t.Helper()
	r, err := NewRasterizer(opts)
	if err != nil {
		t.Fatalf("NewRasterizer: %v", err)
	}
	return r
}

func countColor(fb *Framebuffer, c Color) int {
	n := 0
	for _, p := range fb.Pixels {
		if p == c {
			n++
		}
	}
	return n
}

func TestNewRasterizerValidation(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		_, err := NewRasterizer(Options{Width: size[0], Height: size[1]})
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("%v: err = %v, want ErrInvalidSize", size, err)
		}
	}

	r := newTestRasterizer(t, Options{Width: 4, Height: 3})
	if r.Framebuffer().Width != 4 || r.Depth().Width != 4 || r.Framebuffer().Height != r.Depth().Height {
		t.Error("frame and depth buffers differ in size")
	}
	if r.Options().Workers != 1 || r.Options().Transform != math3d.Identity() {
		t.Errorf("defaults not applied: %+v", r.Options())
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeTextured, ModeRandom, ModeWireframe} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, err := ParseMode("RANDOM"); err != nil || got != ModeRandom {
		t.Errorf("ParseMode is not case-insensitive: %v, %v", got, err)
	}
	if _, err := ParseMode("phong"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if s := Mode(9).String(); s != "Mode(9)" {
		t.Errorf("String = %q", s)
	}
}

func TestRenderEndToEnd(t *testing.T) {
	const size = 10
	bg := RGB(10, 20, 30)
	surface := RGB(200, 100, 50)

	a, b, c := math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 1.5)
	mesh := singleTriangle(a, b, c, true)

	r := newTestRasterizer(t, Options{
		Width:      size,
		Height:     size,
		Mode:       ModeTextured,
		Texture:    solidTexture(4, 4, surface),
		Background: bg,
	})

	stats, err := r.Render(mesh)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if stats.Drawn != 1 || stats.Faces != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	intensity, _ := FaceIntensity(Triangle3D{V: [3]math3d.Vec3{a, b, c}})
	want := ShadeColor(surface, intensity)
	if want != RGB(160, 80, 40) {
		t.Fatalf("expected shaded color (160,80,40), got %v", want)
	}

	screen := Triangle3D{V: [3]math3d.Vec3{a, b, c}}.Project(size, size)
	fb := r.Framebuffer()
	inside := 0
	for y := range size {
		for x := range size {
			// The finished frame is rotated a half turn.
			got := fb.GetPixel(size-1-x, size-1-y)
			if Inside(Barycentric(screen, math3d.Pt(x, y))) {
				inside++
				if got != want {
					t.Errorf("interior pixel (%d,%d) = %v, want %v", x, y, got, want)
				}
			} else if got != bg {
				t.Errorf("exterior pixel (%d,%d) = %v, want background", x, y, got)
			}
		}
	}
	if inside == 0 || stats.Pixels != inside {
		t.Errorf("covered %d pixels, stats report %d", inside, stats.Pixels)
	}

	// (5,3) is inside before the flip and (0,9) is outside.
	if fb.GetPixel(4, 6) != want {
		t.Errorf("known interior pixel = %v", fb.GetPixel(4, 6))
	}
	if fb.GetPixel(9, 0) != bg {
		t.Errorf("known exterior pixel = %v", fb.GetPixel(9, 0))
	}
}

func TestRenderCollinearDrawsNothing(t *testing.T) {
	// Distinct 3D points whose projections share a row.
	mesh := singleTriangle(
		math3d.V3(-1, -0.5, 0),
		math3d.V3(0, -0.5, 0.5),
		math3d.V3(1, -0.5, 0),
		false,
	)
	r := newTestRasterizer(t, Options{Width: 10, Height: 10, Mode: ModeRandom, Background: ColorBlack})

	stats, err := r.Render(mesh)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Degenerate != 1 || stats.Drawn != 0 || stats.Pixels != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if countColor(r.Framebuffer(), ColorBlack) != 100 {
		t.Error("degenerate triangle wrote pixels")
	}
}

func TestRenderBackFaceDrawsNothing(t *testing.T) {
	// Clockwise in screen space: normal points toward +Z, away from the light.
	mesh := singleTriangle(math3d.V3(-1, -1, 0), math3d.V3(0, 1, 0), math3d.V3(1, -1, 0), true)
	r := newTestRasterizer(t, Options{
		Width:   10,
		Height:  10,
		Mode:    ModeTextured,
		Texture: solidTexture(1, 1, ColorWhite),
	})

	stats, err := r.Render(mesh)
	if err != nil {
		t.Fatal(err)
	}
	if stats.BackFacing != 1 || stats.Pixels != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if countColor(r.Framebuffer(), ColorBlack) != 100 {
		t.Error("back-facing triangle wrote pixels")
	}
}

func TestRenderTransformFlipsFacing(t *testing.T) {
	mesh := singleTriangle(math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0), false)
	r := newTestRasterizer(t, Options{Width: 8, Height: 8, Mode: ModeRandom})

	stats, _ := r.Render(mesh)
	if stats.Drawn != 1 {
		t.Fatalf("front face not drawn: %+v", stats)
	}

	r.SetTransform(math3d.RotateY(math.Pi))
	stats, _ = r.Render(mesh)
	if stats.BackFacing != 1 {
		t.Errorf("half turn about Y should face away: %+v", stats)
	}
}

func TestRenderMissingTexCoords(t *testing.T) {
	mesh := singleTriangle(math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0), false)
	r := newTestRasterizer(t, Options{
		Width:      10,
		Height:     10,
		Mode:       ModeTextured,
		Texture:    solidTexture(1, 1, ColorWhite),
		Background: ColorRed,
	})

	_, err := r.Render(mesh)
	if !errors.Is(err, ErrMissingTexCoords) {
		t.Fatalf("err = %v, want ErrMissingTexCoords", err)
	}
	if countColor(r.Framebuffer(), ColorRed) != 0 {
		t.Error("buffers touched before configuration check")
	}

	// Untextured modes do not need UVs.
	r = newTestRasterizer(t, Options{Width: 10, Height: 10, Mode: ModeRandom})
	if _, err := r.Render(mesh); err != nil {
		t.Errorf("random mode: %v", err)
	}
}

func TestRenderMissingTexture(t *testing.T) {
	mesh := singleTriangle(math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0), true)
	r := newTestRasterizer(t, Options{Width: 10, Height: 10, Mode: ModeTextured})

	if _, err := r.Render(mesh); !errors.Is(err, ErrMissingTexture) {
		t.Errorf("err = %v, want ErrMissingTexture", err)
	}
}

func TestDepthNonDecreasing(t *testing.T) {
	r := newTestRasterizer(t, Options{Width: 16, Height: 16, Mode: ModeRandom})
	r.Clear()

	mesh := overlapMesh()
	prev := append([]float64(nil), r.Depth().Values...)
	for i := range mesh.FaceCount() {
		f := mesh.Face(i)
		tri := Triangle3D{V: [3]math3d.Vec3{mesh.Position(f[0]), mesh.Position(f[1]), mesh.Position(f[2])}}
		r.DrawTriangle(tri, TriangleTexture{}, RGB(uint8(40*i), 0, 0))

		for p, v := range r.Depth().Values {
			if v < prev[p] {
				t.Fatalf("face %d lowered depth at %d: %v -> %v", i, p, prev[p], v)
			}
		}
		copy(prev, r.Depth().Values)
	}
}

func TestNearerTriangleWins(t *testing.T) {
	flat := func(z float64) Triangle3D {
		return Triangle3D{V: [3]math3d.Vec3{{X: -1, Y: -1, Z: z}, {X: 1, Y: -1, Z: z}, {X: 0, Y: 1, Z: z}}}
	}
	r := newTestRasterizer(t, Options{Width: 10, Height: 10, Mode: ModeRandom})
	r.Clear()

	res, n := r.DrawTriangle(flat(0.5), TriangleTexture{}, ColorGreen)
	if res != FaceDrawn || n == 0 {
		t.Fatalf("near triangle: %v, %d pixels", res, n)
	}
	if _, n := r.DrawTriangle(flat(0), TriangleTexture{}, ColorRed); n != 0 {
		t.Errorf("farther triangle overwrote %d pixels", n)
	}
	if _, n := r.DrawTriangle(flat(0.5), TriangleTexture{}, ColorBlue); n != 0 {
		t.Errorf("equal-depth triangle overwrote %d pixels", n)
	}
	if countColor(r.Framebuffer(), ColorRed) != 0 || countColor(r.Framebuffer(), ColorBlue) != 0 {
		t.Error("hidden triangle visible")
	}
}

func TestRenderParallelMatchesSerial(t *testing.T) {
	mesh := overlapMesh()
	render := func(workers int) (*Framebuffer, Stats) {
		r := newTestRasterizer(t, Options{Width: 41, Height: 37, Mode: ModeRandom, Seed: 3, Workers: workers})
		stats, err := r.Render(mesh)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		return r.Framebuffer(), stats
	}

	serial, serialStats := render(1)
	for _, workers := range []int{2, 3, 8, 64} {
		fb, stats := render(workers)
		if stats != serialStats {
			t.Errorf("workers=%d stats %+v, want %+v", workers, stats, serialStats)
		}
		for i := range fb.Pixels {
			if fb.Pixels[i] != serial.Pixels[i] {
				t.Fatalf("workers=%d differs at pixel %d", workers, i)
			}
		}
	}
}

func TestRenderRandomModeDeterministic(t *testing.T) {
	mesh := overlapMesh()
	a := newTestRasterizer(t, Options{Width: 20, Height: 20, Mode: ModeRandom, Seed: 9})
	b := newTestRasterizer(t, Options{Width: 20, Height: 20, Mode: ModeRandom, Seed: 9})
	a.Render(mesh)
	b.Render(mesh)
	for i := range a.Framebuffer().Pixels {
		if a.Framebuffer().Pixels[i] != b.Framebuffer().Pixels[i] {
			t.Fatal("equal seeds rendered different images")
		}
	}
}

func TestRenderWireframe(t *testing.T) {
	// Back-facing triangles are still outlined.
	mesh := singleTriangle(math3d.V3(-1, -1, 0), math3d.V3(0, 1, 0), math3d.V3(1, -1, 0), false)
	r := newTestRasterizer(t, Options{Width: 12, Height: 12, Mode: ModeWireframe, WireColor: ColorGreen})

	stats, err := r.Render(mesh)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Drawn != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if countColor(r.Framebuffer(), ColorGreen) < 12 {
		t.Errorf("outline too short: %d pixels", countColor(r.Framebuffer(), ColorGreen))
	}
}

func TestRenderMarkers(t *testing.T) {
	r := newTestRasterizer(t, Options{Width: 10, Height: 10, Mode: ModeRandom, Markers: true})
	if _, err := r.Render(&testMesh{}); err != nil {
		t.Fatal(err)
	}

	fb := r.Framebuffer()
	if fb.GetPixel(8, 8) != ColorGreen || fb.GetPixel(0, 8) != ColorRed || fb.GetPixel(0, 0) != ColorBlue {
		t.Error("markers missing or not rotated with the frame")
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRasterizer(t, Options{Width: 10, Height: 10, Mode: ModeRandom})
	if _, err := r.RenderContext(ctx, overlapMesh()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func BenchmarkRenderSerial(b *testing.B) {
	mesh := overlapMesh()
	r := newTestRasterizer(b, Options{Width: 256, Height: 256, Mode: ModeRandom})

	for b.Loop() {
		r.Render(mesh)
	}
}

func BenchmarkRenderParallel(b *testing.B) {
	mesh := overlapMesh()
	r := newTestRasterizer(b, Options{Width: 256, Height: 256, Mode: ModeRandom, Workers: 4})

	for b.Loop() {
		r.Render(mesh)
	}
}

func BenchmarkBarycentric(b *testing.B) {
	tri := tri2(3, 7, 120, 15, 60, 110)
	p := math3d.Pt(50, 40)

	for b.Loop() {
		_ = Barycentric(tri, p)
	}
}
