package render

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/rast/pkg/math3d"
)

func TestFaceIntensity(t *testing.T) {
	tests := []struct {
		name   string
		tri    Triangle3D
		want   float64
		wantOK bool
	}{
		{
			name:   "facing light",
			tri:    Triangle3D{V: [3]math3d.Vec3{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 0, Y: 1}}},
			want:   1,
			wantOK: true,
		},
		{
			name:   "tilted",
			tri:    Triangle3D{V: [3]math3d.Vec3{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 0, Y: 1, Z: 1.5}}},
			want:   0.8,
			wantOK: true,
		},
		{
			name:   "edge on",
			tri:    Triangle3D{V: [3]math3d.Vec3{{X: -1, Y: -0.5}, {X: 0, Y: -0.5, Z: 0.5}, {X: 1, Y: -0.5}}},
			want:   0,
			wantOK: true,
		},
		{
			name: "facing away",
			tri:  Triangle3D{V: [3]math3d.Vec3{{X: -1, Y: -1}, {X: 0, Y: 1}, {X: 1, Y: -1}}},
		},
		{
			name: "zero normal",
			tri:  Triangle3D{V: [3]math3d.Vec3{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FaceIntensity(tt.tri)
			if ok != tt.wantOK {
				t.Fatalf("FaceIntensity ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FaceIntensity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShadeColor(t *testing.T) {
	tests := []struct {
		name      string
		c         Color
		intensity float64
		want      Color
	}{
		{"full", RGB(200, 100, 50), 1, RGB(200, 100, 50)},
		{"scaled", RGB(200, 100, 50), 0.8, RGB(160, 80, 40)},
		{"rounds half away from zero", RGB(255, 1, 3), 0.5, RGB(128, 1, 2)},
		{"clamps high", RGB(200, 100, 50), 2, RGB(255, 200, 100)},
		{"zero", RGB(200, 100, 50), 0, RGB(0, 0, 0)},
		{"negative clamps low", RGB(200, 100, 50), -1, RGB(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShadeColor(tt.c, tt.intensity); got != tt.want {
				t.Errorf("ShadeColor(%v, %v) = %v, want %v", tt.c, tt.intensity, got, tt.want)
			}
		})
	}
}

// gradientTexture encodes each texel's position in its color.
func gradientTexture(w, h int) *Texture {
	tex := NewTexture(w, h)
	for y := range h {
		for x := range w {
			tex.Pixels[x+y*w] = RGB(uint8(x), uint8(y), 0)
		}
	}
	return tex
}

func TestTextureSample(t *testing.T) {
	tex := gradientTexture(4, 2)

	tests := []struct {
		name string
		uv   math3d.Vec2
		x, y uint8
	}{
		{"origin", math3d.V2(0, 0), 0, 0},
		{"middle", math3d.V2(0.5, 0.5), 2, 1},
		{"truncates", math3d.V2(0.74, 0.49), 2, 0},
		{"far edge clamps", math3d.V2(1, 1), 3, 1},
		{"past range clamps", math3d.V2(7, 3), 3, 1},
		{"negative clamps", math3d.V2(-0.5, -2), 0, 0},
		{"nan clamps", math3d.V2(math.NaN(), 0.5), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tex.Sample(tt.uv)
			if got.R != tt.x || got.G != tt.y {
				t.Errorf("Sample(%v) hit texel (%d,%d), want (%d,%d)", tt.uv, got.R, got.G, tt.x, tt.y)
			}
		})
	}

	if got := NewTexture(0, 0).Sample(math3d.V2(0.5, 0.5)); got != ColorBlack {
		t.Errorf("empty texture Sample = %v", got)
	}
}

func TestTextureFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	for y := range 6 {
		for x := range 6 {
			src.Set(x, y, color.NRGBA{uint8(10 * x), uint8(10 * y), 7, 255})
		}
	}
	sub := src.SubImage(image.Rect(2, 3, 5, 6))

	tex := TextureFromImage(sub)
	if tex.Width != 3 || tex.Height != 3 {
		t.Fatalf("size = %dx%d", tex.Width, tex.Height)
	}
	if got := tex.Pixels[0]; got != RGB(20, 30, 7) {
		t.Errorf("texel (0,0) = %v, want sub-image origin", got)
	}
	if got := tex.Pixels[2+2*3]; got != RGB(40, 50, 7) {
		t.Errorf("texel (2,2) = %v", got)
	}
}

func TestLoadTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.RGBA{9, 8, 7, 255})

	path := filepath.Join(t.TempDir(), "tex.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if got := tex.Sample(math3d.V2(0.75, 0.25)); got != RGB(9, 8, 7) {
		t.Errorf("Sample = %v", got)
	}

	if _, err := LoadTexture(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

// uncompressedTGA returns a width×height 24-bit true-color TGA filled with c.
func uncompressedTGA(width, height int, c Color) []byte {
	hdr := make([]byte, 18)
	hdr[2] = 2 // uncompressed true-color
	binary.LittleEndian.PutUint16(hdr[12:], uint16(width))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(height))
	hdr[16] = 24
	hdr[17] = 0x20 // top-left origin
	for range width * height {
		hdr = append(hdr, c.B, c.G, c.R)
	}
	return hdr
}

func TestLoadTextureFormats(t *testing.T) {
	dir := t.TempDir()
	want := RGB(30, 60, 90)

	pngPath := filepath.Join(dir, "tex.png")
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.SetRGBA(x, y, want)
		}
	}
	var enc bytes.Buffer
	if err := png.Encode(&enc, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pngPath, enc.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	tgaPath := filepath.Join(dir, "tex.TGA")
	if err := os.WriteFile(tgaPath, uncompressedTGA(2, 2, want), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{pngPath, tgaPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tex, err := LoadTexture(path)
			if err != nil {
				t.Fatalf("LoadTexture: %v", err)
			}
			if tex.Width != 2 || tex.Height != 2 {
				t.Fatalf("size = %dx%d", tex.Width, tex.Height)
			}
			for i, p := range tex.Pixels {
				if p != want {
					t.Fatalf("texel %d = %v, want %v", i, p, want)
				}
			}
		})
	}
}

func TestRandomPalette(t *testing.T) {
	a, b := NewRandomPalette(42), NewRandomPalette(42)
	for range 16 {
		ca, cb := a.Next(), b.Next()
		if ca != cb {
			t.Fatalf("same seed diverged: %v vs %v", ca, cb)
		}
		if ca.A != 255 {
			t.Fatalf("palette color not opaque: %v", ca)
		}
	}

	c := NewRandomPalette(7)
	first := c.Next()
	same := true
	for range 8 {
		if c.Next() != first {
			same = false
		}
	}
	if same {
		t.Error("palette produced a constant sequence")
	}
}
