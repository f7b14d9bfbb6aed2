package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/taigrr/rast/pkg/math3d"
)

// Texture is an RGB image sampled with nearest-neighbor lookup. Row 0 is
// the top of the source image.
type Texture struct {
	Width  int
	Height int
	Pixels []Color
}

// NewTexture creates a black texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// LoadTexture decodes an image file. PNG, JPEG, TGA, BMP, TIFF and WebP are
// supported.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, format, err := decodeImage(f, path)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	Logger().Debug("texture decoded", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	return TextureFromImage(img), nil
}

// decodeImage picks the decoder from the extension for TGA, which has no
// magic number, and sniffs every other format.
func decodeImage(r io.Reader, path string) (image.Image, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err := tga.Decode(r)
		return img, "tga", err
	}
	return image.Decode(r)
}

// TextureFromImage converts any image to a Texture. Alpha is discarded.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	tex := NewTexture(b.Dx(), b.Dy())
	for y := range tex.Height {
		row := rgba.Pix[y*rgba.Stride:]
		for x := range tex.Width {
			tex.Pixels[x+y*tex.Width] = RGB(row[4*x], row[4*x+1], row[4*x+2])
		}
	}
	return tex
}

// Sample returns the texel at (int(u*Width), int(v*Height)). Coordinates
// outside the image are clamped to the nearest edge texel.
func (t *Texture) Sample(uv math3d.Vec2) Color {
	if t.Width == 0 || t.Height == 0 {
		return ColorBlack
	}
	x := clampTexel(uv.X*float64(t.Width), t.Width)
	y := clampTexel(uv.Y*float64(t.Height), t.Height)
	return t.Pixels[x+y*t.Width]
}

func clampTexel(f float64, size int) int {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f >= float64(size):
		return size - 1
	}
	return int(f)
}
