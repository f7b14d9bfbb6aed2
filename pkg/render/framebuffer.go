// Package render implements a software triangle rasterizer: screen
// projection, barycentric fill, depth buffering, nearest-neighbor texture
// sampling, flat shading and an incremental line drawer.
package render

import (
	"image"
	"image/color"
)

// Framebuffer is a width × height grid of RGB pixels stored row-major,
// indexed x + y*Width.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA
}

// NewFramebuffer creates a framebuffer filled with opaque black.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
	fb.Clear(ColorBlack)
	return fb
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// InBounds reports whether (x, y) addresses a pixel.
func (fb *Framebuffer) InBounds(x, y int) bool {
	return x >= 0 && x < fb.Width && y >= 0 && y < fb.Height
}

// SetPixel sets the pixel at (x, y). Out-of-bounds writes are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if !fb.InBounds(x, y) {
		return
	}
	fb.Pixels[x+y*fb.Width] = c
}

// GetPixel returns the pixel at (x, y), or transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if !fb.InBounds(x, y) {
		return color.RGBA{}
	}
	return fb.Pixels[x+y*fb.Width]
}

// Rotate180 reverses both axes in place. Reversing the row-major slice is
// exactly a half turn.
func (fb *Framebuffer) Rotate180() {
	p := fb.Pixels
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// DrawMarkers plots single-pixel orientation markers: green near the
// origin, red at the far end of row 1 and blue at the far corner.
func (fb *Framebuffer) DrawMarkers() {
	fb.SetPixel(1, 1, ColorGreen)
	fb.SetPixel(fb.Width-1, 1, ColorRed)
	fb.SetPixel(fb.Width-1, fb.Height-1, ColorBlue)
}

// ToImage copies the framebuffer into an image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		copy(img.Pix[y*img.Stride:], rgbaBytes(fb.Pixels[y*fb.Width:(y+1)*fb.Width]))
	}
	return img
}

func rgbaBytes(row []color.RGBA) []byte {
	b := make([]byte, 0, len(row)*4)
	for _, c := range row {
		b = append(b, c.R, c.G, c.B, c.A)
	}
	return b
}
