package render

import (
	"image"
	"image/color"
	"io"

	uv "github.com/charmbracelet/ultraviolet"
	"golang.org/x/image/draw"
)

// CellSetter receives terminal cells. uv.Screen implementations and
// *uv.Buffer satisfy it.
type CellSetter interface {
	SetCell(x, y int, c *uv.Cell)
}

// Draw converts the framebuffer to half-block cells inside area. Each
// terminal row shows two framebuffer rows: ▀ with the top pixel as
// foreground and the bottom pixel as background.
func (fb *Framebuffer) Draw(scr CellSetter, area image.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(col, topY)),
					Bg: rgbaToColor(fb.GetPixel(col, botY)),
				},
			})
		}
	}
}

// rgbaToColor maps transparent (out-of-bounds) pixels to no color.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// PreviewSize returns the framebuffer size that fills at most cols × rows
// terminal cells while keeping the aspect ratio. Terminal cells are about
// twice as tall as wide, which the half-block encoding cancels out.
func PreviewSize(fbWidth, fbHeight, cols, rows int) (int, int) {
	if fbWidth <= 0 || fbHeight <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	w := cols
	h := fbHeight * w / fbWidth
	if h > rows*2 {
		h = rows * 2
		w = max(fbWidth*h/fbHeight, 1)
	}
	return w, max(h, 1)
}

// WritePreview downscales fb to fit cols × rows cells and writes it to w as
// 24-bit ANSI half blocks.
func WritePreview(w io.Writer, fb *Framebuffer, cols, rows int) error {
	pw, ph := PreviewSize(fb.Width, fb.Height, cols, rows)
	if pw == 0 {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	src := fb.ToImage()
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	small := NewFramebuffer(pw, ph)
	for y := range ph {
		for x := range pw {
			small.Pixels[x+y*pw] = dst.RGBAAt(x, y)
		}
	}

	termRows := (ph + 1) / 2
	buf := uv.NewBuffer(pw, termRows)
	small.Draw(buf, image.Rect(0, 0, pw, termRows))

	_, err := io.WriteString(w, buf.Render()+"\n")
	return err
}
