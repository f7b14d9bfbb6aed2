package render

import (
	"image/color"
	"math"
)

// Color is an alias for color.RGBA. Alpha is always 255 in rendered output.
type Color = color.RGBA

// Marker and default colors.
var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
)

// RGB creates an opaque color.
func RGB(r, g, b uint8) Color {
	return color.RGBA{r, g, b, 255}
}

// ShadeColor scales each channel of c by intensity, rounding to the nearest
// integer and clamping to [0, 255].
func ShadeColor(c Color, intensity float64) Color {
	return Color{
		R: shadeChannel(c.R, intensity),
		G: shadeChannel(c.G, intensity),
		B: shadeChannel(c.B, intensity),
		A: 255,
	}
}

func shadeChannel(c uint8, intensity float64) uint8 {
	v := math.Round(intensity * float64(c))
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
