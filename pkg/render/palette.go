package render

import (
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

// RandomPalette yields a reproducible sequence of saturated colors for
// flat random-color rendering.
type RandomPalette struct {
	rng *rand.Rand
}

// NewRandomPalette creates a palette. Equal seeds yield equal sequences.
func NewRandomPalette(seed uint64) *RandomPalette {
	return &RandomPalette{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns the next color in the sequence.
func (p *RandomPalette) Next() Color {
	h := p.rng.Float64() * 360
	s := 0.5 + 0.5*p.rng.Float64()
	v := 0.6 + 0.4*p.rng.Float64()
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return RGB(r, g, b)
}
