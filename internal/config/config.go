package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/rast/pkg/render"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Default render settings.
const (
	DefaultWidth      = 800
	DefaultHeight     = 800
	DefaultMode       = "textured"
	DefaultWorkers    = 1
	DefaultBackground = "0,0,0"
)

// Config holds input paths and render settings.
type Config struct {
	// Paths
	Input   string `json:"input"`
	Output  string `json:"output"`
	Texture string `json:"texture"`

	// Render settings
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Mode       string `json:"mode"`
	Workers    int    `json:"workers"`
	Seed       uint64 `json:"seed"`
	Background string `json:"background"`
	Fit        bool   `json:"fit"`
	Markers    bool   `json:"markers"`

	// Turntable
	Frames int     `json:"frames"`
	Tilt   float64 `json:"tilt"` // degrees about X

	// Output
	Preview bool `json:"preview"`
	Verbose bool `json:"verbose"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Input      string
	Output     string
	Texture    string
	Width      int
	Height     int
	Mode       string
	Workers    int
	Seed       uint64
	Background string
	Fit        bool
	Markers    bool
	Frames     int
	Tilt       float64
	Preview    bool
	Verbose    bool
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies CLI flags over the file settings and fills defaults.
// Flags take priority when non-zero/non-empty; boolean flags can only
// switch a setting on.
func (c *Config) Resolve(flags Flags) {
	if flags.Input != "" {
		c.Input = flags.Input
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Texture != "" {
		c.Texture = flags.Texture
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Seed != 0 {
		c.Seed = flags.Seed
	}
	if flags.Background != "" {
		c.Background = flags.Background
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Tilt != 0 {
		c.Tilt = flags.Tilt
	}
	c.Fit = c.Fit || flags.Fit
	c.Markers = c.Markers || flags.Markers
	c.Preview = c.Preview || flags.Preview
	c.Verbose = c.Verbose || flags.Verbose

	// Defaults
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Background == "" {
		c.Background = DefaultBackground
	}
}

// Validate checks a resolved config. Textured mode needs a texture file
// unless the input is a glTF model, which may embed one.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: no input model", ErrInvalidConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: no output path", ErrInvalidConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Frames < 0 {
		return fmt.Errorf("%w: frames %d", ErrInvalidConfig, c.Frames)
	}
	if c.Tilt < -90 || c.Tilt > 90 {
		return fmt.Errorf("%w: tilt %v outside [-90, 90]", ErrInvalidConfig, c.Tilt)
	}
	mode, err := render.ParseMode(c.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if mode == render.ModeTextured && c.Texture == "" && !embedsTexture(c.Input) {
		return fmt.Errorf("%w: textured mode needs --texture for %s", ErrInvalidConfig, c.Input)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// RenderMode returns the parsed shading mode.
func (c Config) RenderMode() render.Mode {
	mode, _ := render.ParseMode(c.Mode)
	return mode
}

// BackgroundColor returns the parsed background color.
func (c Config) BackgroundColor() color.RGBA {
	bg, _ := ParseColor(c.Background)
	return bg
}

// ParseColor parses an "R,G,B" string with components in 0-255.
func ParseColor(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("config: color %q: want R,G,B", s)
	}

	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("config: color %q: %w", s, err)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{rgb[0], rgb[1], rgb[2], 255}, nil
}

func embedsTexture(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".glb") || strings.HasSuffix(lower, ".gltf")
}
