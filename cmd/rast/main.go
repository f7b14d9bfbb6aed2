// rast - software rasterizer for OBJ and glTF models.
//
// Renders a mesh to an image file using flat lighting, a depth buffer and
// nearest-neighbor texturing.
//
//	rast render head.obj --texture head.tga -o head.png
//	rast render duck.glb --fit --frames 36 -o spin/duck.webp
//	rast render head.obj --mode wireframe --preview -o wire.ppm
package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/taigrr/rast/internal/config"
	"github.com/taigrr/rast/pkg/imageio"
	"github.com/taigrr/rast/pkg/models"
	"github.com/taigrr/rast/pkg/render"
)

// fitMargin leaves a one-pixel-ish border around fitted models.
const fitMargin = 0.98

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fang.Execute(ctx, newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rast",
		Short:        "Software rasterizer for OBJ and glTF models",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var (
		flags      config.Flags
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "render <model.obj|model.glb|model.gltf>",
		Short: "Render a model to an image",
		Long: `Render a triangulated model to PNG, WebP, BMP, TIFF or PPM.

The output format follows the extension of --output. With --frames N the
model is spun about its vertical axis and N numbered images are written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.Input = args[0]
			}

			var cfg config.Config
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.Resolve(flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			setupLogging(cfg.Verbose)
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.Output, "output", "o", "", "output image (.png, .webp, .bmp, .tif, .ppm)")
	f.StringVarP(&flags.Texture, "texture", "t", "", "texture image (PNG, JPEG, TGA, BMP, TIFF, WebP)")
	f.StringVarP(&configPath, "config", "c", "", "JSON config file")
	f.IntVar(&flags.Width, "width", 0, "image width (default 800)")
	f.IntVar(&flags.Height, "height", 0, "image height (default 800)")
	f.StringVarP(&flags.Mode, "mode", "m", "", "shading mode: textured, random or wireframe")
	f.IntVarP(&flags.Workers, "workers", "w", 0, "row bands rasterized in parallel")
	f.Uint64Var(&flags.Seed, "seed", 0, "seed for random mode colors")
	f.StringVar(&flags.Background, "bg", "", "background color (R,G,B)")
	f.BoolVar(&flags.Fit, "fit", false, "scale and center the model into view")
	f.BoolVar(&flags.Markers, "markers", false, "plot orientation marker pixels")
	f.IntVar(&flags.Frames, "frames", 0, "render a turntable of N frames")
	f.Float64Var(&flags.Tilt, "tilt", 0, "turntable tilt about X in degrees")
	f.BoolVar(&flags.Preview, "preview", false, "print the result to the terminal")
	f.BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	render.SetLogger(logger)
}

func run(ctx context.Context, cfg config.Config) error {
	start := time.Now()

	mesh, embedded, err := models.Load(cfg.Input)
	if err != nil {
		return err
	}
	slog.Debug("loaded model", "path", cfg.Input, "vertices", mesh.VertexCount(), "faces", mesh.FaceCount(), "uv", mesh.HasTexCoords())

	if cfg.Fit {
		mesh.Fit(fitMargin)
	}

	mode := cfg.RenderMode()
	tex, err := resolveTexture(cfg, mode, embedded)
	if err != nil {
		return err
	}

	r, err := render.NewRasterizer(render.Options{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Mode:       mode,
		Texture:    tex,
		Background: cfg.BackgroundColor(),
		Seed:       cfg.Seed,
		Workers:    cfg.Workers,
		Markers:    cfg.Markers,
	})
	if err != nil {
		return err
	}

	var stats render.Stats
	if cfg.Frames > 0 {
		table := render.NewTurntable(cfg.Frames)
		table.Tilt = cfg.Tilt * math.Pi / 180
		stats, err = r.RenderTurntable(ctx, mesh, table, func(frame int, fb *render.Framebuffer) error {
			return save(frameName(cfg.Output, frame), fb.ToImage())
		})
	} else {
		stats, err = r.RenderContext(ctx, mesh)
		if err == nil {
			err = save(cfg.Output, r.Framebuffer().ToImage())
		}
	}
	if err != nil {
		return err
	}

	slog.Info("rendered",
		"output", cfg.Output,
		"mode", mode,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"frames", max(cfg.Frames, 1),
		"faces", stats.Faces,
		"drawn", stats.Drawn,
		"back_facing", stats.BackFacing,
		"degenerate", stats.Degenerate,
		"pixels", stats.Pixels,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if cfg.Preview {
		cols, rows := previewArea()
		return render.WritePreview(os.Stdout, r.Framebuffer(), cols, rows)
	}
	return nil
}

// resolveTexture picks the texture for textured mode: an explicit file
// first, then an image embedded in the model.
func resolveTexture(cfg config.Config, mode render.Mode, embedded image.Image) (*render.Texture, error) {
	if mode != render.ModeTextured {
		return nil, nil
	}
	if cfg.Texture != "" {
		return render.LoadTexture(cfg.Texture)
	}
	if embedded != nil {
		slog.Debug("using embedded texture", "size", embedded.Bounds().Size())
		return render.TextureFromImage(embedded), nil
	}
	return nil, fmt.Errorf("%w: %s has no embedded image, pass --texture", render.ErrMissingTexture, cfg.Input)
}

func save(path string, img image.Image) error {
	if err := imageio.Save(path, img); err != nil {
		return err
	}
	slog.Debug("wrote image", "path", path)
	return nil
}

// frameName turns out/duck.png into out/duck_007.png.
func frameName(path string, frame int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(path, ext), frame, ext)
}

func previewArea() (int, int) {
	cols, rows, err := term.GetSize(os.Stdout.Fd())
	if err != nil || cols <= 0 || rows <= 0 {
		return 80, 24
	}
	// Leave a row for the shell prompt.
	return cols, max(rows-1, 1)
}
