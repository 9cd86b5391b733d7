package stages

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"pipegate/internal/pipeline"
)

// screenshotStage writes placeholder PNG files where real page screenshots
// would go. Rendering is out of scope; the placeholders keep downstream
// artifact consumers fed. Any failure here is a warning.
type screenshotStage struct{}

// NewScreenshots creates the placeholder screenshot stage.
func NewScreenshots() pipeline.Stage { return &screenshotStage{} }

func (s *screenshotStage) Name() string { return "screenshots" }

func (s *screenshotStage) OnFailure() pipeline.FailurePolicy { return pipeline.Warn }

func (s *screenshotStage) Run(ctx context.Context, deps *pipeline.Deps) pipeline.StageResult {
	spec := deps.Config.Screenshots
	if len(spec.Names) == 0 {
		return pipeline.StageResult{Stage: s.Name(), Status: pipeline.StatusSkip, Note: "no screenshots configured"}
	}

	if err := os.MkdirAll(spec.Dir, 0o755); err != nil {
		return pipeline.StageResult{
			Stage:    s.Name(),
			Status:   pipeline.StatusFail,
			ExitCode: 1,
			Note:     fmt.Sprintf("creating screenshot dir: %v", err),
		}
	}

	w, h := spec.Width, spec.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 720
	}

	for _, name := range spec.Names {
		if err := ctx.Err(); err != nil {
			return pipeline.StageResult{Stage: s.Name(), Status: pipeline.StatusFail, ExitCode: 1, Note: err.Error()}
		}
		path := filepath.Join(spec.Dir, name+".png")
		if err := writePlaceholderPNG(path, w, h); err != nil {
			return pipeline.StageResult{
				Stage:    s.Name(),
				Status:   pipeline.StatusFail,
				ExitCode: 1,
				Note:     fmt.Sprintf("writing %s: %v", path, err),
			}
		}
	}

	return pipeline.StageResult{
		Stage:  s.Name(),
		Status: pipeline.StatusPass,
		Note:   fmt.Sprintf("%d placeholder(s) in %s", len(spec.Names), spec.Dir),
	}
}

func writePlaceholderPNG(path string, w, h int) (err error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, gray)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()

	return png.Encode(f, img)
}
