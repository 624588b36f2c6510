package processing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"

	"detectstudio/internal/imageio"
	"detectstudio/internal/logger"
	"detectstudio/internal/models"
	"detectstudio/internal/render"
)

// ErrNoImage is returned when detection is requested before an image was
// chosen.
var ErrNoImage = errors.New("no image selected")

type ClassCount struct {
	ClassName string
	Count     int
}

// Result describes one annotated still image.
type Result struct {
	Source     string
	OutputPath string
	Image      *image.RGBA
	Detections []models.Detection
}

// Counts tallies the drawn detections per class, most frequent first.
func (r *Result) Counts() []ClassCount {
	m := make(map[string]int)
	for _, d := range r.Detections {
		m[d.ClassName]++
	}

	out := make([]ClassCount, 0, len(m))
	for name, n := range m {
		out = append(out, ClassCount{ClassName: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ClassName < out[j].ClassName
	})
	return out
}

// Annotator is the still-image path: load, detect, draw, write.
type Annotator struct {
	det        Detector
	palette    *render.Palette
	outputPath string
	log        *slog.Logger

	mu       sync.Mutex
	renderer *render.Renderer
}

func NewAnnotator(det Detector, palette *render.Palette, outputPath string, log *slog.Logger) (*Annotator, error) {
	r, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}
	if palette == nil {
		palette = render.NewPalette()
	}

	return &Annotator{
		det:        det,
		palette:    palette,
		outputPath: outputPath,
		log:        logger.Component(log, "annotator"),
		renderer:   r,
	}, nil
}

// AnnotateFile runs detection over the image at path and writes the
// annotated copy to the output path. With nothing above the confidence
// threshold it returns render.ErrNoDetections and writes nothing.
func (a *Annotator) AnnotateFile(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		return nil, ErrNoImage
	}

	img, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}

	res, err := a.AnnotateImage(ctx, img)
	if err != nil {
		return nil, err
	}
	res.Source = path

	if err := imageio.Save(a.outputPath, res.Image); err != nil {
		return nil, err
	}
	res.OutputPath = a.outputPath

	a.log.Info("detection result written", "source", path, "output", a.outputPath, "objects", len(res.Detections))
	return res, nil
}

// AnnotateImage detects and draws on img in place without touching disk.
func (a *Annotator) AnnotateImage(ctx context.Context, img *image.RGBA) (*Result, error) {
	dets, err := a.det.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	a.mu.Lock()
	_, err = a.renderer.Annotate(img, dets, a.palette)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:      img,
		Detections: render.Qualifying(dets),
	}, nil
}
