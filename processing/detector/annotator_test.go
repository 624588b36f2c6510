package processing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"detectstudio/internal/imageio"
	"detectstudio/internal/logger"
	"detectstudio/internal/models"
	"detectstudio/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, w, h int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.png")
	require.NoError(t, imageio.Save(path, solidFrame(w, h)))
	return path
}

func newTestAnnotator(t *testing.T, det Detector, out string) (*Annotator, *render.Palette) {
	t.Helper()

	palette := render.NewPalette()
	a, err := NewAnnotator(det, palette, out, logger.Discard())
	require.NoError(t, err)
	return a, palette
}

func TestAnnotateFileWritesResult(t *testing.T) {
	t.Parallel()

	src := writeSource(t, 640, 480)
	out := filepath.Join(t.TempDir(), "detection_result.png")
	det := &fakeDetector{dets: []models.Detection{
		{ClassName: "person", Confidence: 0.95, Box: models.Box{X1: 100, Y1: 50, X2: 300, Y2: 400}},
		{ClassName: "car", Confidence: 0.6, Box: models.Box{X1: 350, Y1: 200, X2: 500, Y2: 300}},
		{ClassName: "car", Confidence: 0.4, Box: models.Box{X1: 520, Y1: 300, X2: 600, Y2: 380}},
		{ClassName: "ghost", Confidence: 0.1, Box: models.Box{X1: 10, Y1: 420, X2: 60, Y2: 470}},
	}}
	a, palette := newTestAnnotator(t, det, out)

	res, err := a.AnnotateFile(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, src, res.Source)
	assert.Equal(t, out, res.OutputPath)
	assert.Len(t, res.Detections, 3)
	assert.Equal(t, []ClassCount{{"car", 2}, {"person", 1}}, res.Counts())
	assert.Equal(t, 2, palette.Len())
	assert.False(t, palette.Has("ghost"))

	written, err := imageio.Load(out)
	require.NoError(t, err)
	assert.Equal(t, res.Image.Bounds(), written.Bounds())
	assert.Equal(t, render.ClassColor("person"), written.RGBAAt(100, 200))
	assert.Equal(t, testBackground, written.RGBAAt(30, 445))
}

func TestAnnotateFileNoImage(t *testing.T) {
	t.Parallel()

	det := &fakeDetector{}
	a, _ := newTestAnnotator(t, det, filepath.Join(t.TempDir(), "out.jpg"))

	_, err := a.AnnotateFile(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Zero(t, det.calls.Load())
}

func TestAnnotateFileLoadFailure(t *testing.T) {
	t.Parallel()

	det := &fakeDetector{}
	a, _ := newTestAnnotator(t, det, filepath.Join(t.TempDir(), "out.jpg"))

	_, err := a.AnnotateFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorIs(t, err, imageio.ErrLoad)
	assert.Zero(t, det.calls.Load())
}

func TestAnnotateFileNoDetections(t *testing.T) {
	t.Parallel()

	src := writeSource(t, 100, 100)
	out := filepath.Join(t.TempDir(), "detection_result.jpg")
	det := &fakeDetector{dets: []models.Detection{
		{ClassName: "cat", Confidence: 0.2, Box: models.Box{X1: 1, Y1: 1, X2: 50, Y2: 50}},
	}}
	a, palette := newTestAnnotator(t, det, out)

	_, err := a.AnnotateFile(context.Background(), src)
	assert.ErrorIs(t, err, render.ErrNoDetections)
	assert.Zero(t, palette.Len())

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output artifact")
}

func TestAnnotateFileDetectorError(t *testing.T) {
	t.Parallel()

	src := writeSource(t, 50, 50)
	a, _ := newTestAnnotator(t, &fakeDetector{err: ErrDetector}, filepath.Join(t.TempDir(), "out.jpg"))

	_, err := a.AnnotateFile(context.Background(), src)
	assert.ErrorIs(t, err, ErrDetector)
}

func TestAnnotatorPaletteSpansRuns(t *testing.T) {
	t.Parallel()

	det := &fakeDetector{dets: []models.Detection{
		{ClassName: "dog", Confidence: 0.7, Box: models.Box{X1: 5, Y1: 40, X2: 60, Y2: 90}},
	}}
	a, palette := newTestAnnotator(t, det, filepath.Join(t.TempDir(), "out.jpg"))

	first, err := a.AnnotateImage(context.Background(), solidFrame(100, 100))
	require.NoError(t, err)
	second, err := a.AnnotateImage(context.Background(), solidFrame(100, 100))
	require.NoError(t, err)

	assert.Equal(t, first.Image.RGBAAt(5, 60), second.Image.RGBAAt(5, 60))
	assert.Equal(t, 1, palette.Len())
}
