package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"detectstudio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var background = color.RGBA{1, 2, 3, 255}

func newFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return img
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()

	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func det(name string, conf float64, x1, y1, x2, y2 int) models.Detection {
	return models.Detection{
		ClassName:  name,
		Confidence: conf,
		Box:        models.Box{X1: x1, Y1: y1, X2: x2, Y2: y2},
	}
}

func changedPixels(img *image.RGBA, rect image.Rectangle) int {
	n := 0
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.RGBAAt(x, y) != background {
				n++
			}
		}
	}
	return n
}

func TestAnnotatePerson(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(640, 480)
	d := det("person", 0.95, 100, 50, 300, 400)

	n, err := r.Annotate(img, []models.Detection{d}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())

	col := ClassColor("person")
	for _, p := range []image.Point{{100, 225}, {103, 225}, {300, 225}, {297, 225}, {200, 400}, {200, 397}} {
		assert.Equal(t, col, img.RGBAAt(p.X, p.Y), "border pixel %v", p)
	}
	assert.Equal(t, background, img.RGBAAt(104, 225), "stroke is four pixels wide")
	assert.Equal(t, background, img.RGBAAt(200, 225), "box interior untouched")

	label := r.LabelRect(img.Bounds(), d)
	assert.Equal(t, 50, label.Max.Y, "label sits on the box top edge")
	assert.Equal(t, 100, label.Min.X)
	assert.Less(t, label.Min.Y, 50)

	textPixels := 0
	for y := label.Min.Y; y < label.Max.Y; y++ {
		for x := label.Min.X; x < label.Max.X; x++ {
			if img.RGBAAt(x, y) == LabelTextColor {
				textPixels++
			}
		}
	}
	assert.Positive(t, textPixels, "label text drawn over the background")
}

func TestAnnotateThreshold(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		confidence float64
		drawn      bool
	}{
		{"well below", 0.05, false},
		{"exactly threshold", ConfidenceThreshold, false},
		{"just above", 0.2001, true},
		{"certain", 1, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRenderer(t)
			img := newFrame(200, 200)
			palette := NewPalette()
			d := det("bicycle", tc.confidence, 20, 60, 120, 160)

			n, err := r.Annotate(img, []models.Detection{d}, palette)
			if tc.drawn {
				require.NoError(t, err)
				assert.Equal(t, 1, n)
				assert.True(t, palette.Has("bicycle"))
				assert.Positive(t, changedPixels(img, d.Box.Rect().Inset(-1)))
				return
			}

			assert.ErrorIs(t, err, ErrNoDetections)
			assert.Zero(t, n)
			assert.Zero(t, palette.Len(), "no colour for discarded classes")
			assert.Zero(t, changedPixels(img, img.Bounds()))
		})
	}
}

func TestAnnotateSkipsLowConfidenceAmongOthers(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(400, 400)
	palette := NewPalette()

	n, err := r.Annotate(img, []models.Detection{
		det("dog", 0.9, 50, 100, 150, 200),
		det("ghost", 0.1, 250, 250, 350, 350),
	}, palette)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, palette.Len())
	assert.False(t, palette.Has("ghost"))
	assert.Zero(t, changedPixels(img, image.Rect(250, 250, 351, 351)))
}

func TestAnnotateSameClassSameColor(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(640, 480)
	palette := NewPalette()

	n, err := r.Annotate(img, []models.Detection{
		det("car", 0.8, 40, 100, 200, 300),
		det("car", 0.6, 300, 150, 600, 450),
	}, palette)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, palette.Len())
	assert.Equal(t, img.RGBAAt(40, 200), img.RGBAAt(300, 300))
	assert.Equal(t, ClassColor("car"), img.RGBAAt(300, 300))
}

func TestAnnotateNoDetections(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(64, 64)

	n, err := r.Annotate(img, nil, nil)
	assert.True(t, errors.Is(err, ErrNoDetections))
	assert.Zero(t, n)
}

func TestLabelClampedAtTopEdge(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(320, 240)
	d := det("kite", 0.7, 10, 0, 200, 120)

	label := r.LabelRect(img.Bounds(), d)
	assert.Equal(t, 0, label.Min.Y)

	_, err := r.Annotate(img, []models.Detection{d}, nil)
	require.NoError(t, err)
	assert.Positive(t, changedPixels(img, label))
}

func TestBoxOutsideFrameIsClipped(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(100, 100)

	assert.NotPanics(t, func() {
		_, err := r.Annotate(img, []models.Detection{det("boat", 0.5, 80, 80, 300, 300)}, nil)
		assert.NoError(t, err)
	})
	assert.Equal(t, ClassColor("boat"), img.RGBAAt(80, 90))
}

func TestExitButton(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	img := newFrame(800, 600)

	region := ExitRegion(img.Bounds())
	assert.Equal(t, image.Rect(670, 10, 790, 50), region)

	r.DrawExitButton(img, false)
	assert.Equal(t, exitBorder, img.RGBAAt(670, 10))
	assert.Equal(t, exitFill, img.RGBAAt(672, 12))
	assert.Equal(t, background, img.RGBAAt(669, 30))

	r.DrawExitButton(img, true)
	assert.Equal(t, exitHover, img.RGBAAt(672, 12))
}
