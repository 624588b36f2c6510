// Package render draws detection boxes, labels and the live-view exit
// button onto RGBA frames.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"detectstudio/internal/models"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

const (
	// ConfidenceThreshold is the score a detection must exceed to be drawn.
	ConfidenceThreshold = 0.2

	BoxThickness = 4
	LabelSize    = 24

	labelPadX      = 10
	labelPadY      = 15
	labelTextInset = 5
	labelBaseline  = 10
)

// ErrNoDetections is returned when nothing in the input clears the threshold.
var ErrNoDetections = errors.New("no objects detected")

var LabelTextColor = color.RGBA{255, 255, 255, 255}

var (
	regularOnce sync.Once
	regularFont *sfnt.Font
	regularErr  error
)

func parseRegular() (*sfnt.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// Renderer is not safe for concurrent use: the font face keeps glyph
// buffers. Give each goroutine its own Renderer.
type Renderer struct {
	face font.Face
}

func NewRenderer() (*Renderer, error) {
	f, err := parseRegular()
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    LabelSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}

	return &Renderer{face: face}, nil
}

// Qualifying keeps the detections whose confidence is above the threshold,
// preserving order.
func Qualifying(dets []models.Detection) []models.Detection {
	out := make([]models.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence > ConfidenceThreshold {
			out = append(out, d)
		}
	}
	return out
}

// Annotate draws every qualifying detection onto img in place and returns
// how many were drawn. When none qualify img is left untouched and
// ErrNoDetections is returned. A nil palette gets a fresh one for this call.
func (r *Renderer) Annotate(img *image.RGBA, dets []models.Detection, palette *Palette) (int, error) {
	kept := Qualifying(dets)
	if len(kept) == 0 {
		return 0, ErrNoDetections
	}

	if palette == nil {
		palette = NewPalette()
	}

	for _, d := range kept {
		col := palette.Color(d.ClassName)
		strokeRect(img, d.Box.Rect(), col, BoxThickness)
		r.drawLabel(img, d, col)
	}

	return len(kept), nil
}

// TextSize returns the advance width and ascent of s in the label face.
func (r *Renderer) TextSize(s string) (int, int) {
	return font.MeasureString(r.face, s).Ceil(), r.face.Metrics().Ascent.Ceil()
}

// LabelRect is where the label background for d goes: directly above the
// box top edge, shifted down when it would leave the image.
func (r *Renderer) LabelRect(bounds image.Rectangle, d models.Detection) image.Rectangle {
	w, h := r.TextSize(d.Label())
	x1, y1 := d.Box.X1, d.Box.Y1

	rect := image.Rect(x1, y1-h-labelPadY, x1+w+labelPadX, y1)
	if rect.Min.Y < bounds.Min.Y {
		rect = rect.Add(image.Pt(0, bounds.Min.Y-rect.Min.Y))
	}
	return rect
}

func (r *Renderer) drawLabel(img *image.RGBA, d models.Detection, col color.RGBA) {
	label := d.Label()
	rect := r.LabelRect(img.Bounds(), d)

	fillRect(img, rect, col)

	dr := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(LabelTextColor),
		Face: r.face,
		Dot:  fixed.P(rect.Min.X+labelTextInset, rect.Max.Y-labelBaseline),
	}
	dr.DrawString(label)
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	draw.Draw(img, rect.Intersect(img.Bounds()), image.NewUniform(col), image.Point{}, draw.Src)
}

// strokeRect outlines rect (corners inclusive) with the stroke growing
// inwards from the edges.
func strokeRect(img *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	x1, y1, x2, y2 := rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y

	fillRect(img, image.Rect(x1, y1, x2+1, y1+thickness), col)
	fillRect(img, image.Rect(x1, y2-thickness+1, x2+1, y2+1), col)
	fillRect(img, image.Rect(x1, y1, x1+thickness, y2+1), col)
	fillRect(img, image.Rect(x2-thickness+1, y1, x2+1, y2+1), col)
}
