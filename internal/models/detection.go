package models

import (
	"fmt"
	"image"
)

// DetectionResult is the wire form sent back by the detection server.
// Box holds [ymin, xmin, ymax, xmax] normalised to the frame size.
type DetectionResult struct {
	Label      string    `json:"label"`
	Confidence float32   `json:"confidence"`
	Box        []float32 `json:"box"`
}

type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

func (b Box) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Detection is one predicted object in pixel coordinates.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Label is the text drawn above the box, e.g. "person (95.0%)".
func (d Detection) Label() string {
	return fmt.Sprintf("%s (%.1f%%)", d.ClassName, d.Confidence*100)
}

// ToDetection scales the normalised box onto bounds. Results with a
// malformed or degenerate box report ok == false.
func (r DetectionResult) ToDetection(bounds image.Rectangle) (Detection, bool) {
	if len(r.Box) != 4 {
		return Detection{}, false
	}

	w := float32(bounds.Dx())
	h := float32(bounds.Dy())

	box := Box{
		Y1: bounds.Min.Y + int(clamp01(r.Box[0])*h),
		X1: bounds.Min.X + int(clamp01(r.Box[1])*w),
		Y2: bounds.Min.Y + int(clamp01(r.Box[2])*h),
		X2: bounds.Min.X + int(clamp01(r.Box[3])*w),
	}
	if !box.Valid() {
		return Detection{}, false
	}

	return Detection{
		ClassName:  r.Label,
		Confidence: float64(r.Confidence),
		Box:        box,
	}, true
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
