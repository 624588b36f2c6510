package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	ExitButtonWidth  = 120
	ExitButtonHeight = 40
	exitButtonMargin = 10
)

var (
	exitFill   = color.RGBA{45, 45, 45, 255}
	exitHover  = color.RGBA{60, 60, 60, 255}
	exitBorder = color.RGBA{70, 70, 70, 255}
)

// ExitRegion is the hit area of the exit button in the top-right corner
// of a frame with the given bounds.
func ExitRegion(bounds image.Rectangle) image.Rectangle {
	return image.Rect(
		bounds.Max.X-ExitButtonWidth-exitButtonMargin,
		bounds.Min.Y+exitButtonMargin,
		bounds.Max.X-exitButtonMargin,
		bounds.Min.Y+exitButtonMargin+ExitButtonHeight,
	)
}

// DrawExitButton paints the exit button over img.
func (r *Renderer) DrawExitButton(img *image.RGBA, hover bool) {
	region := ExitRegion(img.Bounds())

	fill := exitFill
	if hover {
		fill = exitHover
	}
	fillRect(img, region, fill)
	strokeRect(img, image.Rect(region.Min.X, region.Min.Y, region.Max.X-1, region.Max.Y-1), exitBorder, 1)

	const text = "Exit"
	w, h := r.TextSize(text)
	dr := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(LabelTextColor),
		Face: r.face,
		Dot: fixed.P(
			region.Min.X+(ExitButtonWidth-w)/2,
			region.Min.Y+(ExitButtonHeight+h)/2,
		),
	}
	dr.DrawString(text)
}
