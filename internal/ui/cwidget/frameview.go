package cwidget

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// PointerFunc receives a pointer position in frame pixels together with the
// bounds of the frame on display.
type PointerFunc func(pos image.Point, frame image.Rectangle)

// FrameView shows camera frames scaled to fit and reports mouse activity in
// frame coordinates, so hit regions drawn into the frame can be tested.
type FrameView struct {
	widget.BaseWidget

	img   *canvas.Image
	frame image.Rectangle

	OnPointerMoved    PointerFunc
	OnPointerPressed  PointerFunc
	OnPointerReleased PointerFunc
}

var (
	_ desktop.Mouseable = (*FrameView)(nil)
	_ desktop.Hoverable = (*FrameView)(nil)
)

func NewFrameView(minSize fyne.Size) *FrameView {
	v := &FrameView{img: canvas.NewImageFromImage(nil)}
	v.img.FillMode = canvas.ImageFillContain
	v.img.ScaleMode = canvas.ImageScaleFastest
	v.img.SetMinSize(minSize)
	v.ExtendBaseWidget(v)
	return v
}

// SetFrame replaces the displayed frame. Call it on the UI goroutine.
func (v *FrameView) SetFrame(frame image.Image) {
	v.frame = frame.Bounds()
	v.img.Image = frame
	v.img.Refresh()
}

func (v *FrameView) Frame() image.Image {
	return v.img.Image
}

func (v *FrameView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.img)
}

// ToFrame maps a widget position to a pixel of a frame letterboxed into
// size. ok is false when the position falls on the letterbox bars.
func ToFrame(pos fyne.Position, size fyne.Size, frame image.Rectangle) (image.Point, bool) {
	fw, fh := float32(frame.Dx()), float32(frame.Dy())
	if fw <= 0 || fh <= 0 || size.Width <= 0 || size.Height <= 0 {
		return image.Point{}, false
	}

	scale := size.Width / fw
	if s := size.Height / fh; s < scale {
		scale = s
	}

	offX := (size.Width - fw*scale) / 2
	offY := (size.Height - fh*scale) / 2

	x := (pos.X - offX) / scale
	y := (pos.Y - offY) / scale
	if x < 0 || y < 0 || x >= fw || y >= fh {
		return image.Point{}, false
	}

	return image.Pt(frame.Min.X+int(x), frame.Min.Y+int(y)), true
}

func (v *FrameView) dispatch(fn PointerFunc, pos fyne.Position) {
	if fn == nil || v.frame.Empty() {
		return
	}
	p, ok := ToFrame(pos, v.Size(), v.frame)
	if !ok {
		p = image.Pt(-1, -1)
	}
	fn(p, v.frame)
}

func (v *FrameView) MouseDown(e *desktop.MouseEvent) {
	v.dispatch(v.OnPointerPressed, e.Position)
}

func (v *FrameView) MouseUp(e *desktop.MouseEvent) {
	v.dispatch(v.OnPointerReleased, e.Position)
}

func (v *FrameView) MouseIn(e *desktop.MouseEvent) {
	v.dispatch(v.OnPointerMoved, e.Position)
}

func (v *FrameView) MouseMoved(e *desktop.MouseEvent) {
	v.dispatch(v.OnPointerMoved, e.Position)
}

func (v *FrameView) MouseOut() {
	if v.OnPointerMoved != nil && !v.frame.Empty() {
		v.OnPointerMoved(image.Pt(-1, -1), v.frame)
	}
}
