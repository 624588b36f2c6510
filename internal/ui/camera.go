package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"detectstudio/internal/ui/cwidget"
	processing "detectstudio/processing/detector"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const statsInterval = 500 * time.Millisecond

// TakePhoto opens the live camera window. Only one runs at a time.
func (a *DetectApp) TakePhoto() {
	if a.cameraCancel != nil {
		return
	}

	proc := processing.NewProcessor(a.config, a.detector, a.session.palette, a.log)
	ctx, cancel := context.WithCancel(context.Background())
	a.cameraCancel = cancel

	win := a.fyneApp.NewWindow("Camera")
	win.Resize(fyne.NewSize(800, 600))

	view := cwidget.NewFrameView(fyne.NewSize(640, 480))
	view.OnPointerMoved = proc.PointerMoved
	view.OnPointerPressed = proc.PointerPressed
	view.OnPointerReleased = proc.PointerReleased

	stats := widget.NewLabel("")
	win.SetContent(container.NewBorder(nil, stats, nil, nil, view))

	win.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		if e.Name == fyne.KeyEscape {
			proc.RequestExit()
		}
	})

	closed := false
	win.SetOnClosed(func() {
		closed = true
		cancel()
	})

	win.Show()
	a.setStatus(msgCameraStarted)
	a.log.Info("camera window opened")

	go a.runStats(ctx, proc, stats)

	go func() {
		err := proc.Run(ctx, func(frame *image.RGBA) {
			fyne.Do(func() { view.SetFrame(frame) })
		})

		fyne.Do(func() {
			a.finishCamera(err)
			if !closed {
				closed = true
				win.Close()
			}
		})
	}()
}

// finishCamera runs on the event loop once the capture loop has ended.
func (a *DetectApp) finishCamera(err error) {
	if a.cameraCancel != nil {
		a.cameraCancel()
		a.cameraCancel = nil
	}

	if err != nil {
		a.log.Error("camera stopped", "err", err)
		a.setStatus("Camera unavailable")
		a.showError(err)
		return
	}
	a.setStatus(msgReady)
}

func (a *DetectApp) runStats(ctx context.Context, proc *processing.Processor, label *widget.Label) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			text := formatStats(proc.FPS(), proc.Latency())
			fyne.Do(func() { label.SetText(text) })
		case <-ctx.Done():
			return
		}
	}
}

func formatStats(fps uint, latency time.Duration) string {
	return fmt.Sprintf("FPS: %d | Latency: %d ms", fps, latency.Milliseconds())
}
