package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"

	"detectstudio/internal/config"
	"detectstudio/internal/imageio"
	"detectstudio/internal/logger"
	"detectstudio/internal/render"
	processing "detectstudio/processing/detector"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	windowTitle = "Object Detection Studio"

	previewWidth  = 600
	previewHeight = 400

	msgReady         = "Ready"
	msgSelectFirst   = "Please select an image first!"
	msgNoObjects     = "No objects detected in this image!"
	msgImageCleared  = "Image cleared from display"
	msgDetecting     = "Detecting objects..."
	msgCameraStarted = "Camera running, press Esc or Exit to stop"
)

var (
	titleColor = color.RGBA{0xEC, 0xF0, 0xF1, 0xFF}
	panelColor = color.RGBA{0x2C, 0x3E, 0x50, 0xFF}
)

// session is everything the window mutates. It is only touched on the
// fyne event loop.
type session struct {
	imagePath string
	hue       float64
	palette   *render.Palette
	busy      bool
}

type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config    *config.Config
	detector  processing.Detector
	annotator *processing.Annotator
	log       *slog.Logger

	session session

	background   *canvas.Raster
	imageCanvas  *canvas.Image
	statusLabel  *widget.Label
	detectButton *widget.Button
	deleteButton *widget.Button

	cameraCancel context.CancelFunc
	stopAnim     chan struct{}

	showError func(error)
	showInfo  func(title, message string)
}

func CreateApp(cfg *config.Config, det processing.Detector, log *slog.Logger) (*DetectApp, error) {
	return newDetectApp(app.NewWithID("io.github.detectstudio"), cfg, det, log)
}

func newDetectApp(a fyne.App, cfg *config.Config, det processing.Detector, log *slog.Logger) (*DetectApp, error) {
	palette := render.NewPalette()

	annotator, err := processing.NewAnnotator(det, palette, cfg.GetOutputPath(), log)
	if err != nil {
		return nil, err
	}

	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(1024, 768))

	da := &DetectApp{
		fyneApp:   a,
		mainWin:   w,
		config:    cfg,
		detector:  det,
		annotator: annotator,
		log:       logger.Component(log, "ui"),
		session:   session{palette: palette},
		stopAnim:  make(chan struct{}),
	}
	da.showError = func(err error) { dialog.ShowError(err, da.mainWin) }
	da.showInfo = func(title, message string) { dialog.ShowInformation(title, message, da.mainWin) }

	da.build()
	return da, nil
}

func (a *DetectApp) build() {
	a.background = a.newBackground()

	title := canvas.NewText(windowTitle, titleColor)
	title.TextSize = 28
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	a.imageCanvas = canvas.NewImageFromImage(nil)
	a.imageCanvas.FillMode = canvas.ImageFillContain
	a.imageCanvas.SetMinSize(fyne.NewSize(previewWidth, previewHeight))

	imagePanel := container.NewStack(
		canvas.NewRectangle(panelColor),
		container.NewPadded(a.imageCanvas),
	)

	selectButton := widget.NewButtonWithIcon("Select Image", theme.FolderOpenIcon(), a.SelectImage)
	cameraButton := widget.NewButtonWithIcon("Take Photo", theme.MediaPhotoIcon(), a.TakePhoto)
	a.detectButton = widget.NewButtonWithIcon("Detect Objects", theme.SearchIcon(), a.DetectObjects)
	a.deleteButton = widget.NewButtonWithIcon("Delete Image", theme.DeleteIcon(), a.DeleteImage)
	a.deleteButton.Disable()

	buttons := container.NewHBox(
		layout.NewSpacer(),
		selectButton, cameraButton, a.detectButton, a.deleteButton,
		layout.NewSpacer(),
	)

	a.statusLabel = widget.NewLabel(msgReady)
	statusBar := container.NewStack(canvas.NewRectangle(panelColor), a.statusLabel)

	content := container.NewBorder(
		container.NewPadded(title),
		container.NewVBox(container.NewPadded(buttons), statusBar),
		nil, nil,
		container.NewPadded(imagePanel),
	)

	a.mainWin.SetContent(container.NewStack(a.background, container.NewPadded(content)))
	a.mainWin.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("Settings", fyne.NewMenuItem("Camera...", a.showSettings)),
	))
}

func (a *DetectApp) Run() {
	go a.animateBackground(a.stopAnim)

	a.mainWin.SetCloseIntercept(func() {
		a.shutdown()
		a.mainWin.Close()
	})

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *DetectApp) shutdown() {
	select {
	case <-a.stopAnim:
	default:
		close(a.stopAnim)
	}

	if a.cameraCancel != nil {
		a.cameraCancel()
	}

	if err := a.config.SaveByDefault(); err != nil {
		a.log.Warn("save config", "err", err)
	}
}

func (a *DetectApp) setStatus(s string) {
	a.statusLabel.SetText(s)
}

func (a *DetectApp) SelectImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		a.OpenImage(path)
	}, a.mainWin)

	fd.SetFilter(storage.NewExtensionFileFilter(imageio.SupportedExtensions))
	fd.Show()
}

// OpenImage makes path the current image. A load failure is reported and
// leaves the current selection alone.
func (a *DetectApp) OpenImage(path string) {
	if err := imageio.CheckSupported(path); err != nil {
		a.showError(err)
		return
	}

	img, err := imageio.Load(path)
	if err != nil {
		a.log.Warn("open image", "path", path, "err", err)
		a.showError(err)
		return
	}

	a.session.imagePath = path
	a.display(img)
	a.setStatus(fmt.Sprintf("Loaded %s", filepath.Base(path)))
}

func (a *DetectApp) display(img image.Image) {
	a.imageCanvas.Image = imageio.Thumbnail(img, previewWidth, previewHeight)
	a.imageCanvas.Refresh()
	a.deleteButton.Enable()
}

func (a *DetectApp) DetectObjects() {
	if a.session.imagePath == "" {
		a.showInfo("Warning", msgSelectFirst)
		return
	}
	if a.session.busy {
		return
	}

	a.session.busy = true
	a.detectButton.Disable()
	a.deleteButton.Disable()
	a.setStatus(msgDetecting)

	path := a.session.imagePath
	ctx, cancel := a.detectContext()
	go func() {
		defer cancel()

		res, err := a.annotator.AnnotateFile(ctx, path)
		fyne.Do(func() {
			a.showDetection(res, err)
		})
	}()
}

// detectContext bounds a detection run so a detector that never answers
// cannot leave the window busy.
func (a *DetectApp) detectContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.config.GetDetectTimeout())
}

// showDetection applies the outcome of a detection run to the window. A
// result for an image that is no longer selected is dropped.
func (a *DetectApp) showDetection(res *processing.Result, err error) {
	a.session.busy = false
	a.detectButton.Enable()
	if a.session.imagePath != "" {
		a.deleteButton.Enable()
	}

	if err == nil && res.Source != a.session.imagePath {
		a.log.Debug("dropping stale detection", "source", res.Source)
		a.setStatus(msgReady)
		return
	}

	switch {
	case errors.Is(err, render.ErrNoDetections):
		a.setStatus(msgNoObjects)
		a.showInfo("Result", msgNoObjects)
	case err != nil:
		a.log.Error("detection failed", "err", err)
		a.setStatus("Detection failed")
		a.showError(err)
	default:
		a.display(res.Image)
		a.setStatus(summary(res))
	}
}

func summary(res *processing.Result) string {
	parts := make([]string, 0, len(res.Counts()))
	for _, c := range res.Counts() {
		parts = append(parts, fmt.Sprintf("%s x%d", c.ClassName, c.Count))
	}
	return fmt.Sprintf("Detected %d objects: %s (saved to %s)",
		len(res.Detections), strings.Join(parts, ", "), res.OutputPath)
}

// DeleteImage clears the preview. The file on disk is left alone.
func (a *DetectApp) DeleteImage() {
	if a.session.imagePath == "" {
		return
	}

	a.imageCanvas.Image = nil
	a.imageCanvas.Refresh()
	a.session.imagePath = ""
	a.deleteButton.Disable()
	a.setStatus(msgImageCleared)
}
