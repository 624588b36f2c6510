package ui

import (
	"detectstudio/internal/config"
	"detectstudio/internal/ui/cwidget"
	"detectstudio/processing/capture"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	loadingCameras = "Loading cameras..."
	noCameras      = "No cameras found"
)

// settingsForm builds the capture settings editor. Changes apply to the
// config immediately.
func (a *DetectApp) settingsForm() fyne.CanvasObject {
	dynamic := container.NewVBox()

	sourceSelect := widget.NewSelect(config.SourcesList[:], func(s string) {
		a.config.SetSource(config.SourceType(s))
		a.refreshSourceSettings(dynamic)
	})
	sourceSelect.SetSelected(string(a.config.GetSource()))

	fpsInput := cwidget.NewIntInput("FPS", "Enter integer", int(a.config.GetFPS()), func(i int) {
		a.config.SetFPS(uint(i))
	})
	widthInput := cwidget.NewIntInput("Width", "Enter integer", a.config.GetWidth(), a.config.SetWidth)
	heightInput := cwidget.NewIntInput("Height", "Enter integer", a.config.GetHeight(), a.config.SetHeight)

	return container.NewVBox(
		widget.NewLabel("Source Type:"),
		sourceSelect,
		widget.NewSeparator(),
		dynamic,
		widget.NewSeparator(),
		fpsInput,
		widthInput,
		heightInput,
	)
}

func (a *DetectApp) showSettings() {
	d := dialog.NewCustomConfirm("Camera Settings", "Save", "Close", a.settingsForm(), func(save bool) {
		if !save {
			return
		}
		if err := a.config.Validate(); err != nil {
			a.showError(err)
			return
		}
		if err := a.config.SaveByDefault(); err != nil {
			a.showError(err)
		}
	}, a.mainWin)
	d.Resize(fyne.NewSize(420, 520))
	d.Show()
}

func (a *DetectApp) refreshSourceSettings(dynamic *fyne.Container) {
	dynamic.Objects = nil

	switch a.config.GetSource() {
	case config.SourceLocal:
		pathEntry := widget.NewEntry()
		pathEntry.SetPlaceHolder("/path/to/video.mp4")
		pathEntry.SetText(a.config.GetVideoPath())
		pathEntry.OnChanged = a.config.SetVideoPath

		fileBtn := widget.NewButtonWithIcon("Open File", theme.FolderOpenIcon(), func() {
			dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
				if err == nil && reader != nil {
					pathEntry.SetText(reader.URI().Path())
					reader.Close()
				}
			}, a.mainWin)
		})

		dynamic.Add(widget.NewLabel("Video Path:"))
		dynamic.Add(container.NewBorder(nil, nil, nil, fileBtn, pathEntry))

	case config.SourceWebcam:
		deviceSelect := widget.NewSelect([]string{loadingCameras}, func(s string) {
			if s != loadingCameras && s != noCameras {
				a.config.SetDeviceID(s)
			}
		})
		deviceSelect.SetSelected(loadingCameras)
		deviceSelect.Disable()

		dynamic.Add(widget.NewLabel("Select Camera:"))
		dynamic.Add(deviceSelect)

		go func() {
			devices, err := capture.ListCameras()

			fyne.Do(func() {
				a.fillDevices(deviceSelect, devices, err)
			})
		}()
	}

	dynamic.Refresh()
}

func (a *DetectApp) fillDevices(deviceSelect *widget.Select, devices []string, err error) {
	switch {
	case err != nil:
		a.showError(err)
		deviceSelect.Options = []string{noCameras}
	case len(devices) == 0:
		deviceSelect.Options = []string{noCameras}
		deviceSelect.SetSelected(noCameras)
	default:
		deviceSelect.Options = devices
		deviceSelect.Enable()

		current := a.config.GetDeviceID()
		selected := devices[0]
		for _, d := range devices {
			if d == current {
				selected = d
			}
		}
		deviceSelect.SetSelected(selected)
	}
	deviceSelect.Refresh()
}
