package ui

import (
	"image/color"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

const (
	gradientSteps      = 10
	gradientSaturation = 0.3
	gradientValue      = 0.3
	hueStep            = 0.001
	animationInterval  = 50 * time.Millisecond
)

// hsvToRGB converts h, s, v in [0,1] to an opaque colour.
func hsvToRGB(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}

	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

// gradientColor is the colour of row y out of height for the current hue:
// the window is split into horizontal bands, each shifted along the hue
// circle.
func gradientColor(hue float64, y, height int) color.RGBA {
	if height <= 0 {
		height = 1
	}
	band := y * gradientSteps / height
	if band >= gradientSteps {
		band = gradientSteps - 1
	}
	return hsvToRGB(math.Mod(hue+float64(band)/gradientSteps, 1), gradientSaturation, gradientValue)
}

func nextHue(hue float64) float64 {
	return math.Mod(hue+hueStep, 1)
}

func (a *DetectApp) newBackground() *canvas.Raster {
	return canvas.NewRasterWithPixels(func(_, y, _, h int) color.Color {
		return gradientColor(a.session.hue, y, h)
	})
}

// animateBackground advances the hue on the event loop until stop closes.
func (a *DetectApp) animateBackground(stop <-chan struct{}) {
	ticker := time.NewTicker(animationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fyne.Do(func() {
				a.session.hue = nextHue(a.session.hue)
				a.background.Refresh()
			})
		case <-stop:
			return
		}
	}
}
