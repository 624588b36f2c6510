package imageio

import (
	"image"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Orientation returns the EXIF orientation (1..8) embedded in data, or 1
// when there is none or it cannot be parsed.
func Orientation(data []byte) int {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return 1
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 1
	}

	for _, entry := range entries {
		if entry.TagName != "Orientation" {
			continue
		}

		var v int
		switch val := entry.Value.(type) {
		case []uint16:
			if len(val) > 0 {
				v = int(val[0])
			}
		default:
			v, _ = strconv.Atoi(strings.Trim(entry.Formatted, "[] "))
		}

		if v >= 1 && v <= 8 {
			return v
		}
		return 1
	}

	return 1
}

// Orient returns img transformed so that orientation o displays upright.
func Orient(img *image.RGBA, o int) *image.RGBA {
	if o <= 1 || o > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dw, dh := w, h
	if o >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch o {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.SetRGBA(dx, dy, img.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}

	return dst
}
