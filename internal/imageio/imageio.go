// Package imageio loads source pictures from disk and writes annotated
// results back.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	ErrLoad  = errors.New("failed to load image")
	ErrWrite = errors.New("failed to write image")

	ErrUnsupported = errors.New("unsupported image type")
)

// SupportedExtensions lists the file types offered in the open dialog.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tiff"}

const jpegQuality = 95

// Load decodes the image at path into a fresh RGBA buffer, honouring the
// EXIF orientation tag when one is present.
func Load(path string) (*image.RGBA, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrLoad)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, filepath.Base(path), err)
	}

	return Orient(ToRGBA(img), Orientation(data)), nil
}

// ToRGBA copies img into a zero-origin RGBA buffer.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Save encodes img according to the extension of path. Anything that is not
// png or gif is written as JPEG.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".gif":
		err = gif.Encode(f, img, nil)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, filepath.Base(path), err)
	}
	return nil
}

// Thumbnail scales img down to fit within maxW x maxH keeping its aspect
// ratio. Images that already fit are returned as is.
func Thumbnail(img image.Image, maxW, maxH uint) image.Image {
	b := img.Bounds()
	if uint(b.Dx()) <= maxW && uint(b.Dy()) <= maxH {
		return img
	}
	return resize.Thumbnail(maxW, maxH, img, resize.Bilinear)
}

// IsSupported reports whether path has one of SupportedExtensions.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return ext == ".tif"
}

// CheckSupported returns an error wrapping ErrUnsupported unless path has
// one of SupportedExtensions.
func CheckSupported(path string) error {
	if IsSupported(path) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupported, filepath.Base(path))
}
