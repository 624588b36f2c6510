// Package capture turns cameras and video files into streams of RGBA
// frames by piping raw video out of an ffmpeg subprocess.
package capture

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// ErrCameraUnavailable is returned when a capture device cannot be opened
// or stops delivering frames.
var ErrCameraUnavailable = errors.New("could not access the camera")

// ErrEndOfStream is reported by finite sources once every frame was read.
var ErrEndOfStream = errors.New("end of stream")

const bytesPerPixel = 4

type VideoStreamer interface {
	Start() error
	Stop()
	FrameChan() <-chan image.Image
	ErrorChan() <-chan error
}

// readFrame fills buf with exactly one raw RGBA frame from r and returns it
// as an image backed by a private copy of the pixels.
func readFrame(r io.Reader, buf []byte, width, height int) (*image.RGBA, error) {
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	pix := make([]byte, len(buf))
	copy(pix, buf)

	return &image.RGBA{
		Pix:    pix,
		Stride: width * bytesPerPixel,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

func frameSize(width, height int) int {
	return width * height * bytesPerPixel
}

// rawVideoArgs is the ffmpeg output half shared by every source: scale to
// the target size and emit raw RGBA on stdout.
func rawVideoArgs(fps uint, width, height int, flags string) []string {
	scale := fmt.Sprintf("fps=%d,scale=%d:%d", fps, width, height)
	if flags != "" {
		scale += ":flags=" + flags
	}
	return []string{
		"-vf", scale,
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}
}
