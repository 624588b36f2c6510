package processing

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"

	"detectstudio/internal/config"
	"detectstudio/internal/models"
	"detectstudio/processing/capture"
)

var testBackground = color.RGBA{1, 2, 3, 255}

func solidFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(testBackground), image.Point{}, draw.Src)
	return img
}

type fakeDetector struct {
	dets  []models.Detection
	err   error
	calls atomic.Int32
}

func (f *fakeDetector) Detect(ctx context.Context, img image.Image) ([]models.Detection, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.dets, f.err
}

type fakeStreamer struct {
	frames   chan image.Image
	errs     chan error
	startErr error

	stopOnce sync.Once
	stopped  atomic.Bool
}

func newFakeStreamer() *fakeStreamer {
	return &fakeStreamer{
		frames: make(chan image.Image, 8),
		errs:   make(chan error, 1),
	}
}

func (s *fakeStreamer) Start() error                  { return s.startErr }
func (s *fakeStreamer) Stop()                         { s.stopOnce.Do(func() { s.stopped.Store(true) }) }
func (s *fakeStreamer) FrameChan() <-chan image.Image { return s.frames }
func (s *fakeStreamer) ErrorChan() <-chan error       { return s.errs }

// sequence hands out the given streamers one per call.
type sequence struct {
	mu        sync.Mutex
	streamers []*fakeStreamer
	calls     int
}

func (q *sequence) factory(*config.Config) (capture.VideoStreamer, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.calls >= len(q.streamers) {
		q.calls++
		return nil, capture.ErrCameraUnavailable
	}
	s := q.streamers[q.calls]
	q.calls++
	return s, nil
}

func (q *sequence) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}
