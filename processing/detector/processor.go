package processing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"detectstudio/internal/config"
	"detectstudio/internal/imageio"
	"detectstudio/internal/logger"
	"detectstudio/internal/render"
	"detectstudio/processing/capture"
)

// FrameSink receives every annotated frame. It runs on the capture
// goroutine and must hand the frame to the UI rather than block.
type FrameSink func(frame *image.RGBA)

type StreamerFactory func(cfg *config.Config) (capture.VideoStreamer, error)

// Processor is the live camera loop: read a frame, detect, draw boxes and
// the exit button, hand it to the sink. It stops on an exit gesture, on
// context cancellation, or when the device fails again right after the
// one reconnect it is allowed.
type Processor struct {
	cfg     *config.Config
	det     Detector
	palette *render.Palette
	log     *slog.Logger

	newStreamer StreamerFactory

	exitChan chan struct{}
	exitOnce sync.Once
	gesture  ExitGesture

	latency atomic.Int64
	fps     atomic.Uint32
}

func NewProcessor(cfg *config.Config, det Detector, palette *render.Palette, log *slog.Logger) *Processor {
	if palette == nil {
		palette = render.NewPalette()
	}

	return &Processor{
		cfg:         cfg,
		det:         det,
		palette:     palette,
		log:         logger.Component(log, "processor"),
		newStreamer: capture.NewStreamer,
		exitChan:    make(chan struct{}),
	}
}

// SetStreamerFactory replaces the frame source constructor.
func (p *Processor) SetStreamerFactory(f StreamerFactory) {
	p.newStreamer = f
}

func (p *Processor) Latency() time.Duration {
	return time.Duration(p.latency.Load())
}

func (p *Processor) FPS() uint {
	return uint(p.fps.Load())
}

// RequestExit ends Run after the frame in flight.
func (p *Processor) RequestExit() {
	p.exitOnce.Do(func() { close(p.exitChan) })
}

// PointerMoved, PointerPressed and PointerReleased feed mouse events in
// frame coordinates; a press and release both inside the exit button
// requests exit.
func (p *Processor) PointerMoved(pos image.Point, frame image.Rectangle) {
	p.gesture.Move(pos, frame)
}

func (p *Processor) PointerPressed(pos image.Point, frame image.Rectangle) {
	p.gesture.Press(pos, frame)
}

func (p *Processor) PointerReleased(pos image.Point, frame image.Rectangle) {
	if p.gesture.Release(pos, frame) {
		p.RequestExit()
	}
}

func (p *Processor) open() (capture.VideoStreamer, error) {
	s, err := p.newStreamer(p.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capture.ErrCameraUnavailable, err)
	}
	if err := s.Start(); err != nil {
		if errors.Is(err, capture.ErrCameraUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", capture.ErrCameraUnavailable, err)
	}
	return s, nil
}

// Run blocks until the loop ends. A clean exit or the end of a video file
// returns nil; a device that cannot be opened or reopened returns an error
// wrapping capture.ErrCameraUnavailable.
func (p *Processor) Run(ctx context.Context, sink FrameSink) error {
	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}

	streamer, err := p.open()
	if err != nil {
		return err
	}
	defer func() {
		if streamer != nil {
			streamer.Stop()
		}
	}()

	p.log.Info("capture started", "source", p.cfg.GetSource())

	reconnected := false
	var frameCount uint32
	lastFpsUpdate := time.Now()

	for {
		var failure error

		select {
		case <-ctx.Done():
			return nil

		case <-p.exitChan:
			p.log.Info("capture stopped by user")
			return nil

		case frame, ok := <-streamer.FrameChan():
			if !ok {
				failure = errors.New("frame stream closed")
				select {
				case err, ok := <-streamer.ErrorChan():
					if ok && err != nil {
						failure = err
					}
				default:
				}
				break
			}
			if frame == nil {
				continue
			}

			start := time.Now()
			if err := p.processFrame(ctx, renderer, frame, sink); err != nil {
				return nil
			}
			p.latency.Store(int64(time.Since(start)))

			reconnected = false

			frameCount++
			if time.Since(lastFpsUpdate) >= time.Second {
				p.fps.Store(frameCount)
				frameCount = 0
				lastFpsUpdate = time.Now()
			}

		case err, ok := <-streamer.ErrorChan():
			if !ok || err == nil {
				err = errors.New("error stream closed")
			}
			failure = err
		}

		if failure == nil {
			continue
		}

		streamer.Stop()
		streamer = nil

		if errors.Is(failure, capture.ErrEndOfStream) {
			p.log.Info("capture reached end of stream")
			return nil
		}
		if reconnected {
			p.log.Error("camera failed after reconnect", "err", failure)
			return fmt.Errorf("%w: %v", capture.ErrCameraUnavailable, failure)
		}

		p.log.Warn("frame read failed, reopening device", "err", failure)
		s, err := p.open()
		if err != nil {
			p.log.Error("camera reopen failed", "err", err)
			return err
		}
		streamer = s
		reconnected = true
	}
}

// processFrame returns an error only when ctx was cancelled mid-frame.
func (p *Processor) processFrame(ctx context.Context, renderer *render.Renderer, frame image.Image, sink FrameSink) error {
	rgba, ok := frame.(*image.RGBA)
	if !ok {
		rgba = imageio.ToRGBA(frame)
	}

	dets, err := p.det.Detect(ctx, rgba)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		p.log.Debug("detection skipped", "err", err)
	default:
		if _, err := renderer.Annotate(rgba, dets, p.palette); err != nil && !errors.Is(err, render.ErrNoDetections) {
			p.log.Warn("annotate frame", "err", err)
		}
	}

	renderer.DrawExitButton(rgba, p.gesture.Hover())
	sink(rgba)
	return nil
}

// ExitGesture tracks the pointer over the exit button: press inside, then
// release inside.
type ExitGesture struct {
	mu      sync.Mutex
	hover   bool
	pressed bool
}

func (g *ExitGesture) Move(pos image.Point, frame image.Rectangle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hover = pos.In(render.ExitRegion(frame))
}

func (g *ExitGesture) Press(pos image.Point, frame image.Rectangle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hover = pos.In(render.ExitRegion(frame))
	g.pressed = g.hover
}

// Release reports whether the gesture completed.
func (g *ExitGesture) Release(pos image.Point, frame image.Rectangle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hover = pos.In(render.ExitRegion(frame))
	done := g.pressed && g.hover
	g.pressed = false
	return done
}

func (g *ExitGesture) Hover() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hover
}
