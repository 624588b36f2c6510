package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"detectstudio/internal/logger"
	"detectstudio/internal/models"

	"github.com/gorilla/websocket"
)

// ErrDetector wraps every failure talking to the detection server.
var ErrDetector = errors.New("detector unavailable")

// Detector runs the pretrained model over one image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]models.Detection, error)
}

const (
	handshakeTimeout = 5 * time.Second
	frameQuality     = 85
)

// RemoteDetector sends frames to the detection server over a websocket:
// one binary JPEG message out, one JSON []DetectionResult message back.
// Calls are serialised; a broken connection is re-dialled on the next call.
type RemoteDetector struct {
	serverURL string
	dialer    *websocket.Dialer
	log       *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewRemoteDetector(host string, log *slog.Logger) *RemoteDetector {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	return &RemoteDetector{
		serverURL: u.String(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		log: logger.Component(log, "detector"),
	}
}

func (d *RemoteDetector) URL() string {
	return d.serverURL
}

func (d *RemoteDetector) Detect(ctx context.Context, img image.Image) ([]models.Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: frameQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	results, err := d.roundTrip(ctx, conn, buf.Bytes())
	if err != nil {
		d.log.Warn("connection lost", "err", err)
		d.closeLocked()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("%w: %v", ErrDetector, err)
	}

	bounds := img.Bounds()
	dets := make([]models.Detection, 0, len(results))
	for _, r := range results {
		if det, ok := r.ToDetection(bounds); ok {
			dets = append(dets, det)
		}
	}

	d.log.Debug("detections received", "raw", len(results), "kept", len(dets))
	return dets, nil
}

func (d *RemoteDetector) connect(ctx context.Context) (*websocket.Conn, error) {
	if d.conn != nil {
		return d.conn, nil
	}

	d.log.Info("connecting to detector server", "url", d.serverURL)
	conn, _, err := d.dialer.DialContext(ctx, d.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrDetector, d.serverURL, err)
	}

	d.log.Info("connected to detection server")
	d.conn = conn
	return conn, nil
}

func (d *RemoteDetector) roundTrip(ctx context.Context, conn *websocket.Conn, frame []byte) ([]models.DetectionResult, error) {
	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	// Unblock a pending read when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, err
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var results []models.DetectionResult
	if err := json.Unmarshal(message, &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}

func (d *RemoteDetector) closeLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}

	d.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := d.conn.Close()
	d.conn = nil
	return err
}
