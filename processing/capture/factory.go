package capture

import (
	"fmt"

	"detectstudio/internal/config"
)

// NewStreamer builds the frame source selected in cfg. It does not start it.
func NewStreamer(cfg *config.Config) (VideoStreamer, error) {
	switch cfg.GetSource() {
	case config.SourceWebcam:
		return NewFFmpegWebcam(cfg.GetDeviceID(), cfg.GetFPS(), cfg.GetWidth(), cfg.GetHeight()), nil
	case config.SourceLocal:
		return NewLocalStreamer(cfg.GetVideoPath(), cfg.GetFPS(), cfg.GetWidth(), cfg.GetHeight())
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownSource, cfg.GetSource())
	}
}
