package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

type SourceType string

const (
	SourceWebcam SourceType = "Web-Camera"
	SourceLocal  SourceType = "Video-File"

	AppName               string = "detectstudio"
	DefaultConfigFile     string = "config.json"
	DefaultDetectorHost   string = "localhost:8080"
	DefaultOutputPath     string = "detection_result.jpg"
	DefaultWebcamDeviceID string = "/dev/video0"
	DefaultDetectTimeout  uint   = 30
)

var SourcesList = [...]string{
	string(SourceWebcam),
	string(SourceLocal),
}

var (
	ErrInvalidFPS       = errors.New("invalid fps: must be positive")
	ErrInvalidFrameSize = errors.New("invalid frame size: width and height must be positive")
	ErrNoDetectorHost   = errors.New("no detector host configured")
	ErrNoOutputPath     = errors.New("no output path configured")
	ErrUnknownSource    = errors.New("unknown capture source")
	ErrInvalidTimeout   = errors.New("invalid detect timeout: must be positive")
)

type LocalConfig struct {
	Path string `json:"path"`
}

type WebcamConfig struct {
	DeviceID string `json:"device_id"`
}

type Config struct {
	mu sync.RWMutex

	DetectorHost string     `json:"detector_host"`
	OutputPath   string     `json:"output_path"`
	TimeoutSec   uint       `json:"detect_timeout_sec"`
	ActiveSource SourceType `json:"active_source"`
	TargetFPS    uint       `json:"target_fps"`
	ScaledWidth  int        `json:"scaled_width"`
	ScaledHeight int        `json:"scaled_height"`

	Local  LocalConfig  `json:"local"`
	Webcam WebcamConfig `json:"webcam"`
}

// DefaultPath is the config file under the user's XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, DefaultConfigFile)
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.TargetFPS
}

func (c *Config) SetFPS(fps uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TargetFPS = fps
}

func (c *Config) GetWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledWidth
}

func (c *Config) SetWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledWidth = width
}

func (c *Config) GetHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ScaledHeight
}

func (c *Config) SetHeight(height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScaledHeight = height
}

func (c *Config) GetSource() SourceType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ActiveSource
}

func (c *Config) SetSource(s SourceType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ActiveSource = s
}

func (c *Config) GetDeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Webcam.DeviceID
}

func (c *Config) SetDeviceID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Webcam.DeviceID = id
}

func (c *Config) GetVideoPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Local.Path
}

func (c *Config) SetVideoPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Local.Path = path
}

func (c *Config) GetDetectorHost() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DetectorHost
}

func (c *Config) GetOutputPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OutputPath
}

// GetDetectTimeout bounds a single still-image detection run.
func (c *Config) GetDetectTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *Config) SetDetectTimeout(seconds uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TimeoutSec = seconds
}

// Validate reports the first setting that would make capture or
// detection fail.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.DetectorHost == "" {
		return ErrNoDetectorHost
	}
	if c.OutputPath == "" {
		return ErrNoOutputPath
	}
	if c.TimeoutSec == 0 {
		return ErrInvalidTimeout
	}
	if c.TargetFPS == 0 {
		return ErrInvalidFPS
	}
	if c.ScaledWidth <= 0 || c.ScaledHeight <= 0 {
		return ErrInvalidFrameSize
	}
	switch c.ActiveSource {
	case SourceWebcam, SourceLocal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.ActiveSource)
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	c.mu.RLock()
	defer c.mu.RUnlock()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func (c *Config) SaveByDefault() error {
	return c.Save(DefaultPath())
}

// LoadConfigFile reads path over the defaults. A missing file yields the
// defaults; a malformed one yields the defaults and the decode error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return NewDefaultConfig(), fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, nil
}

func NewDefaultConfig() *Config {
	return &Config{
		DetectorHost: DefaultDetectorHost,
		OutputPath:   DefaultOutputPath,
		TimeoutSec:   DefaultDetectTimeout,
		ActiveSource: SourceWebcam,
		Webcam:       WebcamConfig{DeviceID: DefaultWebcamDeviceID},
		TargetFPS:    24,
		ScaledWidth:  640,
		ScaledHeight: 480,
	}
}
