package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"sync"
)

type FFmpegWebcamStreamer struct {
	stopOnce sync.Once

	deviceName string
	width      int
	height     int
	targetFPS  uint

	cmd       *exec.Cmd
	frameChan chan image.Image
	errChan   chan error

	stopChan chan struct{}
}

func NewFFmpegWebcam(deviceName string, targetFps uint, scaledWidth int, scaledHeight int) *FFmpegWebcamStreamer {
	return &FFmpegWebcamStreamer{
		deviceName: deviceName,
		width:      scaledWidth,
		height:     scaledHeight,
		targetFPS:  targetFps,

		frameChan: make(chan image.Image),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}
}

// inputArgs selects the platform capture driver for the device.
func (ws *FFmpegWebcamStreamer) inputArgs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", ws.deviceName)}
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", fmt.Sprint(ws.targetFPS), "-i", ws.deviceName}
	default:
		return []string{"-f", "v4l2", "-i", ws.deviceName}
	}
}

func (ws *FFmpegWebcamStreamer) Start() error {
	args := append(ws.inputArgs(), rawVideoArgs(ws.targetFPS, ws.width, ws.height, "")...)
	ws.cmd = exec.Command("ffmpeg", args...)

	var stderr bytes.Buffer
	ws.cmd.Stderr = &stderr

	stdout, err := ws.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	if err := ws.cmd.Start(); err != nil {
		return fmt.Errorf("%w: ffmpeg start error: %v. Details: %s", ErrCameraUnavailable, err, stderr.String())
	}

	go ws.readLoop(stdout)

	return nil
}

func (ws *FFmpegWebcamStreamer) readLoop(stdout io.ReadCloser) {
	defer close(ws.frameChan)
	defer close(ws.errChan)
	defer stdout.Close()
	defer ws.stopCmdOut()

	buffer := make([]byte, frameSize(ws.width, ws.height))

	for {
		select {
		case <-ws.stopChan:
			return

		default:
			img, err := readFrame(stdout, buffer, ws.width, ws.height)
			if err != nil {
				select {
				case <-ws.stopChan:
				default:
					ws.errChan <- fmt.Errorf("%w: %s: %v", ErrCameraUnavailable, ws.deviceName, err)
				}
				return
			}

			// The display keeps only the newest frame; drop when busy.
			select {
			case ws.frameChan <- img:
			default:
			}
		}
	}
}

func (ws *FFmpegWebcamStreamer) stopCmdOut() {
	if ws.cmd != nil && ws.cmd.Process != nil {
		ws.cmd.Process.Kill()
		ws.cmd.Wait()
	}
}

func (ws *FFmpegWebcamStreamer) Stop() {
	ws.stopOnce.Do(func() {
		close(ws.stopChan)
		ws.stopCmdOut()
	})
}

func (ws *FFmpegWebcamStreamer) FrameChan() <-chan image.Image { return ws.frameChan }
func (ws *FFmpegWebcamStreamer) ErrorChan() <-chan error       { return ws.errChan }

var dshowDeviceRe = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

// parseDshowDevices pulls video device names out of ffmpeg's dshow listing.
func parseDshowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)

	for _, m := range dshowDeviceRe.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}
	return cameras
}

// ListCameras returns the capture devices ffmpeg can open on this machine.
func ListCameras() ([]string, error) {
	switch runtime.GOOS {
	case "windows":
		cmd := exec.Command("ffmpeg", "-list_devices", "true", "-f", "dshow", "-i", "dummy")
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		// ffmpeg exits non-zero after listing; the listing is what we want.
		cmd.Run()
		return parseDshowDevices(stderr.String()), nil
	case "darwin":
		return []string{"0", "1"}, nil
	default:
		devices, err := filepath.Glob("/dev/video*")
		if err != nil {
			return nil, err
		}
		sort.Strings(devices)
		return devices, nil
	}
}
