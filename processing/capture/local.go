package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"
)

const standardFps uint = 30

// LocalFileStreamer replays a video file at the target frame rate, which
// lets the live view be exercised without a camera.
type LocalFileStreamer struct {
	stopOnce sync.Once

	path      string
	targetFPS uint

	width  int
	height int

	cmd       *exec.Cmd
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func NewLocalStreamer(path string, targetFPS uint, scaledWidth int, scaledHeight int) (*LocalFileStreamer, error) {
	if _, _, err := probeVideoDimensions(path); err != nil {
		return nil, fmt.Errorf("failed to probe video: %w", err)
	}

	if targetFPS == 0 {
		targetFPS = standardFps
	}

	return &LocalFileStreamer{
		path:      path,
		targetFPS: targetFPS,
		width:     scaledWidth,
		height:    scaledHeight,
		frameChan: make(chan image.Image, 10),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

func (ls *LocalFileStreamer) Start() error {
	args := append([]string{"-i", ls.path}, rawVideoArgs(ls.targetFPS, ls.width, ls.height, "neighbor")...)
	ls.cmd = exec.Command("ffmpeg", args...)

	stdout, err := ls.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ls.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	go ls.readFrames(stdout)

	return nil
}

func (ls *LocalFileStreamer) readFrames(stdout io.ReadCloser) {
	defer close(ls.frameChan)
	defer close(ls.errChan)
	defer stdout.Close()
	defer ls.stopCmdOut()

	buffer := make([]byte, frameSize(ls.width, ls.height))

	ticker := time.NewTicker(time.Second / time.Duration(ls.targetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ls.stopChan:
			return

		case <-ticker.C:
			img, err := readFrame(stdout, buffer, ls.width, ls.height)
			if errors.Is(err, io.EOF) {
				err = ErrEndOfStream
			}
			if err != nil {
				select {
				case <-ls.stopChan:
				default:
					ls.errChan <- err
				}
				return
			}

			select {
			case ls.frameChan <- img:
			case <-ls.stopChan:
				return
			}
		}
	}
}

func (ls *LocalFileStreamer) stopCmdOut() {
	if ls.cmd != nil && ls.cmd.Process != nil {
		ls.cmd.Process.Kill()
		ls.cmd.Wait()
	}
}

func (ls *LocalFileStreamer) Stop() {
	ls.stopOnce.Do(func() {
		close(ls.stopChan)
		ls.stopCmdOut()
	})
}

func (ls *LocalFileStreamer) FrameChan() <-chan image.Image {
	return ls.frameChan
}

func (ls *LocalFileStreamer) ErrorChan() <-chan error {
	return ls.errChan
}

type probeData struct {
	Streams []struct {
		Width  uint16 `json:"width"`
		Height uint16 `json:"height"`
	} `json:"streams"`
}

var errNoVideoStream = errors.New("no video streams found")

func parseProbe(output []byte) (uint16, uint16, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, 0, err
	}

	if len(data.Streams) == 0 {
		return 0, 0, errNoVideoStream
	}

	return data.Streams[0].Width, data.Streams[0].Height, nil
}

func probeVideoDimensions(path string) (uint16, uint16, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}

	return parseProbe(output)
}
