package decoder

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/media-inspector-go/internal/logger"
)

var (
	// ErrFFmpegNotFound is returned when the ffmpeg binary cannot be located.
	ErrFFmpegNotFound = errors.New("decoder: ffmpeg not found")

	// ErrFFprobeNotFound is returned when the ffprobe binary cannot be located.
	ErrFFprobeNotFound = errors.New("decoder: ffprobe not found")
)

// Executor runs ffprobe and ffmpeg to read video metadata and raw frames
type Executor struct {
	log         *logrus.Entry
	ffmpegPath  string
	ffprobePath string
}

// NewExecutor resolves both binaries, by name through PATH or as given paths
func NewExecutor(ffmpeg, ffprobe string) (*Executor, error) {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	ffprobePath, err := exec.LookPath(ffprobe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFprobeNotFound, err)
	}

	return &Executor{
		log:         logger.WithField("component", "ffmpeg"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// FFmpegPath returns the resolved ffmpeg binary
func (e *Executor) FFmpegPath() string {
	return e.ffmpegPath
}

// FFprobePath returns the resolved ffprobe binary
func (e *Executor) FFprobePath() string {
	return e.ffprobePath
}
