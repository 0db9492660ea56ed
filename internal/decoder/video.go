package decoder

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// maxStderrBytes bounds the ffmpeg diagnostics kept for error messages.
const maxStderrBytes = 8 * 1024

// VideoStream is a sequential raw-frame reader. Frames are decoded by an ffmpeg
// child process writing rgb24 or gray samples to a pipe.
type VideoStream struct {
	meta      models.StreamMetadata
	frameSize int
	r         *bufio.Reader

	ctx    context.Context
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr *limitedBuffer
	log    *logrus.Entry

	closeOnce sync.Once
}

// OpenVideo probes path and starts decoding its first video stream. The
// returned stream must be closed.
func (e *Executor) OpenVideo(ctx context.Context, path string) (*VideoStream, error) {
	meta, err := e.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("video stream has invalid geometry %dx%d", meta.Width, meta.Height), nil)
	}

	pixFmt := "rgb24"
	if meta.Channels == frame.Gray {
		pixFmt = "gray"
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-map", "0:v:0",
		"-vsync", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", pixFmt,
		"-",
	}

	e.log.WithFields(logrus.Fields{
		"cmd":  "ffmpeg",
		"args": strings.Join(args, " "),
	}).Debug("Starting frame decoder")

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stderr := &limitedBuffer{limit: maxStderrBytes}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, apperrors.NewInternalError("failed to create stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, apperrors.NewDecodeError("failed to start ffmpeg", err)
	}

	s := newRawStream(meta, stdout)
	s.ctx = ctx
	s.cmd = cmd
	s.cancel = cancel
	s.stderr = stderr
	s.log = e.log.WithField("file", path)
	return s, nil
}

// newRawStream wraps a reader of packed raw frames
func newRawStream(meta models.StreamMetadata, r io.Reader) *VideoStream {
	if meta.Channels != frame.Gray {
		meta.Channels = frame.RGB
	}
	return &VideoStream{
		meta:      meta,
		frameSize: meta.Width * meta.Height * meta.Channels,
		r:         bufio.NewReaderSize(r, 1<<20),
	}
}

// Metadata returns the probed stream metadata
func (s *VideoStream) Metadata() models.StreamMetadata {
	return s.meta
}

// Next decodes the next frame. It returns io.EOF at a clean end of stream and
// a decode error when the stream ends mid-frame.
func (s *VideoStream) Next() (*frame.Buffer, error) {
	pix := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.r, pix); err != nil {
		return nil, s.readErr(err)
	}
	buf, err := frame.New(s.meta.Width, s.meta.Height, s.meta.Channels, pix)
	if err != nil {
		return nil, apperrors.NewDecodeError("invalid raw frame", err)
	}
	return buf, nil
}

// Skip discards n frames without allocating them
func (s *VideoStream) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := s.r.Discard(n * s.frameSize); err != nil {
		return s.readErr(err)
	}
	return nil
}

// readErr classifies a failed read. A cancelled context kills ffmpeg and
// closes the pipe, which must not be reported as a corrupt stream.
func (s *VideoStream) readErr(err error) error {
	if s.ctx != nil && s.ctx.Err() != nil {
		return apperrors.NewTimeoutError("video decode cancelled", s.ctx.Err())
	}
	if err == io.EOF {
		if msg := s.diagnostics(); msg != "" {
			return apperrors.NewDecodeError(fmt.Sprintf("ffmpeg: %s", msg), io.EOF)
		}
		return io.EOF
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return apperrors.NewDecodeError("stream ended mid-frame", err)
	}
	return apperrors.NewDecodeError("failed to read frame data", err)
}

func (s *VideoStream) diagnostics() string {
	if s.stderr == nil {
		return ""
	}
	return strings.TrimSpace(s.stderr.String())
}

// Close stops the decoder process and releases its resources
func (s *VideoStream) Close() error {
	s.closeOnce.Do(func() {
		if s.cmd == nil {
			return
		}
		s.cancel()
		// The process is killed once frames are no longer needed, so its exit
		// status carries no information.
		_ = s.cmd.Wait()
		if s.log != nil {
			s.log.Debug("Frame decoder stopped")
		}
	})
	return nil
}

// limitedBuffer keeps the first limit bytes written to it
type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
