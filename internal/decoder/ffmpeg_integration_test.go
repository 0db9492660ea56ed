package decoder

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/anime-shed/media-inspector-go/internal/frame"
)

func requireFFmpeg(t *testing.T) *Executor {
	t.Helper()
	e, err := NewExecutor("", "")
	if err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}
	return e
}

// makeClip renders a lossless solid-color clip with ffmpeg's lavfi source
func makeClip(t *testing.T, e *Executor, frames int, rate string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mkv")
	cmd := exec.Command(e.FFmpegPath(), "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=c=gray:s=32x24:r="+rate,
		"-frames:v", strconv.Itoa(frames), "-c:v", "ffv1", "-pix_fmt", "yuv444p", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg cannot render test clip: %v: %s", err, out)
	}
	return path
}

func TestExecutor_OpenVideo(t *testing.T) {
	e := requireFFmpeg(t)
	path := makeClip(t, e, 50, "25")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := e.OpenVideo(ctx, path)
	if err != nil {
		t.Fatalf("OpenVideo: %v", err)
	}
	defer s.Close()

	meta := s.Metadata()
	if meta.Width != 32 || meta.Height != 24 || meta.FPS != 25 {
		t.Errorf("Unexpected metadata %+v", meta)
	}
	if meta.FrameCount < 49 || meta.FrameCount > 51 {
		t.Errorf("Expected about 50 frames, got %d", meta.FrameCount)
	}

	first, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Channels() != frame.RGB || first.Width() != 32 {
		t.Errorf("Unexpected first frame %dx%dx%d", first.Width(), first.Height(), first.Channels())
	}

	read := 1
	for {
		if _, err := s.Next(); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Next: %v", err)
		}
		read++
	}
	if read != meta.FrameCount {
		t.Errorf("Decoded %d frames, metadata reported %d", read, meta.FrameCount)
	}
}

func TestExecutor_ProbeMissingFile(t *testing.T) {
	e := requireFFmpeg(t)
	if _, err := e.Probe(context.Background(), filepath.Join(t.TempDir(), "nope.mp4")); err == nil {
		t.Error("Expected probe of a missing file to fail")
	}
}
