package report

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
)

const firstFrameQuality = 90

// FirstFramePath names the exported first frame of video inside dir
func FirstFramePath(dir, video string) string {
	base := filepath.Base(video)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_first_frame.jpg")
}

// SaveFirstFrame writes buf as a JPEG. A non-zero width downscales the frame
// preserving aspect ratio; frames already narrower are written as-is.
func SaveFirstFrame(path string, buf *frame.Buffer, width uint) error {
	if buf == nil {
		return apperrors.NewValidationError("no frame to export", nil)
	}

	img := buf.Image()
	if width > 0 && int(width) < buf.Width() {
		img = resize.Resize(width, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", filepath.Dir(path)), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", path), err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: firstFrameQuality}); err != nil {
		f.Close()
		return apperrors.NewInternalError("failed to encode first frame", err)
	}
	if err := f.Close(); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to close %s", path), err)
	}
	return nil
}
