package decoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// frameCountEpsilon absorbs float error in duration x fps products
const frameCountEpsilon = 1e-6

// Probe reads the first video stream's metadata with ffprobe
func (e *Executor) Probe(ctx context.Context, filePath string) (models.StreamMetadata, error) {
	if filePath == "" {
		return models.StreamMetadata{}, apperrors.NewValidationError("file path is required", nil)
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-select_streams", "v:0",
		"-show_format",
		"-show_streams",
		filePath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return models.StreamMetadata{}, apperrors.NewTimeoutError("ffprobe did not finish", ctx.Err())
		}
		return models.StreamMetadata{}, apperrors.NewDecodeError(
			fmt.Sprintf("ffprobe failed: %s", strings.TrimSpace(stderr.String())), err)
	}

	meta, err := parseProbeOutput(output)
	if err != nil {
		return models.StreamMetadata{}, err
	}

	e.log.WithFields(logrus.Fields{
		"file":        filePath,
		"frame_count": meta.FrameCount,
		"fps":         meta.FPS,
		"width":       meta.Width,
		"height":      meta.Height,
		"pix_fmt":     meta.PixelFormat,
	}).Debug("Probed video stream")

	return meta, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		PixFmt       string `json:"pix_fmt"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// parseProbeOutput converts ffprobe JSON into stream metadata. The metadata is
// returned as reported; positivity of fps and frame count is checked by the
// analyzer so that invalid streams surface as invalid_stream errors.
func parseProbeOutput(output []byte) (models.StreamMetadata, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return models.StreamMetadata{}, apperrors.NewDecodeError("failed to parse ffprobe output", err)
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}

		meta := models.StreamMetadata{
			Width:       stream.Width,
			Height:      stream.Height,
			Codec:       stream.CodecName,
			PixelFormat: stream.PixFmt,
			Channels:    channelsForPixFmt(stream.PixFmt),
		}

		meta.FPS = ParseFrameRate(stream.RFrameRate)
		if meta.FPS <= 0 {
			meta.FPS = ParseFrameRate(stream.AvgFrameRate)
		}

		if n, err := strconv.Atoi(strings.TrimSpace(stream.NbFrames)); err == nil && n > 0 {
			meta.FrameCount = n
		} else {
			duration := parseSeconds(stream.Duration)
			if duration <= 0 {
				duration = parseSeconds(probe.Format.Duration)
			}
			if duration > 0 && meta.FPS > 0 {
				// Rounding up could promise a frame the stream never delivers
				meta.FrameCount = int(math.Floor(duration*meta.FPS + frameCountEpsilon))
			}
		}
		return meta, nil
	}

	return models.StreamMetadata{}, apperrors.NewUnsupportedFormatError("no video stream found", nil)
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0
		}
		return v
	}
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// channelsForPixFmt maps gray pixel formats to one channel, everything else to RGB
func channelsForPixFmt(pixFmt string) int {
	if strings.HasPrefix(pixFmt, "gray") || strings.HasPrefix(pixFmt, "ya") {
		return frame.Gray
	}
	return frame.RGB
}
