package analyzer

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// coreAnalyzer implements MediaAnalyzer. It holds no per-call state; every
// call owns its frames, accumulators and worker pool.
type coreAnalyzer struct {
	metricsCalculator MetricsCalculator
}

// NewMediaAnalyzer creates a new media analyzer
func NewMediaAnalyzer() MediaAnalyzer {
	return &coreAnalyzer{
		metricsCalculator: NewMetricsCalculator(),
	}
}

// AnalyzeImage runs color statistics, edge density and sharpness over one frame
func (ca *coreAnalyzer) AnalyzeImage(buf *frame.Buffer, options AnalysisOptions) (models.ImageAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return models.ImageAnalysisResult{}, err
	}
	if err := checkFrame(buf); err != nil {
		return models.ImageAnalysisResult{}, err
	}

	start := time.Now()
	gray := buf.GrayImage()

	result := models.ImageAnalysisResult{
		Width:             buf.Width(),
		Height:            buf.Height(),
		Channels:          buf.Channels(),
		IsGrayscale:       ca.metricsCalculator.IsGrayscale(buf),
		AverageBrightness: ca.metricsCalculator.AverageBrightness(buf),
		DominantColors:    ca.metricsCalculator.DominantColors(buf, options.PaletteSize),
		EdgeCount:         ca.metricsCalculator.EdgeCount(gray),
		BlurScore:         ca.metricsCalculator.LaplacianVariance(gray),
	}

	logger.WithFields(logrus.Fields{
		"width":       result.Width,
		"height":      result.Height,
		"channels":    result.Channels,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Image analysis completed")

	return result, nil
}

// AnalyzeVideo samples frames evenly across the stream, analyzes them in
// parallel as they are decoded, then reduces the per-frame results.
func (ca *coreAnalyzer) AnalyzeVideo(src FrameSource, options AnalysisOptions) (models.VideoAnalysisResult, error) {
	if src == nil {
		return models.VideoAnalysisResult{}, apperrors.NewDecodeError("no frame source", nil)
	}
	if err := options.Validate(); err != nil {
		return models.VideoAnalysisResult{}, err
	}

	meta := src.Metadata()
	if meta.FrameCount <= 0 {
		return models.VideoAnalysisResult{}, apperrors.NewInvalidStreamError(
			fmt.Sprintf("frame count must be positive (got %d)", meta.FrameCount), nil)
	}
	if !(meta.FPS > 0) || math.IsInf(meta.FPS, 0) {
		return models.VideoAnalysisResult{}, apperrors.NewInvalidStreamError(
			fmt.Sprintf("fps must be positive and finite (got %v)", meta.FPS), nil)
	}

	start := time.Now()
	indices := SampleIndices(meta.FrameCount, options.SampleCount)

	workers := options.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(indices) {
		workers = len(indices)
	}
	pool := NewWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	fail := func(err error) (models.VideoAnalysisResult, error) {
		pool.Wait()
		return models.VideoAnalysisResult{}, err
	}

	stats := make([]frameStats, len(indices))
	var first *frame.Buffer
	pos := 0
	for i, idx := range indices {
		if err := skipFrames(src, idx-pos); err != nil {
			return fail(readError(err, idx, meta.FrameCount))
		}
		pos = idx

		buf, err := src.Next()
		if err != nil {
			return fail(readError(err, idx, meta.FrameCount))
		}
		pos++

		if err := checkFrame(buf); err != nil {
			return fail(err)
		}
		if first == nil {
			first = buf
		} else if !first.SameGeometry(buf) {
			return fail(apperrors.NewDecodeError(fmt.Sprintf(
				"frame %d is %dx%dx%d, expected %dx%dx%d", idx,
				buf.Width(), buf.Height(), buf.Channels(),
				first.Width(), first.Height(), first.Channels()), nil))
		}

		slot := i
		pool.Submit(func() {
			stats[slot] = ca.analyzeSampledFrame(buf, options.PaletteSize)
		})
	}
	pool.Wait()

	result, err := ca.reduce(stats, options.PaletteSize)
	if err != nil {
		return models.VideoAnalysisResult{}, err
	}
	result.FrameCount = meta.FrameCount
	result.FPS = meta.FPS
	result.DurationSeconds = float64(meta.FrameCount) / meta.FPS
	result.Width, result.Height = meta.Width, meta.Height
	if result.Width <= 0 || result.Height <= 0 {
		result.Width, result.Height = first.Width(), first.Height()
	}

	logger.WithFields(logrus.Fields{
		"frame_count": meta.FrameCount,
		"samples":     len(indices),
		"workers":     workers,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Video analysis completed")

	return result, nil
}

// analyzeSampledFrame is the parallel map step of the video pipeline
func (ca *coreAnalyzer) analyzeSampledFrame(buf *frame.Buffer, k int) frameStats {
	return frameStats{
		brightness:  ca.metricsCalculator.AverageBrightness(buf),
		isGrayscale: ca.metricsCalculator.IsGrayscale(buf),
		palette:     ca.metricsCalculator.DominantColors(buf, k),
		gray:        buf.GrayImage(),
	}
}

// reduce folds per-frame results in sample order
func (ca *coreAnalyzer) reduce(stats []frameStats, k int) (models.VideoAnalysisResult, error) {
	brightness := make([]float64, len(stats))
	palettes := make([][]models.Color, len(stats))
	planes := make([]*image.Gray, len(stats))
	isGray := true
	for i, s := range stats {
		brightness[i] = s.brightness
		palettes[i] = s.palette
		planes[i] = s.gray
		isGray = isGray && s.isGrayscale
	}

	motion, err := MotionScore(ca.metricsCalculator, planes)
	if err != nil {
		return models.VideoAnalysisResult{}, err
	}

	return models.VideoAnalysisResult{
		AverageBrightness: clamp(stat.Mean(brightness, nil), 0, 255),
		IsGrayscale:       isGray,
		MotionScore:       motion,
		DominantColors:    mergePalettes(palettes, k),
	}, nil
}

// checkFrame rejects missing frames and channel layouts the analyzers do not handle
func checkFrame(buf *frame.Buffer) error {
	if buf == nil {
		return apperrors.NewDecodeError("no decoded frame", nil)
	}
	if c := buf.Channels(); c != frame.Gray && c != frame.RGB {
		return apperrors.NewUnsupportedFormatError(
			fmt.Sprintf("frames must have 1 or 3 channels (got %d)", c), nil)
	}
	return nil
}

// skipFrames advances src by n frames without analyzing them
func skipFrames(src FrameSource, n int) error {
	if n <= 0 {
		return nil
	}
	if skipper, ok := src.(FrameSkipper); ok {
		return skipper.Skip(n)
	}
	for i := 0; i < n; i++ {
		if _, err := src.Next(); err != nil {
			return err
		}
	}
	return nil
}

// readError turns a frame source failure into a decode error
func readError(err error, idx, frameCount int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return apperrors.NewDecodeError(
			fmt.Sprintf("stream ended before sampled frame %d of %d", idx, frameCount), err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewDecodeError(fmt.Sprintf("failed to read frame %d", idx), err)
}
