package analyzer

import (
	"image"

	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// MediaAnalyzer defines the feature-extraction entry points
type MediaAnalyzer interface {
	// AnalyzeImage extracts features from one decoded frame.
	AnalyzeImage(buf *frame.Buffer, options AnalysisOptions) (models.ImageAnalysisResult, error)

	// AnalyzeVideo samples frames from src and aggregates their features.
	// The caller owns src and is responsible for closing it.
	AnalyzeVideo(src FrameSource, options AnalysisOptions) (models.VideoAnalysisResult, error)
}

// FrameSource is a sequential decoded frame stream. Next returns io.EOF once
// the stream is exhausted.
type FrameSource interface {
	Metadata() models.StreamMetadata
	Next() (*frame.Buffer, error)
	Close() error
}

// FrameSkipper is implemented by sources that can discard frames without
// materializing them.
type FrameSkipper interface {
	Skip(n int) error
}

// MetricsCalculator handles per-frame metric computation
type MetricsCalculator interface {
	IsGrayscale(buf *frame.Buffer) bool
	AverageBrightness(buf *frame.Buffer) float64
	DominantColors(buf *frame.Buffer, k int) []models.Color
	EdgeCount(gray *image.Gray) int
	LaplacianVariance(gray *image.Gray) float64
	MeanAbsDiff(a, b *image.Gray) float64
}
