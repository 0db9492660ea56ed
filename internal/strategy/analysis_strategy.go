package strategy

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	"github.com/anime-shed/media-inspector-go/internal/decoder"
	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/service"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// Outcome is the result of analyzing one file. Exactly one of Image and
// Video is set.
type Outcome struct {
	MediaType models.MediaType
	Image     *models.ImageAnalysisResult
	Video     *models.VideoAnalysisResult
}

// AnalysisStrategy analyzes a local file of one media type
type AnalysisStrategy interface {
	Analyze(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (Outcome, error)
	GetStrategyName() string
}

// ImageAnalysisStrategy decodes a still image and runs the image pipeline
type ImageAnalysisStrategy struct {
	service service.MediaAnalysisService
}

// NewImageAnalysisStrategy creates a new image analysis strategy
func NewImageAnalysisStrategy(svc service.MediaAnalysisService) AnalysisStrategy {
	return &ImageAnalysisStrategy{service: svc}
}

// Analyze performs image analysis
func (s *ImageAnalysisStrategy) Analyze(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (Outcome, error) {
	result, err := s.service.AnalyzeImageFile(ctx, filePath, options)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{MediaType: models.MediaTypeImage, Image: result}, nil
}

// GetStrategyName returns the strategy name
func (s *ImageAnalysisStrategy) GetStrategyName() string {
	return "image_analysis"
}

// VideoAnalysisStrategy samples a video and runs the video pipeline
type VideoAnalysisStrategy struct {
	service service.MediaAnalysisService
}

// NewVideoAnalysisStrategy creates a new video analysis strategy
func NewVideoAnalysisStrategy(svc service.MediaAnalysisService) AnalysisStrategy {
	return &VideoAnalysisStrategy{service: svc}
}

// Analyze performs video analysis
func (s *VideoAnalysisStrategy) Analyze(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (Outcome, error) {
	result, err := s.service.AnalyzeVideoFile(ctx, filePath, options)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{MediaType: models.MediaTypeVideo, Video: result}, nil
}

// GetStrategyName returns the strategy name
func (s *VideoAnalysisStrategy) GetStrategyName() string {
	return "video_analysis"
}

// AnalysisContext picks a strategy per file by its extension
type AnalysisContext struct {
	strategies map[models.MediaType]AnalysisStrategy
}

// NewAnalysisContext registers the image and video strategies backed by svc
func NewAnalysisContext(svc service.MediaAnalysisService) *AnalysisContext {
	return &AnalysisContext{
		strategies: map[models.MediaType]AnalysisStrategy{
			models.MediaTypeImage: NewImageAnalysisStrategy(svc),
			models.MediaTypeVideo: NewVideoAnalysisStrategy(svc),
		},
	}
}

// SetStrategy replaces the strategy used for mediaType
func (c *AnalysisContext) SetStrategy(mediaType models.MediaType, strategy AnalysisStrategy) {
	c.strategies[mediaType] = strategy
}

// StrategyFor returns the strategy for filePath, or an unsupported_format
// error when the extension is neither image nor video
func (c *AnalysisContext) StrategyFor(filePath string) (AnalysisStrategy, error) {
	mediaType := decoder.DetectMediaType(filePath)
	strategy, ok := c.strategies[mediaType]
	if !ok {
		return nil, apperrors.NewUnsupportedFormatError(
			fmt.Sprintf("unsupported file type %q", filepath.Ext(filePath)), nil)
	}
	return strategy, nil
}

// ExecuteAnalysis analyzes filePath with the strategy matching its type
func (c *AnalysisContext) ExecuteAnalysis(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (Outcome, error) {
	strategy, err := c.StrategyFor(filePath)
	if err != nil {
		return Outcome{}, err
	}
	return strategy.Analyze(ctx, filePath, options)
}
