package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	"github.com/anime-shed/media-inspector-go/internal/decoder"
	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/internal/observer"
	"github.com/anime-shed/media-inspector-go/internal/repository"
	"github.com/anime-shed/media-inspector-go/internal/storage"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// MediaAnalysisService runs the analysis pipelines over media addressed by URL,
// by uploaded bytes, or by local path
type MediaAnalysisService interface {
	AnalyzeImageURL(ctx context.Context, mediaURL string, options analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error)
	AnalyzeVideoURL(ctx context.Context, mediaURL string, options analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error)

	AnalyzeImageBytes(ctx context.Context, name string, data []byte, options analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error)
	AnalyzeVideoBytes(ctx context.Context, name string, data []byte, options analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error)

	AnalyzeImageFile(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error)
	AnalyzeVideoFile(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error)

	// FirstFrame decodes only the first frame of a video file
	FirstFrame(ctx context.Context, filePath string) (*frame.Buffer, error)

	ValidateMediaURL(mediaURL string) error
}

// VideoOpener starts decoding the video file at filePath
type VideoOpener func(ctx context.Context, filePath string) (analyzer.FrameSource, error)

// FFmpegOpener adapts an ffmpeg executor. A nil executor yields a nil opener,
// which makes video analysis report that decoding is unavailable.
func FFmpegOpener(e *decoder.Executor) VideoOpener {
	if e == nil {
		return nil
	}
	return func(ctx context.Context, filePath string) (analyzer.FrameSource, error) {
		s, err := e.OpenVideo(ctx, filePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

type mediaAnalysisService struct {
	repo      repository.MediaRepository
	analyzer  analyzer.MediaAnalyzer
	openVideo VideoOpener
	events    observer.Subject
}

// NewMediaAnalysisService creates the service. events may be nil.
func NewMediaAnalysisService(
	mediaRepository repository.MediaRepository,
	mediaAnalyzer analyzer.MediaAnalyzer,
	openVideo VideoOpener,
	events observer.Subject,
) MediaAnalysisService {
	return &mediaAnalysisService{
		repo:      mediaRepository,
		analyzer:  mediaAnalyzer,
		openVideo: openVideo,
		events:    events,
	}
}

func (s *mediaAnalysisService) AnalyzeImageURL(ctx context.Context, mediaURL string, options analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var result models.ImageAnalysisResult
	err := s.track(ctx, models.MediaTypeImage, mediaURL, func() error {
		media, err := s.fetch(ctx, models.MediaTypeImage, mediaURL)
		if err != nil {
			return err
		}
		result, err = s.analyzeImageData(ctx, media.Data, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *mediaAnalysisService) AnalyzeVideoURL(ctx context.Context, mediaURL string, options analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var result models.VideoAnalysisResult
	err := s.track(ctx, models.MediaTypeVideo, mediaURL, func() error {
		media, err := s.fetch(ctx, models.MediaTypeVideo, mediaURL)
		if err != nil {
			return err
		}
		result, err = s.analyzeVideoData(ctx, mediaURL, media.Data, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *mediaAnalysisService) AnalyzeImageBytes(ctx context.Context, name string, data []byte, options analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var result models.ImageAnalysisResult
	err := s.track(ctx, models.MediaTypeImage, name, func() (err error) {
		result, err = s.analyzeImageData(ctx, data, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *mediaAnalysisService) AnalyzeVideoBytes(ctx context.Context, name string, data []byte, options analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var result models.VideoAnalysisResult
	err := s.track(ctx, models.MediaTypeVideo, name, func() (err error) {
		result, err = s.analyzeVideoData(ctx, name, data, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *mediaAnalysisService) AnalyzeImageFile(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var result models.ImageAnalysisResult
	err := s.track(ctx, models.MediaTypeImage, filePath, func() error {
		buf, err := decoder.DecodeImageFile(filePath)
		if err != nil {
			return err
		}
		result, err = s.analyzer.AnalyzeImage(buf, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *mediaAnalysisService) AnalyzeVideoFile(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var result models.VideoAnalysisResult
	err := s.track(ctx, models.MediaTypeVideo, filePath, func() error {
		if err := checkFile(filePath); err != nil {
			return err
		}
		var err error
		result, err = s.analyzeVideoPath(ctx, filePath, options)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *mediaAnalysisService) FirstFrame(ctx context.Context, filePath string) (*frame.Buffer, error) {
	if err := checkFile(filePath); err != nil {
		return nil, err
	}
	src, err := s.open(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	buf, err := src.Next()
	if err == io.EOF {
		return nil, apperrors.NewDecodeError("video contains no frames", err)
	}
	return buf, err
}

func (s *mediaAnalysisService) ValidateMediaURL(mediaURL string) error {
	return s.repo.ValidateMediaURL(mediaURL)
}

func (s *mediaAnalysisService) fetch(ctx context.Context, mediaType models.MediaType, mediaURL string) (*storage.Media, error) {
	if s.repo == nil {
		return nil, apperrors.NewInternalError("no media repository configured", repository.ErrRepositoryUnavailable)
	}

	media, err := s.repo.FetchMedia(ctx, mediaURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
			err = apperrors.NewTimeoutError("media fetch timeout", err)
		}
		event := observer.NewEvent(observer.MediaFetchFailed, mediaType, mediaURL)
		event.ErrorMessage = err.Error()
		s.publish(ctx, event)
		return nil, err
	}

	event := observer.NewEvent(observer.MediaFetched, mediaType, mediaURL)
	event.Metadata = map[string]interface{}{
		"content_type":   media.Metadata.ContentType,
		"content_length": media.Metadata.ContentLength,
	}
	s.publish(ctx, event)

	if got := decoder.DetectMediaTypeFromContentType(media.Metadata.ContentType); got != models.MediaTypeUnknown && got != mediaType {
		return nil, apperrors.NewUnsupportedFormatError(
			fmt.Sprintf("expected %s content, got %s", mediaType, media.Metadata.ContentType), nil)
	}
	return media, nil
}

func (s *mediaAnalysisService) analyzeImageData(ctx context.Context, data []byte, options analyzer.AnalysisOptions) (models.ImageAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ImageAnalysisResult{}, apperrors.NewTimeoutError("analysis cancelled", err)
	}
	buf, format, err := decoder.DecodeImageBytes(data)
	if err != nil {
		return models.ImageAnalysisResult{}, err
	}
	logger.WithFields(logrus.Fields{
		"format": format,
		"width":  buf.Width(),
		"height": buf.Height(),
	}).Debug("Decoded image")
	return s.analyzer.AnalyzeImage(buf, options)
}

// analyzeVideoData spools data to a temporary file since ffmpeg needs a
// seekable input for most containers
func (s *mediaAnalysisService) analyzeVideoData(ctx context.Context, name string, data []byte, options analyzer.AnalysisOptions) (models.VideoAnalysisResult, error) {
	f, err := os.CreateTemp("", "media-inspector-*"+videoExt(name))
	if err != nil {
		return models.VideoAnalysisResult{}, apperrors.NewInternalError("failed to create temporary file", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return models.VideoAnalysisResult{}, apperrors.NewInternalError("failed to spool video", err)
	}
	if err := f.Close(); err != nil {
		return models.VideoAnalysisResult{}, apperrors.NewInternalError("failed to spool video", err)
	}

	return s.analyzeVideoPath(ctx, f.Name(), options)
}

func (s *mediaAnalysisService) analyzeVideoPath(ctx context.Context, filePath string, options analyzer.AnalysisOptions) (models.VideoAnalysisResult, error) {
	src, err := s.open(ctx, filePath)
	if err != nil {
		return models.VideoAnalysisResult{}, err
	}
	defer src.Close()

	result, err := s.analyzer.AnalyzeVideo(src, options)
	if err != nil && ctx.Err() != nil && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		return models.VideoAnalysisResult{}, apperrors.NewTimeoutError("video analysis cancelled", ctx.Err())
	}
	return result, err
}

func (s *mediaAnalysisService) open(ctx context.Context, filePath string) (analyzer.FrameSource, error) {
	if s.openVideo == nil {
		return nil, apperrors.NewInternalError("video decoding is unavailable", decoder.ErrFFmpegNotFound)
	}
	return s.openVideo(ctx, filePath)
}

// track publishes started/completed/failed events around fn
func (s *mediaAnalysisService) track(ctx context.Context, mediaType models.MediaType, source string, fn func() error) error {
	start := time.Now()
	s.publish(ctx, observer.NewEvent(observer.AnalysisStarted, mediaType, source))

	err := fn()

	eventType := observer.AnalysisCompleted
	if err != nil {
		eventType = observer.AnalysisFailed
	}
	event := observer.NewEvent(eventType, mediaType, source)
	event.ProcessingTime = time.Since(start)
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	s.publish(ctx, event)
	return err
}

func (s *mediaAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}

func checkFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("file not found: %s", filePath), err)
		}
		return apperrors.NewInternalError("failed to stat file", err)
	}
	if info.IsDir() {
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory", filePath), nil)
	}
	return nil
}

// videoExt keeps a recognised container extension from a file name or URL so
// the temporary file gives ffmpeg the same hint
func videoExt(name string) string {
	p := name
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if decoder.IsVideoFile(ext) {
		return ext
	}
	return ""
}
