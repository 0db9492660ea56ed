package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	"github.com/anime-shed/media-inspector-go/internal/config"
	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/factory"
	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/internal/service"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

const (
	version = "1.0.0"

	requestIDHeader = "X-Request-ID"

	// multipartOverhead is allowed on top of the media size for form framing
	multipartOverhead = 1 << 20
)

// StatsProvider exposes analysis counters
type StatsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.MediaAnalysisService, options factory.OptionsFactory, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestID(),
		requestSizeLimiter(cfg.MaxRequestBodySize, cfg.MaxMediaSize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/stats", statsHandler(stats))
	r.POST("/analyze/image", analyzeImage(svc, options, cfg))
	r.POST("/analyze/video", analyzeVideo(svc, options, cfg))

	return r
}

func analyzeImage(svc service.MediaAnalysisService, options factory.OptionsFactory, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing image analysis request")

		var (
			result *models.ImageAnalysisResult
			source string
			err    error
		)
		if isMultipart(c) {
			var up *upload
			if up, err = readUpload(c, options, cfg.MaxMediaSize); err != nil {
				respondError(c, determineStatusCode(err), "invalid upload", err)
				return
			}
			source = up.name
			result, err = svc.AnalyzeImageBytes(ctx, up.name, up.data, up.options)
		} else {
			var req models.AnalyzeImageRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, bindStatusCode(err), "invalid request format", err)
				return
			}
			var opts analyzer.AnalysisOptions
			if opts, err = requestOptions(options, req.Preset, 0, req.PaletteSize); err != nil {
				respondError(c, determineStatusCode(err), "invalid analysis options", err)
				return
			}
			source = req.URL
			result, err = svc.AnalyzeImageURL(ctx, req.URL, opts)
		}
		if err != nil {
			respondError(c, determineStatusCode(err), "image analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         c.GetString(requestIDHeader),
			"source":             source,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"width":              result.Width,
			"height":             result.Height,
			"edge_count":         result.EdgeCount,
		}).Info("Image analysis completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

func analyzeVideo(svc service.MediaAnalysisService, options factory.OptionsFactory, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing video analysis request")

		var (
			result *models.VideoAnalysisResult
			source string
			err    error
		)
		if isMultipart(c) {
			var up *upload
			if up, err = readUpload(c, options, cfg.MaxMediaSize); err != nil {
				respondError(c, determineStatusCode(err), "invalid upload", err)
				return
			}
			source = up.name
			result, err = svc.AnalyzeVideoBytes(ctx, up.name, up.data, up.options)
		} else {
			var req models.AnalyzeVideoRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, bindStatusCode(err), "invalid request format", err)
				return
			}
			var opts analyzer.AnalysisOptions
			if opts, err = requestOptions(options, req.Preset, req.SampleCount, req.PaletteSize); err != nil {
				respondError(c, determineStatusCode(err), "invalid analysis options", err)
				return
			}
			source = req.URL
			result, err = svc.AnalyzeVideoURL(ctx, req.URL, opts)
		}
		if err != nil {
			respondError(c, determineStatusCode(err), "video analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         c.GetString(requestIDHeader),
			"source":             source,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"frame_count":        result.FrameCount,
			"duration_seconds":   result.DurationSeconds,
			"motion_score":       result.MotionScore,
		}).Info("Video analysis completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

// upload is a multipart media file with the options sent alongside it
type upload struct {
	name    string
	data    []byte
	options analyzer.AnalysisOptions
}

func readUpload(c *gin.Context, options factory.OptionsFactory, maxBytes int64) (*upload, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, apperrors.NewValidationError("multipart field \"file\" is required", err)
	}
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("media exceeds the %d byte limit", maxBytes), nil)
	}

	sampleCount, err := formInt(c, "sample_count")
	if err != nil {
		return nil, err
	}
	paletteSize, err := formInt(c, "palette_size")
	if err != nil {
		return nil, err
	}
	opts, err := requestOptions(options, c.PostForm("preset"), sampleCount, paletteSize)
	if err != nil {
		return nil, err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read upload", err)
	}

	return &upload{name: fileHeader.Filename, data: data, options: opts}, nil
}

func formInt(c *gin.Context, key string) (int, error) {
	v := strings.TrimSpace(c.PostForm(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", key), err)
	}
	return n, nil
}

// requestOptions starts from the preset and applies explicit overrides. Zero
// means "not given"; negative values are passed through so validation rejects them.
func requestOptions(options factory.OptionsFactory, preset string, sampleCount, paletteSize int) (analyzer.AnalysisOptions, error) {
	opts, err := options.CreateOptions(factory.AnalysisPreset(preset))
	if err != nil {
		return analyzer.AnalysisOptions{}, err
	}
	if sampleCount != 0 {
		opts = opts.WithSampleCount(sampleCount)
	}
	if paletteSize != 0 {
		opts = opts.WithPaletteSize(paletteSize)
	}
	if err := opts.Validate(); err != nil {
		return analyzer.AnalysisOptions{}, err
	}
	return opts, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, stats.GetMetrics())
	}
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEMultipartPOSTForm
}

func logRequest(c *gin.Context, msg string) {
	logger.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDHeader),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(msg)
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestSizeLimiter(maxBody, maxMedia int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBody
		if isMultipart(c) && maxMedia+multipartOverhead > limit {
			limit = maxMedia + multipartOverhead
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err)
		}
	}
}

func bindStatusCode(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func determineStatusCode(err error) int {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString(requestIDHeader),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
