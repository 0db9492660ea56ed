package container

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	"github.com/anime-shed/media-inspector-go/internal/config"
	"github.com/anime-shed/media-inspector-go/internal/decoder"
	"github.com/anime-shed/media-inspector-go/internal/factory"
	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/internal/observer"
	"github.com/anime-shed/media-inspector-go/internal/repository"
	"github.com/anime-shed/media-inspector-go/internal/service"
	"github.com/anime-shed/media-inspector-go/internal/strategy"
	"github.com/anime-shed/media-inspector-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	factory         *factory.ComponentFactory
	mediaAnalyzer   analyzer.MediaAnalyzer
	executor        *decoder.Executor
	mediaRepository repository.MediaRepository
	events          *observer.EventPublisher
	metrics         *observer.MetricsObserver
	service         service.MediaAnalysisService
	strategies      *strategy.AnalysisContext
	handler         http.Handler
}

// NewContainer builds the dependency graph from cfg. A missing ffmpeg is not
// fatal: image analysis keeps working and video requests report the decoder
// as unavailable.
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	mediaRepository, err := components.CreateRepository()
	if err != nil {
		return nil, err
	}

	executor, err := components.CreateExecutor()
	if err != nil {
		logger.WithError(err).Warn("Video decoding disabled")
		executor = nil
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	mediaAnalyzer := components.CreateAnalyzer()
	svc := service.NewMediaAnalysisService(mediaRepository, mediaAnalyzer, service.FFmpegOpener(executor), events)
	handler := transport.NewHandler(svc, components.OptionsFactory, metrics, cfg)

	logger.WithFields(logrus.Fields{
		"storage":       cfg.Storage.Type,
		"video_enabled": executor != nil,
	}).Debug("Container initialized")

	return &Container{
		config:          cfg,
		factory:         components,
		mediaAnalyzer:   mediaAnalyzer,
		executor:        executor,
		mediaRepository: mediaRepository,
		events:          events,
		metrics:         metrics,
		service:         svc,
		strategies:      strategy.NewAnalysisContext(svc),
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the media analysis service
func (c *Container) Service() service.MediaAnalysisService {
	return c.service
}

// Strategies returns the per-file-type analysis dispatcher
func (c *Container) Strategies() *strategy.AnalysisContext {
	return c.strategies
}

// Options resolves a named analysis preset against the configuration
func (c *Container) Options(preset factory.AnalysisPreset) (analyzer.AnalysisOptions, error) {
	return c.factory.OptionsFactory.CreateOptions(preset)
}

// VideoEnabled reports whether ffmpeg and ffprobe were found
func (c *Container) VideoEnabled() bool {
	return c.executor != nil
}

// Metrics returns the analysis counters
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close waits for pending event deliveries
func (c *Container) Close() {
	c.events.Wait()
}
