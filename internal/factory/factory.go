package factory

import (
	"fmt"
	"strings"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	"github.com/anime-shed/media-inspector-go/internal/config"
	"github.com/anime-shed/media-inspector-go/internal/decoder"
	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/repository"
	"github.com/anime-shed/media-inspector-go/internal/storage"
	"github.com/anime-shed/media-inspector-go/pkg/validation"
)

// AnalysisPreset names a bundle of analysis options
type AnalysisPreset string

const (
	// DefaultPreset uses the configured palette size and sample count
	DefaultPreset AnalysisPreset = "default"
	// FastPreset samples fewer frames with a smaller palette
	FastPreset AnalysisPreset = "fast"
	// DetailedPreset samples more frames with a larger palette
	DetailedPreset AnalysisPreset = "detailed"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based media fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// OptionsFactory creates analysis options
type OptionsFactory interface {
	CreateOptions(preset AnalysisPreset) (analyzer.AnalysisOptions, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.MediaFetcher, error)
	CreateValidator(storageType StorageType) repository.URLValidator
}

// optionsFactory derives presets from the configured analysis section
type optionsFactory struct {
	cfg config.AnalysisConfig
}

// NewOptionsFactory creates a new options factory
func NewOptionsFactory(cfg config.AnalysisConfig) OptionsFactory {
	return &optionsFactory{cfg: cfg}
}

// CreateOptions returns validated options for preset. An empty preset is the default.
func (f *optionsFactory) CreateOptions(preset AnalysisPreset) (analyzer.AnalysisOptions, error) {
	var opts analyzer.AnalysisOptions
	switch AnalysisPreset(strings.ToLower(string(preset))) {
	case DefaultPreset, "":
		opts = analyzer.DefaultOptions()
		if f.cfg.SampleCount > 0 {
			opts = opts.WithSampleCount(f.cfg.SampleCount)
		}
		if f.cfg.PaletteSize > 0 {
			opts = opts.WithPaletteSize(f.cfg.PaletteSize)
		}
	case FastPreset:
		opts = analyzer.FastOptions()
	case DetailedPreset:
		opts = analyzer.DetailedOptions()
	default:
		return analyzer.AnalysisOptions{}, apperrors.NewValidationError(
			fmt.Sprintf("unknown analysis preset: %s", preset), nil)
	}

	opts = opts.WithMaxWorkers(f.cfg.Workers)
	if err := opts.Validate(); err != nil {
		return analyzer.AnalysisOptions{}, err
	}
	return opts, nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.MediaFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPFetcher(f.cfg.MediaFetchTimeout, f.cfg.MaxMediaSize), nil
	case AzureStorage:
		return storage.NewAzureFetcher(f.cfg.Storage.AzureAccount, f.cfg.Storage.AzureKey, f.cfg.MaxMediaSize)
	case LocalStorage:
		// Fetch sources come from API callers, so they must stay under a root
		if f.cfg.Storage.LocalRoot == "" {
			return nil, apperrors.NewValidationError("local storage requires a root directory", nil)
		}
		return storage.NewLocalFetcher(f.cfg.Storage.LocalRoot, f.cfg.MaxMediaSize), nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported storage type: %s", storageType), nil)
	}
}

// CreateValidator returns the URL policy for a backend. Local paths are not
// URLs, so the local backend gets none.
func (f *storageFactory) CreateValidator(storageType StorageType) repository.URLValidator {
	switch storageType {
	case AzureStorage:
		host := fmt.Sprintf("%s.blob.core.windows.net", f.cfg.Storage.AzureAccount)
		return validation.NewURLValidatorWithOptions([]string{"https"}, []string{host})
	case LocalStorage:
		return nil
	default:
		return validation.NewURLValidator()
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	OptionsFactory OptionsFactory
	StorageFactory StorageFactory
	cfg            *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		OptionsFactory: NewOptionsFactory(cfg.Analysis),
		StorageFactory: NewStorageFactory(cfg),
		cfg:            cfg,
	}
}

// CreateAnalyzer returns the feature-extraction engine
func (f *ComponentFactory) CreateAnalyzer() analyzer.MediaAnalyzer {
	return analyzer.NewMediaAnalyzer()
}

// CreateRepository wires the configured backend behind its URL policy
func (f *ComponentFactory) CreateRepository() (repository.MediaRepository, error) {
	storageType := StorageType(f.cfg.Storage.Type)
	fetcher, err := f.StorageFactory.CreateStorage(storageType)
	if err != nil {
		return nil, err
	}
	return repository.NewMediaRepository(fetcher, f.StorageFactory.CreateValidator(storageType)), nil
}

// CreateExecutor resolves ffmpeg and ffprobe from the configured paths
func (f *ComponentFactory) CreateExecutor() (*decoder.Executor, error) {
	return decoder.NewExecutor(f.cfg.FFmpeg.BinaryPath, f.cfg.FFmpeg.ProbePath)
}
