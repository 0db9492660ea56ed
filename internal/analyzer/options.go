package analyzer

import (
	"fmt"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
)

const (
	DefaultPaletteSize = 5
	DefaultSampleCount = 16

	MaxPaletteSize = 16
	MaxSampleCount = 256
)

// AnalysisOptions provides configuration for a single analysis call
type AnalysisOptions struct {
	// PaletteSize is k, the maximum number of dominant colors reported
	PaletteSize int

	// SampleCount is the number of frames sampled from a video
	SampleCount int

	// MaxWorkers bounds per-frame parallelism in the video pipeline (0 = NumCPU)
	MaxWorkers int
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		PaletteSize: DefaultPaletteSize,
		SampleCount: DefaultSampleCount,
		MaxWorkers:  0, // Use default CPU count
	}
}

// FastOptions returns options for quick triage: fewer samples, smaller palette
func FastOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.PaletteSize = 3
	opts.SampleCount = 8
	return opts
}

// DetailedOptions returns options for denser sampling and a larger palette
func DetailedOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.PaletteSize = 8
	opts.SampleCount = 64
	return opts
}

// WithPaletteSize returns options with a different palette size
func (opts AnalysisOptions) WithPaletteSize(k int) AnalysisOptions {
	opts.PaletteSize = k
	return opts
}

// WithSampleCount returns options with a different frame sample count
func (opts AnalysisOptions) WithSampleCount(n int) AnalysisOptions {
	opts.SampleCount = n
	return opts
}

// WithMaxWorkers returns options with a different worker bound
func (opts AnalysisOptions) WithMaxWorkers(n int) AnalysisOptions {
	opts.MaxWorkers = n
	return opts
}

// Validate checks the options are within supported ranges
func (opts AnalysisOptions) Validate() error {
	if opts.PaletteSize < 1 || opts.PaletteSize > MaxPaletteSize {
		return apperrors.NewValidationError(
			fmt.Sprintf("palette size must be between 1 and %d (got %d)", MaxPaletteSize, opts.PaletteSize), nil)
	}
	if opts.SampleCount < 1 || opts.SampleCount > MaxSampleCount {
		return apperrors.NewValidationError(
			fmt.Sprintf("sample count must be between 1 and %d (got %d)", MaxSampleCount, opts.SampleCount), nil)
	}
	if opts.MaxWorkers < 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("max workers must not be negative (got %d)", opts.MaxWorkers), nil)
	}
	return nil
}
