package analyzer

import (
	"testing"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.PaletteSize != 5 {
		t.Errorf("Expected PaletteSize to be 5, got %d", opts.PaletteSize)
	}
	if opts.SampleCount != 16 {
		t.Errorf("Expected SampleCount to be 16, got %d", opts.SampleCount)
	}
	if opts.MaxWorkers != 0 {
		t.Errorf("Expected MaxWorkers to be 0, got %d", opts.MaxWorkers)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Expected default options to be valid, got %v", err)
	}
}

func TestPresetOptions(t *testing.T) {
	fast := FastOptions()
	detailed := DetailedOptions()

	if fast.SampleCount >= DefaultOptions().SampleCount {
		t.Errorf("Expected fast options to sample fewer frames, got %d", fast.SampleCount)
	}
	if detailed.SampleCount <= DefaultOptions().SampleCount {
		t.Errorf("Expected detailed options to sample more frames, got %d", detailed.SampleCount)
	}
	for _, opts := range []AnalysisOptions{fast, detailed} {
		if err := opts.Validate(); err != nil {
			t.Errorf("Expected preset %+v to be valid, got %v", opts, err)
		}
	}
}

func TestOptionBuilders(t *testing.T) {
	base := DefaultOptions()
	opts := base.WithPaletteSize(3).WithSampleCount(32).WithMaxWorkers(2)

	if opts.PaletteSize != 3 || opts.SampleCount != 32 || opts.MaxWorkers != 2 {
		t.Errorf("Unexpected options %+v", opts)
	}
	if base.PaletteSize != DefaultPaletteSize {
		t.Error("Expected builders not to modify the receiver")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    AnalysisOptions
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"min palette", DefaultOptions().WithPaletteSize(1), false},
		{"max palette", DefaultOptions().WithPaletteSize(MaxPaletteSize), false},
		{"zero palette", DefaultOptions().WithPaletteSize(0), true},
		{"oversized palette", DefaultOptions().WithPaletteSize(MaxPaletteSize + 1), true},
		{"zero samples", DefaultOptions().WithSampleCount(0), true},
		{"max samples", DefaultOptions().WithSampleCount(MaxSampleCount), false},
		{"too many samples", DefaultOptions().WithSampleCount(MaxSampleCount + 1), true},
		{"negative workers", DefaultOptions().WithMaxWorkers(-1), true},
		{"zero value", AnalysisOptions{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}
