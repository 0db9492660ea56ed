package strategy

import (
	"context"
	"testing"

	"github.com/anime-shed/media-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/service"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// stubService records which file entry point was used
type stubService struct {
	service.MediaAnalysisService
	imageCalls, videoCalls int
}

func (s *stubService) AnalyzeImageFile(ctx context.Context, p string, o analyzer.AnalysisOptions) (*models.ImageAnalysisResult, error) {
	s.imageCalls++
	return &models.ImageAnalysisResult{Width: 1}, nil
}

func (s *stubService) AnalyzeVideoFile(ctx context.Context, p string, o analyzer.AnalysisOptions) (*models.VideoAnalysisResult, error) {
	s.videoCalls++
	return &models.VideoAnalysisResult{FrameCount: 1}, nil
}

func TestAnalysisContext_Dispatch(t *testing.T) {
	tests := []struct {
		path         string
		wantType     models.MediaType
		wantStrategy string
		wantErr      bool
	}{
		{"photo.JPG", models.MediaTypeImage, "image_analysis", false},
		{"scan.webp", models.MediaTypeImage, "image_analysis", false},
		{"clip.mov", models.MediaTypeVideo, "video_analysis", false},
		{"notes.txt", "", "", true},
		{"README", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			svc := &stubService{}
			ac := NewAnalysisContext(svc)

			s, err := ac.StrategyFor(tt.path)
			if tt.wantErr {
				if !apperrors.IsType(err, apperrors.ErrorTypeUnsupportedFormat) {
					t.Errorf("Expected unsupported_format error, got %v", err)
				}
				return
			}
			if s.GetStrategyName() != tt.wantStrategy {
				t.Errorf("Expected %s, got %s", tt.wantStrategy, s.GetStrategyName())
			}

			out, err := ac.ExecuteAnalysis(context.Background(), tt.path, analyzer.DefaultOptions())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.MediaType != tt.wantType {
				t.Errorf("Expected %s outcome, got %s", tt.wantType, out.MediaType)
			}
			if (out.Image != nil) == (out.Video != nil) {
				t.Errorf("Expected exactly one result to be set, got %+v", out)
			}
			if tt.wantType == models.MediaTypeImage && svc.imageCalls != 1 {
				t.Errorf("Expected image entry point to be used once, got %d", svc.imageCalls)
			}
			if tt.wantType == models.MediaTypeVideo && svc.videoCalls != 1 {
				t.Errorf("Expected video entry point to be used once, got %d", svc.videoCalls)
			}
		})
	}
}

type namedStrategy struct{ name string }

func (n namedStrategy) Analyze(context.Context, string, analyzer.AnalysisOptions) (Outcome, error) {
	return Outcome{}, nil
}
func (n namedStrategy) GetStrategyName() string { return n.name }

func TestAnalysisContext_SetStrategy(t *testing.T) {
	ac := NewAnalysisContext(&stubService{})
	ac.SetStrategy(models.MediaTypeVideo, namedStrategy{"custom"})

	s, err := ac.StrategyFor("a.mkv")
	if err != nil {
		t.Fatal(err)
	}
	if s.GetStrategyName() != "custom" {
		t.Errorf("Expected custom strategy, got %s", s.GetStrategyName())
	}
}
