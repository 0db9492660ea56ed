package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anime-shed/media-inspector-go/internal/config"
	"github.com/anime-shed/media-inspector-go/internal/factory"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "0",
		RequestTimeout:     time.Second,
		MediaFetchTimeout:  time.Second,
		MaxRequestBodySize: 1 << 20,
		MaxMediaSize:       1 << 20,
		Analysis:           config.AnalysisConfig{SampleCount: 8, PaletteSize: 4},
		FFmpeg:             config.FFmpegConfig{BinaryPath: "/nonexistent/ffmpeg", ProbePath: "/nonexistent/ffprobe"},
		Storage:            config.StorageConfig{Type: "http"},
	}
}

func TestNewContainer_WithoutFFmpeg(t *testing.T) {
	c, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer c.Close()

	if c.VideoEnabled() {
		t.Error("Expected video decoding to be disabled with bogus ffmpeg paths")
	}
	if c.Service() == nil || c.Strategies() == nil || c.Metrics() == nil {
		t.Error("Expected all components to be wired")
	}

	opts, err := c.Options(factory.DefaultPreset)
	if err != nil {
		t.Fatal(err)
	}
	if opts.SampleCount != 8 || opts.PaletteSize != 4 {
		t.Errorf("Expected configured defaults, got %+v", opts)
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected healthy handler, got %d", w.Code)
	}
}

func TestNewContainer_BadStorage(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Type = "s3"
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected unknown storage type to fail")
	}
}
