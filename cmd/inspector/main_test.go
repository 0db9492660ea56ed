package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anime-shed/media-inspector-go/internal/config"
	"github.com/anime-shed/media-inspector-go/internal/report"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// execute runs the root command with fresh flag state and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, verbose = "", false
	analyzeOpts.output = defaultOutput
	analyzeOpts.firstFrameDir = ""
	analyzeOpts.firstFrameWidth = 0
	analyzeOpts.preset = "default"
	analyzeOpts.sampleCount = 0
	analyzeOpts.paletteSize = 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	white := filepath.Join(dir, "white.png")
	black := filepath.Join(dir, "black.png")
	notes := filepath.Join(dir, "notes.txt")
	broken := filepath.Join(dir, "broken.mp4")
	missing := filepath.Join(dir, "missing.png")
	output := filepath.Join(dir, "out", "results.json")

	writePNG(t, white, color.White)
	writePNG(t, black, color.Black)
	if err := os.WriteFile(notes, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("not a video"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, err := execute(t, "analyze", white, missing, notes, black, broken, "--output", output)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, stdout)
	}

	for _, want := range []string{
		"Processing image: " + white,
		"File does not exist: " + missing,
		"Unsupported file type: " + notes,
		"Processing video: " + broken,
		"Results written to: " + output,
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, stdout)
		}
	}

	doc, err := report.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(doc.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(doc.Images))
	}
	if doc.Images[0].File != white || doc.Images[1].File != black {
		t.Errorf("Images out of input order: %s, %s", doc.Images[0].File, doc.Images[1].File)
	}
	if doc.Images[0].AverageBrightness <= doc.Images[1].AverageBrightness {
		t.Errorf("Expected white brighter than black, got %f and %f",
			doc.Images[0].AverageBrightness, doc.Images[1].AverageBrightness)
	}
	if len(doc.Videos) != 0 {
		t.Errorf("Expected no videos, got %d", len(doc.Videos))
	}
	if len(doc.Skipped) != 3 {
		t.Errorf("Expected 3 skipped files, got %+v", doc.Skipped)
	}
}

func TestAnalyzeCommand_Compressed(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "gray.png")
	output := filepath.Join(dir, "results.json.zst")
	writePNG(t, img, color.Gray{Y: 128})

	if _, err := execute(t, "analyze", img, "-o", output, "--palette-size", "2"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	doc, err := report.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(doc.Images) != 1 || !doc.Images[0].IsGrayscale {
		t.Fatalf("Unexpected report %+v", doc.Images)
	}
	if n := len(doc.Images[0].DominantColors); n > 2 {
		t.Errorf("Expected at most 2 dominant colors, got %d", n)
	}
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "a.png")
	writePNG(t, img, color.White)
	badConfig := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("port: \"0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no files", []string{"analyze"}},
		{"unknown preset", []string{"analyze", img, "--preset", "turbo", "-o", filepath.Join(dir, "r.json")}},
		{"palette too large", []string{"analyze", img, "--palette-size", "99", "-o", filepath.Join(dir, "r.json")}},
		{"invalid config", []string{"analyze", img, "--config", badConfig}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inspector.yaml")

	stdout, err := execute(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, "Config written to: "+path) {
		t.Errorf("Unexpected output %q", stdout)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.SampleCount != 16 {
		t.Errorf("Expected sample_count 16, got %d", cfg.Analysis.SampleCount)
	}

	if _, err := execute(t, "config", "init", path); err == nil {
		t.Error("Expected init over an existing file to fail")
	}

	stdout, err = execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "sample_count: 16") {
		t.Errorf("Expected sample_count in output, got:\n%s", stdout)
	}
}
