package report

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

func sampleDocument() *Document {
	d := NewDocument()
	d.AddVideo("b.mp4", models.VideoAnalysisResult{
		FrameCount: 100, FPS: 25, Width: 640, Height: 480, DurationSeconds: 4,
		AverageBrightness: 128, IsGrayscale: true,
		DominantColors: []models.Color{{R: 128, G: 128, B: 128, Weight: 1}},
	})
	d.AddImage("z.png", models.ImageAnalysisResult{Width: 2, Height: 2, Channels: 3, DominantColors: []models.Color{}})
	d.AddImage("a.jpg", models.ImageAnalysisResult{Width: 4, Height: 4, Channels: 1, EdgeCount: 3, DominantColors: []models.Color{}})
	d.AddSkipped("notes.txt", "unsupported file type")
	return d
}

func TestEncode_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleDocument()); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw map[string][]map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	imageKeys := []string{"file", "width", "height", "is_grayscale", "average_brightness",
		"channels", "edge_count", "dominant_colors", "blur_score"}
	for _, k := range imageKeys {
		if _, ok := raw["images"][0][k]; !ok {
			t.Errorf("image entry missing %q", k)
		}
	}

	videoKeys := []string{"file", "frame_count", "fps", "width", "height", "duration_seconds",
		"average_brightness", "is_grayscale", "motion_score", "dominant_colors"}
	for _, k := range videoKeys {
		if _, ok := raw["videos"][0][k]; !ok {
			t.Errorf("video entry missing %q", k)
		}
	}
	if len(raw["videos"][0]) != len(videoKeys) {
		t.Errorf("Expected exactly %d video keys, got %v", len(videoKeys), raw["videos"][0])
	}
}

func TestEncode_EmptyListsAreArrays(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, NewDocument()); err != nil {
		t.Fatal(err)
	}
	if got := bytes.TrimSpace(buf.Bytes()); !bytes.Equal(got, []byte("{\n  \"images\": [],\n  \"videos\": []\n}")) {
		t.Errorf("Unexpected empty document %s", got)
	}
}

func TestDocument_KeepsInputOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleDocument()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	d, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d.Images[0].File != "z.png" || d.Images[1].File != "a.jpg" {
		t.Errorf("Expected images in input order, got %s, %s", d.Images[0].File, d.Images[1].File)
	}
}

func TestWriteReadFile(t *testing.T) {
	tests := []string{"results.json", "nested/results.json.zst", "RESULTS.ZST"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := sampleDocument()
			if err := WriteFile(path, want); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if compressed := isCompressed(path); compressed == json.Valid(raw) {
				t.Errorf("compressed=%v but file JSON validity=%v", compressed, json.Valid(raw))
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Document mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestFirstFramePath(t *testing.T) {
	tests := []struct{ dir, video, want string }{
		{"out", "/videos/clip.mp4", filepath.Join("out", "clip_first_frame.jpg")},
		{"out", "holiday.final.MKV", filepath.Join("out", "holiday.final_first_frame.jpg")},
		{"", "noext", "noext_first_frame.jpg"},
	}
	for _, tt := range tests {
		if got := FirstFramePath(tt.dir, tt.video); got != tt.want {
			t.Errorf("FirstFramePath(%q, %q) = %q, want %q", tt.dir, tt.video, got, tt.want)
		}
	}
}

func TestSaveFirstFrame(t *testing.T) {
	pix := make([]byte, 64*32*3)
	for i := range pix {
		pix[i] = byte(i)
	}
	buf, err := frame.New(64, 32, frame.RGB, pix)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		width      uint
		wantBounds image.Rectangle
	}{
		{"original size", 0, image.Rect(0, 0, 64, 32)},
		{"downscaled", 16, image.Rect(0, 0, 16, 8)},
		{"no upscale", 128, image.Rect(0, 0, 64, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "frames", "clip_first_frame.jpg")
			if err := SaveFirstFrame(path, buf, tt.width); err != nil {
				t.Fatalf("SaveFirstFrame: %v", err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := jpeg.Decode(f)
			if err != nil {
				t.Fatalf("output is not a JPEG: %v", err)
			}
			if img.Bounds() != tt.wantBounds {
				t.Errorf("Expected bounds %v, got %v", tt.wantBounds, img.Bounds())
			}
		})
	}
}

func TestSaveFirstFrame_NilFrame(t *testing.T) {
	if err := SaveFirstFrame(filepath.Join(t.TempDir(), "x.jpg"), nil, 0); err == nil {
		t.Error("Expected error for nil frame")
	}
}
