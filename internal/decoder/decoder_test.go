package decoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		path string
		want models.MediaType
	}{
		{"photo.jpg", models.MediaTypeImage},
		{"photo.JPEG", models.MediaTypeImage},
		{"scan.tif", models.MediaTypeImage},
		{"scan.tiff", models.MediaTypeImage},
		{"sticker.webp", models.MediaTypeImage},
		{"anim.gif", models.MediaTypeImage},
		{"/a/b/raw.bmp", models.MediaTypeImage},
		{"clip.mp4", models.MediaTypeVideo},
		{"clip.MKV", models.MediaTypeVideo},
		{"old.wmv", models.MediaTypeVideo},
		{"stream.flv", models.MediaTypeVideo},
		{"phone.m4v", models.MediaTypeVideo},
		{"notes.txt", models.MediaTypeUnknown},
		{"noext", models.MediaTypeUnknown},
		{"archive.mp4.zip", models.MediaTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectMediaType(tt.path); got != tt.want {
				t.Errorf("DetectMediaType(%q) = %s, want %s", tt.path, got, tt.want)
			}
			if IsImageFile(tt.path) != (tt.want == models.MediaTypeImage) {
				t.Errorf("IsImageFile(%q) disagrees with DetectMediaType", tt.path)
			}
			if IsVideoFile(tt.path) != (tt.want == models.MediaTypeVideo) {
				t.Errorf("IsVideoFile(%q) disagrees with DetectMediaType", tt.path)
			}
		})
	}
}

func TestDetectMediaTypeFromContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want models.MediaType
	}{
		{"image/png", models.MediaTypeImage},
		{"image/jpeg; charset=binary", models.MediaTypeImage},
		{"video/mp4", models.MediaTypeVideo},
		{"application/octet-stream", models.MediaTypeUnknown},
		{"", models.MediaTypeUnknown},
	}
	for _, tt := range tests {
		if got := DetectMediaTypeFromContentType(tt.ct); got != tt.want {
			t.Errorf("DetectMediaTypeFromContentType(%q) = %s, want %s", tt.ct, got, tt.want)
		}
	}
}

func createTestImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func TestDecodeImage_Formats(t *testing.T) {
	img := createTestImage(8, 6, color.RGBA{200, 40, 40, 255})
	grayImg := image.NewGray(image.Rect(0, 0, 5, 5))

	encoders := []struct {
		name         string
		encode       func(io.Writer) error
		wantFormat   string
		wantChannels int
	}{
		{"png", func(w io.Writer) error { return png.Encode(w, img) }, "png", 3},
		{"gray png", func(w io.Writer) error { return png.Encode(w, grayImg) }, "png", 1},
		{"jpeg", func(w io.Writer) error { return jpeg.Encode(w, img, &jpeg.Options{Quality: 95}) }, "jpeg", 3},
		{"gif", func(w io.Writer) error { return gif.Encode(w, img, nil) }, "gif", 3},
		{"bmp", func(w io.Writer) error { return bmp.Encode(w, img) }, "bmp", 3},
		{"tiff", func(w io.Writer) error { return tiff.Encode(w, img, nil) }, "tiff", 3},
	}

	for _, tt := range encoders {
		t.Run(tt.name, func(t *testing.T) {
			var data bytes.Buffer
			if err := tt.encode(&data); err != nil {
				t.Fatalf("encode: %v", err)
			}
			buf, format, err := DecodeImageBytes(data.Bytes())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("Expected format %s, got %s", tt.wantFormat, format)
			}
			if buf.Channels() != tt.wantChannels {
				t.Errorf("Expected %d channels, got %d", tt.wantChannels, buf.Channels())
			}
			b := grayImg.Bounds()
			if tt.wantChannels == 3 {
				b = img.Bounds()
			}
			if buf.Width() != b.Dx() || buf.Height() != b.Dy() {
				t.Errorf("Unexpected geometry %dx%d", buf.Width(), buf.Height())
			}
		})
	}
}

func TestDecodeImage_Errors(t *testing.T) {
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, createTestImage(4, 4, color.RGBA{1, 2, 3, 255})); err != nil {
		t.Fatal(err)
	}
	truncated := pngData.Bytes()[:pngData.Len()/2]

	tests := []struct {
		name     string
		data     []byte
		wantType apperrors.ErrorType
	}{
		{"unknown format", []byte("definitely not an image"), apperrors.ErrorTypeUnsupportedFormat},
		{"empty", nil, apperrors.ErrorTypeUnsupportedFormat},
		{"truncated png", truncated, apperrors.ErrorTypeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeImageBytes(tt.data)
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestDecodeImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, createTestImage(3, 2, color.RGBA{9, 9, 9, 255})); err != nil {
		t.Fatal(err)
	}
	f.Close()

	buf, err := DecodeImageFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if buf.Width() != 3 || buf.Height() != 2 {
		t.Errorf("Unexpected geometry %dx%d", buf.Width(), buf.Height())
	}

	if _, err := DecodeImageFile(filepath.Join(dir, "missing.png")); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected not_found error, got %v", err)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"", 0},
		{"abc/1", 0},
		{"1/2/3", 0},
	}
	for _, tt := range tests {
		if got := ParseFrameRate(tt.in); got != tt.want {
			t.Errorf("ParseFrameRate(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	t.Run("nb_frames present", func(t *testing.T) {
		out := []byte(`{"streams":[{"codec_type":"video","codec_name":"h264","width":640,"height":480,
			"pix_fmt":"yuv420p","r_frame_rate":"25/1","nb_frames":"100","duration":"4.000000"}],
			"format":{"duration":"4.020000"}}`)
		meta, err := parseProbeOutput(out)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := models.StreamMetadata{FrameCount: 100, FPS: 25, Width: 640, Height: 480,
			Channels: frame.RGB, Codec: "h264", PixelFormat: "yuv420p"}
		if meta != want {
			t.Errorf("Got %+v, want %+v", meta, want)
		}
	})

	t.Run("frame count from duration", func(t *testing.T) {
		out := []byte(`{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":320,"height":240,
			"pix_fmt":"gray","r_frame_rate":"30/1"}],"format":{"duration":"2.5"}}`)
		meta, err := parseProbeOutput(out)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if meta.FrameCount != 75 {
			t.Errorf("Expected 75 frames, got %d", meta.FrameCount)
		}
		if meta.Channels != frame.Gray {
			t.Errorf("Expected gray pix_fmt to decode as 1 channel, got %d", meta.Channels)
		}
	})

	t.Run("duration estimate never overshoots", func(t *testing.T) {
		tests := []struct {
			duration string
			want     int
		}{
			{"1.99", 49},
			{"0.12", 3},
			{"0.02", 0},
		}
		for _, tt := range tests {
			out := []byte(`{"streams":[{"codec_type":"video","width":2,"height":2,"r_frame_rate":"25/1",
				"duration":"` + tt.duration + `"}]}`)
			meta, err := parseProbeOutput(out)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if meta.FrameCount != tt.want {
				t.Errorf("duration %s: expected %d frames, got %d", tt.duration, tt.want, meta.FrameCount)
			}
		}
	})

	t.Run("zero rate falls back to average", func(t *testing.T) {
		out := []byte(`{"streams":[{"codec_type":"video","width":2,"height":2,"r_frame_rate":"0/0",
			"avg_frame_rate":"24/1","nb_frames":"N/A","duration":"1.0"}]}`)
		meta, err := parseProbeOutput(out)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if meta.FPS != 24 || meta.FrameCount != 24 {
			t.Errorf("Expected 24fps/24 frames, got %+v", meta)
		}
	})

	t.Run("unknown rate is reported not guessed", func(t *testing.T) {
		out := []byte(`{"streams":[{"codec_type":"video","width":2,"height":2,"r_frame_rate":"0/0","nb_frames":"10"}]}`)
		meta, err := parseProbeOutput(out)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if meta.FPS != 0 || meta.FrameCount != 10 {
			t.Errorf("Expected fps 0 and 10 frames, got %+v", meta)
		}
	})

	t.Run("no video stream", func(t *testing.T) {
		_, err := parseProbeOutput([]byte(`{"streams":[{"codec_type":"audio"}]}`))
		if !apperrors.IsType(err, apperrors.ErrorTypeUnsupportedFormat) {
			t.Errorf("Expected unsupported_format error, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseProbeOutput([]byte(`not json`))
		if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
			t.Errorf("Expected decode error, got %v", err)
		}
	})
}

func TestRawStream(t *testing.T) {
	meta := models.StreamMetadata{FrameCount: 4, FPS: 10, Width: 2, Height: 1, Channels: frame.Gray}
	data := []byte{0, 1, 10, 11, 20, 21, 30, 31}
	s := newRawStream(meta, bytes.NewReader(data))

	first, err := s.Next()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Pix()[0] != 0 || first.Pix()[1] != 1 {
		t.Errorf("Unexpected first frame %v", first.Pix())
	}

	if err := s.Skip(2); err != nil {
		t.Fatalf("Unexpected skip error: %v", err)
	}
	last, err := s.Next()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if last.Pix()[0] != 30 {
		t.Errorf("Expected fourth frame after skipping, got %v", last.Pix())
	}

	if _, err := s.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF at end of stream, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Unexpected close error: %v", err)
	}
}

func TestRawStream_Truncated(t *testing.T) {
	meta := models.StreamMetadata{FrameCount: 2, FPS: 10, Width: 2, Height: 2, Channels: frame.RGB}
	s := newRawStream(meta, bytes.NewReader(make([]byte, 12+5)))

	if _, err := s.Next(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.Next(); !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Errorf("Expected decode error for partial frame, got %v", err)
	}
}

func TestRawStream_SkipPastEnd(t *testing.T) {
	meta := models.StreamMetadata{FrameCount: 5, FPS: 10, Width: 1, Height: 1, Channels: frame.Gray}
	s := newRawStream(meta, bytes.NewReader([]byte{1, 2}))
	if err := s.Skip(3); err != io.EOF {
		t.Errorf("Expected io.EOF when skipping past the end, got %v", err)
	}
}

func TestRawStream_CancelledContext(t *testing.T) {
	meta := models.StreamMetadata{FrameCount: 3, FPS: 10, Width: 2, Height: 2, Channels: frame.Gray}

	tests := []struct {
		name string
		data []byte
		read func(s *VideoStream) error
	}{
		{"clean end", nil, func(s *VideoStream) error { _, err := s.Next(); return err }},
		{"mid frame", []byte{1, 2}, func(s *VideoStream) error { _, err := s.Next(); return err }},
		{"skip", []byte{1, 2, 3}, func(s *VideoStream) error { return s.Skip(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			s := newRawStream(meta, bytes.NewReader(tt.data))
			s.ctx = ctx
			if err := tt.read(s); !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
				t.Errorf("Expected timeout error after cancellation, got %v", err)
			}
		})
	}
}
