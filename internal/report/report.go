package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// compressedExt selects zstd framing for result documents
const compressedExt = ".zst"

// ImageEntry is an image result tagged with the file it came from
type ImageEntry struct {
	File string `json:"file"`
	models.ImageAnalysisResult
}

// VideoEntry is a video result tagged with the file it came from
type VideoEntry struct {
	File string `json:"file"`
	models.VideoAnalysisResult
}

// Skipped records an input that produced no result
type Skipped struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Document is the batch result written by the CLI
type Document struct {
	Images  []ImageEntry `json:"images"`
	Videos  []VideoEntry `json:"videos"`
	Skipped []Skipped    `json:"skipped,omitempty"`
}

// NewDocument returns an empty document whose lists encode as [] rather than null
func NewDocument() *Document {
	return &Document{
		Images: []ImageEntry{},
		Videos: []VideoEntry{},
	}
}

func (d *Document) AddImage(file string, result models.ImageAnalysisResult) {
	d.Images = append(d.Images, ImageEntry{File: file, ImageAnalysisResult: result})
}

func (d *Document) AddVideo(file string, result models.VideoAnalysisResult) {
	d.Videos = append(d.Videos, VideoEntry{File: file, VideoAnalysisResult: result})
}

func (d *Document) AddSkipped(file, reason string) {
	d.Skipped = append(d.Skipped, Skipped{File: file, Reason: reason})
}

// Encode writes d as indented JSON
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return apperrors.NewInternalError("failed to encode results", err)
	}
	return nil
}

// Decode reads a JSON document
func Decode(r io.Reader) (*Document, error) {
	d := NewDocument()
	if err := json.NewDecoder(r).Decode(d); err != nil {
		return nil, apperrors.NewDecodeError("failed to parse results", err)
	}
	return d, nil
}

// WriteFile writes d to path, zstd-compressed when path ends in .zst
func WriteFile(path string, d *Document) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.NewInternalError(fmt.Sprintf("failed to close %s", path), cerr)
		}
	}()

	if !isCompressed(path) {
		return Encode(f, d)
	}

	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return apperrors.NewInternalError("failed to create zstd writer", err)
	}
	if err := Encode(zw, d); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return apperrors.NewInternalError("failed to flush zstd stream", err)
	}
	return nil
}

// ReadFile loads a document written by WriteFile
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("results not found: %s", path), err)
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	if !isCompressed(path) {
		return Decode(f)
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, apperrors.NewDecodeError("invalid zstd stream", err)
	}
	defer zr.Close()
	return Decode(zr)
}

func isCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), compressedExt)
}
