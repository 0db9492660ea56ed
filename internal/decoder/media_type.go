package decoder

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/anime-shed/media-inspector-go/pkg/models"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".tiff": true, ".tif": true, ".gif": true, ".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
}

// IsImageFile reports whether path has a still-image extension (case-insensitive)
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsVideoFile reports whether path has a video container extension (case-insensitive)
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// DetectMediaType determines the media type from file extension
func DetectMediaType(path string) models.MediaType {
	switch {
	case IsImageFile(path):
		return models.MediaTypeImage
	case IsVideoFile(path):
		return models.MediaTypeVideo
	default:
		return models.MediaTypeUnknown
	}
}

// DetectMediaTypeFromContentType classifies an HTTP Content-Type header value
func DetectMediaTypeFromContentType(contentType string) models.MediaType {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return models.MediaTypeUnknown
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.MediaTypeImage
	case strings.HasPrefix(mediaType, "video/"):
		return models.MediaTypeVideo
	default:
		return models.MediaTypeUnknown
	}
}
