package repository

import (
	"context"

	"github.com/anime-shed/media-inspector-go/internal/storage"
)

// MediaRepository defines the data access operations for remote media
type MediaRepository interface {
	// FetchMedia retrieves raw media bytes from a URL
	FetchMedia(ctx context.Context, mediaURL string) (*storage.Media, error)

	// ValidateMediaURL validates if the provided URL is acceptable
	ValidateMediaURL(mediaURL string) error
}

// URLValidator is satisfied by validation.URLValidator
type URLValidator interface {
	ValidateMediaURL(mediaURL string) error
}
