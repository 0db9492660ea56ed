package repository

import (
	"context"
	"strings"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/storage"
)

// mediaRepository implements MediaRepository on top of a storage fetcher
type mediaRepository struct {
	fetcher   storage.MediaFetcher
	validator URLValidator
}

// NewMediaRepository creates a repository. A nil validator only rejects empty URLs,
// which suits backends addressed by path rather than by http(s) URL.
func NewMediaRepository(fetcher storage.MediaFetcher, validator URLValidator) MediaRepository {
	return &mediaRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchMedia validates mediaURL and downloads it
func (r *mediaRepository) FetchMedia(ctx context.Context, mediaURL string) (*storage.Media, error) {
	if r.fetcher == nil {
		return nil, apperrors.NewInternalError("no media storage configured", ErrRepositoryUnavailable)
	}
	if err := r.ValidateMediaURL(mediaURL); err != nil {
		return nil, err
	}
	return r.fetcher.Fetch(ctx, mediaURL)
}

// ValidateMediaURL validates if the provided URL is acceptable
func (r *mediaRepository) ValidateMediaURL(mediaURL string) error {
	if strings.TrimSpace(mediaURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", ErrInvalidMediaURL)
	}
	if r.validator == nil {
		return nil
	}
	return r.validator.ValidateMediaURL(mediaURL)
}
