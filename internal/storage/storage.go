package storage

import (
	"context"
	"fmt"
	"io"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// Media holds fetched media bytes and what the backend reported about them
type Media struct {
	Data     []byte
	Metadata models.MediaMetadata
}

// MediaFetcher retrieves raw media bytes from a backend. Decoding is left to
// the caller since the same bytes may be an image or a video container.
type MediaFetcher interface {
	Fetch(ctx context.Context, source string) (*Media, error)
}

// readLimited reads at most maxBytes from r and fails when more is available
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, apperrors.NewNetworkError("failed to read media body", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read media body", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	return data, nil
}

func tooLarge(maxBytes int64) error {
	return apperrors.NewValidationError(fmt.Sprintf("media exceeds the %d byte limit", maxBytes), nil)
}
