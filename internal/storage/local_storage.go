package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// LocalFetcher reads media from the filesystem, optionally confined to a root directory
type LocalFetcher struct {
	root     string
	maxBytes int64
}

// NewLocalFetcher creates a filesystem fetcher. An empty root allows any path.
func NewLocalFetcher(root string, maxBytes int64) MediaFetcher {
	return &LocalFetcher{root: root, maxBytes: maxBytes}
}

// Fetch reads the file at source. file:// URLs are accepted.
func (l *LocalFetcher) Fetch(ctx context.Context, source string) (*Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("media fetch cancelled", err)
	}

	p, err := l.resolve(source)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file not found: %s", source), err)
		}
		return nil, apperrors.NewInternalError("failed to stat file", err)
	}
	if info.IsDir() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%s is a directory", source), nil)
	}
	if l.maxBytes > 0 && info.Size() > l.maxBytes {
		return nil, tooLarge(l.maxBytes)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open file", err)
	}
	defer f.Close()

	data, err := readLimited(f, l.maxBytes)
	if err != nil {
		return nil, err
	}

	return &Media{
		Data: data,
		Metadata: models.MediaMetadata{
			ContentType:   mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
			ContentLength: int64(len(data)),
			Source:        source,
		},
	}, nil
}

func (l *LocalFetcher) resolve(source string) (string, error) {
	p := strings.TrimPrefix(source, "file://")
	if p == "" {
		return "", apperrors.NewValidationError("file path is required", nil)
	}
	if l.root == "" {
		return filepath.Clean(p), nil
	}

	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", apperrors.NewInternalError("invalid storage root", err)
	}
	full := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.NewValidationError("path escapes storage root", nil)
	}
	return full, nil
}
