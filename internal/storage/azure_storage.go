package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// AzureFetcher reads media blobs from an Azure storage account
type AzureFetcher struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureFetcher authenticates with a shared key against the account's blob endpoint
func NewAzureFetcher(accountName, accountKey string, maxBytes int64) (MediaFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid Azure storage credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create Azure blob client", err)
	}

	return &AzureFetcher{client: client, maxBytes: maxBytes}, nil
}

// Fetch downloads the blob addressed by blobURL
func (s *AzureFetcher) Fetch(ctx context.Context, blobURL string) (*Media, error) {
	containerName, blobName, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("blob not found: %s/%s", containerName, blobName), err)
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}
	defer resp.Body.Close()

	if s.maxBytes > 0 && resp.ContentLength != nil && *resp.ContentLength > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	data, err := readLimited(resp.Body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(path.Ext(blobName))
	if resp.ContentType != nil && *resp.ContentType != "" {
		contentType = *resp.ContentType
	}

	return &Media{
		Data: data,
		Metadata: models.MediaMetadata{
			ContentType:   contentType,
			ContentLength: int64(len(data)),
			Source:        blobURL,
		},
	}, nil
}

// parseBlobURL accepts https://account.blob.core.windows.net/container/path/to/blob
// and the legacy form .../container?blob=name.
func parseBlobURL(blobURL string) (string, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}

	trimmed := strings.TrimPrefix(parsedURL.Path, "/")
	if name := parsedURL.Query().Get("blob"); name != "" {
		if trimmed == "" || strings.Contains(trimmed, "/") {
			return "", "", apperrors.NewValidationError("blob URL must name exactly one container", nil)
		}
		return trimmed, name, nil
	}

	containerName, blobName, ok := strings.Cut(trimmed, "/")
	if !ok || containerName == "" || blobName == "" {
		return "", "", apperrors.NewValidationError("blob URL must include a container and blob name", nil)
	}
	return containerName, blobName, nil
}
