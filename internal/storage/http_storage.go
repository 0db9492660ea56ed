package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
	"github.com/anime-shed/media-inspector-go/internal/logger"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

const maxAttempts = 3

// retryBackoff is the wait before retry number attempt+1
var retryBackoff = func(attempt int) time.Duration {
	return time.Duration(attempt+1) * time.Second
}

// HTTPFetcher implements MediaFetcher over plain HTTP(S)
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher creates an HTTP media fetcher. maxBytes caps the response body
// (0 disables the cap).
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) MediaFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFetcher{
		maxBytes: maxBytes,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Fetch downloads mediaURL. Transport failures and 5xx responses are retried
// with a linear backoff; 4xx responses are returned immediately.
func (h *HTTPFetcher) Fetch(ctx context.Context, mediaURL string) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}
	req.Header.Set("Accept", "image/*, video/*, */*")
	req.Header.Set("User-Agent", "Go-Media-Inspector/1.0")

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("media fetch cancelled", ctx.Err())
			case <-time.After(retryBackoff(attempt - 1)):
			}
		}

		media, retry, err := h.do(req)
		if err == nil {
			return media, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}

		logger.WithFields(logrus.Fields{
			"url":     mediaURL,
			"attempt": attempt + 1,
		}).WithError(err).Warn("Media fetch failed, retrying")
	}

	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch media after %d attempts", maxAttempts), lastErr)
}

// do performs one attempt and reports whether a failure is worth retrying
func (h *HTTPFetcher) do(req *http.Request) (*Media, bool, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, false, apperrors.NewTimeoutError("media fetch timeout", err)
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewNotFoundError(
			fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, apperrors.NewNetworkError(
			fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	if h.maxBytes > 0 && resp.ContentLength > h.maxBytes {
		return nil, false, tooLarge(h.maxBytes)
	}

	data, err := readLimited(resp.Body, h.maxBytes)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			return nil, false, err
		}
		return nil, true, err
	}

	return &Media{
		Data: data,
		Metadata: models.MediaMetadata{
			ContentType:   resp.Header.Get("Content-Type"),
			ContentLength: int64(len(data)),
			Source:        req.URL.String(),
		},
	}, false, nil
}
