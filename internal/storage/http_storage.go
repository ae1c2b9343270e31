package storage

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"
)

type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

// HTTPFetcherOptions tunes the HTTP fetcher's timeouts and retry policy
type HTTPFetcherOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultHTTPFetcherOptions returns the production retry policy: 3 attempts
// with linear backoff starting at one second.
func DefaultHTTPFetcherOptions() HTTPFetcherOptions {
	return HTTPFetcherOptions{
		Timeout:     30 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}
}

// HTTPImageFetcher downloads source images over HTTP(S)
type HTTPImageFetcher struct {
	client  *http.Client
	options HTTPFetcherOptions
}

// NewHTTPImageFetcher creates an HTTP image fetcher with default options
func NewHTTPImageFetcher() *HTTPImageFetcher {
	return NewHTTPImageFetcherWithOptions(DefaultHTTPFetcherOptions())
}

// NewHTTPImageFetcherWithOptions creates an HTTP image fetcher with custom options
func NewHTTPImageFetcherWithOptions(options HTTPFetcherOptions) *HTTPImageFetcher {
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = 1
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultHTTPFetcherOptions().Timeout
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		options: options,
		client: &http.Client{
			Transport: transport,
			Timeout:   options.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "Go-Image-Augmentor/1.0")

	attempts := h.options.MaxAttempts
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := h.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			return DecodeImage(resp.Body)
		}

		retryable := true
		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			switch {
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				// 4xx client errors are non-retryable
				lastErr = fmt.Errorf("client error: status code %d", resp.StatusCode)
				retryable = false
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
			default:
				lastErr = fmt.Errorf("unexpected status code %d", resp.StatusCode)
				retryable = false
			}
		}

		if !retryable || ctx.Err() != nil {
			break
		}
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to fetch image: %w", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * h.options.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch image: %w", lastErr)
}
