// Package fetch retrieves the catalog page and archive bodies over HTTP and
// unpacks archives into the staging directory as they download.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient is the shared client for catalog and archive requests.
// Archive bodies can be arbitrarily large, so there is no whole-request
// timeout; the response-header timeout bounds how long a server may stall
// before the first byte, and context deadlines bound everything else.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(userAgent string, headerTimeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPClient{
		client:    client,
		userAgent: userAgent,
	}
}

// Get performs an HTTP GET request and returns the open response. The caller
// owns the response and must close its body; nothing is buffered here.
func (h *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// Close closes the HTTP client
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
