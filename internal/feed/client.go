package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const userAgent = "HKConditionsMonitor/1.0 (+https://data.gov.hk)"

// Client fetches raw feed payloads over HTTP with a fixed per-request timeout.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed HTTP client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Get performs one GET against a feed endpoint and returns the raw body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
