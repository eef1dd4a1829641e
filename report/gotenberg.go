// Package report converts rendered HTML documents to PDF through a Gotenberg service.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// DefaultTimeout bounds a single conversion.
const DefaultTimeout = 30 * time.Second

// ErrRender reports a conversion the Gotenberg service refused or failed.
var ErrRender = errors.New("report: render failed")

// Client wraps interactions with the Gotenberg API.
type Client struct {
	http *resty.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(DefaultTimeout),
	}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode())
	}
	return nil
}

// RenderHTML converts raw HTML into a PDF document using Gotenberg.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("files", "index.html", strings.NewReader(html)).
		Post("/forms/chromium/convert/html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrRender, resp.StatusCode())
	}
	return resp.Bytes(), nil
}
