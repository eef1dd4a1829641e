// Package posapi talks to the remote POS JSON API that owns sale records.
package posapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/shared"
)

// ErrUpstream is returned when the POS API answers with an unexpected status.
var ErrUpstream = errors.New("posapi: unexpected response")

// DefaultTimeout bounds a single request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config holds the remote API location and credentials.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a resty backed POS API client.
type Client struct {
	http *resty.Client
}

type listEnvelope struct {
	Sales      []sales.Sale      `json:"sales"`
	Pagination shared.Pagination `json:"pagination"`
}

type saleEnvelope struct {
	Sale *sales.Sale `json:"sale"`
}

// New constructs a client for the API rooted at cfg.BaseURL.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &Client{http: client}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// ListSales fetches one page of the sale listing.
func (c *Client) ListSales(ctx context.Context, query sales.ListQuery) (sales.Page, error) {
	var envelope listEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query.Values()).
		SetResult(&envelope).
		Get("/sales")
	if err != nil {
		return sales.Page{}, fmt.Errorf("posapi: list sales: %w", err)
	}
	if !resp.IsSuccess() {
		return sales.Page{}, fmt.Errorf("posapi: list sales: %w (status %d)", ErrUpstream, resp.StatusCode())
	}

	page := sales.Page{Sales: envelope.Sales, Pagination: envelope.Pagination}
	if page.Sales == nil {
		page.Sales = []sales.Sale{}
	}
	return page, nil
}

// GetSale fetches a single sale. A missing sale yields sales.ErrNotFound.
func (c *Client) GetSale(ctx context.Context, id string) (sales.Sale, error) {
	var envelope saleEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&envelope).
		Get("/sales/{id}")
	if err != nil {
		return sales.Sale{}, fmt.Errorf("posapi: get sale: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return sales.Sale{}, sales.ErrNotFound
	case !resp.IsSuccess():
		return sales.Sale{}, fmt.Errorf("posapi: get sale: %w (status %d)", ErrUpstream, resp.StatusCode())
	case envelope.Sale == nil:
		return sales.Sale{}, sales.ErrNotFound
	}
	return *envelope.Sale, nil
}
