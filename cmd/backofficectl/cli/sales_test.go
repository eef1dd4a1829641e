package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/internal/shared"
)

type stubFetcher struct {
	mu      sync.Mutex
	queries []sales.ListQuery
	total   int
	err     error
}

func (f *stubFetcher) ListSales(ctx context.Context, query sales.ListQuery) (sales.Page, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return sales.Page{}, f.err
	}
	sale := sales.Sale{
		ID:            "s1",
		Reference:     "V-001",
		SaleDate:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		PaymentMethod: sales.PaymentCheck,
		IsReturn:      true,
		TotalInclTax:  decimal.RequireFromString("12.00"),
	}
	return sales.Page{
		Sales:      []sales.Sale{sale},
		Pagination: shared.NewPagination(query.Page, query.Limit, f.total),
	}, nil
}

func newSalesCLI(fetcher *stubFetcher) *SalesCLI {
	return NewSalesCLI(fetcher, present.NewFormatter("€", time.UTC), present.Navigator{})
}

func TestBrowseCommandHuman(t *testing.T) {
	fetcher := &stubFetcher{total: 1}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := newSalesCLI(fetcher).BrowseCommand(context.Background(), SalesBrowseOptions{
		PaymentMethod: "check",
		Stdout:        stdout,
		Stderr:        stderr,
	})

	require.Zero(t, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "V-001")
	assert.Contains(t, out, "Chèque")
	assert.Contains(t, out, "Retour")
	assert.Contains(t, out, present.CounterCustomer)
	assert.Contains(t, out, "Page 1/1, 1 ventes")
	require.Len(t, fetcher.queries, 1)
	assert.Equal(t, "CHECK", fetcher.queries[0].PaymentMethod)
}

func TestBrowseCommandJSONPage(t *testing.T) {
	fetcher := &stubFetcher{total: 45}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := newSalesCLI(fetcher).BrowseCommand(context.Background(), SalesBrowseOptions{
		Page:       3,
		Limit:      20,
		CustomerID: "c-7",
		JSONOutput: true,
		Stdout:     stdout,
		Stderr:     stderr,
	})

	require.Zero(t, code, stderr.String())
	var summary SalesBrowseSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 3, summary.Page)
	assert.Equal(t, 3, summary.Pages)
	require.Len(t, summary.Rows, 1)
	require.Len(t, fetcher.queries, 2)
	assert.Equal(t, 3, fetcher.queries[1].Page)
	assert.Equal(t, "c-7", fetcher.queries[1].CustomerID)
}

func TestBrowseCommandPageOutOfRange(t *testing.T) {
	fetcher := &stubFetcher{total: 5}
	stderr := new(bytes.Buffer)

	code := newSalesCLI(fetcher).BrowseCommand(context.Background(), SalesBrowseOptions{
		Page:   4,
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
	})

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "out of range")
}

func TestBrowseCommandInvalidFilters(t *testing.T) {
	fetcher := &stubFetcher{}
	stderr := new(bytes.Buffer)

	code := newSalesCLI(fetcher).BrowseCommand(context.Background(), SalesBrowseOptions{
		StartDate: "yesterday",
		Stdout:    new(bytes.Buffer),
		Stderr:    stderr,
	})

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "StartDate")
	assert.Empty(t, fetcher.queries)
}

func TestBrowseCommandFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	stderr := new(bytes.Buffer)

	code := newSalesCLI(fetcher).BrowseCommand(context.Background(), SalesBrowseOptions{
		Stdout: new(bytes.Buffer),
		Stderr: stderr,
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "connection refused")
}
