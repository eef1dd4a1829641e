package sales

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptoir/backoffice/internal/platform/cache"
	"github.com/comptoir/backoffice/internal/shared"
)

// ============================================================================
// STUB SOURCE
// ============================================================================

type stubSource struct {
	sales   map[string]Sale
	gets    atomic.Int32
	lists   atomic.Int32
	gate    chan struct{}
	getErr  error
	listErr error
}

func (s *stubSource) ListSales(ctx context.Context, query ListQuery) (Page, error) {
	s.lists.Add(1)
	if s.listErr != nil {
		return Page{}, s.listErr
	}
	out := make([]Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	return Page{Sales: out, Pagination: shared.NewPagination(query.Page, query.Limit, len(out))}, nil
}

func (s *stubSource) GetSale(ctx context.Context, id string) (Sale, error) {
	s.gets.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.getErr != nil {
		return Sale{}, s.getErr
	}
	sale, ok := s.sales[id]
	if !ok {
		return Sale{}, ErrNotFound
	}
	return sale, nil
}

func newStubSource() *stubSource {
	return &stubSource{sales: map[string]Sale{
		"s-1": {
			ID:            "s-1",
			Reference:     "V-0001",
			PaymentMethod: PaymentCredit,
			TotalExclTax:  decimal.RequireFromString("100"),
			TotalTax:      decimal.RequireFromString("20"),
			TotalInclTax:  decimal.RequireFromString("120"),
		},
	}}
}

func newCachedService(t *testing.T, source Source) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(source, cache.NewVersioned(client, "sales", time.Minute), logger, nil), mr
}

// ============================================================================
// TESTS
// ============================================================================

func TestServiceGetSaleCachesResult(t *testing.T) {
	source := newStubSource()
	svc, _ := newCachedService(t, source)
	ctx := context.Background()

	first, err := svc.GetSale(ctx, "s-1")
	require.NoError(t, err)
	second, err := svc.GetSale(ctx, "s-1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), source.gets.Load())
	assert.Equal(t, "V-0001", second.Reference)
	assert.True(t, first.TotalInclTax.Equal(second.TotalInclTax))
}

func TestServiceInvalidateCacheReloads(t *testing.T) {
	source := newStubSource()
	svc, _ := newCachedService(t, source)
	ctx := context.Background()

	_, err := svc.GetSale(ctx, "s-1")
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateCache(ctx))
	_, err = svc.GetSale(ctx, "s-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), source.gets.Load())
}

func TestServiceGetSaleNotFoundIsNotCached(t *testing.T) {
	source := newStubSource()
	svc, _ := newCachedService(t, source)
	ctx := context.Background()

	_, err := svc.GetSale(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetSale(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int32(2), source.gets.Load())
}

func TestServiceGetSaleWrapsUpstreamErrors(t *testing.T) {
	source := newStubSource()
	source.getErr = errors.New("connection refused")
	svc, _ := newCachedService(t, source)

	_, err := svc.GetSale(context.Background(), "s-1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestServiceGetSaleFallsBackWhenCacheDown(t *testing.T) {
	source := newStubSource()
	svc, mr := newCachedService(t, source)
	mr.Close()

	sale, err := svc.GetSale(context.Background(), "s-1")

	require.NoError(t, err)
	assert.Equal(t, "s-1", sale.ID)
}

func TestServiceGetSaleCollapsesConcurrentLoads(t *testing.T) {
	source := newStubSource()
	source.gate = make(chan struct{})
	svc := NewService(source, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]Sale, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetSale(context.Background(), "s-1")
		}(i)
	}

	require.Eventually(t, func() bool { return source.gets.Load() == 1 }, time.Second, time.Millisecond)
	// Let every caller join the in-flight load before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(source.gate)
	wg.Wait()

	assert.Equal(t, int32(1), source.gets.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "V-0001", results[i].Reference)
	}
}

func TestServiceGetSaleHonoursCallerContext(t *testing.T) {
	source := newStubSource()
	source.gate = make(chan struct{})
	defer close(source.gate)
	svc := NewService(source, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.GetSale(ctx, "s-1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServiceListSalesPassesThrough(t *testing.T) {
	source := newStubSource()
	svc := NewService(source, nil, nil, nil)

	page, err := svc.ListSales(context.Background(), ListQuery{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Len(t, page.Sales, 1)
	assert.Equal(t, 1, page.Pagination.Pages)
	assert.Equal(t, int32(1), source.lists.Load())
}

func TestServiceEmptyID(t *testing.T) {
	svc := NewService(newStubSource(), nil, nil, nil)

	_, err := svc.GetSale(context.Background(), "")

	assert.ErrorIs(t, err, ErrNotFound)
}
