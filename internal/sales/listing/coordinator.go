package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/sales"
)

// Fetcher loads one page of the remote sale listing.
type Fetcher interface {
	ListSales(ctx context.Context, query sales.ListQuery) (sales.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query sales.ListQuery) (sales.Page, error)

// ListSales calls f.
func (f FetcherFunc) ListSales(ctx context.Context, query sales.ListQuery) (sales.Page, error) {
	return f(ctx, query)
}

// Options configures a Coordinator.
type Options struct {
	// Limit is the page size; shared.DefaultPageSize when zero.
	Limit int
	// Defaults are the filters the view starts with and returns to on ClearFilters.
	Defaults Filters
	// Timeout bounds each fetch. Zero means no bound beyond the fetcher's own.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Coordinator owns the query state of one listing view. Every state change that affects
// the listing issues exactly one asynchronous fetch; responses that are not for the
// latest issued fetch are discarded.
type Coordinator struct {
	fetcher  Fetcher
	defaults Filters
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time

	mu      sync.Mutex
	state   State
	settled chan struct{}
	wg      sync.WaitGroup
}

// NewCoordinator builds a Coordinator in its initial state. No fetch is issued until the
// first operation.
func NewCoordinator(fetcher Fetcher, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaults := opts.Defaults.normalized()
	return &Coordinator{
		fetcher:  fetcher,
		defaults: defaults,
		timeout:  opts.Timeout,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      time.Now,
		state:    NewState(opts.Limit, defaults),
	}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Defaults returns the filters restored by ClearFilters.
func (c *Coordinator) Defaults() Filters {
	return c.defaults
}

// SetFilter sets one filter, resets to the first page and re-fetches.
func (c *Coordinator) SetFilter(ctx context.Context, key FilterKey, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := ApplyFilterChange(c.state, key, value)
	if err != nil {
		return err
	}
	c.state = next
	c.dispatchLocked(ctx)
	return nil
}

// SetFilters replaces all filters with a single re-fetch, resetting to the first page.
func (c *Coordinator) SetFilters(ctx context.Context, filters Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ApplyFiltersChange(c.state, filters)
	c.dispatchLocked(ctx)
}

// ClearFilters restores the default filters, resets to the first page and re-fetches.
func (c *Coordinator) ClearFilters(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ApplyClearFilters(c.state, c.defaults)
	c.dispatchLocked(ctx)
}

// SetPage moves to page n and re-fetches. Requests outside [1, pages] are ignored and
// report false.
func (c *Coordinator) SetPage(ctx context.Context, n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := ApplyPageChange(c.state, n)
	if !ok {
		return false
	}
	c.state = next
	c.dispatchLocked(ctx)
	return true
}

// Load issues the first fetch of a view that has never fetched and reports whether it did.
func (c *Coordinator) Load(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Seq > 0 {
		return false
	}
	c.dispatchLocked(ctx)
	return true
}

// Refresh re-issues the fetch for the current filters and page.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchLocked(ctx)
}

// DismissError hides the last fetch error.
func (c *Coordinator) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ApplyDismissError(c.state)
}

// Wait blocks until the latest issued fetch has settled or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	ch := c.settled
	c.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) dispatchLocked(ctx context.Context) {
	next, seq := ApplyFetchIssued(c.state)
	c.state = next
	if c.settled == nil {
		c.settled = make(chan struct{})
	}
	query := c.state.Query()

	// The fetch outlives the request that triggered it.
	fetchCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go c.fetch(fetchCtx, seq, query)
}

func (c *Coordinator) fetch(ctx context.Context, seq uint64, query sales.ListQuery) {
	defer c.wg.Done()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	page, err := c.fetcher.ListSales(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	var applied bool
	if err != nil {
		c.state, applied = ApplyFetchError(c.state, seq, err)
	} else {
		c.state, applied = ApplyFetchResult(c.state, seq, page, c.now())
	}
	if !applied {
		c.metrics.ListingStale()
		c.logger.Debug("discard stale listing response",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", c.state.Seq),
		)
		return
	}

	if err != nil {
		c.metrics.ListingFetched("failure")
		c.logger.Warn("list sales failed",
			slog.Int("page", query.Page),
			slog.String("payment_method", query.PaymentMethod),
			slog.Any("error", err),
		)
	} else {
		c.metrics.ListingFetched("success")
	}

	if c.settled != nil {
		close(c.settled)
		c.settled = nil
	}
}
