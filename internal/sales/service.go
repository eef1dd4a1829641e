package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/platform/cache"
)

// Source is the remote system of record for sales.
type Source interface {
	ListSales(ctx context.Context, query ListQuery) (Page, error)
	GetSale(ctx context.Context, id string) (Sale, error)
}

// Service loads sales from the POS API. Single sales are cached and concurrent loads of
// the same sale share one upstream request.
type Service struct {
	source  Source
	cache   *cache.Versioned
	logger  *slog.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewService constructs a sales service. cache and metrics may be nil.
func NewService(source Source, cache *cache.Versioned, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// ListSales fetches one listing page. Listings are never cached: the listing view always
// reflects the POS state at fetch time.
func (s *Service) ListSales(ctx context.Context, query ListQuery) (Page, error) {
	if s.source == nil {
		return Page{}, errors.New("sales: source not configured")
	}
	return s.source.ListSales(ctx, query)
}

// GetSale returns a single sale.
func (s *Service) GetSale(ctx context.Context, id string) (Sale, error) {
	if s.source == nil {
		return Sale{}, errors.New("sales: source not configured")
	}
	if id == "" {
		return Sale{}, ErrNotFound
	}

	resultCh := s.group.DoChan(id, func() (any, error) {
		return s.loadSale(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return Sale{}, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			s.recordDetail(res.Err)
			return Sale{}, res.Err
		}
		s.recordDetail(nil)
		return res.Val.(Sale), nil
	}
}

// InvalidateCache drops every cached sale.
func (s *Service) InvalidateCache(ctx context.Context) error {
	if _, err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("sales: invalidate cache: %w", err)
	}
	return nil
}

func (s *Service) loadSale(ctx context.Context, id string) (Sale, error) {
	key, err := s.cache.BuildKey(ctx, "detail", id)
	if err != nil {
		s.logger.Warn("sale cache unavailable", slog.String("sale_id", id), slog.Any("error", err))
		return s.source.GetSale(ctx, id)
	}
	var (
		sale    Sale
		loadErr error
	)
	err = s.cache.FetchJSON(ctx, key, &sale, func(ctx context.Context) (any, error) {
		fetched, err := s.source.GetSale(ctx, id)
		loadErr = err
		return fetched, err
	})
	switch {
	case err == nil:
		return sale, nil
	case loadErr == nil:
		s.logger.Warn("sale cache unavailable", slog.String("sale_id", id), slog.Any("error", err))
		return s.source.GetSale(ctx, id)
	case errors.Is(loadErr, ErrNotFound):
		return Sale{}, loadErr
	}
	return Sale{}, fmt.Errorf("sales: get sale %s: %w", id, loadErr)
}

func (s *Service) recordDetail(err error) {
	switch {
	case err == nil:
		s.metrics.DetailLoaded("success")
	case errors.Is(err, ErrNotFound):
		s.metrics.DetailLoaded("not_found")
	default:
		s.metrics.DetailLoaded("failure")
	}
}
