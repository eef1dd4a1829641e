package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/present"
)

const (
	// DefaultMaxPages bounds a run when neither options nor scope set a limit.
	DefaultMaxPages = 50
	defaultPageSize = 100
	defaultWorkers  = 4
)

// Lister fetches listing pages.
type Lister interface {
	ListSales(ctx context.Context, query sales.ListQuery) (sales.Page, error)
}

// Store persists findings.
type Store interface {
	SaveFindings(ctx context.Context, findings []Finding) error
}

// Options configures a Scanner.
type Options struct {
	PageSize int
	MaxPages int
	Workers  int
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Scope narrows a run to part of the listing.
type Scope struct {
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	MaxPages      int    `json:"maxPages,omitempty"`
}

// Scanner walks listing pages and validates every sale's totals.
type Scanner struct {
	lister   Lister
	store    Store
	pageSize int
	maxPages int
	workers  int
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
	newRunID func() string
}

// NewScanner constructs a Scanner. store may be nil, in which case findings are only
// reported.
func NewScanner(lister Lister, store Store, opts Options) *Scanner {
	s := &Scanner{
		lister:   lister,
		store:    store,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		workers:  opts.Workers,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
		newRunID: uuid.NewString,
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.maxPages <= 0 {
		s.maxPages = DefaultMaxPages
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run scans the listing within scope and stores the findings.
func (s *Scanner) Run(ctx context.Context, scope Scope) (Report, error) {
	if s == nil || s.lister == nil {
		return Report{}, fmt.Errorf("reconcile: scanner not configured")
	}
	report := Report{RunID: s.newRunID()}
	logger := s.logger.With(slog.String("run_id", report.RunID))

	first, err := s.lister.ListSales(ctx, s.query(scope, 1))
	if err != nil {
		return report, fmt.Errorf("reconcile: list page 1: %w", err)
	}

	limit := s.maxPages
	if scope.MaxPages > 0 {
		limit = scope.MaxPages
	}
	pages := first.Pagination.Pages
	if pages < 1 {
		pages = 1
	}
	if pages > limit {
		report.Truncated = true
		pages = limit
	}
	report.Pages = pages

	results := make([][]sales.Sale, pages)
	results[0] = first.Sales
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for n := 2; n <= pages; n++ {
		g.Go(func() error {
			page, err := s.lister.ListSales(gctx, s.query(scope, n))
			if err != nil {
				return fmt.Errorf("reconcile: list page %d: %w", n, err)
			}
			results[n-1] = page.Sales
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	detectedAt := s.now()
	seen := make(map[string]struct{})
	for _, batch := range results {
		for _, sale := range batch {
			if _, dup := seen[sale.ID]; dup {
				continue
			}
			seen[sale.ID] = struct{}{}
			report.Sales++
			report.Findings = append(report.Findings, s.inspect(logger, report.RunID, sale, detectedAt)...)
		}
	}

	if s.store != nil && len(report.Findings) > 0 {
		if err := s.store.SaveFindings(ctx, report.Findings); err != nil {
			return report, err
		}
	}
	logger.Info("reconciliation completed",
		slog.Int("pages", report.Pages),
		slog.Int("sales", report.Sales),
		slog.Int("findings", len(report.Findings)),
		slog.Bool("truncated", report.Truncated),
	)
	return report, nil
}

func (s *Scanner) inspect(logger *slog.Logger, runID string, sale sales.Sale, at time.Time) []Finding {
	check := present.ValidateTotals(sale)
	if check.OK() {
		return nil
	}
	findings := make([]Finding, 0, len(check.Issues))
	for _, issue := range check.Issues {
		s.metrics.TotalsMismatch(issue.Field)
		logger.Warn("sale totals mismatch",
			slog.String("sale_id", sale.ID),
			slog.String("reference", sale.Reference),
			slog.String("field", issue.Field),
			slog.String("delta", issue.Delta.StringFixed(2)),
		)
		findings = append(findings, Finding{
			RunID:      runID,
			SaleID:     sale.ID,
			Reference:  sale.Reference,
			Field:      issue.Field,
			Expected:   issue.Expected,
			Stored:     issue.Stored,
			Delta:      issue.Delta,
			DetectedAt: at,
		})
	}
	return findings
}

func (s *Scanner) query(scope Scope, page int) sales.ListQuery {
	return sales.ListQuery{
		Page:          page,
		Limit:         s.pageSize,
		StartDate:     scope.StartDate,
		EndDate:       scope.EndDate,
		PaymentMethod: scope.PaymentMethod,
	}
}
