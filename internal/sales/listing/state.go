// Package listing keeps a remote paginated sale listing in sync with its filter and
// pagination state.
package listing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/shared"
)

// ErrUnknownFilter is returned for filter keys the listing does not support.
var ErrUnknownFilter = errors.New("listing: unknown filter")

// FilterKey names a single filter field.
type FilterKey string

const (
	FilterStartDate     FilterKey = "startDate"
	FilterEndDate       FilterKey = "endDate"
	FilterPaymentMethod FilterKey = "paymentMethod"
	FilterCustomer      FilterKey = "customerId"
)

// Filters are the listing filters. Empty fields are not applied.
type Filters struct {
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	CustomerID    string `json:"customerId,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

func (f Filters) normalized() Filters {
	return Filters{
		StartDate:     strings.TrimSpace(f.StartDate),
		EndDate:       strings.TrimSpace(f.EndDate),
		PaymentMethod: strings.TrimSpace(f.PaymentMethod),
		CustomerID:    strings.TrimSpace(f.CustomerID),
	}
}

// State is the query state of one listing view together with the page it displays.
type State struct {
	Filters    Filters           `json:"filters"`
	Pagination shared.Pagination `json:"pagination"`
	Sales      []sales.Sale      `json:"sales"`
	Loading    bool              `json:"loading"`
	Loaded     bool              `json:"loaded"`
	Error      string            `json:"error,omitempty"`
	FetchedAt  time.Time         `json:"fetchedAt,omitempty"`
	// Seq is the sequence number of the latest issued fetch.
	Seq uint64 `json:"seq"`
}

// NewState returns the initial state: page 1, the given limit and filters, nothing loaded.
func NewState(limit int, filters Filters) State {
	if limit <= 0 {
		limit = shared.DefaultPageSize
	}
	return State{
		Filters:    filters.normalized(),
		Pagination: shared.Pagination{Page: 1, Limit: limit},
	}
}

// Query builds the remote listing request for the current state.
func (s State) Query() sales.ListQuery {
	page := s.Pagination.Page
	if page < 1 {
		page = 1
	}
	return sales.ListQuery{
		Page:          page,
		Limit:         s.Pagination.Limit,
		StartDate:     s.Filters.StartDate,
		EndDate:       s.Filters.EndDate,
		PaymentMethod: s.Filters.PaymentMethod,
		CustomerID:    s.Filters.CustomerID,
	}
}

// ApplyFilterChange sets one filter and moves back to the first page.
func ApplyFilterChange(s State, key FilterKey, value string) (State, error) {
	value = strings.TrimSpace(value)
	switch key {
	case FilterStartDate:
		s.Filters.StartDate = value
	case FilterEndDate:
		s.Filters.EndDate = value
	case FilterPaymentMethod:
		s.Filters.PaymentMethod = value
	case FilterCustomer:
		s.Filters.CustomerID = value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}
	s.Pagination.Page = 1
	return s, nil
}

// ApplyFiltersChange replaces every filter at once and moves back to the first page.
func ApplyFiltersChange(s State, filters Filters) State {
	s.Filters = filters.normalized()
	s.Pagination.Page = 1
	return s
}

// ApplyClearFilters restores the default filters and moves back to the first page.
func ApplyClearFilters(s State, defaults Filters) State {
	return ApplyFiltersChange(s, defaults)
}

// ApplyPageChange moves to page n when 1 <= n <= pages. Out of range requests leave the
// state untouched and report false.
func ApplyPageChange(s State, n int) (State, bool) {
	if !s.Pagination.Contains(n) {
		return s, false
	}
	s.Pagination.Page = n
	return s, true
}

// ApplyFetchIssued records a new in-flight fetch and returns its sequence number.
func ApplyFetchIssued(s State) (State, uint64) {
	s.Seq++
	s.Loading = true
	return s, s.Seq
}

// ApplyFetchResult swaps in a fetched page. Sales and pagination are replaced together,
// and only when seq is the latest issued fetch.
func ApplyFetchResult(s State, seq uint64, page sales.Page, at time.Time) (State, bool) {
	if seq != s.Seq {
		return s, false
	}
	limit := page.Pagination.Limit
	if limit <= 0 {
		limit = s.Pagination.Limit
	}
	current := page.Pagination.Page
	if current <= 0 {
		current = s.Pagination.Page
	}
	pagination := shared.NewPagination(current, limit, page.Pagination.Total)
	if page.Pagination.Pages > 0 {
		pagination.Pages = page.Pagination.Pages
	}

	s.Sales = page.Sales
	if s.Sales == nil {
		s.Sales = []sales.Sale{}
	}
	s.Pagination = pagination
	s.Loading = false
	s.Loaded = true
	s.Error = ""
	s.FetchedAt = at
	return s, true
}

// ApplyFetchError records a failed fetch. The previously displayed sales are kept.
func ApplyFetchError(s State, seq uint64, err error) (State, bool) {
	if seq != s.Seq {
		return s, false
	}
	s.Loading = false
	if err != nil {
		s.Error = err.Error()
	}
	return s, true
}

// ApplyDismissError hides the error block.
func ApplyDismissError(s State) State {
	s.Error = ""
	return s
}
