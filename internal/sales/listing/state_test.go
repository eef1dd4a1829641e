package listing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/shared"
)

func loadedState(page, pages int) State {
	s := NewState(20, Filters{})
	s.Pagination = shared.Pagination{Page: page, Limit: 20, Total: pages * 20, Pages: pages}
	s.Loaded = true
	return s
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState(0, Filters{})

	assert.Equal(t, 1, s.Pagination.Page)
	assert.Equal(t, shared.DefaultPageSize, s.Pagination.Limit)
	assert.True(t, s.Filters.IsZero())
	assert.False(t, s.Loaded)
}

func TestApplyFilterChangeResetsPage(t *testing.T) {
	for _, key := range []FilterKey{FilterStartDate, FilterEndDate, FilterPaymentMethod, FilterCustomer} {
		t.Run(string(key), func(t *testing.T) {
			s := loadedState(4, 6)

			next, err := ApplyFilterChange(s, key, " value ")

			require.NoError(t, err)
			assert.Equal(t, 1, next.Pagination.Page)
			assert.Equal(t, "value", next.Query().Values().Get(string(key)))
		})
	}
}

func TestApplyFilterChangeUnknownKey(t *testing.T) {
	s := loadedState(3, 5)

	next, err := ApplyFilterChange(s, "status", "open")

	assert.True(t, errors.Is(err, ErrUnknownFilter))
	assert.Equal(t, s, next)
}

func TestApplyClearFiltersRestoresDefaults(t *testing.T) {
	s := loadedState(2, 5)
	s.Filters = Filters{StartDate: "2024-01-01", PaymentMethod: "CASH", CustomerID: "c1"}

	next := ApplyClearFilters(s, Filters{CustomerID: "c1"})

	assert.Equal(t, Filters{CustomerID: "c1"}, next.Filters)
	assert.Equal(t, 1, next.Pagination.Page)
}

func TestApplyPageChangeRange(t *testing.T) {
	s := loadedState(1, 3)

	for n := 1; n <= 3; n++ {
		next, ok := ApplyPageChange(s, n)
		assert.True(t, ok)
		assert.Equal(t, n, next.Pagination.Page)
	}
	for _, n := range []int{-1, 0, 4} {
		next, ok := ApplyPageChange(s, n)
		assert.False(t, ok)
		assert.Equal(t, s, next)
	}
}

func TestApplyPageChangeBeforeFirstLoad(t *testing.T) {
	_, ok := ApplyPageChange(NewState(20, Filters{}), 1)
	assert.False(t, ok, "no page is addressable before the first listing arrives")
}

func TestApplyFetchResultReplacesSalesAndPagination(t *testing.T) {
	s, seq := ApplyFetchIssued(NewState(20, Filters{}))
	require.True(t, s.Loading)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	page := sales.Page{
		Sales:      []sales.Sale{{ID: "a"}, {ID: "b"}},
		Pagination: shared.Pagination{Page: 1, Limit: 20, Total: 41},
	}
	next, ok := ApplyFetchResult(s, seq, page, at)

	require.True(t, ok)
	assert.False(t, next.Loading)
	assert.True(t, next.Loaded)
	assert.Len(t, next.Sales, 2)
	assert.Equal(t, 3, next.Pagination.Pages)
	assert.Equal(t, at, next.FetchedAt)
}

func TestApplyFetchResultIgnoresStaleSequence(t *testing.T) {
	s, first := ApplyFetchIssued(NewState(20, Filters{}))
	s, _ = ApplyFetchIssued(s)

	next, ok := ApplyFetchResult(s, first, sales.Page{Sales: []sales.Sale{{ID: "old"}}}, time.Now())

	assert.False(t, ok)
	assert.Equal(t, s, next)
	assert.True(t, next.Loading)
}

func TestApplyFetchErrorKeepsSales(t *testing.T) {
	s := loadedState(1, 1)
	s.Sales = []sales.Sale{{ID: "kept"}}
	s, seq := ApplyFetchIssued(s)

	next, ok := ApplyFetchError(s, seq, errors.New("boom"))

	require.True(t, ok)
	assert.False(t, next.Loading)
	assert.Equal(t, "boom", next.Error)
	assert.Equal(t, []sales.Sale{{ID: "kept"}}, next.Sales)

	assert.Empty(t, ApplyDismissError(next).Error)
}

func TestListQueryOmitsEmptyFilters(t *testing.T) {
	s := NewState(20, Filters{PaymentMethod: "CASH"})

	values := s.Query().Values()

	assert.Equal(t, "1", values.Get("page"))
	assert.Equal(t, "20", values.Get("limit"))
	assert.Equal(t, "CASH", values.Get("paymentMethod"))
	assert.False(t, values.Has("startDate"))
	assert.False(t, values.Has("endDate"))
	assert.False(t, values.Has("customerId"))
}
