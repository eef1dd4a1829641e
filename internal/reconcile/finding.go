// Package reconcile scans the remote sale listing for sales whose stored totals disagree
// with their line items and records what it finds.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Finding is one aggregate of one sale that failed reconciliation.
type Finding struct {
	ID         int64           `json:"id"`
	RunID      string          `json:"runId"`
	SaleID     string          `json:"saleId"`
	Reference  string          `json:"reference"`
	Field      string          `json:"field"`
	Expected   decimal.Decimal `json:"expected"`
	Stored     decimal.Decimal `json:"stored"`
	Delta      decimal.Decimal `json:"delta"`
	DetectedAt time.Time       `json:"detectedAt"`
}

// Report summarises one reconciliation run.
type Report struct {
	RunID     string    `json:"runId"`
	Pages     int       `json:"pages"`
	Sales     int       `json:"sales"`
	Findings  []Finding `json:"findings"`
	Truncated bool      `json:"truncated"`
}
