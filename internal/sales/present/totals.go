package present

import (
	"github.com/shopspring/decimal"

	"github.com/comptoir/backoffice/internal/sales"
)

// Tolerance is the largest accepted difference between recomputed and stored totals.
var Tolerance = decimal.New(1, -2)

// Totals fields reported by ValidateTotals.
const (
	FieldTotalExclTax = "totalExclTax"
	FieldTotalTax     = "totalTax"
	FieldTotalInclTax = "totalInclTax"
)

// TotalsIssue describes one aggregate that disagrees with its expected value.
type TotalsIssue struct {
	Field    string          `json:"field"`
	Expected decimal.Decimal `json:"expected"`
	Stored   decimal.Decimal `json:"stored"`
	Delta    decimal.Decimal `json:"delta"`
}

// TotalsCheck is the outcome of reconciling a sale's aggregates with its lines.
type TotalsCheck struct {
	ComputedExclTax decimal.Decimal `json:"computedExclTax"`
	ComputedTax     decimal.Decimal `json:"computedTax"`
	ExpectedInclTax decimal.Decimal `json:"expectedInclTax"`
	Issues          []TotalsIssue   `json:"issues,omitempty"`
}

// OK reports whether every aggregate matched within Tolerance.
func (c TotalsCheck) OK() bool {
	return len(c.Issues) == 0
}

// ValidateTotals recomputes the excl. tax and tax totals from the lines and compares them
// with the stored aggregate, then checks incl = excl + tax - loyalty discount. A mismatch
// is informational; stored aggregates stay authoritative for display.
func ValidateTotals(sale sales.Sale) TotalsCheck {
	exclTax := decimal.Zero
	tax := decimal.Zero
	for _, item := range sale.Items {
		exclTax = exclTax.Add(item.TotalExclTax)
		tax = tax.Add(item.TotalInclTax.Sub(item.TotalExclTax))
	}

	check := TotalsCheck{
		ComputedExclTax: exclTax,
		ComputedTax:     tax,
		ExpectedInclTax: sale.TotalExclTax.Add(sale.TotalTax).Sub(sale.LoyaltyDiscountAmount),
	}
	check.compare(FieldTotalExclTax, exclTax, sale.TotalExclTax)
	check.compare(FieldTotalTax, tax, sale.TotalTax)
	check.compare(FieldTotalInclTax, check.ExpectedInclTax, sale.TotalInclTax)
	return check
}

func (c *TotalsCheck) compare(field string, expected, stored decimal.Decimal) {
	delta := stored.Sub(expected)
	if delta.Abs().GreaterThan(Tolerance) {
		c.Issues = append(c.Issues, TotalsIssue{
			Field:    field,
			Expected: expected,
			Stored:   stored,
			Delta:    delta,
		})
	}
}
