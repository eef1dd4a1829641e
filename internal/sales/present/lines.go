// Package present turns raw sale records into display-ready views. Nothing here does I/O
// and nothing mutates its input.
package present

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/comptoir/backoffice/internal/sales"
)

// SKUPlaceholder is displayed when neither the line nor its product carries a SKU.
const SKUPlaceholder = "-"

// LineView is the resolved breakdown of a single line item.
type LineView struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	FinalPrice   decimal.Decimal `json:"finalPrice"`
	HasDiscount  bool            `json:"hasDiscount"`
	TaxRate      decimal.Decimal `json:"taxRate"`
	LineExclTax  decimal.Decimal `json:"lineExclTax"`
	LineInclTax  decimal.Decimal `json:"lineInclTax"`
	LineTax      decimal.Decimal `json:"lineTax"`
}

// ResolveLineItem resolves a raw line item. A non-zero discount rate whose prices are equal
// is shown as "no discount" rather than rejected.
func ResolveLineItem(item sales.LineItem) LineView {
	quantity := item.Quantity
	if quantity < 0 {
		quantity = 0
	}
	return LineView{
		Name:         item.Name,
		SKU:          resolveSKU(item),
		Quantity:     quantity,
		BasePrice:    item.BasePrice,
		DiscountRate: item.DiscountRate,
		FinalPrice:   item.FinalPrice,
		HasDiscount:  HasDiscount(item.DiscountRate, item.BasePrice, item.FinalPrice),
		TaxRate:      item.TaxRate,
		LineExclTax:  item.TotalExclTax,
		LineInclTax:  item.TotalInclTax,
		LineTax:      item.TotalInclTax.Sub(item.TotalExclTax),
	}
}

// ResolveLineItems resolves every line of a sale, preserving order.
func ResolveLineItems(items []sales.LineItem) []LineView {
	out := make([]LineView, 0, len(items))
	for _, item := range items {
		out = append(out, ResolveLineItem(item))
	}
	return out
}

// HasDiscount reports whether a discount badge applies.
func HasDiscount(rate, basePrice, finalPrice decimal.Decimal) bool {
	return rate.IsPositive() && !basePrice.Equal(finalPrice)
}

func resolveSKU(item sales.LineItem) string {
	if item.SKU != nil {
		if sku := strings.TrimSpace(*item.SKU); sku != "" {
			return sku
		}
	}
	if item.Product != nil {
		if sku := strings.TrimSpace(item.Product.SKU); sku != "" {
			return sku
		}
	}
	return SKUPlaceholder
}
