package present

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comptoir/backoffice/internal/sales"
)

// Navigator builds links to customer pages. Profiles live in the external CRM; sale
// history is served by the backoffice itself.
type Navigator struct {
	ProfileBaseURL string
}

// CustomerProfileURL returns the CRM profile link, or "" when no CRM is configured.
func (n Navigator) CustomerProfileURL(customerID string) string {
	if n.ProfileBaseURL == "" || customerID == "" {
		return ""
	}
	return strings.TrimRight(n.ProfileBaseURL, "/") + "/" + url.PathEscape(customerID)
}

// CustomerSalesURL returns the customer's sale history page.
func (n Navigator) CustomerSalesURL(customerID string) string {
	if customerID == "" {
		return ""
	}
	return "/customers/" + url.PathEscape(customerID) + "/sales"
}

// CustomerRef is the customer column of a sale.
type CustomerRef struct {
	Display    string `json:"display"`
	ID         string `json:"id,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
	SalesURL   string `json:"salesUrl,omitempty"`
}

func resolveCustomerRef(sale sales.Sale, nav Navigator) CustomerRef {
	ref := CustomerRef{Display: ResolveCustomerDisplay(sale)}
	if !sale.IsCounterSale() {
		ref.ID = sale.Customer.ID
		ref.ProfileURL = nav.CustomerProfileURL(sale.Customer.ID)
		ref.SalesURL = nav.CustomerSalesURL(sale.Customer.ID)
	}
	return ref
}

// ============================================================================
// LIST VIEW
// ============================================================================

// Row is one line of the sales list.
type Row struct {
	ID           string          `json:"id"`
	Reference    string          `json:"reference"`
	SaleDate     time.Time       `json:"saleDate"`
	Customer     CustomerRef     `json:"customer"`
	Payment      PaymentLabel    `json:"payment"`
	Badges       []Badge         `json:"badges"`
	ItemCount    int             `json:"itemCount"`
	TotalExclTax decimal.Decimal `json:"totalExclTax"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	TotalInclTax decimal.Decimal `json:"totalInclTax"`
}

// BuildRow resolves a sale for the list view.
func BuildRow(sale sales.Sale, nav Navigator) Row {
	count := 0
	for _, item := range sale.Items {
		if item.Quantity > 0 {
			count += item.Quantity
		}
	}
	return Row{
		ID:           sale.ID,
		Reference:    sale.Reference,
		SaleDate:     sale.SaleDate,
		Customer:     resolveCustomerRef(sale, nav),
		Payment:      ResolvePaymentLabel(sale.PaymentMethod),
		Badges:       ResolveStatusBadges(sale, ListPolicy),
		ItemCount:    count,
		TotalExclTax: sale.TotalExclTax,
		TotalTax:     sale.TotalTax,
		TotalInclTax: sale.TotalInclTax,
	}
}

// BuildRows resolves a page of sales.
func BuildRows(list []sales.Sale, nav Navigator) []Row {
	rows := make([]Row, 0, len(list))
	for _, sale := range list {
		rows = append(rows, BuildRow(sale, nav))
	}
	return rows
}

// ============================================================================
// DETAIL VIEW
// ============================================================================

// VehicleView is the vehicle block of the detail view.
type VehicleView struct {
	Label string `json:"label"`
	VIN   string `json:"vin,omitempty"`
}

// LoyaltyLine is the aggregate loyalty discount line.
type LoyaltyLine struct {
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

// Detail is the full breakdown of one sale.
type Detail struct {
	ID           string          `json:"id"`
	Reference    string          `json:"reference"`
	SaleDate     time.Time       `json:"saleDate"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Payment      PaymentLabel    `json:"payment"`
	Badges       []Badge         `json:"badges"`
	Customer     CustomerRef     `json:"customer"`
	Vehicle      *VehicleView    `json:"vehicle,omitempty"`
	Lines        []LineView      `json:"lines"`
	TotalExclTax decimal.Decimal `json:"totalExclTax"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	TotalInclTax decimal.Decimal `json:"totalInclTax"`
	Loyalty      *LoyaltyLine    `json:"loyalty,omitempty"`
	Totals       TotalsCheck     `json:"totals"`
}

// BuildDetail resolves a sale for the detail view.
func BuildDetail(sale sales.Sale, nav Navigator) Detail {
	detail := Detail{
		ID:           sale.ID,
		Reference:    sale.Reference,
		SaleDate:     sale.SaleDate,
		CreatedAt:    sale.CreatedAt,
		UpdatedAt:    sale.UpdatedAt,
		Payment:      ResolvePaymentLabel(sale.PaymentMethod),
		Badges:       ResolveStatusBadges(sale, DetailPolicy),
		Customer:     resolveCustomerRef(sale, nav),
		Vehicle:      resolveVehicle(sale.Vehicle),
		Lines:        ResolveLineItems(sale.Items),
		TotalExclTax: sale.TotalExclTax,
		TotalTax:     sale.TotalTax,
		TotalInclTax: sale.TotalInclTax,
		Totals:       ValidateTotals(sale),
	}
	if sale.LoyaltyDiscountAmount.IsPositive() {
		detail.Loyalty = &LoyaltyLine{
			Percent: sale.LoyaltyDiscountPercent,
			Amount:  sale.LoyaltyDiscountAmount,
		}
	}
	return detail
}

func resolveVehicle(v *sales.Vehicle) *VehicleView {
	if v == nil {
		return nil
	}
	label := strings.TrimSpace(v.Brand + " " + v.Model)
	if v.Year > 0 {
		label = strings.TrimSpace(fmt.Sprintf("%s (%d)", label, v.Year))
	}
	if label == "" && v.VIN == "" {
		return nil
	}
	return &VehicleView{Label: label, VIN: v.VIN}
}
