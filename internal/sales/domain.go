package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comptoir/backoffice/internal/shared"
)

// ErrNotFound indicates the requested sale does not exist on the POS side.
var ErrNotFound = errors.New("sales: sale not found")

// PaymentMethod is the tender used for a sale. Values outside the known set are kept verbatim.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCheck  PaymentMethod = "CHECK"
	PaymentCredit PaymentMethod = "CREDIT"
)

// KnownPaymentMethods lists the tenders the backoffice has labels for.
var KnownPaymentMethods = []PaymentMethod{PaymentCash, PaymentCheck, PaymentCredit}

// ============================================================================
// SALE
// ============================================================================

// Sale is a completed point-of-sale transaction as served by the POS API.
type Sale struct {
	ID                  string        `json:"id"`
	Reference           string        `json:"reference"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
	SaleDate            time.Time     `json:"saleDate"`
	PaymentMethod       PaymentMethod `json:"paymentMethod"`
	IsReturn            bool          `json:"isReturn"`
	IsReplacement       bool          `json:"isReplacement"`
	ReturnSaleID        *string       `json:"returnSaleId,omitempty"`
	ReturnSaleReference *string       `json:"returnSaleReference,omitempty"`
	Customer            *Customer     `json:"customer,omitempty"`
	CustomerName        *string       `json:"customerName,omitempty"`
	Vehicle             *Vehicle      `json:"vehicle,omitempty"`
	Items               []LineItem    `json:"items"`

	TotalExclTax           decimal.Decimal `json:"totalExclTax"`
	TotalTax               decimal.Decimal `json:"totalTax"`
	TotalInclTax           decimal.Decimal `json:"totalInclTax"`
	LoyaltyDiscountPercent decimal.Decimal `json:"loyaltyDiscountPercent"`
	LoyaltyDiscountAmount  decimal.Decimal `json:"loyaltyDiscountAmount"`
}

// IsCounterSale reports whether the sale has no linked customer account.
func (s Sale) IsCounterSale() bool {
	return s.Customer == nil
}

// Customer is the account a sale is linked to.
type Customer struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	InternalCode *string `json:"internalCode,omitempty"`
}

// Vehicle describes the vehicle the sale was made for.
type Vehicle struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year,omitempty"`
	VIN   string `json:"vin,omitempty"`
}

// ============================================================================
// LINE ITEM
// ============================================================================

// LineItem is one product line of a sale. Totals are computed by the POS.
type LineItem struct {
	Name         string          `json:"name"`
	SKU          *string         `json:"sku,omitempty"`
	Product      *Product        `json:"product,omitempty"`
	Quantity     int             `json:"quantity"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	DiscountRate decimal.Decimal `json:"discountRate"`
	FinalPrice   decimal.Decimal `json:"finalPrice"`
	TaxRate      decimal.Decimal `json:"taxRate"`
	TotalExclTax decimal.Decimal `json:"totalExclTax"`
	TotalInclTax decimal.Decimal `json:"totalInclTax"`
}

// Product is the catalogue entry a line item was sold from.
type Product struct {
	ID  string `json:"id"`
	SKU string `json:"sku"`
}

// ============================================================================
// LISTING
// ============================================================================

// Page is one page of the remote sale listing.
type Page struct {
	Sales      []Sale            `json:"sales"`
	Pagination shared.Pagination `json:"pagination"`
}
