package present

import (
	"strings"

	"github.com/comptoir/backoffice/internal/sales"
)

// CounterCustomer is shown for anonymous sales without a free-text name.
const CounterCustomer = "client comptoir"

// PaymentLabel is the display form of a payment method.
type PaymentLabel struct {
	Label string `json:"label"`
	Style string `json:"style"`
	Known bool   `json:"known"`
}

var paymentLabels = map[sales.PaymentMethod]PaymentLabel{
	sales.PaymentCash:   {Label: "Espèces", Style: "cash", Known: true},
	sales.PaymentCheck:  {Label: "Chèque", Style: "check", Known: true},
	sales.PaymentCredit: {Label: "Crédit", Style: "credit", Known: true},
}

// ResolvePaymentLabel maps a payment method to its label. Unknown methods pass through
// verbatim as both label and style key.
func ResolvePaymentLabel(method sales.PaymentMethod) PaymentLabel {
	if label, ok := paymentLabels[method]; ok {
		return label
	}
	return PaymentLabel{Label: string(method), Style: string(method)}
}

// Class returns the CSS class for the label; unknown methods get the neutral treatment.
func (p PaymentLabel) Class() string {
	if !p.Known {
		return "badge-neutral"
	}
	return "badge-" + p.Style
}

// BadgeKind identifies the status badge variant.
type BadgeKind string

const (
	BadgeReturn      BadgeKind = "return"
	BadgeReplacement BadgeKind = "replacement"
	BadgeNormal      BadgeKind = "normal"
	BadgeOrigin      BadgeKind = "origin"
)

// Badge is a status label rendered next to a sale.
type Badge struct {
	Label string    `json:"label"`
	Kind  BadgeKind `json:"kind"`
}

// BadgePolicy selects how status badges are produced for a given view.
type BadgePolicy int

const (
	// ListPolicy always yields at least one badge: "Normal" when no flag is set.
	ListPolicy BadgePolicy = iota
	// DetailPolicy yields no badge when no flag is set and adds the originating sale.
	DetailPolicy
)

// ResolveStatusBadges returns the ordered status badges of a sale for the given view.
func ResolveStatusBadges(sale sales.Sale, policy BadgePolicy) []Badge {
	badges := make([]Badge, 0, 2)
	if sale.IsReturn {
		badges = append(badges, Badge{Label: "Retour", Kind: BadgeReturn})
	}
	if sale.IsReplacement {
		badges = append(badges, Badge{Label: "Remplacement", Kind: BadgeReplacement})
	}
	switch policy {
	case ListPolicy:
		if len(badges) == 0 {
			badges = append(badges, Badge{Label: "Normal", Kind: BadgeNormal})
		}
	case DetailPolicy:
		if ref := originReference(sale); ref != "" {
			badges = append(badges, Badge{Label: "Vente originale: " + ref, Kind: BadgeOrigin})
		}
	}
	return badges
}

func originReference(sale sales.Sale) string {
	if sale.ReturnSaleID == nil || *sale.ReturnSaleID == "" {
		return ""
	}
	if sale.ReturnSaleReference != nil && *sale.ReturnSaleReference != "" {
		return *sale.ReturnSaleReference
	}
	return *sale.ReturnSaleID
}

// ResolveCustomerDisplay returns the customer name shown for a sale.
func ResolveCustomerDisplay(sale sales.Sale) string {
	if c := sale.Customer; c != nil {
		name := strings.TrimSpace(c.FirstName + " " + c.LastName)
		if c.InternalCode != nil && strings.TrimSpace(*c.InternalCode) != "" {
			name += " (" + strings.TrimSpace(*c.InternalCode) + ")"
		}
		return name
	}
	if sale.CustomerName != nil {
		if name := strings.TrimSpace(*sale.CustomerName); name != "" {
			return name
		}
	}
	return CounterCustomer
}
