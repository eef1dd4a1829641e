package present

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comptoir/backoffice/internal/sales"
)

func TestResolvePaymentLabel(t *testing.T) {
	cases := []struct {
		method sales.PaymentMethod
		label  string
		class  string
	}{
		{method: sales.PaymentCash, label: "Espèces", class: "badge-cash"},
		{method: sales.PaymentCheck, label: "Chèque", class: "badge-check"},
		{method: sales.PaymentCredit, label: "Crédit", class: "badge-credit"},
		{method: "WIRE", label: "WIRE", class: "badge-neutral"},
	}
	for _, tc := range cases {
		t.Run(string(tc.method), func(t *testing.T) {
			label := ResolvePaymentLabel(tc.method)
			assert.Equal(t, tc.label, label.Label)
			assert.Equal(t, tc.class, label.Class())
		})
	}
}

func TestResolvePaymentLabelUnknownPassesThrough(t *testing.T) {
	label := ResolvePaymentLabel("WIRE")

	assert.False(t, label.Known)
	assert.Equal(t, "WIRE", label.Style)
}

func TestResolveStatusBadgesListPolicy(t *testing.T) {
	normal := ResolveStatusBadges(sales.Sale{}, ListPolicy)
	assert.Equal(t, []Badge{{Label: "Normal", Kind: BadgeNormal}}, normal)

	both := ResolveStatusBadges(sales.Sale{IsReturn: true, IsReplacement: true}, ListPolicy)
	assert.Equal(t, []Badge{
		{Label: "Retour", Kind: BadgeReturn},
		{Label: "Remplacement", Kind: BadgeReplacement},
	}, both)

	withOrigin := ResolveStatusBadges(sales.Sale{IsReturn: true, ReturnSaleID: strPtr("s-1")}, ListPolicy)
	assert.Equal(t, []Badge{{Label: "Retour", Kind: BadgeReturn}}, withOrigin)
}

func TestResolveStatusBadgesDetailPolicy(t *testing.T) {
	assert.Empty(t, ResolveStatusBadges(sales.Sale{}, DetailPolicy))

	replacement := ResolveStatusBadges(sales.Sale{IsReplacement: true}, DetailPolicy)
	assert.Equal(t, []Badge{{Label: "Remplacement", Kind: BadgeReplacement}}, replacement)

	ret := sales.Sale{
		IsReturn:            true,
		ReturnSaleID:        strPtr("s-1"),
		ReturnSaleReference: strPtr("V-2024-0042"),
	}
	assert.Equal(t, []Badge{
		{Label: "Retour", Kind: BadgeReturn},
		{Label: "Vente originale: V-2024-0042", Kind: BadgeOrigin},
	}, ResolveStatusBadges(ret, DetailPolicy))

	idOnly := sales.Sale{ReturnSaleID: strPtr("s-9")}
	assert.Equal(t, []Badge{{Label: "Vente originale: s-9", Kind: BadgeOrigin}}, ResolveStatusBadges(idOnly, DetailPolicy))
}

func TestResolveCustomerDisplay(t *testing.T) {
	withCode := sales.Sale{Customer: &sales.Customer{FirstName: "Amine", LastName: "Bensaid", InternalCode: strPtr("C042")}}
	assert.Equal(t, "Amine Bensaid (C042)", ResolveCustomerDisplay(withCode))

	noCode := sales.Sale{Customer: &sales.Customer{FirstName: "Léa", LastName: "Martin"}}
	assert.Equal(t, "Léa Martin", ResolveCustomerDisplay(noCode))

	freeText := sales.Sale{CustomerName: strPtr("Garage du Centre")}
	assert.Equal(t, "Garage du Centre", ResolveCustomerDisplay(freeText))

	assert.Equal(t, CounterCustomer, ResolveCustomerDisplay(sales.Sale{}))
	assert.Equal(t, CounterCustomer, ResolveCustomerDisplay(sales.Sale{CustomerName: strPtr(" ")}))
}
