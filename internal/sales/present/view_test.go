package present

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptoir/backoffice/internal/sales"
)

func TestFormatterMoney(t *testing.T) {
	f := NewFormatter("", time.UTC)

	assert.Equal(t, "12,50 €", f.Money(dec("12.5")))
	assert.Equal(t, "0,00 €", f.Money(dec("0")))
	assert.Equal(t, "19,01 €", f.Money(dec("19.005")))

	dh := NewFormatter("DH", time.UTC)
	assert.Equal(t, "7,00 DH", dh.Money(dec("7")))
}

func TestFormatterRate(t *testing.T) {
	f := NewFormatter("", time.UTC)

	assert.Equal(t, "10 %", f.Rate(dec("10")))
	assert.Equal(t, "5,5 %", f.Rate(dec("5.5")))
}

func TestFormatterDateTime(t *testing.T) {
	f := NewFormatter("", time.UTC)

	ts := time.Date(2024, time.March, 7, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2024 09:05", f.DateTime(ts))
	assert.Equal(t, "", f.DateTime(time.Time{}))
}

func TestNavigator(t *testing.T) {
	nav := Navigator{ProfileBaseURL: "https://crm.example.com/customers/"}

	assert.Equal(t, "https://crm.example.com/customers/c%2F1", nav.CustomerProfileURL("c/1"))
	assert.Equal(t, "/customers/c1/sales", nav.CustomerSalesURL("c1"))
	assert.Equal(t, "", Navigator{}.CustomerProfileURL("c1"))
}

func TestListAndDetailBadgePoliciesDiffer(t *testing.T) {
	sale := sales.Sale{ID: "s1", PaymentMethod: sales.PaymentCredit}

	row := BuildRow(sale, Navigator{})
	detail := BuildDetail(sale, Navigator{})

	assert.Equal(t, []Badge{{Label: "Normal", Kind: BadgeNormal}}, row.Badges)
	assert.Empty(t, detail.Badges)
	assert.Equal(t, "Crédit", row.Payment.Label)
	assert.Equal(t, "badge-credit", detail.Payment.Class())
}

func TestBuildRow(t *testing.T) {
	sale := saleWithLines()
	sale.ID = "s1"
	sale.Reference = "V-1"
	sale.PaymentMethod = "WIRE"
	sale.Items[0].Quantity = 2
	sale.Items[1].Quantity = 1
	sale.Customer = &sales.Customer{ID: "c7", FirstName: "Nadia", LastName: "Karim"}

	row := BuildRow(sale, Navigator{ProfileBaseURL: "https://crm.local/c"})

	assert.Equal(t, 3, row.ItemCount)
	assert.Equal(t, "WIRE", row.Payment.Label)
	assert.Equal(t, "badge-neutral", row.Payment.Class())
	assert.Equal(t, "Nadia Karim", row.Customer.Display)
	assert.Equal(t, "https://crm.local/c/c7", row.Customer.ProfileURL)
	assert.Equal(t, "/customers/c7/sales", row.Customer.SalesURL)
	assert.True(t, row.TotalInclTax.Equal(dec("119")))
}

func TestBuildDetail(t *testing.T) {
	sale := saleWithLines()
	sale.IsReturn = true
	sale.ReturnSaleID = strPtr("s0")
	sale.Vehicle = &sales.Vehicle{Brand: "Renault", Model: "Clio", Year: 2019, VIN: "VF1XXXX"}

	detail := BuildDetail(sale, Navigator{})

	require.Len(t, detail.Lines, 2)
	assert.True(t, detail.Totals.OK())
	assert.Nil(t, detail.Loyalty)
	require.NotNil(t, detail.Vehicle)
	assert.Equal(t, "Renault Clio (2019)", detail.Vehicle.Label)
	assert.Equal(t, CounterCustomer, detail.Customer.Display)
	assert.Empty(t, detail.Customer.SalesURL)
	assert.Equal(t, []Badge{
		{Label: "Retour", Kind: BadgeReturn},
		{Label: "Vente originale: s0", Kind: BadgeOrigin},
	}, detail.Badges)
}

func TestBuildDetailLoyaltyLineOnlyWhenPositive(t *testing.T) {
	sale := saleWithLines()
	sale.LoyaltyDiscountPercent = dec("5")
	assert.Nil(t, BuildDetail(sale, Navigator{}).Loyalty)

	sale.LoyaltyDiscountAmount = dec("5.95")
	sale.TotalInclTax = dec("113.05")
	detail := BuildDetail(sale, Navigator{})
	require.NotNil(t, detail.Loyalty)
	assert.True(t, detail.Loyalty.Amount.Equal(dec("5.95")))
}

func TestBuildRowCounterSaleHasNoCustomerLinks(t *testing.T) {
	sale := saleWithLines()
	sale.ID = "s2"
	require.True(t, sale.IsCounterSale())

	row := BuildRow(sale, Navigator{ProfileBaseURL: "https://crm.local/c"})

	assert.NotEmpty(t, row.Customer.Display)
	assert.Empty(t, row.Customer.ID)
	assert.Empty(t, row.Customer.ProfileURL)
	assert.Empty(t, row.Customer.SalesURL)
}
