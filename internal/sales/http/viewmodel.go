package http

import (
	"time"

	"github.com/comptoir/backoffice/internal/reconcile"
	"github.com/comptoir/backoffice/internal/sales"
	"github.com/comptoir/backoffice/internal/sales/listing"
	"github.com/comptoir/backoffice/internal/sales/present"
	"github.com/comptoir/backoffice/internal/shared"
)

// PaymentOption is one entry of the payment method filter.
type PaymentOption struct {
	Value string
	Label string
}

// ListPageVM drives the sales list and customer history pages.
type ListPageVM struct {
	CustomerID     string
	Customer       *present.CustomerRef
	Filters        listing.Filters
	Form           sales.FilterForm
	Errors         sales.FormErrors
	Pagination     shared.Pagination
	Rows           []present.Row
	Loading        bool
	Loaded         bool
	Error          string
	FetchedAt      time.Time
	PaymentMethods []PaymentOption
}

// DetailPageVM drives the sale detail page and the PDF receipt.
type DetailPageVM struct {
	Detail     present.Detail
	BackURL    string
	PDFEnabled bool
}

// FindingsPageVM drives the reconciliation findings page.
type FindingsPageVM struct {
	Findings []reconcile.Finding
	Enabled  bool
}

func paymentOptions() []PaymentOption {
	options := make([]PaymentOption, 0, len(sales.KnownPaymentMethods))
	for _, method := range sales.KnownPaymentMethods {
		options = append(options, PaymentOption{
			Value: string(method),
			Label: present.ResolvePaymentLabel(method).Label,
		})
	}
	return options
}

func buildListPage(state listing.State, sc scope, nav present.Navigator) ListPageVM {
	vm := ListPageVM{
		CustomerID: sc.customerID,
		Filters:    state.Filters,
		Form: sales.FilterForm{
			StartDate:     state.Filters.StartDate,
			EndDate:       state.Filters.EndDate,
			PaymentMethod: state.Filters.PaymentMethod,
		},
		Pagination:     state.Pagination,
		Rows:           present.BuildRows(state.Sales, nav),
		Loading:        state.Loading,
		Loaded:         state.Loaded,
		Error:          state.Error,
		FetchedAt:      state.FetchedAt,
		PaymentMethods: paymentOptions(),
	}
	if sc.customerID != "" {
		ref := present.CustomerRef{
			ID:         sc.customerID,
			Display:    sc.customerID,
			ProfileURL: nav.CustomerProfileURL(sc.customerID),
		}
		for _, row := range vm.Rows {
			if row.Customer.ID == sc.customerID {
				ref.Display = row.Customer.Display
				break
			}
		}
		vm.Customer = &ref
	}
	return vm
}
