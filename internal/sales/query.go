package sales

import (
	"net/url"
	"strconv"
)

// ListQuery is the request sent to the remote paginated sale listing.
type ListQuery struct {
	Page          int
	Limit         int
	StartDate     string
	EndDate       string
	PaymentMethod string
	CustomerID    string
}

// Values encodes the query for the wire. Empty filters are omitted rather than sent blank.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("limit", strconv.Itoa(q.Limit))
	setIfPresent(values, "startDate", q.StartDate)
	setIfPresent(values, "endDate", q.EndDate)
	setIfPresent(values, "paymentMethod", q.PaymentMethod)
	setIfPresent(values, "customerId", q.CustomerID)
	return values
}

func setIfPresent(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
