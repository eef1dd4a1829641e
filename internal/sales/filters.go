package sales

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire and form layout of filter dates.
const DateLayout = "2006-01-02"

// FilterForm is the submitted listing filter form.
type FilterForm struct {
	StartDate     string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=CASH CHECK CREDIT"`
}

// FormErrors maps form fields to a user-facing message.
type FormErrors map[string]string

// Error joins the messages in field order.
func (e FormErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

var filterMessages = map[string]string{
	"StartDate":     "Date de début invalide",
	"EndDate":       "Date de fin invalide",
	"PaymentMethod": "Mode de paiement inconnu",
}

var filterValidator = validator.New()

// Normalize trims every field.
func (f FilterForm) Normalize() FilterForm {
	return FilterForm{
		StartDate:     strings.TrimSpace(f.StartDate),
		EndDate:       strings.TrimSpace(f.EndDate),
		PaymentMethod: strings.ToUpper(strings.TrimSpace(f.PaymentMethod)),
	}
}

// Validate checks dates and the payment method. An end date before the start date is
// rejected.
func (f FilterForm) Validate() FormErrors {
	errs := FormErrors{}
	if err := filterValidator.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs["general"] = err.Error()
			return errs
		}
		for _, fieldErr := range fieldErrs {
			msg, ok := filterMessages[fieldErr.Field()]
			if !ok {
				msg = fieldErr.Error()
			}
			errs[fieldErr.Field()] = msg
		}
	}
	_, startBad := errs["StartDate"]
	_, endBad := errs["EndDate"]
	if !startBad && !endBad && f.StartDate != "" && f.EndDate != "" && f.EndDate < f.StartDate {
		errs["EndDate"] = "La date de fin précède la date de début"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
