package present

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultCurrencySuffix is appended to every monetary amount.
const DefaultCurrencySuffix = "€"

// DateTimeLayout is used for every displayed date; none are date-only.
const DateTimeLayout = "02/01/2006 15:04"

// Formatter renders money, rates and dates in the backoffice locale.
type Formatter struct {
	printer *message.Printer
	suffix  string
	loc     *time.Location
}

// NewFormatter builds a French-locale formatter. Empty suffix and nil location fall back
// to DefaultCurrencySuffix and time.Local.
func NewFormatter(suffix string, loc *time.Location) *Formatter {
	if suffix == "" {
		suffix = DefaultCurrencySuffix
	}
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{
		printer: message.NewPrinter(language.French),
		suffix:  suffix,
		loc:     loc,
	}
}

// Money formats an amount with exactly two decimals followed by the currency suffix.
func (f *Formatter) Money(amount decimal.Decimal) string {
	value := amount.Round(2).InexactFloat64()
	return f.printer.Sprint(number.Decimal(value, number.Scale(2))) + " " + f.suffix
}

// Rate formats a percentage with at most two decimals.
func (f *Formatter) Rate(rate decimal.Decimal) string {
	value := rate.Round(2).InexactFloat64()
	return f.printer.Sprint(number.Decimal(value, number.MaxFractionDigits(2))) + " %"
}

// DateTime formats t as day/month/year hour:minute. Zero times render empty.
func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(DateTimeLayout)
}

// Suffix returns the configured currency suffix.
func (f *Formatter) Suffix() string {
	return f.suffix
}
