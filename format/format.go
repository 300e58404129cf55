// Package format provides the display formatting used across the dashboard:
// currency strings in USD and SAR denominations, a dual USD/SAR mode, and
// grouped plain numbers. Formatting never fails; nil amounts render a
// zero-equivalent or placeholder rather than an error.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultSARRate is the USD to SAR conversion used when none is configured.
// The riyal is pegged, so a static rate is adequate for display purposes.
const DefaultSARRate = 3.75

// Placeholder is rendered for values that are absent and have no
// zero-equivalent display.
const Placeholder = "-"

// printer renders grouped digits for the dashboard's display locale.
var printer = message.NewPrinter(language.English)

// Formatter renders monetary and numeric display strings. The zero value is
// not useful; use New.
type Formatter struct {
	sarRate float64
}

// New creates a Formatter with the given USD to SAR rate. A zero or negative
// rate falls back to DefaultSARRate.
func New(sarRate float64) *Formatter {
	if sarRate <= 0 {
		sarRate = DefaultSARRate
	}
	return &Formatter{sarRate: sarRate}
}

// groups renders v with thousands separators and no decimal places.
func groups(v float64) string {
	return printer.Sprint(number.Decimal(math.Round(v), number.MaxFractionDigits(0)))
}

// USD renders an amount as a US dollar string, eg "$98,000". A nil amount
// renders the zero value "$0".
func (f *Formatter) USD(v *float64) string {
	if v == nil {
		return "$0"
	}
	return "$" + groups(*v)
}

// SAR renders an amount as a Saudi riyal string, eg "SAR 367,500". A nil
// amount renders the zero value "SAR 0".
func (f *Formatter) SAR(v *float64) string {
	if v == nil {
		return "SAR 0"
	}
	return "SAR " + groups(*v)
}

// Dual renders an amount in both denominations, converting the USD amount at
// the configured rate, eg "$98,000 / SAR 367,500". A nil amount renders the
// placeholder since a dual zero reads like data.
func (f *Formatter) Dual(v *float64) string {
	if v == nil {
		return Placeholder
	}
	sar := *v * f.sarRate
	return f.USD(v) + " / " + f.SAR(&sar)
}

// Number renders a plain value with grouped digits, eg "1,250". A nil value
// renders the placeholder.
func (f *Formatter) Number(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return groups(*v)
}

// Percent renders a signed whole percentage, eg "+69%" or "-12%".
func (f *Formatter) Percent(v float64) string {
	rounded := math.Round(v)
	if rounded > 0 {
		return printer.Sprintf("+%v%%", number.Decimal(rounded, number.MaxFractionDigits(0)))
	}
	return printer.Sprintf("%v%%", number.Decimal(rounded, number.MaxFractionDigits(0)))
}
