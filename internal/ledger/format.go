package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/diewo77/go-deliveries/i18n"
)

var dateLayouts = map[string]string{
	"sr": "2.1.2006.",
	"en": "1/2/2006",
}

// Formatter renders numbers, dates and messages for one language.
type Formatter struct {
	Lang    string
	tz      *time.Location
	printer *message.Printer
}

// NewFormatter returns a Formatter for lang showing dates in tz.
func NewFormatter(lang string, tz *time.Location) Formatter {
	lang = strings.ToLower(lang)
	if !i18n.Supported(lang) {
		lang = i18n.Default
	}
	if tz == nil {
		tz = time.Local
	}
	return Formatter{Lang: lang, tz: tz, printer: message.NewPrinter(i18n.Tag(lang))}
}

// Number formats d with locale grouping and at most two fraction digits.
func (f Formatter) Number(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}

// Date formats t as a short local date.
func (f Formatter) Date(t time.Time) string {
	layout, ok := dateLayouts[f.Lang]
	if !ok {
		layout = time.DateOnly
	}
	return t.In(f.tz).Format(layout)
}

func (f Formatter) T(code string) string             { return i18n.T(f.Lang, code) }
func (f Formatter) Tf(code string, args ...any) string { return i18n.Tf(f.Lang, code, args...) }

// DateValue renders t as the YYYY-MM-DD value used by date inputs.
func DateValue(t time.Time, tz *time.Location) string {
	return t.In(tz).Format(time.DateOnly)
}

// StartOfDay returns the first instant of the local calendar day named by
// value (YYYY-MM-DD).
func StartOfDay(value string, tz *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), tz)
}

// EndOfDay returns 23:59:59.999 of the local calendar day named by value.
func EndOfDay(value string, tz *time.Location) (time.Time, error) {
	start, err := StartOfDay(value, tz)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := start.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), tz), nil
}
