package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Violations maps a field name to a message code understood by i18n.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// PositiveNumber parses raw as a decimal and requires it to be > 0.
// Thousands separators written as commas are ignored.
func PositiveNumber(field, raw string, v Violations) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil || !d.IsPositive() {
		v[field] = "must_be_positive"
		return decimal.Zero
	}
	return d
}

// Date requires raw to be a YYYY-MM-DD calendar date.
func Date(field, raw string, v Violations) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v[field] = "required"
		return
	}
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		v[field] = "invalid_date"
	}
}
