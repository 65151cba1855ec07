package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Pricing turns a delivered quantity into a price: every KgPerSack kilograms
// make one sack worth PricePerSack.
type Pricing struct {
	KgPerSack    decimal.Decimal
	PricePerSack decimal.Decimal
}

// DefaultPricing is 5 kg per sack at 250 per sack.
func DefaultPricing() Pricing {
	return Pricing{KgPerSack: decimal.NewFromInt(5), PricePerSack: decimal.NewFromInt(250)}
}

// PriceFor returns (kg / KgPerSack) * PricePerSack rounded to two places.
func (p Pricing) PriceFor(kg decimal.Decimal) decimal.Decimal {
	if p.KgPerSack.IsZero() {
		return decimal.Zero
	}
	return kg.Div(p.KgPerSack).Mul(p.PricePerSack).Round(2)
}

// PriceForm is the state of the add-delivery inputs. While PriceEdited is
// false, changing the quantity rewrites the price.
type PriceForm struct {
	Kg          string `json:"kg"`
	Price       string `json:"price"`
	Date        string `json:"date"`
	PriceEdited bool   `json:"price_edited"`
}

// SetKg records a new quantity and auto-fills the price unless the user
// has typed one.
func (f *PriceForm) SetKg(raw string, p Pricing) {
	f.Kg = raw
	if f.PriceEdited {
		return
	}
	kg, err := parseAmount(raw)
	if err != nil || !kg.IsPositive() {
		f.Price = ""
		return
	}
	f.Price = p.PriceFor(kg).StringFixed(2)
}

// EditPrice records a manual price; auto-fill stays off until Reset.
func (f *PriceForm) EditPrice(raw string) {
	f.Price = raw
	f.PriceEdited = true
}

// Reset clears the inputs and puts today's date back.
func (f *PriceForm) Reset(today string) {
	*f = PriceForm{Date: today}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
}
