// Package documents holds the calculations shared by every sales-document
// form: line normalization, totals, balance-due labels, currency display,
// payment-term due dates, document numbering and payment allocation.
//
// Everything here is pure. Callers recompute on every edit instead of
// caching derived amounts on the items.
package documents

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/janus-erp/janus/validation"
)

// RawItem is a line as it arrives from a form or a request body: numeric
// fields may be absent.
type RawItem struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	ProductID   string   `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty" yaml:"unit_price,omitempty"`
	Rate        *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	TaxPercent  *float64 `json:"tax_percent,omitempty" yaml:"tax_percent,omitempty"`
}

// Item is a fully populated line. Build it with NewItem.
type Item struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TaxPercent  float64 `json:"tax_percent"`
}

// InvalidItemError reports which fields of which line were rejected.
type InvalidItemError struct {
	Index      int
	Violations validation.Violations
}

func (e *InvalidItemError) Error() string {
	f := e.Violations.Fields()
	return fmt.Sprintf("item %d: %s %s", e.Index, f[0], e.Violations[f[0]])
}

// MaxItemIDLength bounds client-supplied line ids; generated ids are UUIDs.
const MaxItemIDLength = 36

// MaxTaxPercent is the highest accepted tax rate.
const MaxTaxPercent = 100

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// NewItem defaults absent numbers to zero, falls back to Rate when UnitPrice
// is absent or zero and assigns an id when none was given. Negative, NaN or
// infinite amounts, tax rates above MaxTaxPercent and ids longer than
// MaxItemIDLength are rejected.
func NewItem(raw RawItem) (Item, error) {
	it := Item{
		ID:          raw.ID,
		ProductID:   raw.ProductID,
		Description: raw.Description,
		Quantity:    orZero(raw.Quantity),
		UnitPrice:   orZero(raw.UnitPrice),
		TaxPercent:  orZero(raw.TaxPercent),
	}
	if it.UnitPrice == 0 {
		it.UnitPrice = orZero(raw.Rate)
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	v := validation.Violations{}
	if utf8.RuneCountInString(it.ID) > MaxItemIDLength {
		v.Add("id", "too_long")
	}
	for field, val := range map[string]float64{"quantity": it.Quantity, "unit_price": it.UnitPrice, "tax_percent": it.TaxPercent} {
		if math.IsInf(val, 0) {
			v.Add(field, "must_be_finite")
		}
		validation.NonNegativeFloat(field, val, v)
	}
	validation.RangeFloat("tax_percent", it.TaxPercent, 0, MaxTaxPercent, v)
	if !v.Empty() {
		return Item{}, &InvalidItemError{Violations: v}
	}
	return it, nil
}

// NewItems normalizes a whole list and rejects duplicate ids.
func NewItems(raws []RawItem) ([]Item, error) {
	items := make([]Item, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		it, err := NewItem(raw)
		if err != nil {
			if ie, ok := err.(*InvalidItemError); ok {
				ie.Index = i
			}
			return nil, err
		}
		if seen[it.ID] {
			return nil, &InvalidItemError{Index: i, Violations: validation.Violations{"id": "duplicate"}}
		}
		seen[it.ID] = true
		items = append(items, it)
	}
	return items, nil
}

// Amount is quantity × unit price, before tax.
func (it Item) Amount() float64 { return it.Quantity * it.UnitPrice }

func (it Item) Tax() float64 { return it.Amount() * it.TaxPercent / 100 }
