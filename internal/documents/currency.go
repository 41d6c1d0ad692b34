package documents

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatCurrency renders amount with two decimals and comma grouping and no
// currency symbol, e.g. 1234.5 -> "1,234.50".
func FormatCurrency(amount float64) string {
	if amount == 0 || math.Abs(amount) < 0.005 {
		amount = 0 // never print "-0.00"
	}
	return amountPrinter.Sprintf("%.2f", amount)
}
