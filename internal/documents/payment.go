package documents

// OutstandingInvoice is an open invoice a received payment can be applied to.
type OutstandingInvoice struct {
	ID          string  `json:"id" yaml:"id"`
	Number      string  `json:"number,omitempty" yaml:"number,omitempty"`
	OpenBalance float64 `json:"open_balance" yaml:"open_balance"`
	Payment     float64 `json:"payment" yaml:"payment"`
	Selected    bool    `json:"selected" yaml:"selected"`
}

type PaymentSummary struct {
	AmountReceived float64 `json:"amount_received"`
	AmountToApply  float64 `json:"amount_to_apply"`
	AmountToCredit float64 `json:"amount_to_credit"`
}

// ApplyPayment sums the payments entered on selected invoices, each capped at
// that invoice's open balance. Whatever was received beyond that becomes a
// credit.
func ApplyPayment(amountReceived float64, invoices []OutstandingInvoice) PaymentSummary {
	s := PaymentSummary{AmountReceived: amountReceived}
	for _, inv := range invoices {
		if !inv.Selected || inv.Payment <= 0 {
			continue
		}
		p := inv.Payment
		if p > inv.OpenBalance {
			p = inv.OpenBalance
		}
		if p > 0 {
			s.AmountToApply += p
		}
	}
	if credit := amountReceived - s.AmountToApply; credit > 0 {
		s.AmountToCredit = credit
	}
	return s
}
