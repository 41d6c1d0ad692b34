package documents

// Type identifies a sales-document form.
type Type string

const (
	TypeInvoice       Type = "invoice"
	TypeEstimate      Type = "estimate"
	TypeSalesReceipt  Type = "salesReceipt"
	TypeRefundReceipt Type = "refundReceipt"
	TypeCreditNote    Type = "creditNote"
	TypePayment       Type = "payment"
)

var types = []Type{TypeInvoice, TypeEstimate, TypeSalesReceipt, TypeRefundReceipt, TypeCreditNote, TypePayment}

// Types lists every known document type.
func Types() []Type { return append([]Type(nil), types...) }

func (t Type) Valid() bool {
	for _, k := range types {
		if t == k {
			return true
		}
	}
	return false
}

// BalanceDueLabel is the caption shown next to the balance-due amount. Only
// the caption depends on the type; the number never does.
func (t Type) BalanceDueLabel() string {
	switch t {
	case TypeCreditNote:
		return "Amount to Refund"
	case TypeSalesReceipt:
		return "Amount Received"
	case TypeRefundReceipt:
		return "Amount Refunded"
	case TypeEstimate:
		return "Estimate Total"
	default:
		return "Balance Due"
	}
}

// OtherFees is a single extra charge applied once to the document.
type OtherFees struct {
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Amount      float64 `json:"amount" yaml:"amount"`
}

type Totals struct {
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	OtherFees       float64 `json:"other_fees"`
	Total           float64 `json:"total"`
	BalanceDue      float64 `json:"balance_due"`
	BalanceDueLabel string  `json:"balance_due_label"`
}

// Compute derives the document totals. Each line carries its own tax rate;
// other fees are added once and are not taxed. Balance due equals total for
// every document type.
func Compute(items []Item, fees *OtherFees, typ Type) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.Amount()
		t.Tax += it.Tax()
	}
	if fees != nil {
		t.OtherFees = fees.Amount
	}
	t.Total = t.Subtotal + t.Tax + t.OtherFees
	t.BalanceDue = t.Total
	t.BalanceDueLabel = typ.BalanceDueLabel()
	return t
}

// FormattedTotals is Totals rendered for display.
type FormattedTotals struct {
	Subtotal        string `json:"subtotal"`
	Tax             string `json:"tax"`
	OtherFees       string `json:"other_fees"`
	Total           string `json:"total"`
	BalanceDue      string `json:"balance_due"`
	BalanceDueLabel string `json:"balance_due_label"`
}

func (t Totals) Format() FormattedTotals {
	return FormattedTotals{
		Subtotal:        FormatCurrency(t.Subtotal),
		Tax:             FormatCurrency(t.Tax),
		OtherFees:       FormatCurrency(t.OtherFees),
		Total:           FormatCurrency(t.Total),
		BalanceDue:      FormatCurrency(t.BalanceDue),
		BalanceDueLabel: t.BalanceDueLabel,
	}
}
