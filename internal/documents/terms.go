package documents

import "time"

// Payment terms offered on invoices.
const (
	TermsDueOnReceipt = "Due on receipt"
	TermsNet15        = "Net 15"
	TermsNet30        = "Net 30"
	TermsNet45        = "Net 45"
	TermsNet60        = "Net 60"
)

var termDays = map[string]int{
	TermsDueOnReceipt: 0,
	TermsNet15:        15,
	TermsNet30:        30,
	TermsNet45:        45,
	TermsNet60:        60,
}

// Terms lists the supported payment terms in display order.
func Terms() []string {
	return []string{TermsDueOnReceipt, TermsNet15, TermsNet30, TermsNet45, TermsNet60}
}

func KnownTerms(terms string) bool {
	_, ok := termDays[terms]
	return ok
}

// CalculateDueDate adds the calendar days of terms to date. Unknown terms
// leave the date unchanged, like "Due on receipt".
func CalculateDueDate(date time.Time, terms string) time.Time {
	return date.AddDate(0, 0, termDays[terms])
}
