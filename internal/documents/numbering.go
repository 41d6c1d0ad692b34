package documents

import "fmt"

// NumberPrefix is the leading part of a document number for typ.
func NumberPrefix(typ Type) string {
	switch typ {
	case TypeSalesReceipt:
		return "SR"
	case TypeCreditNote:
		return "CN"
	case TypeRefundReceipt:
		return "RR"
	case TypeEstimate:
		return "EST"
	case TypePayment:
		return "PMT"
	default:
		return "INV"
	}
}

// FormatNumber builds PREFIX-YYYY-NNNN, e.g. INV-2025-0001.
func FormatNumber(typ Type, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", NumberPrefix(typ), year, seq)
}
