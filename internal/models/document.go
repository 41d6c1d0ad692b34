package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/janus-erp/janus/internal/documents"
	"gorm.io/gorm"
)

// SalesDocument is a stored invoice, estimate, receipt, credit note or payment.
// Amounts are computed by the server when the document is saved.
type SalesDocument struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// CompanyID scopes the document to its tenant.
	CompanyID string `gorm:"size:36;not null;uniqueIndex:idx_company_number" json:"company_id"`
	CreatedBy string `gorm:"size:36;not null" json:"created_by"`

	Type   documents.Type `gorm:"size:20;not null;index" json:"type"`
	Number string         `gorm:"size:50;not null;uniqueIndex:idx_company_number" json:"number"`

	// CustomerID optionally links a stored customer of the same company.
	CustomerID    *string    `gorm:"size:36;index" json:"customer_id,omitempty"`
	CustomerName  string     `gorm:"size:255" json:"customer_name,omitempty"`
	CustomerEmail string     `gorm:"size:255" json:"customer_email,omitempty"`
	IssueDate     time.Time  `gorm:"not null" json:"issue_date"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Terms         string     `gorm:"size:20" json:"terms,omitempty"`
	Message       string     `gorm:"type:text" json:"message,omitempty"`

	OtherFeesDescription string  `gorm:"size:255" json:"other_fees_description,omitempty"`
	OtherFeesAmount      float64 `gorm:"not null;default:0" json:"other_fees_amount"`

	Subtotal   float64 `gorm:"not null;default:0" json:"subtotal"`
	Tax        float64 `gorm:"not null;default:0" json:"tax"`
	Total      float64 `gorm:"not null;default:0" json:"total"`
	BalanceDue float64 `gorm:"not null;default:0" json:"balance_due"`

	Items []SalesDocumentItem `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"items"`
}

func (d *SalesDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// GetCompanyID is used by the company ownership policy.
func (d *SalesDocument) GetCompanyID() string { return d.CompanyID }

// DocumentItems converts the stored lines back into calculation items.
func (d *SalesDocument) DocumentItems() []documents.Item {
	items := make([]documents.Item, len(d.Items))
	for i, it := range d.Items {
		items[i] = it.Item()
	}
	return items
}

// ApplyTotals copies computed totals onto the document.
func (d *SalesDocument) ApplyTotals(t documents.Totals) {
	d.Subtotal = t.Subtotal
	d.Tax = t.Tax
	d.Total = t.Total
	d.BalanceDue = t.BalanceDue
}

// SalesDocumentItem is one line of a SalesDocument.
type SalesDocumentItem struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	DocumentID  string  `gorm:"size:36;not null;index" json:"-"`
	LineID      string  `gorm:"size:36;not null" json:"id"`
	Position    int     `gorm:"not null;default:0" json:"position"`
	ProductID   *string `gorm:"size:36" json:"product_id,omitempty"`
	Description string  `gorm:"size:500" json:"description,omitempty"`
	Quantity    float64 `gorm:"not null;default:0" json:"quantity"`
	UnitPrice   float64 `gorm:"not null;default:0" json:"unit_price"`
	TaxPercent  float64 `gorm:"not null;default:0" json:"tax_percent"`
}

func (it SalesDocumentItem) Item() documents.Item {
	return documents.Item{
		ID:          it.LineID,
		ProductID:   derefString(it.ProductID),
		Description: it.Description,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		TaxPercent:  it.TaxPercent,
	}
}

// NewSalesDocumentItems keeps the order of items through Position.
func NewSalesDocumentItems(items []documents.Item) []SalesDocumentItem {
	out := make([]SalesDocumentItem, len(items))
	for i, it := range items {
		out[i] = SalesDocumentItem{
			LineID:      it.ID,
			Position:    i,
			ProductID:   optionalString(it.ProductID),
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxPercent:  it.TaxPercent,
		}
	}
	return out
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// NextDocumentNumber returns the next PREFIX-YYYY-NNNN number for the company.
// Deleted documents keep their numbers so they are counted too. Call it
// inside the transaction that creates the document.
func NextDocumentNumber(db *gorm.DB, companyID string, typ documents.Type, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", documents.NumberPrefix(typ), year)
	var numbers []string
	err := db.Unscoped().Model(&SalesDocument{}).
		Where("company_id = ? AND number LIKE ?", companyID, prefix+"%").
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}
	last := 0
	for _, n := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err == nil && seq > last {
			last = seq
		}
	}
	return documents.FormatNumber(typ, year, last+1), nil
}
