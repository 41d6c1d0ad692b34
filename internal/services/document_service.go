package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/janus-erp/janus/internal/documents"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentInput is a sales document as submitted by a form.
type DocumentInput struct {
	Type          documents.Type
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	IssueDate     time.Time
	DueDate       *time.Time
	Terms         string
	Message       string
	Items         []documents.RawItem
	OtherFees     *documents.OtherFees
}

// Normalize validates the input and returns its items and totals.
func (in DocumentInput) Normalize() ([]documents.Item, documents.Totals, error) {
	v := validation.Violations{}
	if !in.Type.Valid() {
		v.Add("type", "Unknown document type.")
	}
	validation.Email("customer_email", in.CustomerEmail, "Please enter a valid email address.", v)
	if in.Terms != "" && !documents.KnownTerms(in.Terms) {
		v.Add("terms", "Unknown payment terms.")
	}
	if in.OtherFees != nil {
		validation.NonNegativeFloat("other_fees.amount", in.OtherFees.Amount, v)
	}
	if err := invalid(v); err != nil {
		return nil, documents.Totals{}, err
	}
	items, err := documents.NewItems(in.Items)
	if err != nil {
		var ie *documents.InvalidItemError
		if errors.As(err, &ie) {
			return nil, documents.Totals{}, &ValidationError{Violations: validation.Violations{"items": ie.Error()}}
		}
		return nil, documents.Totals{}, err
	}
	return items, documents.Compute(items, in.OtherFees, in.Type), nil
}

// DocumentService stores sales documents with server-computed totals and
// numbers.
type DocumentService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewDocumentService(db *gorm.DB, log *zap.Logger) *DocumentService {
	return &DocumentService{db: db, log: logging.OrNop(log), now: time.Now}
}

// Preview computes totals without saving anything. Product references are
// resolved the same way Create resolves them.
func (s *DocumentService) Preview(ctx context.Context, companyID string, in DocumentInput) ([]documents.Item, documents.Totals, error) {
	in, err := s.resolveRefs(ctx, companyID, in)
	if err != nil {
		return nil, documents.Totals{}, err
	}
	return in.Normalize()
}

// resolveRefs fills blanks from the referenced customer and products. Lines
// keep whatever the caller set explicitly.
func (s *DocumentService) resolveRefs(ctx context.Context, companyID string, in DocumentInput) (DocumentInput, error) {
	db := s.db.WithContext(ctx)
	if in.CustomerID != "" {
		c, err := findCustomer(db, companyID, in.CustomerID)
		if errors.Is(err, ErrNotFound) {
			return in, invalid(validation.Violations{"customer_id": "Customer not found."})
		}
		if err != nil {
			return in, err
		}
		if in.CustomerName == "" {
			in.CustomerName = c.DisplayName()
		}
		if in.CustomerEmail == "" {
			in.CustomerEmail = c.Email
		}
	}
	items := make([]documents.RawItem, len(in.Items))
	copy(items, in.Items)
	for i, raw := range items {
		if raw.ProductID == "" {
			continue
		}
		p, err := findProduct(db, companyID, raw.ProductID)
		if errors.Is(err, ErrNotFound) {
			return in, invalid(validation.Violations{"items": fmt.Sprintf("item %d: product_id not_found", i)})
		}
		if err != nil {
			return in, err
		}
		if raw.Description == "" {
			raw.Description = p.LineDescription()
		}
		if raw.UnitPrice == nil && raw.Rate == nil {
			price := p.SalePrice
			raw.UnitPrice = &price
		}
		if raw.TaxPercent == nil {
			tax := p.DefaultTaxPercent
			raw.TaxPercent = &tax
		}
		items[i] = raw
	}
	in.Items = items
	return in, nil
}

// numberAttempts bounds retries when two creates race for the same number.
const numberAttempts = 3

// Create stores a document numbered within its company and type. A
// customer_id or product_id must belong to companyID.
func (s *DocumentService) Create(ctx context.Context, companyID, userID string, in DocumentInput) (*models.SalesDocument, error) {
	in, err := s.resolveRefs(ctx, companyID, in)
	if err != nil {
		return nil, err
	}
	items, totals, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	issue := in.IssueDate
	if issue.IsZero() {
		issue = s.now()
	}
	due := in.DueDate
	if due == nil && in.Terms != "" {
		d := documents.CalculateDueDate(issue, in.Terms)
		due = &d
	}

	for attempt := 1; ; attempt++ {
		doc := &models.SalesDocument{
			CompanyID:     companyID,
			CreatedBy:     userID,
			Type:          in.Type,
			CustomerID:    optionalID(in.CustomerID),
			CustomerName:  in.CustomerName,
			CustomerEmail: in.CustomerEmail,
			IssueDate:     issue,
			DueDate:       due,
			Terms:         in.Terms,
			Message:       in.Message,
			Items:         models.NewSalesDocumentItems(items),
		}
		if in.OtherFees != nil {
			doc.OtherFeesDescription = in.OtherFees.Description
			doc.OtherFeesAmount = in.OtherFees.Amount
		}
		doc.ApplyTotals(totals)

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := models.NextDocumentNumber(tx, companyID, in.Type, issue.Year())
			if err != nil {
				return err
			}
			doc.Number = number
			return tx.Create(doc).Error
		})
		if err == nil {
			s.log.Info("document created", zap.String("id", doc.ID), zap.String("number", doc.Number), zap.String("company_id", companyID))
			return doc, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == numberAttempts {
			return nil, err
		}
	}
}

// List returns a company's documents, newest first, optionally of one type.
func (s *DocumentService) List(ctx context.Context, companyID string, typ documents.Type) ([]models.SalesDocument, error) {
	q := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var docs []models.SalesDocument
	err := q.Preload("Items", orderByPosition).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// Get loads a document by id. Ownership is checked by the caller.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.SalesDocument, error) {
	var doc models.SalesDocument
	err := s.db.WithContext(ctx).Preload("Items", orderByPosition).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB { return db.Order("position") }

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
