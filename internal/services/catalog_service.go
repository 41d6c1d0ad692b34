package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/janus-erp/janus/internal/documents"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CustomerInput struct {
	Name           string
	CompanyName    string
	Email          string
	Phone          string
	TaxID          string
	BillingAddress models.Address
	InitialBalance float64
}

func (in CustomerInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", in.Name, "Customer name is required.", v)
	validation.Email("email", strings.TrimSpace(in.Email), "Please enter a valid email address.", v)
	if math.IsInf(in.InitialBalance, 0) || math.IsNaN(in.InitialBalance) {
		v.Add("initial_balance", "Initial balance must be a number.")
	}
	return v
}

type ProductInput struct {
	SKU               string
	Name              string
	Description       string
	Unit              string
	SalePrice         float64
	PurchasePrice     float64
	DefaultTaxPercent float64
}

func (in ProductInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("sku", in.SKU, "SKU is required.", v)
	validation.LengthBetween("sku", strings.TrimSpace(in.SKU), 1, 50, "SKU must be 50 characters or less.", v)
	validation.Required("name", in.Name, "Product name is required.", v)
	validation.NonNegativeFloat("sale_price", in.SalePrice, v)
	validation.NonNegativeFloat("purchase_price", in.PurchasePrice, v)
	validation.NonNegativeFloat("default_tax_percent", in.DefaultTaxPercent, v)
	validation.RangeFloat("default_tax_percent", in.DefaultTaxPercent, 0, documents.MaxTaxPercent, v)
	return v
}

// CatalogService stores the customers and products of a company.
type CatalogService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCatalogService(db *gorm.DB, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, log: logging.OrNop(log)}
}

func (s *CatalogService) CreateCustomer(ctx context.Context, companyID, userID string, in CustomerInput) (*models.Customer, error) {
	if err := invalid(in.Validate()); err != nil {
		return nil, err
	}
	c := &models.Customer{
		CompanyID:      companyID,
		CreatedBy:      userID,
		Name:           strings.TrimSpace(in.Name),
		CompanyName:    strings.TrimSpace(in.CompanyName),
		Email:          normalizeEmail(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		TaxID:          strings.TrimSpace(in.TaxID),
		BillingAddress: in.BillingAddress,
		InitialBalance: in.InitialBalance,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	s.log.Info("customer created", zap.String("customer_id", c.ID), zap.String("company_id", companyID))
	return c, nil
}

func (s *CatalogService) ListCustomers(ctx context.Context, companyID string) ([]models.Customer, error) {
	var out []models.Customer
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name").Find(&out).Error
	return out, err
}

// GetCustomer returns ErrNotFound for customers of other companies.
func (s *CatalogService) GetCustomer(ctx context.Context, companyID, id string) (*models.Customer, error) {
	return findCustomer(s.db.WithContext(ctx), companyID, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, companyID, userID string, in ProductInput) (*models.Product, error) {
	if err := invalid(in.Validate()); err != nil {
		return nil, err
	}
	p := &models.Product{
		CompanyID:         companyID,
		CreatedBy:         userID,
		SKU:               strings.TrimSpace(in.SKU),
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		Unit:              strings.TrimSpace(in.Unit),
		SalePrice:         in.SalePrice,
		PurchasePrice:     in.PurchasePrice,
		DefaultTaxPercent: in.DefaultTaxPercent,
		IsActive:          true,
	}
	if p.Unit == "" {
		p.Unit = "unit"
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.Product{}).Where("company_id = ? AND sku = ?", companyID, p.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrProductExists
		}
		return tx.Create(p).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrProductExists
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("product_id", p.ID), zap.String("company_id", companyID))
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, companyID string) ([]models.Product, error) {
	var out []models.Product
	err := s.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name").Find(&out).Error
	return out, err
}

// GetProduct returns ErrNotFound for products of other companies.
func (s *CatalogService) GetProduct(ctx context.Context, companyID, id string) (*models.Product, error) {
	return findProduct(s.db.WithContext(ctx), companyID, id)
}

func findCustomer(db *gorm.DB, companyID, id string) (*models.Customer, error) {
	var c models.Customer
	err := db.Where("id = ? AND company_id = ?", id, companyID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func findProduct(db *gorm.DB, companyID, id string) (*models.Product, error) {
	var p models.Product
	err := db.Where("id = ? AND company_id = ?", id, companyID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
