package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a good or service the company sells. Its prices and tax rate
// prefill document lines that reference it.
type Product struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID string `gorm:"size:36;not null;uniqueIndex:idx_product_company_sku" json:"company_id"`
	CreatedBy string `gorm:"size:36;not null" json:"created_by"`

	SKU         string `gorm:"size:50;not null;uniqueIndex:idx_product_company_sku" json:"sku"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Unit        string `gorm:"size:50;not null;default:'unit'" json:"unit"`

	SalePrice         float64 `gorm:"not null;default:0" json:"sale_price"`
	PurchasePrice     float64 `gorm:"not null;default:0" json:"purchase_price"`
	DefaultTaxPercent float64 `gorm:"not null;default:0" json:"default_tax_percent"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Product) GetCompanyID() string { return p.CompanyID }

// LineDescription is the text used for a document line referencing p.
func (p *Product) LineDescription() string {
	if p.Description != "" {
		return p.Name + " - " + p.Description
	}
	return p.Name
}
