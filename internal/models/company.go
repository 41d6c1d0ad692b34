package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company types accepted at sign-up.
const (
	CompanyTypeManufacturer = "manufacturer"
	CompanyTypeDistributor  = "distributor"
	CompanyTypeBoth         = "both"
)

// CompanyTypes lists the accepted company types.
var CompanyTypes = []string{CompanyTypeManufacturer, CompanyTypeDistributor, CompanyTypeBoth}

// Company is the tenant every user and sales document belongs to.
type Company struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Type    string `gorm:"size:20;not null" json:"type"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	TaxID   string `gorm:"size:100" json:"tax_id,omitempty"`

	// CreatedBy is the user whose sign-up created the company.
	CreatedBy string `gorm:"size:36;index" json:"created_by"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Registration keeps the company details captured when sign-up is initiated
// until the email is verified and the company can be created.
type Registration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email  string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	UserID string `gorm:"size:36;index;not null" json:"user_id"`

	CompanyName    string `gorm:"size:255;not null" json:"company_name"`
	CompanyType    string `gorm:"size:20;not null" json:"company_type"`
	CompanyEmail   string `gorm:"size:255" json:"company_email,omitempty"`
	CompanyAddress string `gorm:"size:500" json:"company_address,omitempty"`
	CompanyTaxID   string `gorm:"size:100" json:"company_tax_id,omitempty"`
}

// Company materializes the pending company for userID.
func (r *Registration) Company() *Company {
	return &Company{
		Name:      r.CompanyName,
		Type:      r.CompanyType,
		Email:     r.CompanyEmail,
		Address:   r.CompanyAddress,
		TaxID:     r.CompanyTaxID,
		CreatedBy: r.UserID,
	}
}
