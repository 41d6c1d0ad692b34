package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is embedded with a column prefix.
type Address struct {
	Street  string `gorm:"size:255" json:"street,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`
	State   string `gorm:"size:100" json:"state,omitempty"`
	ZipCode string `gorm:"size:20" json:"zip_code,omitempty"`
	Country string `gorm:"size:100" json:"country,omitempty"`
}

// Lines returns the non-empty address lines, city and zip code joined.
func (a Address) Lines() []string {
	var out []string
	if a.Street != "" {
		out = append(out, a.Street)
	}
	city := strings.TrimSpace(strings.Join([]string{a.ZipCode, a.City}, " "))
	if a.State != "" {
		if city != "" {
			city += ", "
		}
		city += a.State
	}
	if city != "" {
		out = append(out, city)
	}
	if a.Country != "" {
		out = append(out, a.Country)
	}
	return out
}

// Customer is someone the company bills.
type Customer struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyID string `gorm:"size:36;not null;index" json:"company_id"`
	CreatedBy string `gorm:"size:36;not null" json:"created_by"`

	Name        string `gorm:"size:255;not null" json:"name"`
	CompanyName string `gorm:"size:255" json:"company_name,omitempty"`
	Email       string `gorm:"size:255" json:"email,omitempty"`
	Phone       string `gorm:"size:50" json:"phone,omitempty"`
	TaxID       string `gorm:"size:100" json:"tax_id,omitempty"`

	BillingAddress Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	InitialBalance float64 `gorm:"not null;default:0" json:"initial_balance"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Customer) GetCompanyID() string { return c.CompanyID }

// DisplayName prefers the customer's company name.
func (c *Customer) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}
