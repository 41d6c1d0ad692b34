package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account holder. Sign-up creates it unconfirmed and without a
// password; OTP verification confirms the email and set-password completes it.
type User struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Email            string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName         string         `gorm:"size:255" json:"full_name,omitempty"`
	PhoneNumber      string         `gorm:"size:50" json:"phone_number,omitempty"`
	Password         string         `gorm:"size:255" json:"-"` // bcrypt hash, empty until set
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`

	CompanyID *string  `gorm:"size:36;index" json:"company_id,omitempty"`
	Company   *Company `gorm:"foreignKey:CompanyID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsConfirmed reports whether the email was verified with an OTP.
func (u *User) IsConfirmed() bool { return u.EmailConfirmedAt != nil }

func (u *User) HasPassword() bool { return u.Password != "" }

// CompanyIDValue returns the company id or "" when the user has none yet.
func (u *User) CompanyIDValue() string {
	if u.CompanyID == nil {
		return ""
	}
	return *u.CompanyID
}
