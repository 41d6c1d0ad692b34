package models

import "time"

// OTP purposes.
const (
	OTPPurposeSignup   = "signup"
	OTPPurposeRecovery = "recovery"
)

// OTPCode is a hashed one-time code sent by email.
type OTPCode struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	Email      string    `gorm:"size:255;not null;index:idx_otp_email_purpose"`
	Purpose    string    `gorm:"size:20;not null;index:idx_otp_email_purpose"`
	CodeHash   string    `gorm:"size:255;not null"`
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt *time.Time
	Attempts   int `gorm:"not null;default:0"`
}

// Usable reports whether the code may still be checked at now.
func (o *OTPCode) Usable(now time.Time, maxAttempts int) bool {
	return o.ConsumedAt == nil && now.Before(o.ExpiresAt) && o.Attempts < maxAttempts
}

// Invitation lets a company member bring a colleague in with a code.
type Invitation struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Email      string     `gorm:"size:255;not null;index" json:"email"`
	Code       string     `gorm:"size:20;not null;uniqueIndex" json:"code"`
	FullName   string     `gorm:"size:255" json:"full_name,omitempty"`
	CompanyID  string     `gorm:"size:36;not null;index" json:"company_id"`
	CreatedBy  string     `gorm:"size:36;not null" json:"created_by"`
	RoleID     *string    `gorm:"size:36" json:"role_id,omitempty"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

func (i *Invitation) IsAccepted() bool { return i.AcceptedAt != nil }

// Valid reports whether the invitation can still be accepted at now.
func (i *Invitation) Valid(now time.Time) bool {
	return !i.IsAccepted() && now.Before(i.ExpiresAt)
}
