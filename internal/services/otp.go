package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/janus-erp/janus/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	otpDigits      = 6
	maxOTPAttempts = 5
)

// randomString draws n characters from alphabet with crypto/rand.
func randomString(alphabet string, n int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}

func generateOTP() (string, error) {
	return randomString("0123456789", otpDigits)
}

// issueOTP replaces any pending code for email/purpose with a fresh one and
// returns the plain code for dispatch.
func (s *AuthService) issueOTP(tx *gorm.DB, email, purpose string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	now := s.now()
	if err := tx.Model(&models.OTPCode{}).
		Where("email = ? AND purpose = ? AND consumed_at IS NULL", email, purpose).
		Update("consumed_at", now).Error; err != nil {
		return "", err
	}
	otp := &models.OTPCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.otpTTL),
	}
	if err := tx.Create(otp).Error; err != nil {
		return "", err
	}
	return code, nil
}

// matchOTP checks code against the pending OTP and returns it when it
// matches. A wrong code counts as an attempt. It runs outside any
// transaction so failed attempts are recorded even though the caller aborts.
func (s *AuthService) matchOTP(ctx context.Context, email, purpose, code string) (*models.OTPCode, error) {
	db := s.db.WithContext(ctx)
	var otp models.OTPCode
	err := db.Where("email = ? AND purpose = ? AND consumed_at IS NULL", email, purpose).
		Order("id DESC").First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, err
	}
	if !otp.Usable(s.now(), maxOTPAttempts) {
		return nil, ErrInvalidOTP
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		if err := db.Model(&otp).Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			return nil, err
		}
		return nil, ErrInvalidOTP
	}
	return &otp, nil
}

// consumeOTP marks a matched code as used. Call it inside the transaction
// that applies the code's effect so a failed transaction leaves the code
// usable; a concurrent consumer makes it return ErrInvalidOTP.
func (s *AuthService) consumeOTP(tx *gorm.DB, otp *models.OTPCode) error {
	res := tx.Model(&models.OTPCode{}).
		Where("id = ? AND consumed_at IS NULL", otp.ID).
		Update("consumed_at", s.now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrInvalidOTP
	}
	return nil
}
