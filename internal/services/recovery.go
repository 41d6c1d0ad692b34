package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ForgotPasswordInitiate mails a recovery OTP when email belongs to a usable
// account. Callers always answer the same way so account existence is not
// revealed.
func (s *AuthService) ForgotPasswordInitiate(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	v := validation.Violations{}
	validation.Required("email", email, "Email is required.", v)
	validation.Email("email", email, "Please enter a valid email address.", v)
	if err := invalid(v); err != nil {
		return err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Debug("password reset for unknown email", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsConfirmed() || !user.HasPassword() {
		return nil
	}

	var code string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = s.issueOTP(tx, email, models.OTPPurposeRecovery)
		return err
	})
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, email, models.OTPPurposeRecovery, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// ForgotPasswordVerifyOTP checks a recovery code without using it up; the
// code is consumed by ForgotPasswordSetNew.
func (s *AuthService) ForgotPasswordVerifyOTP(ctx context.Context, email, otp string) error {
	v := validation.Violations{}
	validation.SixDigitCode("otp", otp, "Please enter a valid 6-digit OTP.", v)
	if err := invalid(v); err != nil {
		return err
	}
	_, err := s.matchOTP(ctx, normalizeEmail(email), models.OTPPurposeRecovery, otp)
	return err
}

func (s *AuthService) ForgotPasswordSetNew(ctx context.Context, email, otp, password string) error {
	v := validatePassword(password)
	validation.SixDigitCode("otp", otp, "Please enter a valid 6-digit OTP.", v)
	if err := invalid(v); err != nil {
		return err
	}
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	code, err := s.matchOTP(ctx, email, models.OTPPurposeRecovery, otp)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.consumeOTP(tx, code); err != nil {
			return err
		}
		res := tx.Model(&models.User{}).Where("email = ?", email).Update("password", string(hash))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidOTP
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("email", email))
	return nil
}
