package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 8
)

// CreateInvitation lets inviterID bring email into their company. roleID is
// optional and must name a role of that company; without it the new user
// gets the Member role.
func (s *AuthService) CreateInvitation(ctx context.Context, inviterID, email, fullName, roleID string) (*models.Invitation, error) {
	email = normalizeEmail(email)
	v := validation.Violations{}
	validation.Required("email", email, "Email is required.", v)
	validation.Email("email", email, "Please enter a valid email address.", v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	inviter, err := s.Me(ctx, inviterID)
	if err != nil {
		return nil, err
	}
	if inviter.CompanyID == nil {
		return nil, ErrNoCompany
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}
	var role *string
	if roleID != "" {
		if _, err := findRole(s.db.WithContext(ctx), *inviter.CompanyID, roleID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, invalid(validation.Violations{"role_id": "Role not found or not part of your company."})
			}
			return nil, err
		}
		role = &roleID
	}
	code, err := randomString(inviteCodeAlphabet, inviteCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}
	inv := &models.Invitation{
		Email:     email,
		Code:      code,
		FullName:  strings.TrimSpace(fullName),
		CompanyID: *inviter.CompanyID,
		CreatedBy: inviter.ID,
		RoleID:    role,
		ExpiresAt: s.now().Add(s.inviteTTL),
	}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	var company models.Company
	s.db.WithContext(ctx).Select("name").Where("id = ?", inv.CompanyID).First(&company)
	if err := s.mailer.SendInvite(ctx, email, code, company.Name); err != nil {
		return nil, fmt.Errorf("send invite: %w", err)
	}
	s.log.Info("invitation created", zap.String("email", email), zap.String("company_id", inv.CompanyID))
	return inv, nil
}

func validateInviteCode(email, code string) validation.Violations {
	v := validation.Violations{}
	validation.Required("email", email, "Email is required.", v)
	validation.Email("email", email, "Please enter a valid email address.", v)
	validation.LengthBetween("code", code, 6, 10, "Please enter a valid invite code.", v)
	return v
}

func (s *AuthService) findInvitation(tx *gorm.DB, email, code string) (*models.Invitation, error) {
	var inv models.Invitation
	err := tx.Where("email = ? AND code = ?", normalizeEmail(email), strings.ToUpper(strings.TrimSpace(code))).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidInvite
	}
	if err != nil {
		return nil, err
	}
	if !inv.Valid(s.now()) {
		return nil, ErrInvalidInvite
	}
	return &inv, nil
}

// VerifyInvite checks an invitation without accepting it.
func (s *AuthService) VerifyInvite(ctx context.Context, email, code string) (*models.Invitation, error) {
	if err := invalid(validateInviteCode(normalizeEmail(email), strings.TrimSpace(code))); err != nil {
		return nil, err
	}
	return s.findInvitation(s.db.WithContext(ctx), email, code)
}

// AcceptInvite creates the invited user in the inviting company with the
// invitation's role, marks the invitation used and signs the user in. A role
// deleted since the invitation was sent falls back to Member.
func (s *AuthService) AcceptInvite(ctx context.Context, email, code, password string) (auth.TokenPair, *models.User, error) {
	v := validateInviteCode(normalizeEmail(email), strings.TrimSpace(code))
	for f, msg := range validatePassword(password) {
		v.Add(f, msg)
	}
	if err := invalid(v); err != nil {
		return auth.TokenPair{}, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return auth.TokenPair{}, nil, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.findInvitation(tx, email, code)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", inv.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		now := s.now()
		companyID := inv.CompanyID
		user = models.User{
			Email:            inv.Email,
			FullName:         inv.FullName,
			Password:         string(hash),
			EmailConfirmedAt: &now,
			IsActive:         true,
			CompanyID:        &companyID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		roleID, err := inviteRole(tx, inv)
		if err != nil {
			return err
		}
		if roleID != "" {
			if err := assignRoles(tx, user.ID, roleID); err != nil {
				return err
			}
		}
		res := tx.Model(&models.Invitation{}).Where("id = ? AND accepted_at IS NULL", inv.ID).Update("accepted_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInvalidInvite
		}
		return nil
	})
	if err != nil {
		return auth.TokenPair{}, nil, err
	}
	s.access.Invalidate(user.ID)
	s.log.Info("invitation accepted", zap.String("user_id", user.ID))
	return s.issuer.Issue(user.ID), &user, nil
}

// inviteRole picks the role an accepted invitation grants, or "" when the
// company has neither that role nor a Member role.
func inviteRole(tx *gorm.DB, inv *models.Invitation) (string, error) {
	if inv.RoleID != nil {
		role, err := findRole(tx, inv.CompanyID, *inv.RoleID)
		if err == nil {
			return role.ID, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	var member models.Role
	err := tx.Where("company_id = ? AND role_name = ? AND is_system_role = ?", inv.CompanyID, models.RoleMember, true).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.ID, nil
}
