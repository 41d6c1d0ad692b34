package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/models"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength applies to every password the API accepts.
const MinPasswordLength = 8

// AuthOptions configures an AuthService. Zero values get defaults.
type AuthOptions struct {
	OTPTTL    time.Duration
	InviteTTL time.Duration
	HashCost  int
	Mailer    Dispatcher
	Logger    *zap.Logger
}

// AccessCache drops cached authorization data. Services call it whenever a
// user's company, roles or active flag change, or a role's grants change.
type AccessCache interface {
	Invalidate(userID string)
	InvalidateAll()
}

type nopAccessCache struct{}

func (nopAccessCache) Invalidate(string) {}
func (nopAccessCache) InvalidateAll()    {}

// AuthService implements sign-up, sign-in, password recovery and
// invitations on top of gorm.
type AuthService struct {
	db        *gorm.DB
	issuer    *auth.Issuer
	mailer    Dispatcher
	log       *zap.Logger
	otpTTL    time.Duration
	inviteTTL time.Duration
	hashCost  int
	access    AccessCache
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, issuer *auth.Issuer, opts AuthOptions) *AuthService {
	s := &AuthService{
		db:        db,
		issuer:    issuer,
		mailer:    opts.Mailer,
		log:       logging.OrNop(opts.Logger),
		otpTTL:    opts.OTPTTL,
		inviteTTL: opts.InviteTTL,
		hashCost:  opts.HashCost,
		access:    nopAccessCache{},
		now:       time.Now,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = 10 * time.Minute
	}
	if s.inviteTTL <= 0 {
		s.inviteTTL = 72 * time.Hour
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	if s.mailer == nil {
		s.mailer = NewLogDispatcher(s.log)
	}
	return s
}

// SetAccessCache wires the cache built on top of this service's lookups.
func (s *AuthService) SetAccessCache(c AccessCache) {
	if c != nil {
		s.access = c
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupInput is the company and first user captured by the sign-up wizard.
type SignupInput struct {
	CompanyName    string
	CompanyType    string
	CompanyEmail   string
	CompanyAddress string
	CompanyTaxID   string

	FullName    string
	Email       string
	PhoneNumber string
}

func (in SignupInput) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("company.name", in.CompanyName, "Company name is required.", v)
	validation.OneOf("company.type", in.CompanyType, "Company type is required.", models.CompanyTypes, v)
	validation.Email("company.email", in.CompanyEmail, "Please enter a valid email address.", v)
	validation.Required("user.full_name", in.FullName, "Your full name is required.", v)
	validation.Required("user.email", in.Email, "Your email address is required.", v)
	validation.Email("user.email", strings.TrimSpace(in.Email), "Please enter a valid email address.", v)
	return v
}

func validatePassword(password string) validation.Violations {
	v := validation.Violations{}
	validation.Required("password", password, "Password is required.", v)
	validation.MinLength("password", password, MinPasswordLength, "Password must be at least 8 characters long.", v)
	return v
}

// InitiateSignup records the pending registration and mails a sign-up OTP.
// A confirmed account with the same email is rejected with ErrUserExists; an
// unconfirmed one is refreshed and gets a new code.
func (s *AuthService) InitiateSignup(ctx context.Context, in SignupInput) error {
	if err := invalid(in.Validate()); err != nil {
		return err
	}
	email := normalizeEmail(in.Email)
	var code string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Email: email, FullName: strings.TrimSpace(in.FullName), PhoneNumber: in.PhoneNumber, IsActive: true}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case user.IsConfirmed():
			return ErrUserExists
		default:
			user.FullName = strings.TrimSpace(in.FullName)
			user.PhoneNumber = in.PhoneNumber
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}

		reg := models.Registration{Email: email}
		if err := tx.Where("email = ?", email).FirstOrInit(&reg).Error; err != nil {
			return err
		}
		reg.UserID = user.ID
		reg.CompanyName = strings.TrimSpace(in.CompanyName)
		reg.CompanyType = in.CompanyType
		reg.CompanyEmail = strings.TrimSpace(in.CompanyEmail)
		reg.CompanyAddress = in.CompanyAddress
		reg.CompanyTaxID = in.CompanyTaxID
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}

		code, err = s.issueOTP(tx, email, models.OTPPurposeSignup)
		return err
	})
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, email, models.OTPPurposeSignup, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	s.log.Info("signup initiated", zap.String("email", email))
	return nil
}

// VerifySignupOTP confirms the email and creates the company captured at
// initiate time together with its default roles. The user becomes the
// company's Super Admin. The code is consumed in the same transaction.
func (s *AuthService) VerifySignupOTP(ctx context.Context, email, otp string) (*models.User, error) {
	email = normalizeEmail(email)
	v := validation.Violations{}
	validation.SixDigitCode("otp", otp, "Please enter a valid 6-digit OTP.", v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	code, err := s.matchOTP(ctx, email, models.OTPPurposeSignup, otp)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.consumeOTP(tx, code); err != nil {
			return err
		}
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOTP
			}
			return err
		}
		var reg models.Registration
		err := tx.Where("email = ?", email).First(&reg).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && user.CompanyID == nil {
			company := reg.Company()
			if err := tx.Create(company).Error; err != nil {
				return err
			}
			roles, err := createDefaultRoles(tx, company.ID, user.ID)
			if err != nil {
				return err
			}
			if err := assignRoles(tx, user.ID, roles[0].ID); err != nil {
				return err
			}
			user.CompanyID = &company.ID
		}
		now := s.now()
		user.EmailConfirmedAt = &now
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", email).Delete(&models.Registration{}).Error
	})
	if err != nil {
		return nil, err
	}
	s.access.Invalidate(user.ID)
	s.log.Info("signup email verified", zap.String("user_id", user.ID))
	return &user, nil
}

// SetSignupPassword completes sign-up and signs the user in.
func (s *AuthService) SetSignupPassword(ctx context.Context, email, password string) (auth.TokenPair, *models.User, error) {
	if err := invalid(validatePassword(password)); err != nil {
		return auth.TokenPair{}, nil, err
	}
	email = normalizeEmail(email)
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, nil, ErrPasswordNotAllowed
		}
		return auth.TokenPair{}, nil, err
	}
	if !user.IsConfirmed() || user.HasPassword() {
		return auth.TokenPair{}, nil, ErrPasswordNotAllowed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return auth.TokenPair{}, nil, fmt.Errorf("hash password: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (password IS NULL OR password = '')", user.ID).
		Update("password", string(hash))
	if res.Error != nil {
		return auth.TokenPair{}, nil, res.Error
	}
	if res.RowsAffected != 1 {
		return auth.TokenPair{}, nil, ErrPasswordNotAllowed
	}
	user.Password = string(hash)
	return s.issuer.Issue(user.ID), &user, nil
}

// SignIn checks credentials. Every mismatch is ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (auth.TokenPair, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.TokenPair{}, nil, ErrInvalidCredentials
	}
	if err != nil {
		return auth.TokenPair{}, nil, err
	}
	if !user.IsActive || !user.IsConfirmed() || !user.HasPassword() {
		return auth.TokenPair{}, nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return auth.TokenPair{}, nil, ErrInvalidCredentials
	}
	s.log.Info("user signed in", zap.String("user_id", user.ID))
	return s.issuer.Issue(user.ID), &user, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, *models.User, error) {
	uid, err := s.issuer.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return auth.TokenPair{}, nil, ErrInvalidToken
	}
	user, err := s.Me(ctx, uid)
	if errors.Is(err, ErrNotFound) || (err == nil && !user.IsActive) {
		return auth.TokenPair{}, nil, ErrInvalidToken
	}
	if err != nil {
		return auth.TokenPair{}, nil, err
	}
	return s.issuer.Issue(user.ID), user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists backs the bearer middleware's user check.
func (s *AuthService) UserExists(ctx context.Context, userID string) bool {
	var count int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND is_active = ?", userID, true).Count(&count)
	return count > 0
}

// CompanyOf resolves the company a user belongs to.
func (s *AuthService) CompanyOf(ctx context.Context, userID string) (string, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.CompanyID == nil {
		return "", ErrNoCompany
	}
	return *user.CompanyID, nil
}
