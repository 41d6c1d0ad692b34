package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/internal/db"
	"github.com/janus-erp/janus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

type fixture struct {
	db     *gorm.DB
	svc    *AuthService
	mailer *MemoryDispatcher
	issuer *auth.Issuer
	access *recordingAccess
}

// recordingAccess remembers which users had their cached access dropped.
type recordingAccess struct {
	users []string
	all   int
}

func (r *recordingAccess) Invalidate(userID string) { r.users = append(r.users, userID) }
func (r *recordingAccess) InvalidateAll()           { r.all++ }

func newFixture(t *testing.T) *fixture {
	gdb := setupTestDB(t)
	mailer := NewMemoryDispatcher()
	issuer := auth.NewIssuer("test-secret", time.Minute, time.Hour)
	svc := NewAuthService(gdb, issuer, AuthOptions{Mailer: mailer, HashCost: bcrypt.MinCost})
	access := &recordingAccess{}
	svc.SetAccessCache(access)
	return &fixture{db: gdb, svc: svc, mailer: mailer, issuer: issuer, access: access}
}

func acme(email string) SignupInput {
	return SignupInput{
		CompanyName: "Acme Forge",
		CompanyType: models.CompanyTypeManufacturer,
		FullName:    "Ada Lovelace",
		Email:       email,
	}
}

// signedUp runs the whole sign-up and returns the user.
func (f *fixture) signedUp(t *testing.T, email, password string) *models.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme(email)))
	user, err := f.svc.VerifySignupOTP(ctx, email, f.mailer.LastOTP(email, models.OTPPurposeSignup))
	require.NoError(t, err)
	_, _, err = f.svc.SetSignupPassword(ctx, email, password)
	require.NoError(t, err)
	return user
}

func TestSignupHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateSignup(ctx, acme("Ada@Acme.io ")))
	code := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)
	require.Len(t, code, 6)

	user, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	require.NoError(t, err)
	assert.True(t, user.IsConfirmed())
	require.NotNil(t, user.CompanyID)

	var company models.Company
	require.NoError(t, f.db.First(&company, "id = ?", *user.CompanyID).Error)
	assert.Equal(t, "Acme Forge", company.Name)
	assert.Equal(t, user.ID, company.CreatedBy)

	var regs int64
	f.db.Model(&models.Registration{}).Count(&regs)
	assert.Zero(t, regs)

	pair, signedIn, err := f.svc.SetSignupPassword(ctx, "ada@acme.io", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	uid, err := f.issuer.Parse(pair.AccessToken, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	// the password can only be set once
	_, _, err = f.svc.SetSignupPassword(ctx, "ada@acme.io", "another password")
	assert.ErrorIs(t, err, ErrPasswordNotAllowed)
}

func TestInitiateSignupValidation(t *testing.T) {
	f := newFixture(t)
	err := f.svc.InitiateSignup(context.Background(), SignupInput{Email: "nope"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Company name is required.", ve.Violations["company.name"])
	assert.Equal(t, "Company type is required.", ve.Violations["company.type"])
	assert.Equal(t, "Your full name is required.", ve.Violations["user.full_name"])
	assert.Equal(t, "Please enter a valid email address.", ve.Violations["user.email"])
}

func TestInitiateSignupConfirmedUserConflicts(t *testing.T) {
	f := newFixture(t)
	f.signedUp(t, "ada@acme.io", "password123")
	err := f.svc.InitiateSignup(context.Background(), acme("ada@acme.io"))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestInitiateSignupTwiceReplacesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	first := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	second := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)

	if first != second {
		_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", first)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}
	_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", second)
	require.NoError(t, err)

	var users int64
	f.db.Model(&models.User{}).Count(&users)
	assert.EqualValues(t, 1, users)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestVerifyOTPAttemptsAreLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	code := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)

	for i := 0; i < maxOTPAttempts; i++ {
		_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", wrongCode(code))
		require.ErrorIs(t, err, ErrInvalidOTP)
	}
	_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTPExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	code := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)

	f.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	code := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)
	_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	require.NoError(t, err)
	_, err = f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestSetPasswordRequiresVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	_, _, err := f.svc.SetSignupPassword(ctx, "ada@acme.io", "password123")
	assert.ErrorIs(t, err, ErrPasswordNotAllowed)

	_, _, err = f.svc.SetSignupPassword(ctx, "ada@acme.io", "short")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Password must be at least 8 characters long.", ve.Violations["password"])
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signedUp(t, "ada@acme.io", "password123")

	pair, got, err := f.svc.SignIn(ctx, "ADA@acme.io", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.RefreshToken)

	for _, c := range []struct{ email, password string }{
		{"ada@acme.io", "wrong-password"},
		{"nobody@acme.io", "password123"},
	} {
		_, _, err := f.svc.SignIn(ctx, c.email, c.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.signedUp(t, "ada@acme.io", "password123")
	pair, _, err := f.svc.SignIn(ctx, "ada@acme.io", "password123")
	require.NoError(t, err)

	next, got, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, next.AccessToken)

	_, _, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForgotPasswordFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signedUp(t, "ada@acme.io", "password123")

	require.NoError(t, f.svc.ForgotPasswordInitiate(ctx, "nobody@acme.io"))
	assert.Empty(t, f.mailer.LastOTP("nobody@acme.io", models.OTPPurposeRecovery))

	require.NoError(t, f.svc.ForgotPasswordInitiate(ctx, "ada@acme.io"))
	code := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeRecovery)
	require.Len(t, code, 6)

	assert.ErrorIs(t, f.svc.ForgotPasswordVerifyOTP(ctx, "ada@acme.io", wrongCode(code)), ErrInvalidOTP)
	require.NoError(t, f.svc.ForgotPasswordVerifyOTP(ctx, "ada@acme.io", code))
	require.NoError(t, f.svc.ForgotPasswordSetNew(ctx, "ada@acme.io", code, "new password"))
	assert.ErrorIs(t, f.svc.ForgotPasswordSetNew(ctx, "ada@acme.io", code, "newer password"), ErrInvalidOTP)

	_, _, err := f.svc.SignIn(ctx, "ada@acme.io", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.svc.SignIn(ctx, "ada@acme.io", "new password")
	assert.NoError(t, err)
}

func TestInvitationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inviter := f.signedUp(t, "ada@acme.io", "password123")

	inv, err := f.svc.CreateInvitation(ctx, inviter.ID, "Bob@Acme.io", "Bob", "")
	require.NoError(t, err)
	assert.Len(t, inv.Code, inviteCodeLength)
	assert.Equal(t, inv.Code, f.mailer.LastInvite("bob@acme.io"))

	_, err = f.svc.VerifyInvite(ctx, "bob@acme.io", "WRONG123")
	assert.ErrorIs(t, err, ErrInvalidInvite)
	got, err := f.svc.VerifyInvite(ctx, "bob@acme.io", inv.Code)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, bob, err := f.svc.AcceptInvite(ctx, "bob@acme.io", inv.Code, "password456")
	require.NoError(t, err)
	assert.Equal(t, inviter.CompanyIDValue(), bob.CompanyIDValue())
	assert.Equal(t, "Bob", bob.FullName)

	_, _, err = f.svc.AcceptInvite(ctx, "bob@acme.io", inv.Code, "password456")
	assert.ErrorIs(t, err, ErrInvalidInvite)

	_, _, err = f.svc.SignIn(ctx, "bob@acme.io", "password456")
	assert.NoError(t, err)

	_, err = f.svc.CreateInvitation(ctx, inviter.ID, "bob@acme.io", "", "")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestInvitationExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inviter := f.signedUp(t, "ada@acme.io", "password123")
	inv, err := f.svc.CreateInvitation(ctx, inviter.ID, "bob@acme.io", "", "")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	_, err = f.svc.VerifyInvite(ctx, "bob@acme.io", inv.Code)
	assert.ErrorIs(t, err, ErrInvalidInvite)
}

func TestCompanyOf(t *testing.T) {
	f := newFixture(t)
	user := f.signedUp(t, "ada@acme.io", "password123")
	id, err := f.svc.CompanyOf(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.CompanyIDValue(), id)
	assert.True(t, f.svc.UserExists(context.Background(), user.ID))

	_, err = f.svc.CompanyOf(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyOTPConsumedWithSignupTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.InitiateSignup(ctx, acme("ada@acme.io")))
	code := f.mailer.LastOTP("ada@acme.io", models.OTPPurposeSignup)

	// fail the company insert so the confirming transaction rolls back
	const hook = "test:fail_company"
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register(hook, func(tx *gorm.DB) {
		if tx.Statement.Table == "companies" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))
	_, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	require.Error(t, err)
	require.NoError(t, f.db.Callback().Create().Remove(hook))

	var otp models.OTPCode
	require.NoError(t, f.db.Where("email = ?", "ada@acme.io").Order("id DESC").First(&otp).Error)
	assert.Nil(t, otp.ConsumedAt)

	user, err := f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	require.NoError(t, err)
	assert.True(t, user.IsConfirmed())
	_, err = f.svc.VerifySignupOTP(ctx, "ada@acme.io", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestSignupCreatesDefaultRoles(t *testing.T) {
	f := newFixture(t)
	user := f.signedUp(t, "ada@acme.io", "password123")

	var roles []models.Role
	require.NoError(t, f.db.Order("role_name").Find(&roles, "company_id = ?", user.CompanyIDValue()).Error)
	require.Len(t, roles, 2)
	assert.Equal(t, models.RoleMember, roles[0].Name)
	assert.True(t, roles[1].IsSuperAdmin())

	mine, err := rolesOf(f.db, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsSuperAdmin())
	assert.Contains(t, f.access.users, user.ID)
}

func TestInvitationRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inviter := f.signedUp(t, "ada@acme.io", "password123")
	other := f.signedUp(t, "eve@evil.io", "password123")

	accountant := models.Role{CompanyID: inviter.CompanyIDValue(), Name: "Accountant", Permissions: models.PermissionMap{"document": {"list", "view"}}}
	require.NoError(t, f.db.Create(&accountant).Error)
	var foreign models.Role
	require.NoError(t, f.db.First(&foreign, "company_id = ? AND role_name = ?", other.CompanyIDValue(), models.RoleMember).Error)

	_, err := f.svc.CreateInvitation(ctx, inviter.ID, "bob@acme.io", "", foreign.ID)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Violations, "role_id")

	withRole, err := f.svc.CreateInvitation(ctx, inviter.ID, "bob@acme.io", "", accountant.ID)
	require.NoError(t, err)
	_, bob, err := f.svc.AcceptInvite(ctx, "bob@acme.io", withRole.Code, "password456")
	require.NoError(t, err)
	roles, err := rolesOf(f.db, bob.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Accountant", roles[0].Name)
	assert.Contains(t, f.access.users, bob.ID)

	plain, err := f.svc.CreateInvitation(ctx, inviter.ID, "cy@acme.io", "", "")
	require.NoError(t, err)
	_, cy, err := f.svc.AcceptInvite(ctx, "cy@acme.io", plain.Code, "password789")
	require.NoError(t, err)
	roles, err = rolesOf(f.db, cy.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, models.RoleMember, roles[0].Name)
}
