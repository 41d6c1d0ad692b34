// Package account implements the client side of sign-in, sign-out,
// password reset and invite acceptance.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/routes"
	"github.com/janus-erp/janus/internal/tokenstore"
	"github.com/janus-erp/janus/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when the same form already has a request in flight.
var ErrBusy = errors.New("account: a request is already in progress")

const (
	MsgCorrectErrors     = "Please correct the errors in the form."
	MsgSignInFailed      = "Sign-in failed. Please check your credentials."
	MsgResetFailed       = "Failed to initiate password reset."
	MsgResetVerifyFailed = "OTP verification failed. Please check the code or try again."
	MsgSetNewFailed      = "Failed to set new password. Please try again."
	MsgInviteFailed      = "Invite verification failed. Please check your details."
	MsgAcceptFailed      = "Failed to set password. Please try again."
	MsgResetTicket       = "Email or OTP is missing. Cannot proceed."
	MsgInviteTicket      = "Email or code is missing. Cannot proceed."
)

// Field keys of FormError.Fields.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldOTP             = "otp"
	FieldCode            = "code"
)

// MinPasswordLength is the shortest password accepted by the reset and
// invite forms.
const MinPasswordLength = 8

// FormError is returned when input fails local checks. Nothing was sent.
type FormError struct {
	Message string
	Fields  validation.Violations
}

func (e *FormError) Error() string { return e.Message }

// CallError is a failed request. Its message is the server detail, or a
// per-form fallback when there is none.
type CallError struct {
	Op       string
	Fallback string
	Err      error
}

func (e *CallError) Error() string { return authapi.Message(e.Err, e.Fallback) }
func (e *CallError) Unwrap() error { return e.Err }

// API is the part of the auth client used here.
type API interface {
	SignIn(ctx context.Context, req authapi.Credentials) (authapi.TokenResponse, error)
	ForgotPasswordInitiate(ctx context.Context, req authapi.EmailRequest) (authapi.MessageResponse, error)
	ForgotPasswordVerifyOTP(ctx context.Context, req authapi.OTPRequest) (authapi.ResetVerifyResponse, error)
	ForgotPasswordSetNew(ctx context.Context, req authapi.ResetSetNewRequest) (authapi.MessageResponse, error)
	VerifyInviteCode(ctx context.Context, req authapi.InviteCodeRequest) (authapi.InviteVerifyResponse, error)
	SetInvitedUserPassword(ctx context.Context, req authapi.InviteSetPasswordRequest) (authapi.TokenResponse, error)
}

// ResetTicket carries a verified reset code to the set-new-password form.
type ResetTicket struct {
	Email string
	OTP   string
}

// InviteTicket carries a verified invite to the initial password form.
type InviteTicket struct {
	Email string
	Code  string
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = logging.OrNop(l) }
}

// Service runs the account forms. Each form allows one request at a time.
type Service struct {
	api   API
	store tokenstore.Store
	nav   routes.Navigator
	log   *zap.Logger

	signIn *semaphore.Weighted
	reset  *semaphore.Weighted
	invite *semaphore.Weighted
}

func New(api API, store tokenstore.Store, nav routes.Navigator, opts ...Option) *Service {
	s := &Service{
		api:    api,
		store:  store,
		nav:    nav,
		log:    zap.NewNop(),
		signIn: semaphore.NewWeighted(1),
		reset:  semaphore.NewWeighted(1),
		invite: semaphore.NewWeighted(1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func hold(sem *semaphore.Weighted) (func(), error) {
	if !sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	return func() { sem.Release(1) }, nil
}

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &FormError{Message: MsgCorrectErrors, Fields: v}
}

func checkEmail(email string, v validation.Violations) {
	validation.Required(FieldEmail, email, "Email address is required.", v)
	validation.Email(FieldEmail, email, "Please enter a valid email address.", v)
}

func checkNewPassword(password, confirm string, v validation.Violations) {
	validation.Required(FieldPassword, password, "Password is required.", v)
	validation.MinLength(FieldPassword, password, MinPasswordLength, "Password must be at least 8 characters long.", v)
	validation.Required(FieldConfirmPassword, confirm, "Please confirm your password.", v)
	validation.Equal(FieldConfirmPassword, password, confirm, "Passwords do not match.", v)
}

func (s *Service) saveSession(ctx context.Context, resp authapi.TokenResponse) (tokenstore.Session, error) {
	sess := tokenstore.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         tokenstore.CurrentUser{UserID: resp.UserID, Email: resp.Email},
	}
	if err := tokenstore.Save(ctx, s.store, sess); err != nil {
		return tokenstore.Session{}, err
	}
	return sess, nil
}

// SignIn checks the credentials with the server, stores the session and
// opens the dashboard.
func (s *Service) SignIn(ctx context.Context, email, password string) (tokenstore.Session, error) {
	release, err := hold(s.signIn)
	if err != nil {
		return tokenstore.Session{}, err
	}
	defer release()

	email = strings.TrimSpace(email)
	v := validation.Violations{}
	checkEmail(email, v)
	validation.Required(FieldPassword, password, "Password is required.", v)
	if err := invalid(v); err != nil {
		return tokenstore.Session{}, err
	}

	resp, err := s.api.SignIn(ctx, authapi.Credentials{Email: email, Password: password})
	if err != nil {
		s.log.Info("sign in failed", zap.String("email", email), zap.Error(err))
		return tokenstore.Session{}, &CallError{Op: "sign in", Fallback: MsgSignInFailed, Err: err}
	}
	sess, err := s.saveSession(ctx, resp)
	if err != nil {
		return tokenstore.Session{}, &CallError{Op: "sign in", Fallback: MsgSignInFailed, Err: err}
	}
	s.log.Info("signed in", zap.String("user_id", resp.UserID))
	return sess, s.navigate(ctx, routes.Dashboard, routes.Replace)
}

// SignOut forgets the stored session and returns to the sign-in page.
func (s *Service) SignOut(ctx context.Context) error {
	if err := tokenstore.Clear(ctx, s.store); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return s.navigate(ctx, routes.SignIn, routes.Replace)
}

// InitiateReset asks the server to mail a reset code.
func (s *Service) InitiateReset(ctx context.Context, email string) error {
	release, err := hold(s.reset)
	if err != nil {
		return err
	}
	defer release()

	email = strings.TrimSpace(email)
	v := validation.Violations{}
	checkEmail(email, v)
	if err := invalid(v); err != nil {
		return err
	}
	if _, err := s.api.ForgotPasswordInitiate(ctx, authapi.EmailRequest{Email: email}); err != nil {
		return &CallError{Op: "forgot password", Fallback: MsgResetFailed, Err: err}
	}
	return s.navigate(ctx, routes.ResetVerifyOTP, routes.Push)
}

// VerifyResetOTP checks the mailed code without consuming it.
func (s *Service) VerifyResetOTP(ctx context.Context, email, otp string) (ResetTicket, error) {
	release, err := hold(s.reset)
	if err != nil {
		return ResetTicket{}, err
	}
	defer release()

	email = strings.TrimSpace(email)
	if email == "" {
		return ResetTicket{}, &FormError{Message: "Email not provided. Please start the forgot password process again."}
	}
	otp = validation.SanitizeOTP(otp)
	v := validation.Violations{}
	validation.SixDigitCode(FieldOTP, otp, "Please enter a valid 6-digit OTP.", v)
	if err := invalid(v); err != nil {
		return ResetTicket{}, err
	}

	resp, err := s.api.ForgotPasswordVerifyOTP(ctx, authapi.OTPRequest{Email: email, OTP: otp})
	if err != nil {
		return ResetTicket{}, &CallError{Op: "verify reset code", Fallback: MsgResetVerifyFailed, Err: err}
	}
	t := ResetTicket{Email: resp.Email, OTP: resp.OTP}
	if t.Email == "" {
		t.Email = email
	}
	if t.OTP == "" {
		t.OTP = otp
	}
	return t, s.navigate(ctx, routes.ResetSetNew, routes.Push)
}

// SetNewPassword finishes a reset and sends the user to sign in.
func (s *Service) SetNewPassword(ctx context.Context, t ResetTicket, password, confirm string) error {
	release, err := hold(s.reset)
	if err != nil {
		return err
	}
	defer release()

	if t.Email == "" || t.OTP == "" {
		return &FormError{Message: MsgResetTicket}
	}
	v := validation.Violations{}
	checkNewPassword(password, confirm, v)
	if err := invalid(v); err != nil {
		return err
	}
	req := authapi.ResetSetNewRequest{Email: t.Email, OTP: t.OTP, Password: password}
	if _, err := s.api.ForgotPasswordSetNew(ctx, req); err != nil {
		return &CallError{Op: "set new password", Fallback: MsgSetNewFailed, Err: err}
	}
	s.log.Info("password reset", zap.String("email", t.Email))
	return s.navigate(ctx, routes.SignIn, routes.Replace)
}

// VerifyInvite checks an invite code sent to email.
func (s *Service) VerifyInvite(ctx context.Context, email, code string) (InviteTicket, error) {
	release, err := hold(s.invite)
	if err != nil {
		return InviteTicket{}, err
	}
	defer release()

	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	v := validation.Violations{}
	checkEmail(email, v)
	validation.Required(FieldCode, code, "Invite code is required.", v)
	validation.LengthBetween(FieldCode, code, 6, 10, "Invite code must be between 6 and 10 characters.", v)
	if err := invalid(v); err != nil {
		return InviteTicket{}, err
	}

	resp, err := s.api.VerifyInviteCode(ctx, authapi.InviteCodeRequest{Email: email, Code: code})
	if err != nil {
		return InviteTicket{}, &CallError{Op: "verify invite", Fallback: MsgInviteFailed, Err: err}
	}
	t := InviteTicket{Email: resp.Email, Code: resp.Code}
	if t.Email == "" {
		t.Email = email
	}
	if t.Code == "" {
		t.Code = code
	}
	return t, s.navigate(ctx, routes.InviteSetPassword, routes.Push)
}

// AcceptInvite sets the invited user's first password, stores the session
// and opens the dashboard.
func (s *Service) AcceptInvite(ctx context.Context, t InviteTicket, password, confirm string) (tokenstore.Session, error) {
	release, err := hold(s.invite)
	if err != nil {
		return tokenstore.Session{}, err
	}
	defer release()

	if t.Email == "" || t.Code == "" {
		return tokenstore.Session{}, &FormError{Message: MsgInviteTicket}
	}
	v := validation.Violations{}
	checkNewPassword(password, confirm, v)
	if err := invalid(v); err != nil {
		return tokenstore.Session{}, err
	}

	req := authapi.InviteSetPasswordRequest{Email: t.Email, Code: t.Code, Password: password}
	resp, err := s.api.SetInvitedUserPassword(ctx, req)
	if err != nil {
		return tokenstore.Session{}, &CallError{Op: "accept invite", Fallback: MsgAcceptFailed, Err: err}
	}
	sess, err := s.saveSession(ctx, resp)
	if err != nil {
		return tokenstore.Session{}, &CallError{Op: "accept invite", Fallback: MsgAcceptFailed, Err: err}
	}
	return sess, s.navigate(ctx, routes.Dashboard, routes.Replace)
}

func (s *Service) navigate(ctx context.Context, to routes.Route, mode routes.Mode) error {
	if s.nav == nil {
		return nil
	}
	if err := s.nav.Navigate(ctx, to, mode); err != nil {
		return fmt.Errorf("navigate to %s: %w", to, err)
	}
	return nil
}
