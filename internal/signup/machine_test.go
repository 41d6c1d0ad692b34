package signup

import (
	"errors"
	"net/http"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/routes"
	"github.com/janus-erp/janus/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	acme = Company{Name: "Acme Metals", Type: TypeManufacturer, Email: "ops@acme.io"}
	jane = User{FullName: "Jane Roe", Email: "jane@acme.io", PhoneNumber: "+1 555 0100"}
)

func TestSubmitCompanyValidates(t *testing.T) {
	s, eff := Transition(Initial(), SubmitCompany{})
	assert.Empty(t, eff)
	assert.Equal(t, CompanyDetails, s.Step)
	assert.Equal(t, MsgCorrectErrors, s.Error)
	want := validation.Violations{
		FieldCompanyName: "Company name is required.",
		FieldCompanyType: "Company type is required.",
	}
	if diff := cmp.Diff(want, s.FieldErrors); diff != "" {
		t.Errorf("field errors (-want +got):\n%s", diff)
	}

	s, _ = Transition(s, UpdateCompany{Company: Company{Name: "Acme", Type: TypeBoth, Email: "not-an-email"}})
	s, eff = Transition(s, SubmitCompany{})
	assert.Empty(t, eff)
	assert.Equal(t, "Please enter a valid email address.", s.FieldErrors[FieldCompanyEmail])

	s, _ = Transition(s, UpdateCompany{Company: acme})
	s, eff = Transition(s, SubmitCompany{})
	assert.Equal(t, UserDetails, s.Step)
	assert.Empty(t, s.Error)
	assert.Empty(t, s.FieldErrors)
	if diff := cmp.Diff([]Effect{Navigate{Route: routes.SignupUser}}, eff); diff != "" {
		t.Errorf("effects (-want +got):\n%s", diff)
	}
}

func TestSubmitUserIssuesInitiate(t *testing.T) {
	s := State{Step: UserDetails, Draft: Draft{Company: acme, User: jane}}
	s, eff := Transition(s, SubmitUser{})
	assert.Equal(t, InitiateCall, s.Pending)
	want := []Effect{CallInitiate{Request: authapi.SignupInitiateRequest{
		Company: authapi.Company{Name: "Acme Metals", Type: "manufacturer", Email: "ops@acme.io"},
		User:    authapi.User{FullName: "Jane Roe", Email: "jane@acme.io", PhoneNumber: "+1 555 0100"},
	}}}
	if diff := cmp.Diff(want, eff); diff != "" {
		t.Errorf("effects (-want +got):\n%s", diff)
	}

	s, eff = Transition(s, InitiateSucceeded{Email: "jane@acme.io"})
	assert.Equal(t, VerifyEmail, s.Step)
	assert.Equal(t, "jane@acme.io", s.Draft.VerifiedEmail)
	assert.Equal(t, NoCall, s.Pending)
	assert.Equal(t, []Effect{Navigate{Route: routes.SignupVerifyEmail}}, eff)
}

func TestSubmitUserWithoutCompanyRedirects(t *testing.T) {
	s := State{Step: UserDetails, Draft: Draft{User: jane}}
	s, eff := Transition(s, SubmitUser{})
	assert.Equal(t, CompanyDetails, s.Step)
	assert.Equal(t, NoCall, s.Pending)
	assert.Empty(t, s.Error)
	assert.Equal(t, []Effect{Navigate{Route: routes.SignupCompany, Replace: true}}, eff)
}

func TestSubmitUserValidationKeepsDraft(t *testing.T) {
	s := State{Step: UserDetails, Draft: Draft{Company: acme, User: User{Email: "jane"}}}
	s, eff := Transition(s, SubmitUser{})
	assert.Empty(t, eff)
	assert.Equal(t, "Your full name is required.", s.FieldErrors[FieldFullName])
	assert.Equal(t, "Please enter a valid email address.", s.FieldErrors[FieldUserEmail])
	assert.Equal(t, "jane", s.Draft.User.Email)
}

func TestInitiateFailureKeepsDraft(t *testing.T) {
	before := State{Step: UserDetails, Draft: Draft{Company: acme, User: jane}, Pending: InitiateCall}
	err := &authapi.Error{Status: http.StatusConflict, Detail: "User with this email already exists and is confirmed."}
	s, eff := Transition(before, InitiateFailed{Err: err})
	assert.Empty(t, eff)
	assert.Equal(t, UserDetails, s.Step)
	assert.Equal(t, before.Draft, s.Draft)
	assert.Equal(t, err.Detail, s.Error)

	s, _ = Transition(before, InitiateFailed{Err: errors.New("connection refused")})
	assert.Equal(t, MsgInitiateFailed, s.Error)
}

func TestVerifyEmailPreconditions(t *testing.T) {
	cases := []struct {
		name  string
		draft Draft
		want  Step
	}{
		{"nothing entered", Draft{}, CompanyDetails},
		{"company only", Draft{Company: acme}, UserDetails},
		{"user without company", Draft{User: jane}, CompanyDetails},
		{"verified", Draft{Company: acme, User: jane, VerifiedEmail: "jane@acme.io"}, VerifyEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := Transition(State{Draft: tc.draft}, EnterStep{Step: VerifyEmail})
			assert.Equal(t, tc.want, s.Step)
		})
	}
}

func TestSubmitOTPValidatesCode(t *testing.T) {
	s := State{Step: VerifyEmail, Draft: Draft{Company: acme, User: jane, VerifiedEmail: "jane@acme.io"}}
	s, _ = Transition(s, UpdateOTP{Code: "12a 3"})
	assert.Equal(t, "123", s.Draft.OTP)
	s, eff := Transition(s, SubmitOTP{})
	assert.Empty(t, eff)
	assert.Equal(t, "Please enter a valid 6-digit OTP.", s.FieldErrors[FieldOTP])

	s, _ = Transition(s, UpdateOTP{Code: "123-4567"})
	assert.Equal(t, "123456", s.Draft.OTP)
	assert.Empty(t, s.FieldErrors)
	s, eff = Transition(s, SubmitOTP{})
	assert.Equal(t, VerifyCall, s.Pending)
	assert.Equal(t, []Effect{CallVerifyOTP{Request: authapi.OTPRequest{Email: "jane@acme.io", OTP: "123456"}}}, eff)

	s, eff = Transition(s, VerifySucceeded{UserID: "u-1", Email: "jane@acme.io"})
	assert.Equal(t, SetPassword, s.Step)
	assert.Equal(t, "u-1", s.Draft.UserID)
	assert.Empty(t, s.Draft.OTP)
	assert.Equal(t, []Effect{Navigate{Route: routes.SignupSetPassword}}, eff)
}

func TestVerifyFailureLeavesIdentityUnchanged(t *testing.T) {
	prop := func(email, userID, detail string, status uint16) bool {
		before := State{
			Step:    VerifyEmail,
			Draft:   Draft{Company: acme, User: jane, OTP: "123456", VerifiedEmail: email, UserID: userID},
			Pending: VerifyCall,
		}
		code := 400 + int(status)%200
		after, eff := Transition(before, VerifyFailed{Err: &authapi.Error{Status: code, Detail: detail}})
		wantMsg := detail
		if detail == "" {
			wantMsg = MsgVerifyFailed
		}
		return len(eff) == 0 &&
			after.Step == VerifyEmail &&
			after.Pending == NoCall &&
			after.Draft.UserID == userID &&
			after.Draft.VerifiedEmail == email &&
			after.Error == wantMsg
	}
	require.NoError(t, quick.Check(prop, nil))
}

func TestResend(t *testing.T) {
	s := State{Step: VerifyEmail, Draft: Draft{Company: acme, User: jane, VerifiedEmail: "jane@acme.io"}}
	s, eff := Transition(s, Resend{})
	require.Len(t, eff, 1)
	assert.True(t, eff[0].(CallInitiate).Resend)
	assert.Equal(t, ResendCall, s.Pending)

	ok, eff := Transition(s, InitiateSucceeded{Email: "jane@acme.io", Resend: true})
	assert.Empty(t, eff)
	assert.Equal(t, VerifyEmail, ok.Step)
	assert.Equal(t, MsgOTPResent, ok.Notice)
	assert.Equal(t, "jane@acme.io", ok.Draft.VerifiedEmail)

	moved, _ := Transition(s, InitiateSucceeded{Email: "new@example.com", Resend: true})
	assert.Equal(t, "new@example.com", moved.Draft.VerifiedEmail)

	failed, _ := Transition(s, InitiateFailed{Err: errors.New("timeout"), Resend: true})
	assert.Equal(t, VerifyEmail, failed.Step)
	assert.Equal(t, MsgResendFailed, failed.Error)
	assert.Equal(t, s.Draft, failed.Draft)
}

func TestSetPasswordWithoutUserIDRedirectsToVerify(t *testing.T) {
	before := State{Step: SetPassword, Draft: Draft{Company: acme, User: jane, VerifiedEmail: "jane@acme.io"}}
	s, eff := Transition(before, SubmitPassword{Password: "s3cret-pass", Confirm: "s3cret-pass"})
	assert.Equal(t, VerifyEmail, s.Step)
	assert.Equal(t, before.Draft, s.Draft)
	assert.Equal(t, NoCall, s.Pending)
	if diff := cmp.Diff([]Effect{Navigate{Route: routes.SignupVerifyEmail, Replace: true}}, eff); diff != "" {
		t.Errorf("effects (-want +got):\n%s", diff)
	}
}

func TestSetPasswordWithoutIdentityResetsDraft(t *testing.T) {
	before := State{Step: SetPassword, Draft: Draft{Company: acme, User: jane}}
	s, eff := Transition(before, EnterStep{Step: SetPassword})
	assert.Equal(t, CompanyDetails, s.Step)
	assert.Equal(t, Draft{}, s.Draft)
	assert.Equal(t, []Effect{Navigate{Route: routes.SignupCompany, Replace: true}}, eff)
}

func TestSetPasswordValidation(t *testing.T) {
	ready := State{Step: SetPassword, Draft: Draft{VerifiedEmail: "jane@acme.io", UserID: "u-1"}}
	s, eff := Transition(ready, SubmitPassword{Password: "short", Confirm: "other"})
	assert.Empty(t, eff)
	assert.Equal(t, "Password must be at least 8 characters long.", s.FieldErrors[FieldPassword])
	assert.Equal(t, "Passwords do not match.", s.FieldErrors[FieldConfirmPassword])

	s, eff = Transition(ready, SubmitPassword{Password: "longenough"})
	assert.Empty(t, eff)
	assert.Equal(t, "Please confirm your password.", s.FieldErrors[FieldConfirmPassword])

	s, eff = Transition(ready, SubmitPassword{Password: "longenough", Confirm: "longenough"})
	assert.Equal(t, SetPasswordCall, s.Pending)
	assert.Equal(t, []Effect{CallSetPassword{Request: authapi.Credentials{Email: "jane@acme.io", Password: "longenough"}}}, eff)

	done, eff := Transition(s, SetPasswordSucceeded{UserID: "u-1", Email: "jane@acme.io"})
	assert.True(t, done.Done)
	assert.Equal(t, Draft{}, done.Draft)
	assert.Equal(t, CompanyDetails, done.Step)
	assert.Equal(t, []Effect{
		Navigate{Route: routes.Dashboard, Replace: true},
		Complete{UserID: "u-1", Email: "jane@acme.io"},
	}, eff)

	failed, _ := Transition(s, SetPasswordFailed{Err: &authapi.Error{Status: 400, Detail: "Password already set."}})
	assert.Equal(t, SetPassword, failed.Step)
	assert.Equal(t, s.Draft, failed.Draft)
	assert.Equal(t, "Password already set.", failed.Error)
}

func TestPendingBlocksSubmits(t *testing.T) {
	s := State{Step: VerifyEmail, Draft: Draft{VerifiedEmail: "jane@acme.io", OTP: "123456"}, Pending: VerifyCall}
	for _, e := range []Event{SubmitOTP{}, Resend{}, Back{}, Reset{}, EnterStep{Step: CompanyDetails}} {
		assert.True(t, s.Busy(e), "%T", e)
		next, eff := Transition(s, e)
		assert.Empty(t, eff, "%T", e)
		assert.Equal(t, s, next, "%T", e)
	}
	assert.False(t, s.Busy(UpdateOTP{Code: "1"}))
}

func TestStaleResultIgnored(t *testing.T) {
	s := State{Step: VerifyEmail, Draft: Draft{VerifiedEmail: "jane@acme.io"}}
	next, eff := Transition(s, VerifySucceeded{UserID: "u-9", Email: "x@y.io"})
	assert.Empty(t, eff)
	assert.Equal(t, s, next)
}

func TestBackAndReset(t *testing.T) {
	s := State{Step: VerifyEmail, Draft: Draft{Company: acme, User: jane, VerifiedEmail: "jane@acme.io"}}
	s, eff := Transition(s, Back{})
	assert.Equal(t, UserDetails, s.Step)
	assert.Equal(t, "jane@acme.io", s.Draft.VerifiedEmail)
	assert.Equal(t, []Effect{Navigate{Route: routes.SignupUser}}, eff)

	s, eff = Transition(s, Reset{})
	assert.Equal(t, Initial(), s)
	assert.Equal(t, []Effect{Navigate{Route: routes.SignupCompany, Replace: true}}, eff)
}

func TestTransitionDoesNotShareFieldErrors(t *testing.T) {
	s, _ := Transition(Initial(), SubmitCompany{})
	before := cloneViolations(s.FieldErrors)
	_, _ = Transition(s, UpdateCompany{Company: acme})
	assert.Equal(t, before, s.FieldErrors)
}

func TestStepRoutes(t *testing.T) {
	for _, st := range []Step{CompanyDetails, UserDetails, VerifyEmail, SetPassword} {
		got, ok := StepForRoute(st.Route())
		assert.True(t, ok)
		assert.Equal(t, st, got)
	}
	_, ok := StepForRoute(routes.Dashboard)
	assert.False(t, ok)
}
