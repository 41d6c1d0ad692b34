package signup

import (
	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/routes"
	"github.com/janus-erp/janus/validation"
)

// Messages shown by the wizard.
const (
	MsgCorrectErrors     = "Please correct the errors in the form."
	MsgOTPResent         = "A new OTP has been sent to your email."
	MsgInitiateFailed    = "Failed to initiate sign up."
	MsgResendFailed      = "Failed to resend OTP."
	MsgVerifyFailed      = "OTP verification failed."
	MsgSetPasswordFailed = "Failed to set password."
)

// Call identifies the request a state is waiting on.
type Call int

const (
	NoCall Call = iota
	InitiateCall
	ResendCall
	VerifyCall
	SetPasswordCall
)

// State is a snapshot of the wizard. Error holds a server or transport
// message, FieldErrors the per-field validation messages.
type State struct {
	Step        Step
	Draft       Draft
	Pending     Call
	FieldErrors validation.Violations
	Error       string
	Notice      string
	Done        bool
}

// Initial is a fresh wizard on the company details page.
func Initial() State {
	return State{Step: CompanyDetails}
}

// Busy reports whether e has to wait for the outstanding request.
func (s State) Busy(e Event) bool {
	if s.Pending == NoCall {
		return false
	}
	switch e.(type) {
	case UpdateCompany, UpdateUser, UpdateOTP,
		InitiateSucceeded, InitiateFailed, VerifySucceeded, VerifyFailed,
		SetPasswordSucceeded, SetPasswordFailed:
		return false
	}
	return true
}

// Event is an input to Transition: a user action or the result of a call.
type Event interface{ event() }

type (
	// EnterStep is sent when the user lands on a step's page.
	EnterStep struct{ Step Step }

	UpdateCompany struct{ Company Company }
	UpdateUser    struct{ User User }
	// UpdateOTP takes raw input; non-digits are dropped.
	UpdateOTP struct{ Code string }

	SubmitCompany  struct{}
	SubmitUser     struct{}
	SubmitOTP      struct{}
	Resend         struct{}
	SubmitPassword struct{ Password, Confirm string }
	Back           struct{}
	Reset          struct{}

	InitiateSucceeded struct {
		Email  string
		Resend bool
	}
	InitiateFailed struct {
		Err    error
		Resend bool
	}
	VerifySucceeded struct{ UserID, Email string }
	VerifyFailed    struct{ Err error }
	// SetPasswordSucceeded is sent once the tokens are stored.
	SetPasswordSucceeded struct{ UserID, Email string }
	SetPasswordFailed    struct{ Err error }
)

func (EnterStep) event()            {}
func (UpdateCompany) event()        {}
func (UpdateUser) event()           {}
func (UpdateOTP) event()            {}
func (SubmitCompany) event()        {}
func (SubmitUser) event()           {}
func (SubmitOTP) event()            {}
func (Resend) event()               {}
func (SubmitPassword) event()       {}
func (Back) event()                 {}
func (Reset) event()                {}
func (InitiateSucceeded) event()    {}
func (InitiateFailed) event()       {}
func (VerifySucceeded) event()      {}
func (VerifyFailed) event()         {}
func (SetPasswordSucceeded) event() {}
func (SetPasswordFailed) event()    {}

// Effect is work Transition asks the runner to do.
type Effect interface{ effect() }

type (
	CallInitiate struct {
		Request authapi.SignupInitiateRequest
		Resend  bool
	}
	CallVerifyOTP   struct{ Request authapi.OTPRequest }
	CallSetPassword struct{ Request authapi.Credentials }
	Navigate        struct {
		Route   routes.Route
		Replace bool
	}
	// Complete signals that the account is ready and the session stored.
	Complete struct{ UserID, Email string }
)

func (CallInitiate) effect()    {}
func (CallVerifyOTP) effect()   {}
func (CallSetPassword) effect() {}
func (Navigate) effect()        {}
func (Complete) effect()        {}

// Transition returns the state after e and the effects to run. It never
// mutates s.
func Transition(s State, e Event) (State, []Effect) {
	if s.Busy(e) {
		return s, nil
	}
	s.FieldErrors = cloneViolations(s.FieldErrors)

	switch e := e.(type) {
	case EnterStep:
		s.Done = false
		next, eff, _ := s.enter(e.Step)
		return next, eff

	case UpdateCompany:
		s.Draft.Company = e.Company
		s.clearFields(FieldCompanyName, FieldCompanyType, FieldCompanyEmail)
	case UpdateUser:
		s.Draft.User = e.User
		s.clearFields(FieldFullName, FieldUserEmail)
	case UpdateOTP:
		s.Draft.OTP = validation.SanitizeOTP(e.Code)
		s.clearFields(FieldOTP)

	case SubmitCompany:
		s.clearMessages()
		s.Step = CompanyDetails
		if v := validateCompany(s.Draft.Company); !v.Empty() {
			return s.invalid(v), nil
		}
		s.Step = UserDetails
		return s, []Effect{Navigate{Route: UserDetails.Route()}}

	case SubmitUser:
		s.clearMessages()
		next, eff, moved := s.enter(UserDetails)
		if moved {
			return next, eff
		}
		s = next
		if v := validateUser(s.Draft.User); !v.Empty() {
			return s.invalid(v), nil
		}
		s.Pending = InitiateCall
		return s, []Effect{CallInitiate{Request: s.Draft.initiateRequest()}}

	case SubmitOTP:
		s.clearMessages()
		next, eff, moved := s.enter(VerifyEmail)
		if moved {
			return next, eff
		}
		s = next
		if v := validateOTP(s.Draft.OTP); !v.Empty() {
			return s.invalid(v), nil
		}
		s.Pending = VerifyCall
		return s, []Effect{CallVerifyOTP{Request: authapi.OTPRequest{Email: s.Draft.VerifiedEmail, OTP: s.Draft.OTP}}}

	case Resend:
		s.clearMessages()
		next, eff, moved := s.enter(VerifyEmail)
		if moved {
			return next, eff
		}
		s = next
		s.Pending = ResendCall
		return s, []Effect{CallInitiate{Request: s.Draft.initiateRequest(), Resend: true}}

	case SubmitPassword:
		s.clearMessages()
		next, eff, moved := s.enter(SetPassword)
		if moved {
			return next, eff
		}
		s = next
		if v := validatePassword(e.Password, e.Confirm); !v.Empty() {
			return s.invalid(v), nil
		}
		s.Pending = SetPasswordCall
		return s, []Effect{CallSetPassword{Request: authapi.Credentials{Email: s.Draft.VerifiedEmail, Password: e.Password}}}

	case Back:
		s.clearMessages()
		if s.Step == CompanyDetails {
			return s, nil
		}
		s.Step--
		return s, []Effect{Navigate{Route: s.Step.Route()}}

	case Reset:
		s = Initial()
		return s, []Effect{Navigate{Route: CompanyDetails.Route(), Replace: true}}

	case InitiateSucceeded:
		if e.Resend {
			if s.Pending != ResendCall {
				return s, nil
			}
			s.Pending = NoCall
			s.Notice = MsgOTPResent
			if e.Email != "" {
				s.Draft.VerifiedEmail = e.Email
			}
			return s, nil
		}
		if s.Pending != InitiateCall {
			return s, nil
		}
		s.Pending = NoCall
		s.Draft.VerifiedEmail = e.Email
		s.Draft.OTP = ""
		s.Step = VerifyEmail
		return s, []Effect{Navigate{Route: VerifyEmail.Route()}}

	case InitiateFailed:
		want, fallback := InitiateCall, MsgInitiateFailed
		if e.Resend {
			want, fallback = ResendCall, MsgResendFailed
		}
		if s.Pending != want {
			return s, nil
		}
		s.Pending = NoCall
		s.Error = authapi.Message(e.Err, fallback)

	case VerifySucceeded:
		if s.Pending != VerifyCall {
			return s, nil
		}
		s.Pending = NoCall
		s.Draft.UserID = e.UserID
		if e.Email != "" {
			s.Draft.VerifiedEmail = e.Email
		}
		s.Draft.OTP = ""
		s.Step = SetPassword
		return s, []Effect{Navigate{Route: SetPassword.Route()}}

	case VerifyFailed:
		if s.Pending != VerifyCall {
			return s, nil
		}
		s.Pending = NoCall
		s.Error = authapi.Message(e.Err, MsgVerifyFailed)

	case SetPasswordSucceeded:
		if s.Pending != SetPasswordCall {
			return s, nil
		}
		s = Initial()
		s.Done = true
		return s, []Effect{
			Navigate{Route: routes.Dashboard, Replace: true},
			Complete{UserID: e.UserID, Email: e.Email},
		}

	case SetPasswordFailed:
		if s.Pending != SetPasswordCall {
			return s, nil
		}
		s.Pending = NoCall
		s.Error = authapi.Message(e.Err, MsgSetPasswordFailed)
	}
	return s, nil
}

// enter moves s to want, or to the step whose precondition is unmet. moved
// reports a redirect; redirects replace the current page and are never
// shown as errors.
func (s State) enter(want Step) (State, []Effect, bool) {
	got := want
	switch want {
	case UserDetails:
		if !s.Draft.CompanyComplete() {
			got = CompanyDetails
		}
	case VerifyEmail:
		got = s.verifyStep()
	case SetPassword:
		switch {
		case s.Draft.VerifiedEmail != "" && s.Draft.UserID == "":
			got = VerifyEmail
		case s.Draft.VerifiedEmail == "" || s.Draft.UserID == "":
			s.Draft = Draft{}
			got = CompanyDetails
		}
	}
	s.Step = got
	if got == want {
		return s, nil, false
	}
	return s, []Effect{Navigate{Route: got.Route(), Replace: true}}, true
}

func (s State) verifyStep() Step {
	switch {
	case s.Draft.VerifiedEmail != "":
		return VerifyEmail
	case !s.Draft.CompanyComplete():
		return CompanyDetails
	default:
		return UserDetails
	}
}

func (s *State) clearMessages() {
	s.Error = ""
	s.Notice = ""
	s.FieldErrors = nil
	s.Done = false
}

func (s *State) clearFields(fields ...string) {
	for _, f := range fields {
		delete(s.FieldErrors, f)
	}
}

func (s State) invalid(v validation.Violations) State {
	s.FieldErrors = v
	s.Error = MsgCorrectErrors
	return s
}

func cloneViolations(v validation.Violations) validation.Violations {
	if v == nil {
		return nil
	}
	out := make(validation.Violations, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}
