// Package signup drives company registration: company details, user
// details, email verification and the first password.
//
// Transition is a pure reducer over State. Wizard runs the effects it asks
// for against the auth API, the session store and the navigator.
package signup

import (
	"strings"

	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/routes"
	"github.com/janus-erp/janus/validation"
)

// Step is a page of the wizard, in the order they are visited.
type Step int

const (
	CompanyDetails Step = iota
	UserDetails
	VerifyEmail
	SetPassword
)

func (s Step) String() string {
	switch s {
	case CompanyDetails:
		return "company-details"
	case UserDetails:
		return "user-details"
	case VerifyEmail:
		return "verify-email"
	case SetPassword:
		return "set-password"
	}
	return "unknown"
}

// Route is the page the step is shown on.
func (s Step) Route() routes.Route {
	switch s {
	case UserDetails:
		return routes.SignupUser
	case VerifyEmail:
		return routes.SignupVerifyEmail
	case SetPassword:
		return routes.SignupSetPassword
	}
	return routes.SignupCompany
}

// StepForRoute maps a sign-up page back to its step.
func StepForRoute(r routes.Route) (Step, bool) {
	for _, s := range []Step{CompanyDetails, UserDetails, VerifyEmail, SetPassword} {
		if s.Route() == r {
			return s, true
		}
	}
	return CompanyDetails, false
}

// Company types accepted by the API.
const (
	TypeManufacturer = "manufacturer"
	TypeDistributor  = "distributor"
	TypeBoth         = "both"
)

var CompanyTypes = []string{TypeManufacturer, TypeDistributor, TypeBoth}

type Company struct {
	Name    string
	Type    string
	Email   string
	Address string
	TaxID   string
}

type User struct {
	FullName    string
	Email       string
	PhoneNumber string
}

// Draft is the registration being filled in. UserID is only ever set by a
// successful OTP verification.
type Draft struct {
	Company       Company
	User          User
	OTP           string
	VerifiedEmail string
	UserID        string
}

// EmailForVerification is the address the OTP was sent to, falling back to
// the entered user email until the server has confirmed one.
func (d Draft) EmailForVerification() string {
	if d.VerifiedEmail != "" {
		return d.VerifiedEmail
	}
	return strings.TrimSpace(d.User.Email)
}

func (d Draft) CompanyComplete() bool {
	return strings.TrimSpace(d.Company.Name) != "" && d.Company.Type != ""
}

func (d Draft) UserComplete() bool {
	return strings.TrimSpace(d.User.FullName) != "" && strings.TrimSpace(d.User.Email) != ""
}

func (d Draft) initiateRequest() authapi.SignupInitiateRequest {
	return authapi.SignupInitiateRequest{
		Company: authapi.Company{
			Name:    strings.TrimSpace(d.Company.Name),
			Type:    d.Company.Type,
			Email:   strings.TrimSpace(d.Company.Email),
			Address: strings.TrimSpace(d.Company.Address),
			TaxID:   strings.TrimSpace(d.Company.TaxID),
		},
		User: authapi.User{
			FullName:    strings.TrimSpace(d.User.FullName),
			Email:       strings.TrimSpace(d.User.Email),
			PhoneNumber: strings.TrimSpace(d.User.PhoneNumber),
		},
	}
}

// Field keys of State.FieldErrors.
const (
	FieldCompanyName     = "company.name"
	FieldCompanyType     = "company.type"
	FieldCompanyEmail    = "company.email"
	FieldFullName        = "user.full_name"
	FieldUserEmail       = "user.email"
	FieldOTP             = "otp"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// MinPasswordLength is the shortest password the set-password step accepts.
const MinPasswordLength = 8

func validateCompany(c Company) validation.Violations {
	v := validation.Violations{}
	validation.Required(FieldCompanyName, c.Name, "Company name is required.", v)
	validation.Required(FieldCompanyType, c.Type, "Company type is required.", v)
	validation.OneOf(FieldCompanyType, c.Type, "Company type is required.", CompanyTypes, v)
	validation.Email(FieldCompanyEmail, strings.TrimSpace(c.Email), "Please enter a valid email address.", v)
	return v
}

func validateUser(u User) validation.Violations {
	v := validation.Violations{}
	validation.Required(FieldFullName, u.FullName, "Your full name is required.", v)
	validation.Required(FieldUserEmail, u.Email, "Your email address is required.", v)
	validation.Email(FieldUserEmail, strings.TrimSpace(u.Email), "Please enter a valid email address.", v)
	return v
}

func validateOTP(code string) validation.Violations {
	v := validation.Violations{}
	validation.SixDigitCode(FieldOTP, code, "Please enter a valid 6-digit OTP.", v)
	return v
}

func validatePassword(password, confirm string) validation.Violations {
	v := validation.Violations{}
	validation.Required(FieldPassword, password, "Password is required.", v)
	validation.MinLength(FieldPassword, password, MinPasswordLength, "Password must be at least 8 characters long.", v)
	validation.Required(FieldConfirmPassword, confirm, "Please confirm your password.", v)
	validation.Equal(FieldConfirmPassword, password, confirm, "Passwords do not match.", v)
	return v
}
