package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/janus-erp/janus/internal/signup"
	"github.com/spf13/cobra"
)

func newSignupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Register a company and its first user",
		Long: `Walks through company details, user details, email verification and
the first password. On success the session is stored and later commands
run as the new user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSignup(cmd.Context())
		},
	}
}

func (a *app) runSignup(ctx context.Context) error {
	var email string
	w := signup.New(a.api, a.session(), a.nav,
		signup.WithLogger(a.log),
		signup.WithOnComplete(func(_, e string) { email = e }),
	)
	s, err := w.Dispatch(ctx, signup.EnterStep{Step: signup.CompanyDetails})
	for err == nil && !s.Done {
		a.report(s.Error, s.Notice, s.FieldErrors)
		var events []signup.Event
		events, err = a.signupStep(s)
		for _, e := range events {
			if err != nil {
				break
			}
			s, err = w.Dispatch(ctx, e)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Signed in as %s.\n", email)
	return nil
}

// signupStep asks for the fields of the current step and returns the events
// to send.
func (a *app) signupStep(s signup.State) ([]signup.Event, error) {
	d := s.Draft
	switch s.Step {
	case signup.CompanyDetails:
		fmt.Fprintln(a.out, "Step 1: Company details")
		c := d.Company
		var err error
		for _, f := range []struct {
			label string
			v     *string
		}{
			{"Company name", &c.Name},
			{"Company type (" + strings.Join(signup.CompanyTypes, ", ") + ")", &c.Type},
			{"Company email (optional)", &c.Email},
			{"Address (optional)", &c.Address},
			{"Tax ID (optional)", &c.TaxID},
		} {
			if *f.v, err = a.promptDefault(f.label, *f.v); err != nil {
				return nil, err
			}
		}
		return []signup.Event{signup.UpdateCompany{Company: c}, signup.SubmitCompany{}}, nil

	case signup.UserDetails:
		fmt.Fprintln(a.out, "Step 2: Your details (enter 'b' as full name to go back)")
		u := d.User
		name, err := a.promptDefault("Full name", u.FullName)
		if err != nil {
			return nil, err
		}
		if name == "b" {
			return []signup.Event{signup.Back{}}, nil
		}
		u.FullName = name
		if u.Email, err = a.promptDefault("Email", u.Email); err != nil {
			return nil, err
		}
		if u.PhoneNumber, err = a.promptDefault("Phone number (optional)", u.PhoneNumber); err != nil {
			return nil, err
		}
		return []signup.Event{signup.UpdateUser{User: u}, signup.SubmitUser{}}, nil

	case signup.VerifyEmail:
		fmt.Fprintf(a.out, "Step 3: Verify your email. A 6-digit code was sent to %s.\n", d.EmailForVerification())
		code, err := a.prompt("Code ('r' to resend, 'b' to go back)")
		if err != nil {
			return nil, err
		}
		switch strings.TrimSpace(code) {
		case "r":
			return []signup.Event{signup.Resend{}}, nil
		case "b":
			return []signup.Event{signup.Back{}}, nil
		}
		return []signup.Event{signup.UpdateOTP{Code: code}, signup.SubmitOTP{}}, nil

	case signup.SetPassword:
		fmt.Fprintln(a.out, "Step 4: Set your password")
		pw, err := a.secret("Password")
		if err != nil {
			return nil, err
		}
		confirm, err := a.secret("Confirm password")
		if err != nil {
			return nil, err
		}
		return []signup.Event{signup.SubmitPassword{Password: pw, Confirm: confirm}}, nil
	}
	return nil, fmt.Errorf("unexpected signup step %s", s.Step)
}

func (a *app) report(errMsg, notice string, fields map[string]string) {
	if notice != "" {
		fmt.Fprintln(a.out, notice)
	}
	if errMsg != "" {
		fmt.Fprintln(a.out, "!", errMsg)
	}
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(a.out, "  %s: %s\n", k, fields[k])
	}
}
