package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/janus-erp/janus/internal/account"
	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/tokenstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) accounts() *account.Service {
	return account.New(a.api, a.session(), a.nav, account.WithLogger(a.log))
}

// formFailure prints the field messages of a rejected form before the error
// is returned to cobra.
func (a *app) formFailure(err error) error {
	var fe *account.FormError
	if errors.As(err, &fe) {
		a.report("", "", fe.Fields)
	}
	return err
}

func newSigninCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.prompt("Email"); err != nil {
					return err
				}
			}
			pw, err := a.secret("Password")
			if err != nil {
				return err
			}
			sess, err := a.accounts().SignIn(cmd.Context(), email, pw)
			if err != nil {
				return a.formFailure(err)
			}
			fmt.Fprintf(a.out, "Signed in as %s.\n", sess.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newSignoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.accounts().SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			me, err := a.me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n", me.Email, me.UserID)
			if me.FullName != "" {
				fmt.Fprintf(a.out, "name:    %s\n", me.FullName)
			}
			if me.CompanyID != "" {
				fmt.Fprintf(a.out, "company: %s\n", me.CompanyID)
			}
			return nil
		},
	}
}

var errNotSignedIn = errors.New("not signed in; run 'janus signin' first")

// me fetches the current user, refreshing the tokens once when the access
// token has expired.
func (a *app) me(ctx context.Context) (authapi.MeResponse, error) {
	store := a.session()
	sess, err := tokenstore.Load(ctx, store)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return authapi.MeResponse{}, errNotSignedIn
	}
	if err != nil {
		return authapi.MeResponse{}, err
	}
	me, err := a.api.Me(ctx, sess.AccessToken)
	if authapi.StatusCode(err) != http.StatusUnauthorized || sess.RefreshToken == "" {
		return me, err
	}
	a.log.Debug("access token rejected, refreshing")
	tok, rerr := a.api.Refresh(ctx, sess.RefreshToken)
	if rerr != nil {
		a.log.Info("refresh failed", zap.Error(rerr))
		return authapi.MeResponse{}, errNotSignedIn
	}
	sess.AccessToken, sess.RefreshToken = tok.AccessToken, tok.RefreshToken
	if err := tokenstore.Save(ctx, store, sess); err != nil {
		return authapi.MeResponse{}, err
	}
	return a.api.Me(ctx, sess.AccessToken)
}

func newPasswordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password with an emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPasswordReset(cmd.Context())
		},
	})
	return cmd
}

func (a *app) runPasswordReset(ctx context.Context) error {
	svc := a.accounts()
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	if err := svc.InitiateReset(ctx, email); err != nil {
		return a.formFailure(err)
	}
	fmt.Fprintln(a.out, "If the address is registered, a reset code is on its way.")
	code, err := a.prompt("Code")
	if err != nil {
		return err
	}
	ticket, err := svc.VerifyResetOTP(ctx, email, code)
	if err != nil {
		return a.formFailure(err)
	}
	pw, err := a.secret("New password")
	if err != nil {
		return err
	}
	confirm, err := a.secret("Confirm password")
	if err != nil {
		return err
	}
	if err := svc.SetNewPassword(ctx, ticket, pw, confirm); err != nil {
		return a.formFailure(err)
	}
	fmt.Fprintln(a.out, "Password updated. You can now sign in.")
	return nil
}

func newInviteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Company invitations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "accept",
		Short: "Join a company with an invite code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInviteAccept(cmd.Context())
		},
	})
	return cmd
}

func (a *app) runInviteAccept(ctx context.Context) error {
	svc := a.accounts()
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	code, err := a.prompt("Invite code")
	if err != nil {
		return err
	}
	ticket, err := svc.VerifyInvite(ctx, email, code)
	if err != nil {
		return a.formFailure(err)
	}
	pw, err := a.secret("Password")
	if err != nil {
		return err
	}
	confirm, err := a.secret("Confirm password")
	if err != nil {
		return err
	}
	sess, err := svc.AcceptInvite(ctx, ticket, pw, confirm)
	if err != nil {
		return a.formFailure(err)
	}
	fmt.Fprintf(a.out, "Welcome aboard. Signed in as %s.\n", sess.User.Email)
	return nil
}
