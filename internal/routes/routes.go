// Package routes names the client pages and decides where a user may go.
package routes

import (
	"context"
	"sync"

	"github.com/janus-erp/janus/internal/tokenstore"
)

type Route string

const (
	SignIn            Route = "/signin"
	SignupCompany     Route = "/signup/company-details"
	SignupUser        Route = "/signup/user-details"
	SignupVerifyEmail Route = "/signup/verify-email"
	SignupSetPassword Route = "/signup/set-password"
	ForgotPassword    Route = "/forgot-password"
	ResetVerifyOTP    Route = "/forgot-password/verify-otp"
	ResetSetNew       Route = "/forgot-password/set-new"
	InviteVerify      Route = "/invite/verify"
	InviteSetPassword Route = "/invite/set-password"
	Dashboard         Route = "/dashboard"
)

var publicAuth = map[Route]bool{
	SignIn:            true,
	SignupCompany:     true,
	SignupUser:        true,
	SignupVerifyEmail: true,
	SignupSetPassword: true,
	ForgotPassword:    true,
	ResetVerifyOTP:    true,
	ResetSetNew:       true,
	InviteVerify:      true,
	InviteSetPassword: true,
}

// IsPublicAuth reports whether r is one of the sign-in, sign-up, reset or
// invite pages.
func IsPublicAuth(r Route) bool { return publicAuth[r] }

// IsProtected reports whether r needs a signed-in user.
func IsProtected(r Route) bool { return !publicAuth[r] }

// Mode says whether a navigation adds a history entry or replaces the
// current one.
type Mode int

const (
	Push Mode = iota
	Replace
)

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(ctx context.Context, to Route, mode Mode) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, to Route, mode Mode) error

func (f NavigatorFunc) Navigate(ctx context.Context, to Route, mode Mode) error {
	return f(ctx, to, mode)
}

// Guard returns the route the user actually lands on when asking for r, and
// whether that is r itself. Signed-out users on protected pages go to
// SignIn; signed-in users on auth pages go to Dashboard.
func Guard(ctx context.Context, store tokenstore.Store, r Route) (Route, bool) {
	authed := tokenstore.IsAuthenticated(ctx, store)
	switch {
	case IsProtected(r) && !authed:
		return SignIn, false
	case IsPublicAuth(r) && authed:
		return Dashboard, false
	}
	return r, true
}

// History is an in-memory Navigator that records the page stack.
type History struct {
	mu    sync.Mutex
	stack []Route
}

func NewHistory(start Route) *History {
	return &History{stack: []Route{start}}
}

func (h *History) Navigate(_ context.Context, to Route, mode Mode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if mode == Replace && len(h.stack) > 0 {
		h.stack[len(h.stack)-1] = to
		return nil
	}
	h.stack = append(h.stack, to)
	return nil
}

// Current is the page on top of the stack.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) == 0 {
		return ""
	}
	return h.stack[len(h.stack)-1]
}

// Back pops the current page. The first page is never popped.
func (h *History) Back() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) > 1 {
		h.stack = h.stack[:len(h.stack)-1]
	}
	return h.stack[len(h.stack)-1]
}

// Len is the depth of the stack.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}
