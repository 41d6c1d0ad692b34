package signup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/janus-erp/janus/internal/authapi"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/routes"
	"github.com/janus-erp/janus/internal/tokenstore"
	"go.uber.org/zap"
)

// ErrBusy is returned by Dispatch while a request of the same wizard is in
// flight.
var ErrBusy = errors.New("signup: a request is already in progress")

// API is the part of the auth client the wizard talks to.
type API interface {
	InitiateSignup(ctx context.Context, req authapi.SignupInitiateRequest) (authapi.MessageResponse, error)
	VerifySignupOTP(ctx context.Context, req authapi.OTPRequest) (authapi.VerifyOTPResponse, error)
	SetSignupPassword(ctx context.Context, req authapi.Credentials) (authapi.TokenResponse, error)
}

type Option func(*Wizard)

func WithLogger(l *zap.Logger) Option {
	return func(w *Wizard) { w.log = logging.OrNop(l) }
}

// WithOnComplete registers a callback run after the account is created and
// the session saved.
func WithOnComplete(fn func(userID, email string)) Option {
	return func(w *Wizard) { w.onComplete = fn }
}

// Wizard owns one sign-up session.
type Wizard struct {
	api        API
	store      tokenstore.Store
	nav        routes.Navigator
	log        *zap.Logger
	onComplete func(userID, email string)

	mu    sync.Mutex
	state State
}

func New(api API, store tokenstore.Store, nav routes.Navigator, opts ...Option) *Wizard {
	w := &Wizard{api: api, store: store, nav: nav, log: zap.NewNop(), state: Initial()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.state
	s.FieldErrors = cloneViolations(s.FieldErrors)
	return s
}

// Dispatch applies e and runs the resulting effects, including any request
// and the event its result produces. It returns the state once everything
// has settled. A mutating event sent while a request is outstanding is
// rejected with ErrBusy and changes nothing.
func (w *Wizard) Dispatch(ctx context.Context, e Event) (State, error) {
	effects, err := w.apply(e)
	if err != nil {
		return w.State(), err
	}
	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]
		more, err := w.run(ctx, eff)
		if err != nil {
			return w.State(), err
		}
		effects = append(effects, more...)
	}
	return w.State(), nil
}

func (w *Wizard) apply(e Event) ([]Effect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Busy(e) {
		return nil, ErrBusy
	}
	before := w.state.Step
	next, effects := Transition(w.state, e)
	w.state = next
	if next.Step != before {
		w.log.Debug("signup step", zap.Stringer("from", before), zap.Stringer("to", next.Step))
	}
	return effects, nil
}

// run executes one effect. Requests are made without holding the lock; the
// Pending marker set by Transition keeps other submits out meanwhile.
func (w *Wizard) run(ctx context.Context, eff Effect) ([]Effect, error) {
	switch eff := eff.(type) {
	case Navigate:
		mode := routes.Push
		if eff.Replace {
			mode = routes.Replace
		}
		if err := w.nav.Navigate(ctx, eff.Route, mode); err != nil {
			return nil, fmt.Errorf("navigate to %s: %w", eff.Route, err)
		}
		return nil, nil

	case CallInitiate:
		_, err := w.api.InitiateSignup(ctx, eff.Request)
		if err != nil {
			w.log.Info("signup initiate failed", zap.Bool("resend", eff.Resend), zap.Error(err))
			return w.apply(InitiateFailed{Err: err, Resend: eff.Resend})
		}
		return w.apply(InitiateSucceeded{Email: eff.Request.User.Email, Resend: eff.Resend})

	case CallVerifyOTP:
		resp, err := w.api.VerifySignupOTP(ctx, eff.Request)
		if err != nil {
			w.log.Info("signup otp verification failed", zap.Error(err))
			return w.apply(VerifyFailed{Err: err})
		}
		return w.apply(VerifySucceeded{UserID: resp.UserID, Email: resp.Email})

	case CallSetPassword:
		resp, err := w.api.SetSignupPassword(ctx, eff.Request)
		if err == nil {
			err = tokenstore.Save(ctx, w.store, tokenstore.Session{
				AccessToken:  resp.AccessToken,
				RefreshToken: resp.RefreshToken,
				User:         tokenstore.CurrentUser{UserID: resp.UserID, Email: resp.Email},
			})
		}
		if err != nil {
			w.log.Info("signup set password failed", zap.Error(err))
			return w.apply(SetPasswordFailed{Err: err})
		}
		return w.apply(SetPasswordSucceeded{UserID: resp.UserID, Email: resp.Email})

	case Complete:
		w.log.Info("signup complete", zap.String("user_id", eff.UserID))
		if w.onComplete != nil {
			w.onComplete(eff.UserID, eff.Email)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("signup: unknown effect %T", eff)
}
