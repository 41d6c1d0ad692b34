package services

import (
	"context"
	"sync"

	"github.com/janus-erp/janus/internal/logging"
	"go.uber.org/zap"
)

// Dispatcher delivers one-time codes and invitations to users.
type Dispatcher interface {
	SendOTP(ctx context.Context, email, purpose, code string) error
	SendInvite(ctx context.Context, email, code, companyName string) error
}

// LogDispatcher writes codes to the log instead of sending mail. It is the
// default outside production.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: logging.OrNop(log)}
}

func (d *LogDispatcher) SendOTP(_ context.Context, email, purpose, code string) error {
	d.log.Info("otp issued", zap.String("email", email), zap.String("purpose", purpose), zap.String("code", code))
	return nil
}

func (d *LogDispatcher) SendInvite(_ context.Context, email, code, companyName string) error {
	d.log.Info("invitation issued", zap.String("email", email), zap.String("company", companyName), zap.String("code", code))
	return nil
}

// MemoryDispatcher remembers the last code sent to each address.
type MemoryDispatcher struct {
	mu      sync.Mutex
	codes   map[string]string
	invites map[string]string
}

func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{codes: map[string]string{}, invites: map[string]string{}}
}

func (d *MemoryDispatcher) SendOTP(_ context.Context, email, purpose, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[purpose+":"+email] = code
	return nil
}

func (d *MemoryDispatcher) SendInvite(_ context.Context, email, code, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invites[email] = code
	return nil
}

// LastOTP returns the most recent code for email and purpose.
func (d *MemoryDispatcher) LastOTP(email, purpose string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[purpose+":"+email]
}

func (d *MemoryDispatcher) LastInvite(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.invites[email]
}
