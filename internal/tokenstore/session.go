package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentUser is the JSON stored under KeyCurrentUser.
type CurrentUser struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Session is what a successful sign-in, sign-up or invite acceptance
// leaves behind.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         CurrentUser
}

// Save writes the session. Stores implementing BatchSetter get all keys in
// one write.
func Save(ctx context.Context, s Store, sess Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	values := map[string]string{
		KeyAccessToken:  sess.AccessToken,
		KeyRefreshToken: sess.RefreshToken,
		KeyCurrentUser:  string(user),
	}
	if b, ok := s.(BatchSetter); ok {
		if err := b.SetMany(ctx, values); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	}
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyCurrentUser} {
		if err := s.Set(ctx, k, values[k]); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return nil
}

// Load reads the session. A store without an access token returns
// ErrNotFound.
func Load(ctx context.Context, s Store) (Session, error) {
	var sess Session
	var err error
	if sess.AccessToken, err = s.Get(ctx, KeyAccessToken); err != nil {
		return Session{}, err
	}
	if sess.RefreshToken, err = s.Get(ctx, KeyRefreshToken); err != nil && !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}
	raw, err := s.Get(ctx, KeyCurrentUser)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return Session{}, err
	default:
		if err := json.Unmarshal([]byte(raw), &sess.User); err != nil {
			return Session{}, fmt.Errorf("decode current user: %w", err)
		}
	}
	return sess, nil
}

// Clear removes every session key.
func Clear(ctx context.Context, s Store) error {
	return s.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyCurrentUser)
}

// IsAuthenticated reports whether an access token is stored. Read errors
// count as signed out.
func IsAuthenticated(ctx context.Context, s Store) bool {
	tok, err := s.Get(ctx, KeyAccessToken)
	return err == nil && tok != ""
}
