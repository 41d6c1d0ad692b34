// Package auth issues and verifies the bearer tokens handed out by the API
// and carries the authenticated user id through request contexts.
//
// Tokens are HS256 JWTs whose subject is the user id and whose "kind" claim
// separates access from refresh tokens. There is no server-side token
// table; revocation happens by rotating the secret.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/janus-erp/janus/httpx"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrExpiredToken = errors.New("expired_token")
)

// Claims is the JWT payload of every token the Issuer signs.
type Claims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// UserVerifier is an optional callback validating that a token's user still
// exists and is allowed in.
type UserVerifier func(ctx context.Context, userID string) bool

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	verifier   UserVerifier
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// SetUserVerifier configures the verifier used by RequireAuth.
func (i *Issuer) SetUserVerifier(v UserVerifier) { i.verifier = v }

// TokenPair is what sign-in style endpoints return.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (i *Issuer) Issue(userID string) TokenPair {
	now := i.now()
	exp := now.Add(i.accessTTL)
	return TokenPair{
		AccessToken:  i.sign(KindAccess, userID, now, exp),
		RefreshToken: i.sign(KindRefresh, userID, now, now.Add(i.refreshTTL)),
		ExpiresAt:    exp,
	}
}

func (i *Issuer) sign(kind TokenKind, userID string, now, exp time.Time) string {
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	// HMAC signing only fails for a key of the wrong type.
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// Parse validates the signature, kind and expiry of token and returns its
// user id.
func (i *Issuer) Parse(token string, kind TokenKind) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case err != nil:
		return "", ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey).(string)
	return id, ok && id != ""
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Middleware attaches the user id to the request context when a valid access
// token is present. It never rejects a request.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := BearerToken(r); tok != "" {
			if uid, err := i.Parse(tok, KindAccess); err == nil {
				r = r.WithContext(WithUserID(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 unless Middleware found a valid token for a user
// the verifier still accepts.
func (i *Issuer) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok || (i.verifier != nil && !i.verifier(r.Context(), uid)) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httpx.JSONError(w, http.StatusUnauthorized, "Not authenticated", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
