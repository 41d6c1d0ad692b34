// Package authapi is the HTTP client of the janus auth API, along with the
// JSON bodies it exchanges.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const basePath = "/api/v1/auth"

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// errorBody tolerates both a string detail and the list form some servers
// send for validation failures.
type errorBody struct {
	Detail json.RawMessage   `json:"detail"`
	Errors map[string]string `json:"errors"`
}

func decodeError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return e
	}
	e.Fields = eb.Errors
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		e.Detail = s
	}
	return e
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, basePath+path, "", in, out)
}

func (c *Client) InitiateSignup(ctx context.Context, req SignupInitiateRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.post(ctx, "/signup/initiate", req, &out)
	return out, err
}

func (c *Client) VerifySignupOTP(ctx context.Context, req OTPRequest) (VerifyOTPResponse, error) {
	var out VerifyOTPResponse
	err := c.post(ctx, "/signup/verify-otp", req, &out)
	return out, err
}

func (c *Client) SetSignupPassword(ctx context.Context, req Credentials) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/signup/set-password", req, &out)
	return out, err
}

func (c *Client) SignIn(ctx context.Context, req Credentials) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/signin", req, &out)
	return out, err
}

func (c *Client) ForgotPasswordInitiate(ctx context.Context, req EmailRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.post(ctx, "/forgot-password/initiate", req, &out)
	return out, err
}

func (c *Client) ForgotPasswordVerifyOTP(ctx context.Context, req OTPRequest) (ResetVerifyResponse, error) {
	var out ResetVerifyResponse
	err := c.post(ctx, "/forgot-password/verify-otp", req, &out)
	return out, err
}

func (c *Client) ForgotPasswordSetNew(ctx context.Context, req ResetSetNewRequest) (MessageResponse, error) {
	var out MessageResponse
	err := c.post(ctx, "/forgot-password/set-new", req, &out)
	return out, err
}

func (c *Client) VerifyInviteCode(ctx context.Context, req InviteCodeRequest) (InviteVerifyResponse, error) {
	var out InviteVerifyResponse
	err := c.post(ctx, "/verify-invite-code", req, &out)
	return out, err
}

func (c *Client) SetInvitedUserPassword(ctx context.Context, req InviteSetPasswordRequest) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/invited-user/set-password", req, &out)
	return out, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var out TokenResponse
	err := c.post(ctx, "/refresh", RefreshRequest{RefreshToken: refreshToken}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context, accessToken string) (MeResponse, error) {
	var out MeResponse
	err := c.do(ctx, http.MethodGet, basePath+"/me", accessToken, nil, &out)
	return out, err
}

// CreateInvite lives under /api/v1/users and needs the inviter's token.
func (c *Client) CreateInvite(ctx context.Context, accessToken string, req CreateInviteRequest) (InviteResponse, error) {
	var out InviteResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/users/invite", accessToken, req, &out)
	return out, err
}
