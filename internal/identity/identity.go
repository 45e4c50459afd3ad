package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	auth "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

var (
	ErrUserExists   = errors.New("identity: user already registered")
	ErrInvalidToken = errors.New("identity: invalid or expired token")
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrRejected wraps a validation failure reported by the provider, such
	// as a password that fails the project's password policy.
	ErrRejected = errors.New("identity: rejected by provider")
)

// Error codes GoTrue reports for an email that already has an account.
var existsCodes = map[string]bool{
	"email_exists":        true,
	"user_already_exists": true,
}

// User is the subset of a Supabase Auth user this service uses.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// ProviderError is a non-2xx response from Supabase Auth.
type ProviderError struct {
	Status  int
	Code    string // GoTrue error_code, empty on older deployments
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity: status %d: %s", e.Status, e.Message)
}

// Client talks to the Supabase Auth (GoTrue) API with the service role key.
type Client struct {
	authURL    string
	serviceKey string
	timeout    time.Duration
}

// New creates a Client for the project at baseURL, e.g. https://xyz.supabase.co.
func New(baseURL, serviceKey string) *Client {
	return &Client{
		authURL:    strings.TrimRight(baseURL, "/") + "/auth/v1",
		serviceKey: serviceKey,
		timeout:    10 * time.Second,
	}
}

// session builds an auth-go client bound to ctx that authenticates with
// token. A fresh client per call keeps tokens and contexts from leaking
// between concurrent requests.
func (c *Client) session(ctx context.Context, token string) (auth.Client, *transport) {
	t := &transport{ctx: ctx, base: http.DefaultTransport}
	cl := auth.New("", c.serviceKey).
		WithCustomAuthURL(c.authURL).
		WithClient(http.Client{Transport: t, Timeout: c.timeout}).
		WithToken(token)
	return cl, t
}

// CreateUser registers an account with a confirmed email.
func (c *Client) CreateUser(ctx context.Context, email, password, fullName string) (*User, error) {
	cl, t := c.session(ctx, c.serviceKey)
	resp, err := cl.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"full_name": fullName},
	})
	if pe := t.failure; pe != nil {
		switch {
		case isExists(pe):
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		case pe.Status == http.StatusBadRequest || pe.Status == http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: %w", ErrRejected, pe)
		}
		return nil, pe
	}
	if err != nil {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	return &User{ID: resp.ID, Email: resp.Email}, nil
}

// DeleteUser removes an account. Deleting an unknown user returns ErrUserNotFound.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	cl, t := c.session(ctx, c.serviceKey)
	err := cl.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id})
	if pe := t.failure; pe != nil {
		if pe.Status == http.StatusNotFound {
			return ErrUserNotFound
		}
		return pe
	}
	if err != nil {
		return fmt.Errorf("identity: delete user: %w", err)
	}
	return nil
}

// GetUser resolves an end-user access token to its user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	cl, t := c.session(ctx, accessToken)
	resp, err := cl.GetUser()
	if pe := t.failure; pe != nil {
		if pe.Status == http.StatusUnauthorized || pe.Status == http.StatusForbidden {
			return nil, ErrInvalidToken
		}
		return nil, pe
	}
	if err != nil {
		return nil, fmt.Errorf("identity: get user: %w", err)
	}
	return &User{ID: resp.ID, Email: resp.Email}, nil
}

func isExists(pe *ProviderError) bool {
	if existsCodes[pe.Code] {
		return true
	}
	// Deployments predating error_code only carry the message.
	return pe.Code == "" && pe.Status == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(pe.Message), "already been registered")
}

// transport binds requests to the caller's context and captures the
// provider's error body, which auth-go only reports as text.
type transport struct {
	ctx     context.Context
	base    http.RoundTripper
	failure *ProviderError
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		t.failure = providerError(resp)
		return nil, t.failure
	}
	return resp, nil
}

func providerError(resp *http.Response) *ProviderError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	pe := &ProviderError{Status: resp.StatusCode}
	var e struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(b, &e) == nil {
		pe.Code = e.ErrorCode
		for _, s := range []string{e.Msg, e.Message, e.ErrorDescription} {
			if s != "" {
				pe.Message = s
				break
			}
		}
	}
	if pe.Message == "" {
		pe.Message = strings.TrimSpace(string(b))
	}
	return pe
}
