// Package session resolves the signed-in user and broadcasts auth changes.
package session

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoSession means the request carries no valid access token.
	ErrNoSession = errors.New("session: no active session")
	ErrSignUp    = errors.New("session: sign-up failed")
)

// Metadata is the profile data attached to the auth user at sign-up.
type Metadata struct {
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Identity is the authenticated user as the auth service reports it.
type Identity struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Metadata Metadata `json:"user_metadata"`
}

// SignUpResult is returned from SignUp. Identity and AccessToken are set only
// when the auth service confirms the account immediately.
type SignUpResult struct {
	UserID      string
	Identity    *Identity
	AccessToken string
}

// Authenticator is the auth collaborator.
type Authenticator interface {
	CurrentUser(ctx context.Context) (*Identity, error)
	SignUp(ctx context.Context, email, password string, md Metadata) (*SignUpResult, error)
	SignOut(ctx context.Context) error
}

type tokenKey struct{}

// WithAccessToken stores the bearer token for the authenticator to read.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, strings.TrimSpace(token))
}

// AccessTokenFromContext returns the token set by WithAccessToken.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}

func metadataFromMap(m map[string]any) Metadata {
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	return Metadata{
		Role:      str("role"),
		FirstName: str("first_name"),
		LastName:  str("last_name"),
		Phone:     str("phone"),
	}
}

func (m Metadata) asMap() map[string]any {
	return map[string]any{
		"role":       m.Role,
		"first_name": m.FirstName,
		"last_name":  m.LastName,
		"phone":      m.Phone,
	}
}
