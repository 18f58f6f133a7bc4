package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// GoTrueAPI is the part of the Supabase auth client used here.
// gotrue.Client (and supabase.Client.Auth) satisfies it.
type GoTrueAPI interface {
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	WithToken(token string) gotrue.Client
}

// SupabaseClaims are the access-token claims issued by Supabase auth.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// SupabaseAuthenticator verifies access tokens with the project's JWT secret
// and calls the auth API for sign-up and sign-out.
type SupabaseAuthenticator struct {
	api    GoTrueAPI
	secret []byte
}

// NewSupabaseAuthenticator builds an authenticator. An empty secret makes
// every token invalid.
func NewSupabaseAuthenticator(api GoTrueAPI, jwtSecret string) *SupabaseAuthenticator {
	if api == nil {
		panic("session: gotrue client required")
	}
	return &SupabaseAuthenticator{api: api, secret: []byte(jwtSecret)}
}

// CurrentUser returns the identity carried by the request's access token.
func (a *SupabaseAuthenticator) CurrentUser(ctx context.Context) (*Identity, error) {
	tok, ok := AccessTokenFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return a.verify(tok)
}

func (a *SupabaseAuthenticator) verify(tokenString string) (*Identity, error) {
	if len(a.secret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret not configured", ErrNoSession)
	}
	claims := &SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrNoSession)
	}
	return &Identity{
		ID:       claims.Subject,
		Email:    claims.Email,
		Metadata: metadataFromMap(claims.UserMetadata),
	}, nil
}

// SignUp registers a new user with the metadata attached.
func (a *SupabaseAuthenticator) SignUp(ctx context.Context, email, password string, md Metadata) (*SignUpResult, error) {
	resp, err := a.api.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     md.asMap(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignUp, err)
	}

	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	result := &SignUpResult{UserID: user.ID.String()}
	if resp.AccessToken != "" {
		result.AccessToken = resp.AccessToken
		result.Identity = &Identity{
			ID:       user.ID.String(),
			Email:    user.Email,
			Metadata: metadataFromMap(user.UserMetadata),
		}
	}
	return result, nil
}

// SignOut revokes the request's session.
func (a *SupabaseAuthenticator) SignOut(ctx context.Context) error {
	tok, ok := AccessTokenFromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	if err := a.api.WithToken(tok).Logout(); err != nil {
		return fmt.Errorf("session: sign-out failed: %w", err)
	}
	return nil
}
