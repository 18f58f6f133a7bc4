package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryAuthenticator issues opaque tokens for local development and tests.
// Sign-ups are confirmed immediately.
type InMemoryAuthenticator struct {
	mu     sync.RWMutex
	tokens map[string]Identity
	emails map[string]string
}

// NewInMemoryAuthenticator creates an empty authenticator.
func NewInMemoryAuthenticator() *InMemoryAuthenticator {
	return &InMemoryAuthenticator{
		tokens: make(map[string]Identity),
		emails: make(map[string]string),
	}
}

// Issue returns a token for id, registering it if needed.
func (a *InMemoryAuthenticator) Issue(id Identity) string {
	if id.ID == "" {
		id.ID = uuid.NewString()
	}
	tok := uuid.NewString()
	a.mu.Lock()
	a.tokens[tok] = id
	a.emails[strings.ToLower(id.Email)] = id.ID
	a.mu.Unlock()
	return tok
}

func (a *InMemoryAuthenticator) CurrentUser(ctx context.Context) (*Identity, error) {
	tok, ok := AccessTokenFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	a.mu.RLock()
	id, found := a.tokens[tok]
	a.mu.RUnlock()
	if !found {
		return nil, ErrNoSession
	}
	return &id, nil
}

func (a *InMemoryAuthenticator) SignUp(ctx context.Context, email, password string, md Metadata) (*SignUpResult, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	a.mu.RLock()
	_, exists := a.emails[key]
	a.mu.RUnlock()
	if exists {
		return nil, ErrSignUp
	}
	id := Identity{ID: uuid.NewString(), Email: email, Metadata: md}
	tok := a.Issue(id)
	return &SignUpResult{UserID: id.ID, Identity: &id, AccessToken: tok}, nil
}

func (a *InMemoryAuthenticator) SignOut(ctx context.Context) error {
	tok, ok := AccessTokenFromContext(ctx)
	if !ok {
		return ErrNoSession
	}
	a.mu.Lock()
	delete(a.tokens, tok)
	a.mu.Unlock()
	return nil
}
