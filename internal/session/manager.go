package session

import (
	"context"

	"github.com/medexa/medexa-platform/pkg/logging"
)

// Manager wraps an Authenticator and publishes sign-up and sign-out events
// on the hub. It is itself an Authenticator.
type Manager struct {
	auth   Authenticator
	hub    *Hub
	logger *logging.Logger
}

// NewManager wires auth to hub.
func NewManager(auth Authenticator, hub *Hub, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Manager{auth: auth, hub: hub, logger: logger}
}

// Hub returns the hub events are published on.
func (m *Manager) Hub() *Hub { return m.hub }

func (m *Manager) CurrentUser(ctx context.Context) (*Identity, error) {
	return m.auth.CurrentUser(ctx)
}

func (m *Manager) SignUp(ctx context.Context, email, password string, md Metadata) (*SignUpResult, error) {
	res, err := m.auth.SignUp(ctx, email, password, md)
	if err != nil {
		return nil, err
	}
	m.logger.Info("user signed up", "user_id", res.UserID, "role", md.Role, "confirmed", res.Identity != nil)
	m.hub.Publish(ctx, Event{Type: EventSignedUp, UserID: res.UserID, Identity: res.Identity})
	return res, nil
}

// SignOut revokes the session, then notifies listeners with the identity
// that was signed in.
func (m *Manager) SignOut(ctx context.Context) error {
	id, err := m.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := m.auth.SignOut(ctx); err != nil {
		return err
	}
	m.hub.Publish(ctx, Event{Type: EventSignedOut, UserID: id.ID, Identity: id})
	return nil
}
