// Package profile assembles the signed-in user's dashboard and keeps the
// account and role profile rows in place for every authenticated user.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/observability/metrics"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// DefaultFirstName is used when neither the profile nor the auth metadata
// carries a name.
const DefaultFirstName = "Usuario"

// Provisioner creates missing account and profile rows. Existing rows are
// never overwritten.
type Provisioner struct {
	repo    accounts.Repository
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

func NewProvisioner(repo accounts.Repository, m *metrics.BookingMetrics, logger *logging.Logger) *Provisioner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Provisioner{repo: repo, metrics: m, logger: logger}
}

// EnsureProfile makes sure the users row and the role profile exist for id.
// Calling it again for the same identity is a no-op.
func (p *Provisioner) EnsureProfile(ctx context.Context, id *session.Identity) (*accounts.Account, error) {
	if id == nil || id.ID == "" {
		return nil, accounts.ErrMissingID
	}

	acct, err := p.repo.GetAccount(ctx, id.ID)
	switch {
	case err == nil:
	case errors.Is(err, accounts.ErrNotFound):
		role, rerr := accounts.ParseRole(id.Metadata.Role)
		if rerr != nil {
			role = accounts.RolePatient
		}
		acct = &accounts.Account{ID: id.ID, Email: id.Email, Role: role}
		if err := p.repo.UpsertAccount(ctx, acct); err != nil {
			return nil, fmt.Errorf("profile: create account: %w", err)
		}
		p.logger.Info("account provisioned", "user_id", id.ID, "role", role)
	default:
		return nil, fmt.Errorf("profile: load account: %w", err)
	}

	switch acct.Role {
	case accounts.RoleDoctor:
		if _, err := p.ensureDoctor(ctx, id); err != nil {
			return nil, err
		}
	default:
		if _, err := p.EnsurePatient(ctx, id); err != nil {
			return nil, err
		}
	}
	return acct, nil
}

// EnsurePatient returns the patient profile for id, creating it from the
// auth metadata when the row is missing.
func (p *Provisioner) EnsurePatient(ctx context.Context, id *session.Identity) (*accounts.PatientProfile, error) {
	existing, err := p.repo.GetPatient(ctx, id.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, accounts.ErrNotFound) {
		return nil, fmt.Errorf("profile: load patient: %w", err)
	}

	first := id.Metadata.FirstName
	if first == "" {
		first = DefaultFirstName
	}
	created := &accounts.PatientProfile{
		ID:        id.ID,
		FirstName: first,
		LastName:  id.Metadata.LastName,
		Phone:     id.Metadata.Phone,
	}
	if err := p.repo.UpsertPatient(ctx, created); err != nil {
		return nil, fmt.Errorf("profile: create patient: %w", err)
	}
	p.metrics.ObserveProfileRepair()
	p.logger.Info("patient profile provisioned", "user_id", id.ID)
	return created, nil
}

func (p *Provisioner) ensureDoctor(ctx context.Context, id *session.Identity) (*accounts.DoctorProfile, error) {
	existing, err := p.repo.GetDoctor(ctx, id.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, accounts.ErrNotFound) {
		return nil, fmt.Errorf("profile: load doctor: %w", err)
	}
	created := &accounts.DoctorProfile{
		ID:                 id.ID,
		FirstName:          id.Metadata.FirstName,
		LastName:           id.Metadata.LastName,
		Phone:              id.Metadata.Phone,
		Email:              id.Email,
		VerificationStatus: accounts.VerificationPending,
	}
	if err := p.repo.UpsertDoctor(ctx, created); err != nil {
		return nil, fmt.Errorf("profile: create doctor: %w", err)
	}
	p.logger.Info("doctor profile provisioned", "user_id", id.ID)
	return created, nil
}

// SignUpListener provisions profiles for sign-ups that come back with a
// confirmed identity.
func (p *Provisioner) SignUpListener() session.Listener {
	return func(ctx context.Context, ev session.Event) {
		if ev.Type != session.EventSignedUp || ev.Identity == nil {
			return
		}
		if _, err := p.EnsureProfile(ctx, ev.Identity); err != nil {
			p.logger.Error("failed to provision profile after sign-up", "error", err, "user_id", ev.UserID)
		}
	}
}
