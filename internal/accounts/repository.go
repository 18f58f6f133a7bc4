package accounts

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Repository persists accounts and role profiles. Upserts are keyed by id.
type Repository interface {
	GetAccount(ctx context.Context, id string) (*Account, error)
	UpsertAccount(ctx context.Context, acct *Account) error
	GetPatient(ctx context.Context, id string) (*PatientProfile, error)
	UpsertPatient(ctx context.Context, p *PatientProfile) error
	GetDoctor(ctx context.Context, id string) (*DoctorProfile, error)
	UpsertDoctor(ctx context.Context, d *DoctorProfile) error
	SetDoctorVerification(ctx context.Context, id string, status VerificationStatus) error
}

// InMemoryRepository is used in development and tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
	patients map[string]PatientProfile
	doctors  map[string]DoctorProfile
}

// NewInMemoryRepository creates an empty store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[string]Account),
		patients: make(map[string]PatientProfile),
		doctors:  make(map[string]DoctorProfile),
	}
}

func (r *InMemoryRepository) GetAccount(ctx context.Context, id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &acct, nil
}

func (r *InMemoryRepository) UpsertAccount(ctx context.Context, acct *Account) error {
	if err := validateAccount(acct); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *acct
	if prev, ok := r.accounts[acct.ID]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.accounts[acct.ID] = stored
	return nil
}

func (r *InMemoryRepository) GetPatient(ctx context.Context, id string) (*PatientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *InMemoryRepository) UpsertPatient(ctx context.Context, p *PatientProfile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return ErrMissingID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = *p
	return nil
}

func (r *InMemoryRepository) GetDoctor(ctx context.Context, id string) (*DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *InMemoryRepository) UpsertDoctor(ctx context.Context, d *DoctorProfile) error {
	if err := validateDoctor(d); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[d.ID] = *d
	return nil
}

func (r *InMemoryRepository) SetDoctorVerification(ctx context.Context, id string, status VerificationStatus) error {
	if !status.Valid() {
		return ErrInvalidVerification
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return ErrNotFound
	}
	d.VerificationStatus = status
	r.doctors[id] = d
	return nil
}

func validateAccount(acct *Account) error {
	if acct == nil || strings.TrimSpace(acct.ID) == "" {
		return ErrMissingID
	}
	if acct.Role != RolePatient && acct.Role != RoleDoctor {
		return ErrInvalidRole
	}
	return nil
}

func validateDoctor(d *DoctorProfile) error {
	if d == nil || strings.TrimSpace(d.ID) == "" {
		return ErrMissingID
	}
	if d.VerificationStatus == "" {
		d.VerificationStatus = VerificationPending
	}
	if !d.VerificationStatus.Valid() {
		return ErrInvalidVerification
	}
	return nil
}
