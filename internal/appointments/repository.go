package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	// ListByUser returns the user's appointments ordered by date ascending.
	ListByUser(ctx context.Context, userID string) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id string, next Status) (*Appointment, error)
	SetRoomURL(ctx context.Context, id, roomURL string) error
}

// InMemoryRepository keeps appointments in process memory.
type InMemoryRepository struct {
	mu    sync.RWMutex
	seq   int
	items map[string]*stored
}

type stored struct {
	appt *Appointment
	seq  int
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[string]*stored)}
}

// Create validates and stores a copy of appt, assigning its id.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if err := appt.Validate(); err != nil {
		return nil, err
	}
	cp := *appt
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	r.seq++
	r.items[cp.ID] = &stored{appt: &cp, seq: r.seq}
	r.mu.Unlock()

	out := cp
	return &out, nil
}

// GetByID returns a copy of the stored appointment.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.appt
	return &out, nil
}

// ListByUser returns copies ordered by date, then insertion order.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string) ([]*Appointment, error) {
	r.mu.RLock()
	matches := make([]*stored, 0)
	for _, s := range r.items {
		if s.appt.UserID == userID {
			matches = append(matches, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].appt.Date != matches[j].appt.Date {
			return matches[i].appt.Date < matches[j].appt.Date
		}
		return matches[i].seq < matches[j].seq
	})

	out := make([]*Appointment, 0, len(matches))
	for _, s := range matches {
		cp := *s.appt
		out = append(out, &cp)
	}
	return out, nil
}

// UpdateStatus applies a forward-only status change.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, next Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := s.appt.Transition(next); err != nil {
		return nil, err
	}
	out := *s.appt
	return &out, nil
}

// SetRoomURL records the video room for an appointment.
func (r *InMemoryRepository) SetRoomURL(ctx context.Context, id, roomURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	s.appt.RoomURL = roomURL
	return nil
}
