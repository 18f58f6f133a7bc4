package appointments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
)

const table = "appointments"

// RESTClient is the part of the Supabase client used for table access.
// Both *supabase.Client and *postgrest.Client satisfy it.
type RESTClient interface {
	From(table string) *postgrest.QueryBuilder
}

// SupabaseRepository stores appointments through the Supabase REST API.
type SupabaseRepository struct {
	client RESTClient
}

// NewSupabaseRepository wraps a Supabase REST client.
func NewSupabaseRepository(client RESTClient) *SupabaseRepository {
	if client == nil {
		panic("appointments: supabase client required")
	}
	return &SupabaseRepository{client: client}
}

type insertRow struct {
	UserID      string  `json:"user_id"`
	Kind        Kind    `json:"type"`
	Specialty   string  `json:"specialty"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Status      Status  `json:"status"`
	PatientName string  `json:"patient_name"`
	PatientAge  int     `json:"patient_age"`
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	City        string  `json:"city"`
	Address     string  `json:"address,omitempty"`
	Reason      string  `json:"reason"`
	Services    string  `json:"services,omitempty"`
	Urgency     Urgency `json:"urgency,omitempty"`
	Cost        float64 `json:"cost"`
}

// Create inserts the record and returns the stored representation.
func (r *SupabaseRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if err := appt.Validate(); err != nil {
		return nil, err
	}
	row := insertRow{
		UserID:      appt.UserID,
		Kind:        appt.Kind,
		Specialty:   appt.Specialty,
		Date:        appt.Date,
		Time:        appt.Time,
		Status:      appt.Status,
		PatientName: appt.PatientName,
		PatientAge:  appt.PatientAge,
		Phone:       appt.Phone,
		Email:       appt.Email,
		City:        appt.City,
		Address:     appt.Address,
		Reason:      appt.Reason,
		Services:    appt.Services,
		Urgency:     appt.Urgency,
		Cost:        appt.Cost,
	}

	data, _, err := r.client.From(table).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	created, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("appointments: insert returned no rows")
	}
	return created[0], nil
}

// GetByID fetches one appointment.
func (r *SupabaseRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	data, _, err := r.client.From(table).Select("*", "", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// ListByUser returns the user's appointments ordered by date ascending.
func (r *SupabaseRepository) ListByUser(ctx context.Context, userID string) ([]*Appointment, error) {
	data, _, err := r.client.From(table).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("date", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	return decodeRows(data)
}

// UpdateStatus applies a forward-only change, conditional on the status read.
func (r *SupabaseRepository) UpdateStatus(ctx context.Context, id string, next Status) (*Appointment, error) {
	appt, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := appt.Status
	if err := appt.Transition(next); err != nil {
		return nil, err
	}

	data, _, err := r.client.From(table).
		Update(map[string]any{"status": next}, "representation", "").
		Eq("id", id).
		Eq("status", string(prev)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("appointments: update status failed: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	return rows[0], nil
}

// SetRoomURL records the video room for an appointment.
func (r *SupabaseRepository) SetRoomURL(ctx context.Context, id, roomURL string) error {
	data, _, err := r.client.From(table).
		Update(map[string]any{"daily_room_url": roomURL}, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("appointments: set room url failed: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeRows(data []byte) ([]*Appointment, error) {
	out := make([]*Appointment, 0)
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("appointments: decode rows: %w", err)
	}
	return out, nil
}
