package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the Postgres repositories.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectColumns = `id::text, user_id::text, type, specialty, date::text, time, status,
		patient_name, patient_age, phone, email, city, address, reason, services, urgency,
		cost::float8, daily_room_url, created_at`

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row; the database assigns the id.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if err := appt.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO appointments (user_id, type, specialty, date, time, status, patient_name,
			patient_age, phone, email, city, address, reason, services, urgency, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id::text, created_at
	`
	out := *appt
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		appt.UserID,
		string(appt.Kind),
		appt.Specialty,
		appt.Date,
		appt.Time,
		string(appt.Status),
		appt.PatientName,
		appt.PatientAge,
		appt.Phone,
		appt.Email,
		appt.City,
		appt.Address,
		appt.Reason,
		appt.Services,
		string(appt.Urgency),
		appt.Cost,
	).Scan(&out.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	out.CreatedAt = createdAt
	return &out, nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// ListByUser returns the user's appointments ordered by date ascending.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+selectColumns+` FROM appointments WHERE user_id = $1 ORDER BY date ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	out := make([]*Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	return out, nil
}

// UpdateStatus applies a forward-only change. The update is conditional on
// the status read so a concurrent change surfaces as ErrInvalidTransition.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, next Status) (*Appointment, error) {
	appt, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := appt.Status
	if err := appt.Transition(next); err != nil {
		return nil, err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2 AND status = $3`,
		string(next), id, string(prev),
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: update status failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	return appt, nil
}

// SetRoomURL records the video room for an appointment.
func (r *PostgresRepository) SetRoomURL(ctx context.Context, id, roomURL string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET daily_room_url = $1 WHERE id = $2`, roomURL, id)
	if err != nil {
		return fmt.Errorf("appointments: set room url failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt                  Appointment
		kind, status, urgency string
	)
	if err := row.Scan(
		&appt.ID,
		&appt.UserID,
		&kind,
		&appt.Specialty,
		&appt.Date,
		&appt.Time,
		&status,
		&appt.PatientName,
		&appt.PatientAge,
		&appt.Phone,
		&appt.Email,
		&appt.City,
		&appt.Address,
		&appt.Reason,
		&appt.Services,
		&urgency,
		&appt.Cost,
		&appt.RoomURL,
		&appt.CreatedAt,
	); err != nil {
		return nil, err
	}
	appt.Kind = Kind(kind)
	appt.Status = Status(status)
	appt.Urgency = Urgency(urgency)
	return &appt, nil
}
