// Package compliance keeps the audit trail of staff actions on patient and
// doctor records.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medexa/medexa-platform/pkg/logging"
)

// AuditEventType represents the type of audited action.
type AuditEventType string

const (
	// EventAppointmentStatusChanged is logged when staff move an appointment.
	EventAppointmentStatusChanged AuditEventType = "admin.appointment_status_changed"
	// EventDoctorVerified is logged when staff approve or reject a doctor.
	EventDoctorVerified AuditEventType = "admin.doctor_verification_changed"
	// EventRecordViewed is logged when staff open a patient or doctor record.
	EventRecordViewed AuditEventType = "admin.record_viewed"
)

// AuditEvent is an immutable audit record. Details never carry patient data,
// only identifiers and status values.
type AuditEvent struct {
	ID        string          `json:"id"`
	EventType AuditEventType  `json:"event_type"`
	ActorID   string          `json:"actor_id"`
	SubjectID string          `json:"subject_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditDetails contains event-specific details.
type AuditDetails struct {
	Resource   string `json:"resource,omitempty"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
}

// Auditor records staff actions. AuditService and LogAuditor implement it.
type Auditor interface {
	LogEvent(ctx context.Context, event AuditEvent) error
}

// Trail is an Auditor that can also be queried.
type Trail interface {
	Auditor
	QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)
}

// AuditService writes audit events to the admin_audit_events table.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

func normalize(event AuditEvent) AuditEvent {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if len(event.Details) == 0 {
		event.Details = json.RawMessage(`{}`)
	}
	return event
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	event = normalize(event)

	query := `
		INSERT INTO admin_audit_events (
			id, event_type, actor_id, subject_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		nullString(event.ActorID),
		event.SubjectID,
		[]byte(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// QueryEvents retrieves audit events with filters, newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, actor_id, subject_id, details, created_at
		FROM admin_audit_events
		WHERE 1 = 1
	`
	var args []any
	argIdx := 1

	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND subject_id = $%d", argIdx)
		args = append(args, filter.SubjectID)
		argIdx++
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", argIdx)
		args = append(args, filter.ActorID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var (
			e       AuditEvent
			actor   sql.NullString
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.EventType, &actor, &e.SubjectID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.ActorID = actor.String
		e.Details = json.RawMessage(details)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: failed to read audit events: %w", err)
	}
	return events, nil
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	SubjectID string
	ActorID   string
	EventType AuditEventType
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// LogAuditor keeps events in memory and writes them to the structured log.
// Used when no database is configured.
type LogAuditor struct {
	logger *logging.Logger

	mu     sync.Mutex
	events []AuditEvent
}

// NewLogAuditor creates a log-backed auditor.
func NewLogAuditor(logger *logging.Logger) *LogAuditor {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogAuditor{logger: logger}
}

// LogEvent records the event and emits an info line.
func (a *LogAuditor) LogEvent(ctx context.Context, event AuditEvent) error {
	event = normalize(event)
	a.mu.Lock()
	a.events = append(a.events, event)
	a.mu.Unlock()
	a.logger.Info("audit event",
		"event_type", event.EventType,
		"actor_id", event.ActorID,
		"subject_id", event.SubjectID,
		"details", string(event.Details),
	)
	return nil
}

// QueryEvents filters the in-memory events, newest first.
func (a *LogAuditor) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []AuditEvent
	for i := len(a.events) - 1; i >= 0; i-- {
		e := a.events[i]
		switch {
		case filter.SubjectID != "" && e.SubjectID != filter.SubjectID,
			filter.ActorID != "" && e.ActorID != filter.ActorID,
			filter.EventType != "" && e.EventType != filter.EventType,
			!filter.StartTime.IsZero() && e.CreatedAt.Before(filter.StartTime),
			!filter.EndTime.IsZero() && e.CreatedAt.After(filter.EndTime):
			continue
		}
		out = append(out, e)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// StatusChange builds the event for a status transition on resource.
func StatusChange(eventType AuditEventType, actorID, subjectID, resource, from, to string) AuditEvent {
	details, _ := json.Marshal(AuditDetails{Resource: resource, FromStatus: from, ToStatus: to})
	return AuditEvent{
		EventType: eventType,
		ActorID:   actorID,
		SubjectID: subjectID,
		Details:   details,
	}
}
