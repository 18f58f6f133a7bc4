package compliance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medexa/medexa-platform/pkg/logging"
)

func TestAuditService_LogEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)

	tests := []struct {
		name  string
		event AuditEvent
	}{
		{
			name:  "appointment status change",
			event: StatusChange(EventAppointmentStatusChanged, "staff-1", uuid.NewString(), "appointment", "confirmed", "completed"),
		},
		{
			name:  "doctor verification",
			event: StatusChange(EventDoctorVerified, "staff-2", uuid.NewString(), "doctor", "pending", "approved"),
		},
		{
			name:  "record viewed without actor",
			event: AuditEvent{EventType: EventRecordViewed, SubjectID: "appt-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectExec("INSERT INTO admin_audit_events").
				WillReturnResult(sqlmock.NewResult(1, 1))

			assert.NoError(t, service.LogEvent(context.Background(), tt.event))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_LogEventError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO admin_audit_events").WillReturnError(assert.AnError)

	err = NewAuditService(db).LogEvent(context.Background(), AuditEvent{EventType: EventRecordViewed, SubjectID: "x"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAuditService_QueryEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewAuditService(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "event_type", "actor_id", "subject_id", "details", "created_at",
	}).AddRow(
		uuid.NewString(), EventDoctorVerified, nil, "doc-1", []byte(`{"to_status":"approved"}`), now,
	)

	mock.ExpectQuery("SELECT (.+) FROM admin_audit_events").
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	events, err := service.QueryEvents(context.Background(), AuditFilter{
		SubjectID: "doc-1",
		StartTime: now.Add(-24 * time.Hour),
		EndTime:   now,
		Limit:     100,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventDoctorVerified, events[0].EventType)
	assert.Empty(t, events[0].ActorID)
	assert.JSONEq(t, `{"to_status":"approved"}`, string(events[0].Details))
}

func TestStatusChangeDetails(t *testing.T) {
	ev := StatusChange(EventAppointmentStatusChanged, "staff-1", "appt-1", "appointment", "pending", "cancelled")

	var details AuditDetails
	require.NoError(t, json.Unmarshal(ev.Details, &details))
	assert.Equal(t, AuditDetails{Resource: "appointment", FromStatus: "pending", ToStatus: "cancelled"}, details)
	assert.Equal(t, "staff-1", ev.ActorID)
}

func TestLogAuditorQuery(t *testing.T) {
	a := NewLogAuditor(logging.Discard())
	ctx := context.Background()

	require.NoError(t, a.LogEvent(ctx, StatusChange(EventAppointmentStatusChanged, "s1", "appt-1", "appointment", "confirmed", "completed")))
	require.NoError(t, a.LogEvent(ctx, StatusChange(EventDoctorVerified, "s1", "doc-1", "doctor", "pending", "rejected")))
	require.NoError(t, a.LogEvent(ctx, StatusChange(EventAppointmentStatusChanged, "s2", "appt-2", "appointment", "pending", "confirmed")))

	all, err := a.QueryEvents(ctx, AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "appt-2", all[0].SubjectID, "newest first")
	assert.NotEmpty(t, all[0].ID)

	byType, err := a.QueryEvents(ctx, AuditFilter{EventType: EventAppointmentStatusChanged, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "appt-2", byType[0].SubjectID)

	byActor, err := a.QueryEvents(ctx, AuditFilter{ActorID: "s1", Offset: 1})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, "appt-1", byActor[0].SubjectID)

	none, err := a.QueryEvents(ctx, AuditFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}
