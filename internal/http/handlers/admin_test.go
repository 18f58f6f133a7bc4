package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/compliance"
	"github.com/medexa/medexa-platform/pkg/logging"
)

func adminRouter(appts appointments.Repository, accts accounts.Repository) http.Handler {
	return adminRouterWithAudit(appts, accts, nil)
}

func adminRouterWithAudit(appts appointments.Repository, accts accounts.Repository, audit *compliance.LogAuditor) http.Handler {
	r := chi.NewRouter()
	var auditor compliance.Auditor
	if audit != nil {
		auditor = audit
		NewAdminAuditHandler(audit, logging.Discard()).Routes(r)
	}
	NewAdminAppointmentsHandler(appts, auditor, logging.Discard()).Routes(r)
	NewAdminDoctorsHandler(accts, auditor, logging.Discard()).Routes(r)
	return r
}

func patch(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body)))
	return rec
}

func seedAppointment(t *testing.T, repo *appointments.InMemoryRepository, status appointments.Status) *appointments.Appointment {
	t.Helper()
	appt, err := repo.Create(context.Background(), &appointments.Appointment{
		UserID: "user-1",
		Kind:   appointments.KindTelemedicine,
		Date:   "2025-06-01",
		Time:   "10:00 AM",
		Status: status,
		Cost:   appointments.TelemedicineFee,
	})
	require.NoError(t, err)
	return appt
}

func TestAdminUpdateStatus(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	appt := seedAppointment(t, repo, appointments.StatusConfirmed)
	h := adminRouter(repo, accounts.NewInMemoryRepository())

	rec := patch(h, "/appointments/"+appt.ID+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out appointments.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, appointments.StatusCompleted, out.Status)

	rec = patch(h, "/appointments/"+appt.ID+"/status", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminUpdateStatusErrors(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	appt := seedAppointment(t, repo, appointments.StatusPending)
	h := adminRouter(repo, accounts.NewInMemoryRepository())

	assert.Equal(t, http.StatusBadRequest, patch(h, "/appointments/"+appt.ID+"/status", `{"status":"archived"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(h, "/appointments/"+appt.ID+"/status", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, patch(h, "/appointments/missing/status", `{"status":"cancelled"}`).Code)
}

func TestAdminVerifyDoctor(t *testing.T) {
	accts := accounts.NewInMemoryRepository()
	require.NoError(t, accts.UpsertDoctor(context.Background(), &accounts.DoctorProfile{ID: "doc-1", FirstName: "Luis"}))
	h := adminRouter(appointments.NewInMemoryRepository(), accts)

	rec := patch(h, "/doctors/doc-1/verification", `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := accts.GetDoctor(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, accounts.VerificationApproved, doc.VerificationStatus)

	assert.Equal(t, http.StatusConflict, patch(h, "/doctors/doc-1/verification", `{"status":"rejected"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(h, "/doctors/doc-1/verification", `{"status":"pending"}`).Code)
	assert.Equal(t, http.StatusNotFound, patch(h, "/doctors/nobody/verification", `{"status":"approved"}`).Code)
}

func TestAdminActionsAreAudited(t *testing.T) {
	ctx := context.Background()
	appts := appointments.NewInMemoryRepository()
	appt := seedAppointment(t, appts, appointments.StatusConfirmed)
	accts := accounts.NewInMemoryRepository()
	require.NoError(t, accts.UpsertDoctor(ctx, &accounts.DoctorProfile{ID: "doc-1", FirstName: "Luis"}))
	audit := compliance.NewLogAuditor(logging.Discard())
	h := adminRouterWithAudit(appts, accts, audit)

	require.Equal(t, http.StatusOK, patch(h, "/appointments/"+appt.ID+"/status", `{"status":"completed"}`).Code)
	require.Equal(t, http.StatusOK, patch(h, "/doctors/doc-1/verification", `{"status":"rejected"}`).Code)
	// rejected transitions leave no trail
	require.Equal(t, http.StatusConflict, patch(h, "/appointments/"+appt.ID+"/status", `{"status":"confirmed"}`).Code)

	events, err := audit.QueryEvents(ctx, compliance.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, compliance.EventDoctorVerified, events[0].EventType)
	assert.Equal(t, "doc-1", events[0].SubjectID)
	assert.JSONEq(t, `{"resource":"doctor","from_status":"pending","to_status":"rejected"}`, string(events[0].Details))
	assert.JSONEq(t, `{"resource":"appointment","from_status":"confirmed","to_status":"completed"}`, string(events[1].Details))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?subject_id="+appt.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Events []compliance.AuditEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, compliance.EventAppointmentStatusChanged, body.Events[0].EventType)
}

func TestAdminAuditQueryValidation(t *testing.T) {
	h := adminRouterWithAudit(appointments.NewInMemoryRepository(), accounts.NewInMemoryRepository(), compliance.NewLogAuditor(logging.Discard()))
	for _, q := range []string{"limit=0", "limit=abc", "offset=-1", "since=yesterday", "until=2025-13-01"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events":[]}`, rec.Body.String())
}
