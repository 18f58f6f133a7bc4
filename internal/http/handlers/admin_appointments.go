package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/compliance"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// AdminAppointmentsHandler lets staff look up appointments and move their
// status forward.
type AdminAppointmentsHandler struct {
	repo   appointments.Repository
	audit  compliance.Auditor
	logger *logging.Logger
}

// NewAdminAppointmentsHandler wires the handler. A nil auditor disables the
// audit trail.
func NewAdminAppointmentsHandler(repo appointments.Repository, audit compliance.Auditor, logger *logging.Logger) *AdminAppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{repo: repo, audit: audit, logger: logger}
}

// Routes mounts the handler under /appointments.
func (h *AdminAppointmentsHandler) Routes(r chi.Router) {
	r.Get("/appointments/{appointmentID}", h.Get)
	r.Patch("/appointments/{appointmentID}/status", h.UpdateStatus)
}

// Get returns one appointment.
// GET /admin/appointments/{appointmentID}
func (h *AdminAppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
	if errors.Is(err, appointments.ErrNotFound) {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("admin appointment lookup failed", "error", err)
		jsonError(w, "failed to load appointment", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// UpdateStatus moves an appointment to the requested status. Backward moves
// and changes out of a terminal status are rejected with 409.
// PATCH /admin/appointments/{appointmentID}/status
func (h *AdminAppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeStatus(r)
	if !ok {
		jsonError(w, "status is required", http.StatusBadRequest)
		return
	}
	next := appointments.Status(raw)
	if !next.Valid() {
		jsonError(w, "invalid status", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "appointmentID")
	current, err := h.repo.GetByID(ctx, id)
	if errors.Is(err, appointments.ErrNotFound) {
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("admin appointment lookup failed", "error", err, "appointment_id", id)
		jsonError(w, "failed to load appointment", http.StatusBadGateway)
		return
	}

	appt, err := h.repo.UpdateStatus(ctx, id, next)
	switch {
	case err == nil:
	case errors.Is(err, appointments.ErrNotFound):
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	case errors.Is(err, appointments.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	default:
		h.logger.Error("admin status update failed", "error", err, "appointment_id", id)
		jsonError(w, "failed to update status", http.StatusBadGateway)
		return
	}

	staff := staffID(ctx)
	h.logger.Info("appointment status changed", "appointment_id", id, "status", next, "staff", staff)
	recordAudit(ctx, h.audit, h.logger, compliance.StatusChange(
		compliance.EventAppointmentStatusChanged, staff, id, "appointment", string(current.Status), string(next),
	))
	writeJSON(w, http.StatusOK, appt)
}
