package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/compliance"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// AdminDoctorsHandler reviews doctor registrations.
type AdminDoctorsHandler struct {
	repo   accounts.Repository
	audit  compliance.Auditor
	logger *logging.Logger
}

func NewAdminDoctorsHandler(repo accounts.Repository, audit compliance.Auditor, logger *logging.Logger) *AdminDoctorsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDoctorsHandler{repo: repo, audit: audit, logger: logger}
}

func (h *AdminDoctorsHandler) Routes(r chi.Router) {
	r.Get("/doctors/{doctorID}", h.Get)
	r.Patch("/doctors/{doctorID}/verification", h.Verify)
}

// Get returns a doctor profile with its document paths.
// GET /admin/doctors/{doctorID}
func (h *AdminDoctorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.GetDoctor(r.Context(), chi.URLParam(r, "doctorID"))
	if errors.Is(err, accounts.ErrNotFound) {
		jsonError(w, "doctor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("admin doctor lookup failed", "error", err)
		jsonError(w, "failed to load doctor", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Verify approves or rejects a pending registration.
// PATCH /admin/doctors/{doctorID}/verification
func (h *AdminDoctorsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeStatus(r)
	if !ok {
		jsonError(w, "status is required", http.StatusBadRequest)
		return
	}
	next := accounts.VerificationStatus(raw)
	if next != accounts.VerificationApproved && next != accounts.VerificationRejected {
		jsonError(w, "status must be approved or rejected", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "doctorID")
	doc, err := h.repo.GetDoctor(ctx, id)
	if errors.Is(err, accounts.ErrNotFound) {
		jsonError(w, "doctor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("admin doctor lookup failed", "error", err, "doctor_id", id)
		jsonError(w, "failed to load doctor", http.StatusBadGateway)
		return
	}
	if doc.VerificationStatus != accounts.VerificationPending {
		jsonError(w, "doctor is already "+string(doc.VerificationStatus), http.StatusConflict)
		return
	}
	if err := h.repo.SetDoctorVerification(ctx, id, next); err != nil {
		h.logger.Error("admin verification update failed", "error", err, "doctor_id", id)
		jsonError(w, "failed to update verification", http.StatusBadGateway)
		return
	}

	staff := staffID(ctx)
	h.logger.Info("doctor verification changed", "doctor_id", id, "status", next, "staff", staff)
	recordAudit(ctx, h.audit, h.logger, compliance.StatusChange(
		compliance.EventDoctorVerified, staff, id, "doctor", string(doc.VerificationStatus), string(next),
	))
	doc.VerificationStatus = next
	writeJSON(w, http.StatusOK, doc)
}
