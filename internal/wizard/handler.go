package wizard

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/observability/metrics"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// DraftTokenHeader carries the owner token returned when a wizard starts.
const DraftTokenHeader = "X-Draft-Token"

// Handler exposes the wizards over HTTP.
type Handler struct {
	store     DraftStore
	submitter Submitter
	auth      session.Authenticator
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// NewHandler creates a wizard handler. auth may be nil, in which case drafts
// are never tagged with a user.
func NewHandler(store DraftStore, submitter Submitter, auth session.Authenticator, logger *logging.Logger) *Handler {
	if store == nil {
		panic("wizard: draft store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, submitter: submitter, auth: auth, logger: logger}
}

// WithMetrics records advance attempts on m.
func (h *Handler) WithMetrics(m *metrics.BookingMetrics) *Handler {
	h.metrics = m
	return h
}

// Routes mounts the wizard endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/catalog/{kind}", h.GetCatalog)
	r.Post("/wizards", h.Start)
	r.Route("/wizards/{draftID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Discard)
		r.Put("/fields", h.SetFields)
		r.Post("/services", h.ChangeService)
		r.Post("/advance", h.Advance)
		r.Post("/retreat", h.Retreat)
		r.Post("/submit", h.Submit)
		r.Post("/reset", h.Reset)
	})
}

type wizardView struct {
	ID            string             `json:"id"`
	Kind          appointments.Kind  `json:"kind"`
	Step          Step               `json:"step"`
	StepNumber    int                `json:"step_number"`
	TotalSteps    int                `json:"total_steps"`
	CanAdvance    bool               `json:"can_advance"`
	HomeVisit     *HomeVisitDraft    `json:"home_visit,omitempty"`
	Telemedicine  *TelemedicineDraft `json:"telemedicine,omitempty"`
	Cost          float64            `json:"cost"`
	AppointmentID string             `json:"appointment_id,omitempty"`
}

func viewOf(w *Wizard) wizardView {
	var urgency appointments.Urgency
	if w.HomeVisit != nil {
		urgency = appointments.Urgency(w.HomeVisit.Urgency)
	}
	return wizardView{
		ID:            w.ID,
		Kind:          w.Kind,
		Step:          w.Step,
		StepNumber:    w.StepNumber(),
		TotalSteps:    w.TotalSteps(),
		CanAdvance:    w.CanAdvance(),
		HomeVisit:     w.HomeVisit,
		Telemedicine:  w.Telemedicine,
		Cost:          appointments.Cost(w.Kind, urgency),
		AppointmentID: w.AppointmentID,
	}
}

// GetCatalog handles GET /catalog/{kind}.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	catalog, _ := CatalogFor(kind)
	writeJSON(w, http.StatusOK, catalog)
}

type startRequest struct {
	Kind string `json:"kind"`
}

type startResponse struct {
	Wizard     wizardView `json:"wizard"`
	OwnerToken string     `json:"owner_token"`
}

// Start handles POST /wizards.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, err := ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wiz, _ := New(kind)
	h.tagUser(r, wiz)
	if err := h.store.Save(r.Context(), wiz); err != nil {
		h.logger.Error("failed to save draft", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start booking")
		return
	}
	h.logger.Info("wizard started", "draft_id", wiz.ID, "kind", kind)
	writeJSON(w, http.StatusCreated, startResponse{Wizard: viewOf(wiz), OwnerToken: wiz.OwnerToken})
}

// Get handles GET /wizards/{draftID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(wiz))
}

// Discard handles DELETE /wizards/{draftID}.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), wiz.ID); err != nil {
		h.logger.Error("failed to delete draft", "draft_id", wiz.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to discard draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// SetFields handles PUT /wizards/{draftID}/fields. Either every field is
// written or none is.
func (h *Handler) SetFields(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	var req fieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := wiz.SetField(name, req.Fields[name]); err != nil {
			h.writeWizardError(w, err)
			return
		}
	}
	h.saveAndRespond(w, r, wiz, http.StatusOK, viewOf(wiz))
}

type serviceRequest struct {
	Service string `json:"service"`
	Action  string `json:"action"`
}

// ChangeService handles POST /wizards/{draftID}/services. action is
// "toggle" (default), "select" or "deselect".
func (h *Handler) ChangeService(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if wiz.Kind == appointments.KindHomeVisit && !IsNursingService(req.Service) {
		writeError(w, http.StatusBadRequest, "unknown service")
		return
	}

	var err error
	switch req.Action {
	case "", "toggle":
		_, err = wiz.ToggleService(req.Service)
	case "select":
		err = wiz.SelectService(req.Service)
	case "deselect":
		err = wiz.DeselectService(req.Service)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	h.saveAndRespond(w, r, wiz, http.StatusOK, viewOf(wiz))
}

type advanceResponse struct {
	Advanced bool       `json:"advanced"`
	Wizard   wizardView `json:"wizard"`
}

type retreatResponse struct {
	Retreated bool       `json:"retreated"`
	Wizard    wizardView `json:"wizard"`
}

// Advance handles POST /wizards/{draftID}/advance. A closed gate is reported
// with advanced=false and status 200.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	advanced := wiz.Advance()
	h.metrics.ObserveAdvance(string(wiz.Kind), advanced)
	if !advanced {
		writeJSON(w, http.StatusOK, advanceResponse{Advanced: false, Wizard: viewOf(wiz)})
		return
	}
	h.saveAndRespond(w, r, wiz, http.StatusOK, advanceResponse{Advanced: true, Wizard: viewOf(wiz)})
}

// Retreat handles POST /wizards/{draftID}/retreat.
func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	if !wiz.Retreat() {
		writeJSON(w, http.StatusOK, retreatResponse{Retreated: false, Wizard: viewOf(wiz)})
		return
	}
	h.saveAndRespond(w, r, wiz, http.StatusOK, retreatResponse{Retreated: true, Wizard: viewOf(wiz)})
}

type submitResponse struct {
	Wizard      wizardView                `json:"wizard"`
	Appointment *appointments.Appointment `json:"appointment"`
}

// Submit handles POST /wizards/{draftID}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	if h.submitter == nil {
		writeError(w, http.StatusServiceUnavailable, "booking unavailable")
		return
	}
	h.tagUser(r, wiz)
	out, err := wiz.Submit(r.Context(), h.submitter)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	if out.Redirect != "" {
		WriteRedirect(w, out.Redirect)
		return
	}
	h.saveAndRespond(w, r, wiz, http.StatusCreated, submitResponse{Wizard: viewOf(wiz), Appointment: out.Appointment})
}

// Reset handles POST /wizards/{draftID}/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	wiz, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := wiz.Reset(); err != nil {
		h.writeWizardError(w, err)
		return
	}
	h.saveAndRespond(w, r, wiz, http.StatusOK, viewOf(wiz))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Wizard, bool) {
	wiz, err := h.store.Load(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			writeError(w, http.StatusNotFound, "draft not found")
			return nil, false
		}
		h.logger.Error("failed to load draft", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load draft")
		return nil, false
	}
	token := r.Header.Get(DraftTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(wiz.OwnerToken)) != 1 {
		writeError(w, http.StatusNotFound, "draft not found")
		return nil, false
	}
	return wiz, true
}

func (h *Handler) tagUser(r *http.Request, wiz *Wizard) {
	if h.auth == nil || wiz.UserID != "" {
		return
	}
	if id, err := h.auth.CurrentUser(r.Context()); err == nil {
		wiz.UserID = id.ID
	}
}

func (h *Handler) saveAndRespond(w http.ResponseWriter, r *http.Request, wiz *Wizard, status int, payload any) {
	if err := h.store.Save(r.Context(), wiz); err != nil {
		h.logger.Error("failed to save draft", "draft_id", wiz.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save draft")
		return
	}
	writeJSON(w, status, payload)
}

func (h *Handler) writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSubmissionFailed):
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "failed to save appointment, please try again", "retryable": true})
	case errors.Is(err, ErrInvalidDraft):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotSupported), errors.Is(err, ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOnConfirmStep), errors.Is(err, ErrNotSubmitted), errors.Is(err, ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("wizard operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// WriteRedirect reports a missing session as 401 with the login path in
// both the body and the Location header.
func WriteRedirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusUnauthorized, map[string]string{"redirect": location})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
