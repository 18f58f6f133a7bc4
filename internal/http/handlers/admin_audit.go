package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medexa/medexa-platform/internal/compliance"
	"github.com/medexa/medexa-platform/internal/http/middleware"
	"github.com/medexa/medexa-platform/pkg/logging"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditQuerier reads the audit trail.
type AuditQuerier interface {
	QueryEvents(ctx context.Context, filter compliance.AuditFilter) ([]compliance.AuditEvent, error)
}

// AdminAuditHandler serves the audit trail to staff.
type AdminAuditHandler struct {
	events AuditQuerier
	logger *logging.Logger
}

func NewAdminAuditHandler(events AuditQuerier, logger *logging.Logger) *AdminAuditHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAuditHandler{events: events, logger: logger}
}

func (h *AdminAuditHandler) Routes(r chi.Router) {
	r.Get("/audit", h.List)
}

// List returns audit events, newest first.
// GET /admin/audit?subject_id=&actor_id=&event_type=&since=&until=&limit=&offset=
func (h *AdminAuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := compliance.AuditFilter{
		SubjectID: q.Get("subject_id"),
		ActorID:   q.Get("actor_id"),
		EventType: compliance.AuditEventType(q.Get("event_type")),
		Limit:     defaultAuditLimit,
	}

	var ok bool
	if filter.StartTime, ok = parseTimeParam(q.Get("since")); !ok {
		jsonError(w, "since must be RFC3339", http.StatusBadRequest)
		return
	}
	if filter.EndTime, ok = parseTimeParam(q.Get("until")); !ok {
		jsonError(w, "until must be RFC3339", http.StatusBadRequest)
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = min(n, maxAuditLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonError(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Offset = n
	}

	events, err := h.events.QueryEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", "error", err)
		jsonError(w, "failed to load audit events", http.StatusBadGateway)
		return
	}
	if events == nil {
		events = []compliance.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func parseTimeParam(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, err == nil
}

func staffID(ctx context.Context) string {
	if claims, ok := middleware.AdminClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

// recordAudit never fails the request; the change is already applied.
func recordAudit(ctx context.Context, audit compliance.Auditor, logger *logging.Logger, event compliance.AuditEvent) {
	if audit == nil {
		return
	}
	if err := audit.LogEvent(ctx, event); err != nil {
		logger.Error("audit write failed", "error", err, "event_type", event.EventType, "subject_id", event.SubjectID)
	}
}
