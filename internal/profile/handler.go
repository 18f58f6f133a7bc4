package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// Handler serves the signed-in user's dashboard.
type Handler struct {
	reader *Reader
	logger *logging.Logger
}

func NewHandler(reader *Reader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{reader: reader, logger: logger}
}

// Routes mounts the /me endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/me/dashboard", h.Dashboard)
	r.Post("/me/appointments/{appointmentID}/join", h.Join)
}

// Dashboard handles GET /me/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reader.Load(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     "No se pudo cargar tu perfil. Intenta de nuevo.",
			"retryable": true,
		})
		return
	}
	if dash.Redirect != "" {
		wizard.WriteRedirect(w, dash.Redirect)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// Join handles POST /me/appointments/{appointmentID}/join.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	res, err := h.reader.JoinConsultation(r.Context(), chi.URLParam(r, "appointmentID"))
	switch {
	case err == nil:
	case errors.Is(err, appointments.ErrNotFound), errors.Is(err, ErrNotOwner):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "appointment not found"})
		return
	case errors.Is(err, ErrNotTelemedicine), errors.Is(err, ErrNotJoinable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	default:
		h.logger.Error("join consultation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     "Error al unirse a la consulta. Por favor, intenta de nuevo.",
			"retryable": true,
		})
		return
	}
	if res.Redirect != "" {
		wizard.WriteRedirect(w, res.Redirect)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"roomUrl": res.RoomURL})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
