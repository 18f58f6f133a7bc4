package rooms

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medexa/medexa-platform/pkg/logging"
)

// Handler serves POST /api/create-room.
type Handler struct {
	provisioner Provisioner
	logger      *logging.Logger
}

func NewHandler(p Provisioner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{provisioner: p, logger: logger}
}

type createRoomBody struct {
	CitaID     string         `json:"citaId"`
	Properties map[string]any `json:"properties"`
}

type createRoomResponse struct {
	RoomURL  string `json:"roomUrl"`
	RoomName string `json:"roomName"`
}

const failedMessage = "Failed to create consultation room"

// CreateRoom handles POST /api/create-room.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var body createRoomBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(body.CitaID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "citaId is required"})
		return
	}

	room, err := h.provisioner.CreateRoom(r.Context(), body.CitaID, body.Properties)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": failedMessage})
		return
	}
	writeJSON(w, http.StatusOK, createRoomResponse{RoomURL: room.URL, RoomName: room.Name})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
