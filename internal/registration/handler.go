// Package registration handles patient and doctor sign-up and the session
// endpoints around it.
package registration

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/filestore"
	"github.com/medexa/medexa-platform/internal/profile"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// DefaultDocumentsBucket holds doctor credentials.
const DefaultDocumentsBucket = "doctor-documents"

const minPasswordLength = 6

const (
	msgPasswordMismatch = "Las contraseñas no coinciden"
	msgPasswordShort    = "La contraseña debe tener al menos 6 caracteres"
	msgConfirmEmail     = "Registro exitoso. Revisa tu email para confirmar tu cuenta."
	msgSignUpFailed     = "Error al registrar. Intente nuevamente."
)

// Handler serves the auth and registration endpoints.
type Handler struct {
	auth        session.Authenticator
	accounts    accounts.Repository
	provisioner *profile.Provisioner
	files       filestore.Store
	bucket      string
	now         func() time.Time
	logger      *logging.Logger
}

// Config holds Handler dependencies.
type Config struct {
	Auth        session.Authenticator
	Accounts    accounts.Repository
	Provisioner *profile.Provisioner
	Files       filestore.Store
	Bucket      string
	Logger      *logging.Logger
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultDocumentsBucket
	}
	if cfg.Provisioner == nil {
		cfg.Provisioner = profile.NewProvisioner(cfg.Accounts, nil, cfg.Logger)
	}
	return &Handler{
		auth:        cfg.Auth,
		accounts:    cfg.Accounts,
		provisioner: cfg.Provisioner,
		files:       cfg.Files,
		bucket:      cfg.Bucket,
		now:         time.Now,
		logger:      cfg.Logger,
	}
}

// Routes mounts the registration endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/welcome", h.Welcome)
	r.Post("/auth/signout", h.SignOut)
	r.Post("/doctors/register", h.RegisterDoctor)
}

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Phone           string `json:"phone"`
}

// SignUp handles POST /auth/signup.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, msgPasswordMismatch)
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, msgPasswordShort)
		return
	}
	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) {
		writeError(w, http.StatusBadRequest, "Email inválido")
		return
	}
	role, err := accounts.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	res, err := h.auth.SignUp(r.Context(), email, req.Password, session.Metadata{
		Role:      string(role),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		h.logger.Warn("sign-up rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, msgSignUpFailed)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msgConfirmEmail, "user_id": res.UserID})
}

// Welcome handles POST /auth/welcome, the landing point after email
// confirmation. It makes sure the account rows exist and says where to go.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	id, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		wizard.WriteRedirect(w, profile.LoginPath)
		return
	}
	acct, err := h.provisioner.EnsureProfile(r.Context(), id)
	if err != nil {
		h.logger.Error("welcome provisioning failed", "error", err, "user_id", id.ID)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "No se pudo completar tu perfil. Intenta de nuevo.", "retryable": true})
		return
	}
	next := "/mi-perfil"
	if acct.Role == accounts.RoleDoctor {
		next = "/doctor/dashboard"
	}
	writeJSON(w, http.StatusOK, map[string]string{"next": next, "role": string(acct.Role)})
}

// SignOut handles POST /auth/signout. Signing out without a session is not
// an error.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	err := h.auth.SignOut(r.Context())
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		h.logger.Error("sign-out failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "sign-out failed", "retryable": true})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
