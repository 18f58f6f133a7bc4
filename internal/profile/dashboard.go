package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/rooms"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// LoginPath is where users without a usable session are sent.
const LoginPath = "/auth/login"

const notSpecified = "No especificado"

// Placeholder text for an empty appointment group.
const (
	EmptyTelemedicine = "No tienes citas de telemedicina agendadas"
	EmptyHomeVisit    = "No tienes exámenes a domicilio agendados"
)

// Join window around the scheduled start.
const (
	JoinOpensBefore = 60 * time.Minute
	JoinClosesAfter = 30 * time.Minute
)

// ErrUpstream wraps storage failures the user can retry.
var ErrUpstream = errors.New("profile: upstream failure")

// User is the header block of the dashboard.
type User struct {
	ID                 string                      `json:"id"`
	Email              string                      `json:"email"`
	FullName           string                      `json:"full_name"`
	Phone              string                      `json:"phone"`
	Address            string                      `json:"address"`
	Role               accounts.Role               `json:"role"`
	ProfileMissing     bool                        `json:"profile_missing,omitempty"`
	VerificationStatus accounts.VerificationStatus `json:"verification_status,omitempty"`
}

// AppointmentView is an appointment as the dashboard renders it.
type AppointmentView struct {
	ID          string               `json:"id"`
	Kind        appointments.Kind    `json:"type"`
	Specialty   string               `json:"specialty"`
	Date        string               `json:"date"`
	Time        string               `json:"time"`
	Status      appointments.Status  `json:"status"`
	StatusLabel string               `json:"status_label"`
	City        string               `json:"city"`
	Address     string               `json:"address,omitempty"`
	Services    string               `json:"services,omitempty"`
	Urgency     appointments.Urgency `json:"urgency,omitempty"`
	Reason      string               `json:"reason,omitempty"`
	Cost        float64              `json:"cost"`
	RoomURL     string               `json:"room_url,omitempty"`
	Joinable    bool                 `json:"joinable"`
}

// Group is one list of appointments. Placeholder is set when it is empty.
type Group struct {
	Appointments []AppointmentView `json:"appointments"`
	Placeholder  string            `json:"placeholder,omitempty"`
}

// Dashboard is the result of Load. When Redirect is set nothing else is.
type Dashboard struct {
	Redirect     string `json:"redirect,omitempty"`
	User         *User  `json:"user,omitempty"`
	Telemedicine *Group `json:"telemedicine,omitempty"`
	HomeVisit    *Group `json:"home_visit,omitempty"`
}

// Reader loads dashboards and joins consultations for the current user.
type Reader struct {
	auth        session.Authenticator
	accounts    accounts.Repository
	appts       appointments.Repository
	provisioner *Provisioner
	rooms       rooms.Provisioner
	loc         *time.Location
	now         func() time.Time
	logger      *logging.Logger
}

// ReaderConfig holds Reader dependencies. Location defaults to UTC and Now to
// time.Now.
type ReaderConfig struct {
	Auth        session.Authenticator
	Accounts    accounts.Repository
	Appts       appointments.Repository
	Provisioner *Provisioner
	Rooms       rooms.Provisioner
	Location    *time.Location
	Now         func() time.Time
	Logger      *logging.Logger
}

func NewReader(cfg ReaderConfig) *Reader {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Provisioner == nil {
		cfg.Provisioner = NewProvisioner(cfg.Accounts, nil, cfg.Logger)
	}
	return &Reader{
		auth:        cfg.Auth,
		accounts:    cfg.Accounts,
		appts:       cfg.Appts,
		provisioner: cfg.Provisioner,
		rooms:       cfg.Rooms,
		loc:         cfg.Location,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
}

// Load builds the dashboard for the signed-in user.
func (r *Reader) Load(ctx context.Context) (*Dashboard, error) {
	id, err := r.auth.CurrentUser(ctx)
	if err != nil || id == nil {
		return &Dashboard{Redirect: LoginPath}, nil
	}

	acct, err := r.accounts.GetAccount(ctx, id.ID)
	if errors.Is(err, accounts.ErrNotFound) {
		r.logger.Warn("authenticated user has no account record", "user_id", id.ID)
		return &Dashboard{Redirect: LoginPath}, nil
	}
	if err != nil {
		r.logger.Error("failed to load account", "error", err, "user_id", id.ID)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	user := r.loadUser(ctx, id, acct)

	list, err := r.appts.ListByUser(ctx, id.ID)
	if err != nil {
		r.logger.Error("failed to load appointments", "error", err, "user_id", id.ID)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	now := r.now()
	tele := &Group{Appointments: []AppointmentView{}}
	home := &Group{Appointments: []AppointmentView{}}
	for _, appt := range list {
		view := r.viewOf(appt, now)
		switch appt.Kind {
		case appointments.KindTelemedicine:
			tele.Appointments = append(tele.Appointments, view)
		case appointments.KindHomeVisit:
			home.Appointments = append(home.Appointments, view)
		}
	}
	if len(tele.Appointments) == 0 {
		tele.Placeholder = EmptyTelemedicine
	}
	if len(home.Appointments) == 0 {
		home.Placeholder = EmptyHomeVisit
	}

	return &Dashboard{User: user, Telemedicine: tele, HomeVisit: home}, nil
}

// loadUser resolves the role profile. Profile read failures degrade to the
// display defaults.
func (r *Reader) loadUser(ctx context.Context, id *session.Identity, acct *accounts.Account) *User {
	user := &User{ID: acct.ID, Email: acct.Email, Role: acct.Role}
	var first, last, phone, address string

	switch acct.Role {
	case accounts.RolePatient:
		p, err := r.provisioner.EnsurePatient(ctx, id)
		if err != nil {
			r.logger.Error("failed to load patient profile", "error", err, "user_id", id.ID)
			user.ProfileMissing = true
			break
		}
		first, last, phone, address = p.FirstName, p.LastName, p.Phone, p.Address
	case accounts.RoleDoctor:
		d, err := r.accounts.GetDoctor(ctx, id.ID)
		if err != nil {
			if !errors.Is(err, accounts.ErrNotFound) {
				r.logger.Error("failed to load doctor profile", "error", err, "user_id", id.ID)
			}
			user.ProfileMissing = true
			break
		}
		first, last, phone = d.FirstName, d.LastName, d.Phone
		user.VerificationStatus = d.VerificationStatus
	default:
		user.ProfileMissing = true
	}

	user.FullName = orDefault(accounts.FullName(first, last), DefaultFirstName)
	user.Phone = orDefault(phone, notSpecified)
	user.Address = orDefault(address, notSpecified)
	return user
}

func (r *Reader) viewOf(a *appointments.Appointment, now time.Time) AppointmentView {
	return AppointmentView{
		ID:          a.ID,
		Kind:        a.Kind,
		Specialty:   a.Specialty,
		Date:        a.Date,
		Time:        a.Time,
		Status:      a.Status,
		StatusLabel: a.Status.Label(),
		City:        a.City,
		Address:     a.Address,
		Services:    a.Services,
		Urgency:     a.Urgency,
		Reason:      a.Reason,
		Cost:        a.Cost,
		RoomURL:     a.RoomURL,
		Joinable:    a.Kind == appointments.KindTelemedicine && Joinable(a, now, r.loc),
	}
}

// Joinable reports whether a confirmed appointment is inside its join window
// at now. Dates that do not parse are never joinable.
func Joinable(a *appointments.Appointment, now time.Time, loc *time.Location) bool {
	if a == nil || a.Status != appointments.StatusConfirmed {
		return false
	}
	start, err := a.ScheduledAt(loc)
	if err != nil {
		return false
	}
	opens := start.Add(-JoinOpensBefore)
	closes := start.Add(JoinClosesAfter)
	return !now.Before(opens) && !now.After(closes)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
