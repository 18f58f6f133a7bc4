// Package appointments holds the persisted booking record and its stores.
package appointments

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the service a booking is for. Values match the stored labels.
type Kind string

const (
	KindHomeVisit    Kind = "domicilio"
	KindTelemedicine Kind = "telemedicina"
)

// Valid reports whether k is a known booking kind.
func (k Kind) Valid() bool {
	return k == KindHomeVisit || k == KindTelemedicine
}

// Status of an appointment. Transitions only move forward.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCompleted || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// Label is the patient-facing status text.
func (s Status) Label() string {
	switch s {
	case StatusConfirmed:
		return "Confirmada"
	case StatusPending:
		return "Pendiente"
	case StatusCompleted:
		return "Completada"
	case StatusCancelled:
		return "Cancelada"
	default:
		return string(s)
	}
}

// Urgency tier for home visits.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// Valid reports whether u is a known tier.
func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyUrgent || u == UrgencyEmergency
}

// Fees in lempiras.
const (
	TelemedicineFee       = 350.00
	HomeVisitNormalFee    = 400.00
	HomeVisitUrgentFee    = 600.00
	HomeVisitEmergencyFee = 800.00
)

// Cost returns the price of a booking. Telemedicine ignores urgency; an
// unknown or empty home-visit urgency is billed as normal.
func Cost(kind Kind, urgency Urgency) float64 {
	if kind == KindTelemedicine {
		return TelemedicineFee
	}
	switch urgency {
	case UrgencyEmergency:
		return HomeVisitEmergencyFee
	case UrgencyUrgent:
		return HomeVisitUrgentFee
	default:
		return HomeVisitNormalFee
	}
}

// HomeVisitSpecialty is the specialty label stored for nursing visits.
const HomeVisitSpecialty = "Enfermería a Domicilio"

// Appointment is one booked service instance.
type Appointment struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"user_id"`
	Kind        Kind      `json:"type"`
	Specialty   string    `json:"specialty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      Status    `json:"status"`
	PatientName string    `json:"patient_name"`
	PatientAge  int       `json:"patient_age"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	City        string    `json:"city"`
	Address     string    `json:"address,omitempty"`
	Reason      string    `json:"reason"`
	Services    string    `json:"services,omitempty"`
	Urgency     Urgency   `json:"urgency,omitempty"`
	Cost        float64   `json:"cost"`
	RoomURL     string    `json:"daily_room_url,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Validate checks the record invariants before it is persisted.
func (a *Appointment) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrMissingUser
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, a.Kind)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, a.Status)
	}
	if a.PatientAge < 0 {
		return ErrInvalidAge
	}
	switch a.Kind {
	case KindHomeVisit:
		if strings.TrimSpace(a.Address) == "" {
			return ErrMissingAddress
		}
		if a.Urgency != "" && !a.Urgency.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidUrgency, a.Urgency)
		}
	case KindTelemedicine:
		if a.Services != "" || a.Urgency != "" {
			return ErrTelemedicineExtras
		}
	}
	return nil
}

// Transition moves the status forward or returns ErrInvalidTransition.
func (a *Appointment) Transition(next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	return nil
}

var timeLayouts = []string{"03:04 PM", "3:04 PM", "15:04", "15:04:05"}

// ScheduledAt combines the stored date and time-of-day in loc.
func (a *Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(a.Date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointments: parse date %q: %w", a.Date, err)
	}
	clock := strings.ToUpper(strings.TrimSpace(a.Time))
	for _, layout := range timeLayouts {
		tod, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("appointments: parse time %q: %w", a.Time, ErrInvalidTime)
}
