// Package wizard drives the multi-step booking forms for home visits and
// telemedicine consultations.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medexa/medexa-platform/internal/appointments"
)

var (
	ErrNotSupported     = errors.New("wizard: operation not supported for this kind")
	ErrUnknownField     = errors.New("wizard: unknown field")
	ErrNotOnConfirmStep = errors.New("wizard: submit is only allowed from the confirm step")
	ErrNotSubmitted     = errors.New("wizard: reset is only allowed after submission")
	ErrAlreadySubmitted = errors.New("wizard: draft already submitted")
	// ErrSubmissionFailed marks a retryable persistence failure. The draft
	// is left on the confirm step.
	ErrSubmissionFailed = errors.New("wizard: submission failed")
	// ErrInvalidDraft marks draft data that cannot become an appointment.
	ErrInvalidDraft = errors.New("wizard: invalid draft")
	ErrInvalidKind  = errors.New("wizard: invalid kind")
)

// Outcome is the result of a submission attempt. Exactly one field is set.
type Outcome struct {
	Redirect    string                    `json:"redirect,omitempty"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`
}

// Submitter persists a confirmed draft.
type Submitter interface {
	Submit(ctx context.Context, w *Wizard) (*Outcome, error)
}

// Wizard is one in-progress booking. Exactly one of HomeVisit or
// Telemedicine is set, matching Kind.
type Wizard struct {
	ID            string             `json:"id"`
	Kind          appointments.Kind  `json:"kind"`
	Step          Step               `json:"step"`
	OwnerToken    string             `json:"owner_token"`
	UserID        string             `json:"user_id,omitempty"`
	HomeVisit     *HomeVisitDraft    `json:"home_visit,omitempty"`
	Telemedicine  *TelemedicineDraft `json:"telemedicine,omitempty"`
	AppointmentID string             `json:"appointment_id,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ParseKind accepts the stored labels and their English aliases.
func ParseKind(s string) (appointments.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domicilio", "home-visit", "home_visit":
		return appointments.KindHomeVisit, nil
	case "telemedicina", "telemedicine":
		return appointments.KindTelemedicine, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// New starts a wizard of the given kind on its first step.
func New(kind appointments.Kind) (*Wizard, error) {
	f, ok := flows[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	w := &Wizard{
		ID:         uuid.NewString(),
		Kind:       kind,
		Step:       f.steps[0],
		OwnerToken: uuid.NewString(),
		UpdatedAt:  time.Now().UTC(),
	}
	w.clearDraft()
	return w, nil
}

func (w *Wizard) flow() flow { return flows[w.Kind] }

func (w *Wizard) clearDraft() {
	w.HomeVisit, w.Telemedicine = nil, nil
	switch w.Kind {
	case appointments.KindHomeVisit:
		w.HomeVisit = newHomeVisitDraft()
	case appointments.KindTelemedicine:
		w.Telemedicine = &TelemedicineDraft{}
	}
}

func (w *Wizard) touch() { w.UpdatedAt = time.Now().UTC() }

// StepNumber is the 1-based position of the current step.
func (w *Wizard) StepNumber() int { return w.flow().number(w.Step) }

// TotalSteps counts the steps including the submitted state.
func (w *Wizard) TotalSteps() int { return len(w.flow().steps) }

// CanAdvance reports whether the current step's gate holds.
func (w *Wizard) CanAdvance() bool {
	if _, ok := w.flow().next(w.Step, eventAdvance); !ok {
		return false
	}
	switch w.Kind {
	case appointments.KindHomeVisit:
		return w.HomeVisit.gate(w.Step)
	case appointments.KindTelemedicine:
		return w.Telemedicine.gate(w.Step)
	}
	return false
}

// SelectService adds s to the home-visit service set.
func (w *Wizard) SelectService(s string) error {
	d, err := w.homeVisitForEdit()
	if err != nil {
		return err
	}
	d.addService(s)
	w.touch()
	return nil
}

// DeselectService removes s from the home-visit service set.
func (w *Wizard) DeselectService(s string) error {
	d, err := w.homeVisitForEdit()
	if err != nil {
		return err
	}
	d.removeService(s)
	w.touch()
	return nil
}

// ToggleService flips membership of s and reports whether it is now selected.
func (w *Wizard) ToggleService(s string) (bool, error) {
	d, err := w.homeVisitForEdit()
	if err != nil {
		return false, err
	}
	selected := !d.hasService(s)
	if selected {
		d.addService(s)
	} else {
		d.removeService(s)
	}
	w.touch()
	return selected, nil
}

// HasService reports whether s is selected. Always false for telemedicine.
func (w *Wizard) HasService(s string) bool {
	return w.HomeVisit != nil && w.HomeVisit.hasService(s)
}

func (w *Wizard) homeVisitForEdit() (*HomeVisitDraft, error) {
	if w.Kind != appointments.KindHomeVisit {
		return nil, ErrNotSupported
	}
	if w.Step == StepSubmitted {
		return nil, ErrAlreadySubmitted
	}
	return w.HomeVisit, nil
}

// SetField writes a scalar form field without validating the value.
func (w *Wizard) SetField(name, value string) error {
	if w.Step == StepSubmitted {
		return ErrAlreadySubmitted
	}
	var (
		target *string
		ok     bool
	)
	switch w.Kind {
	case appointments.KindHomeVisit:
		target, ok = w.HomeVisit.field(name)
	case appointments.KindTelemedicine:
		target, ok = w.Telemedicine.field(name)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	*target = value
	w.touch()
	return nil
}

// Advance moves to the next step when the current gate holds. It reports
// whether the step changed; a failed gate is not an error.
func (w *Wizard) Advance() bool {
	if !w.CanAdvance() {
		return false
	}
	next, _ := w.flow().next(w.Step, eventAdvance)
	w.Step = next
	w.touch()
	return true
}

// Retreat moves back one step. It is a no-op on the first step and after
// submission.
func (w *Wizard) Retreat() bool {
	prev, ok := w.flow().next(w.Step, eventRetreat)
	if !ok {
		return false
	}
	w.Step = prev
	w.touch()
	return true
}

// Submit hands the draft to s. A redirect outcome or an error leaves the
// wizard on the confirm step with its data intact. On success the form data
// is discarded and the wizard moves to the submitted step.
func (w *Wizard) Submit(ctx context.Context, s Submitter) (*Outcome, error) {
	if w.Step != StepConfirm {
		return nil, ErrNotOnConfirmStep
	}
	out, err := s.Submit(ctx, w)
	if err != nil {
		return nil, err
	}
	if out == nil || (out.Redirect == "" && out.Appointment == nil) {
		return nil, fmt.Errorf("%w: empty outcome", ErrSubmissionFailed)
	}
	if out.Redirect != "" {
		return out, nil
	}
	next, _ := w.flow().next(w.Step, eventSubmitted)
	w.Step = next
	w.AppointmentID = out.Appointment.ID
	w.clearDraft()
	w.touch()
	return out, nil
}

// Reset starts a fresh draft after a submission.
func (w *Wizard) Reset() error {
	first, ok := w.flow().next(w.Step, eventReset)
	if !ok {
		return ErrNotSubmitted
	}
	w.Step = first
	w.AppointmentID = ""
	w.clearDraft()
	w.touch()
	return nil
}

// OriginPath is the page the login flow returns to for this kind.
func OriginPath(kind appointments.Kind) string {
	if kind == appointments.KindTelemedicine {
		return "/agendar-telemedicina"
	}
	return "/agendar-domicilio"
}
