package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/wizard"
)

// BuildAppointment maps a wizard draft to the record stored for userID.
// The record is always created confirmed, with the cost derived from kind
// and urgency.
func BuildAppointment(w *wizard.Wizard, userID string) (*appointments.Appointment, error) {
	switch w.Kind {
	case appointments.KindHomeVisit:
		return buildHomeVisit(w.HomeVisit, userID)
	case appointments.KindTelemedicine:
		return buildTelemedicine(w.Telemedicine, userID)
	}
	return nil, fmt.Errorf("%w: kind %q", wizard.ErrInvalidDraft, w.Kind)
}

func buildHomeVisit(d *wizard.HomeVisitDraft, userID string) (*appointments.Appointment, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing home-visit data", wizard.ErrInvalidDraft)
	}
	if err := checkSchedule(d.Date, d.Time); err != nil {
		return nil, err
	}
	age, err := parseAge(d.PatientAge)
	if err != nil {
		return nil, err
	}
	urgency := appointments.Urgency(strings.TrimSpace(d.Urgency))
	if urgency == "" {
		urgency = appointments.UrgencyNormal
	}
	if !urgency.Valid() {
		return nil, fmt.Errorf("%w: urgency %q", wizard.ErrInvalidDraft, d.Urgency)
	}
	return &appointments.Appointment{
		UserID:      userID,
		Kind:        appointments.KindHomeVisit,
		Specialty:   appointments.HomeVisitSpecialty,
		Date:        d.Date,
		Time:        d.Time,
		Status:      appointments.StatusConfirmed,
		PatientName: d.PatientName,
		PatientAge:  age,
		Phone:       d.Phone,
		Email:       d.Email,
		City:        d.City,
		Address:     d.Address,
		Reason:      d.Symptoms,
		Services:    strings.Join(d.Services, ", "),
		Urgency:     urgency,
		Cost:        appointments.Cost(appointments.KindHomeVisit, urgency),
	}, nil
}

func buildTelemedicine(d *wizard.TelemedicineDraft, userID string) (*appointments.Appointment, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: missing telemedicine data", wizard.ErrInvalidDraft)
	}
	specialty := wizard.SpecialtyName(d.Specialty)
	if specialty == "" {
		return nil, fmt.Errorf("%w: unknown specialty %q", wizard.ErrInvalidDraft, d.Specialty)
	}
	if err := checkSchedule(d.Date, d.Time); err != nil {
		return nil, err
	}
	age, err := parseAge(d.PatientAge)
	if err != nil {
		return nil, err
	}
	return &appointments.Appointment{
		UserID:      userID,
		Kind:        appointments.KindTelemedicine,
		Specialty:   specialty,
		Date:        d.Date,
		Time:        d.Time,
		Status:      appointments.StatusConfirmed,
		PatientName: d.PatientName,
		PatientAge:  age,
		Phone:       d.Phone,
		Email:       d.Email,
		City:        d.City,
		Reason:      d.Reason,
		Cost:        appointments.Cost(appointments.KindTelemedicine, ""),
	}, nil
}

// checkSchedule rejects a date or time-of-day that ScheduledAt cannot read.
func checkSchedule(date, tod string) error {
	slot := &appointments.Appointment{Date: date, Time: tod}
	if _, err := slot.ScheduledAt(time.UTC); err != nil {
		return fmt.Errorf("%w: schedule %q %q: %w", wizard.ErrInvalidDraft, date, tod, err)
	}
	return nil
}

// parseAge treats a blank age as unknown (0).
func parseAge(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil || age < 0 {
		return 0, fmt.Errorf("%w: age %q", wizard.ErrInvalidDraft, s)
	}
	return age, nil
}
