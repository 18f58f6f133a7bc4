package wizard

import (
	"slices"
	"strings"

	"github.com/medexa/medexa-platform/internal/appointments"
)

// HomeVisitDraft is the form state of the nursing home-visit wizard.
type HomeVisitDraft struct {
	Services    []string `json:"services"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	PatientName string   `json:"patientName"`
	PatientAge  string   `json:"patientAge"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Symptoms    string   `json:"symptoms"`
	Urgency     string   `json:"urgency"`
}

func newHomeVisitDraft() *HomeVisitDraft {
	return &HomeVisitDraft{Services: []string{}, Urgency: string(appointments.UrgencyNormal)}
}

// TelemedicineDraft is the form state of the telemedicine wizard. Specialty
// holds the catalog id.
type TelemedicineDraft struct {
	Specialty   string `json:"specialty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	PatientName string `json:"patientName"`
	PatientAge  string `json:"patientAge"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	City        string `json:"city"`
	Reason      string `json:"reason"`
}

func filled(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func (d *HomeVisitDraft) gate(step Step) bool {
	switch step {
	case StepService:
		return len(d.Services) > 0 && filled(d.Date, d.Time)
	case StepPatient:
		return filled(d.PatientName, d.Phone, d.City, d.Address)
	}
	return false
}

func (d *HomeVisitDraft) field(name string) (*string, bool) {
	switch name {
	case "date":
		return &d.Date, true
	case "time":
		return &d.Time, true
	case "patientName":
		return &d.PatientName, true
	case "patientAge":
		return &d.PatientAge, true
	case "phone":
		return &d.Phone, true
	case "email":
		return &d.Email, true
	case "city":
		return &d.City, true
	case "address":
		return &d.Address, true
	case "symptoms":
		return &d.Symptoms, true
	case "urgency":
		return &d.Urgency, true
	}
	return nil, false
}

func (d *HomeVisitDraft) hasService(s string) bool {
	return slices.Contains(d.Services, s)
}

func (d *HomeVisitDraft) addService(s string) {
	if !d.hasService(s) {
		d.Services = append(d.Services, s)
	}
}

func (d *HomeVisitDraft) removeService(s string) {
	d.Services = slices.DeleteFunc(d.Services, func(x string) bool { return x == s })
}

func (d *TelemedicineDraft) gate(step Step) bool {
	switch step {
	case StepSpecialty:
		return filled(d.Specialty)
	case StepSchedule:
		return filled(d.Date, d.Time)
	case StepPatient:
		return filled(d.PatientName, d.Phone, d.Email, d.PatientAge, d.City, d.Reason)
	}
	return false
}

func (d *TelemedicineDraft) field(name string) (*string, bool) {
	switch name {
	case "specialty":
		return &d.Specialty, true
	case "date":
		return &d.Date, true
	case "time":
		return &d.Time, true
	case "patientName":
		return &d.PatientName, true
	case "patientAge":
		return &d.PatientAge, true
	case "phone":
		return &d.Phone, true
	case "email":
		return &d.Email, true
	case "city":
		return &d.City, true
	case "reason":
		return &d.Reason, true
	}
	return nil, false
}
