package wizard

import "github.com/medexa/medexa-platform/internal/appointments"

// ServiceGroup is a category of nursing services.
type ServiceGroup struct {
	Category string   `json:"category"`
	Services []string `json:"services"`
}

// Specialty is a telemedicine specialty. The wizard stores ID; the
// appointment stores Name.
type Specialty struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog lists the choices offered by one wizard kind.
type Catalog struct {
	Kind        appointments.Kind  `json:"kind"`
	Services    []ServiceGroup     `json:"services,omitempty"`
	Specialties []Specialty        `json:"specialties,omitempty"`
	TimeSlots   []string           `json:"time_slots"`
	Cities      []string           `json:"cities,omitempty"`
	Fees        map[string]float64 `json:"fees"`
}

var cities = []string{
	"Tegucigalpa", "San Pedro Sula", "Choloma", "La Ceiba", "El Progreso",
	"Choluteca", "Comayagua", "Puerto Cortés", "La Lima", "Danlí",
	"Siguatepeque", "Juticalpa", "Tocoa", "Catacamas", "Tela",
}

var nursingServices = []ServiceGroup{
	{Category: "Signos Vitales", Services: []string{
		"Presión arterial",
		"Frecuencia cardíaca",
		"Frecuencia respiratoria",
		"Temperatura corporal",
		"Saturación de oxígeno (SpO₂)",
	}},
	{Category: "Glucemia y Test Rápidos", Services: []string{
		"Glucemia capilar (azúcar en sangre)",
		"Test rápido de embarazo",
		"Test rápido COVID-19",
		"Test rápido de influenza",
		"Test de orina (infección urinaria)",
	}},
	{Category: "Muestreo para Laboratorio", Services: []string{
		"Extracción de sangre venosa",
		"Recolección de orina",
		"Recolección de heces",
		"Hisopados (faríngeo, nasal, vaginal)",
	}},
	{Category: "Evaluaciones Básicas", Services: []string{
		"Control de peso, talla e IMC",
		"Valoración nutricional",
		"Detección de edemas y lesiones",
		"Revisión general de salud",
	}},
	{Category: "Monitoreo de Condiciones Crónicas", Services: []string{
		"Control de hipertensión",
		"Control de diabetes",
		"Evaluación de adherencia a tratamiento",
		"Revisión de síntomas crónicos",
	}},
	{Category: "Procedimientos de Enfermería", Services: []string{
		"Curaciones y toma de muestras",
		"Revisión de catéteres y sondas",
		"Cuidado de heridas",
		"Evaluación de dispositivos médicos",
	}},
}

var specialties = []Specialty{
	{ID: "medicina-general", Name: "Medicina General", Description: "Consultas médicas generales"},
	{ID: "pediatria", Name: "Pediatría", Description: "Atención médica para niños"},
	{ID: "ginecologia", Name: "Ginecología", Description: "Salud femenina y reproductiva"},
	{ID: "nutricion", Name: "Nutrición", Description: "Planes alimentarios personalizados"},
	{ID: "psicologia", Name: "Psicología", Description: "Salud mental y bienestar"},
	{ID: "oftalmologia", Name: "Oftalmología", Description: "Cuidado de la vista"},
	{ID: "traumatologia", Name: "Traumatología", Description: "Lesiones y problemas óseos"},
}

// homeVisitSlots are hourly from 08:00 AM to 07:00 PM.
var homeVisitSlots = []string{
	"08:00 AM", "09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM", "01:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM", "06:00 PM", "07:00 PM",
}

// telemedicineSlots are half-hourly in a morning and an afternoon block.
var telemedicineSlots = []string{
	"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
}

// CatalogFor returns the static choices for kind.
func CatalogFor(kind appointments.Kind) (*Catalog, error) {
	switch kind {
	case appointments.KindHomeVisit:
		return &Catalog{
			Kind:      kind,
			Services:  nursingServices,
			TimeSlots: homeVisitSlots,
			Cities:    cities,
			Fees: map[string]float64{
				string(appointments.UrgencyNormal):    appointments.HomeVisitNormalFee,
				string(appointments.UrgencyUrgent):    appointments.HomeVisitUrgentFee,
				string(appointments.UrgencyEmergency): appointments.HomeVisitEmergencyFee,
			},
		}, nil
	case appointments.KindTelemedicine:
		return &Catalog{
			Kind:        kind,
			Specialties: specialties,
			TimeSlots:   telemedicineSlots,
			Fees:        map[string]float64{"consultation": appointments.TelemedicineFee},
		}, nil
	}
	return nil, ErrInvalidKind
}

// IsNursingService reports whether s is a listed home-visit service.
func IsNursingService(s string) bool {
	for _, g := range nursingServices {
		for _, name := range g.Services {
			if name == s {
				return true
			}
		}
	}
	return false
}

// SpecialtyName resolves a specialty id to its display name. Unknown ids
// resolve to "".
func SpecialtyName(id string) string {
	for _, s := range specialties {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}
