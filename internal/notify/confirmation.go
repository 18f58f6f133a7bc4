package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// Confirmer emails patients after a booking is stored.
type Confirmer struct {
	mailer Mailer
	logger *logging.Logger
}

// NewConfirmer wraps a mailer. A nil mailer disables confirmations.
func NewConfirmer(mailer Mailer, logger *logging.Logger) *Confirmer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Confirmer{mailer: mailer, logger: logger}
}

// BookingConfirmed sends the confirmation for appt. Appointments without an
// email address are skipped.
func (c *Confirmer) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) error {
	if c == nil || c.mailer == nil || appt == nil {
		return nil
	}
	if strings.TrimSpace(appt.Email) == "" {
		c.logger.Debug("confirmation skipped, no email", "appointment_id", appt.ID)
		return nil
	}
	if err := c.mailer.Deliver(ctx, RenderConfirmation(appt)); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	return nil
}

// RenderConfirmation builds the patient email for appt.
func RenderConfirmation(appt *appointments.Appointment) Confirmation {
	var title string
	lines := []string{
		fmt.Sprintf("Fecha: %s", appt.Date),
		fmt.Sprintf("Hora: %s", appt.Time),
	}
	switch appt.Kind {
	case appointments.KindTelemedicine:
		title = "Tu consulta de telemedicina está confirmada"
		lines = append(lines,
			fmt.Sprintf("Especialidad: %s", appt.Specialty),
			"Podrás unirte a la videollamada desde Mi Perfil 60 minutos antes de la cita.",
		)
	default:
		title = "Tu visita de enfermería a domicilio está confirmada"
		lines = append(lines,
			fmt.Sprintf("Servicios: %s", appt.Services),
			fmt.Sprintf("Dirección: %s, %s", appt.Address, appt.City),
		)
	}
	lines = append(lines, fmt.Sprintf("Costo: L. %.2f", appt.Cost))

	greeting := "Hola"
	if name := strings.TrimSpace(appt.PatientName); name != "" {
		greeting = "Hola " + name
	}
	body := greeting + ",\n\n" + title + ".\n\n" + strings.Join(lines, "\n") + "\n\nMedexa"

	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s,</p><p><strong>%s.</strong></p><ul>", html.EscapeString(greeting), html.EscapeString(title))
	for _, l := range lines {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(l))
	}
	b.WriteString("</ul><p>Medexa</p>")

	return Confirmation{
		AppointmentID: appt.ID,
		Kind:          appt.Kind,
		To:            appt.Email,
		Patient:       strings.TrimSpace(appt.PatientName),
		Subject:       title,
		Text:          body,
		HTML:          b.String(),
	}
}
