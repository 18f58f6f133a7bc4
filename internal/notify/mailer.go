package notify

import (
	"context"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// confirmationCategory tags every booking email for provider-side analytics.
const confirmationCategory = "booking-confirmation"

// Mailer delivers a rendered booking confirmation. SendGrid, SES and the log
// mailer implement it.
type Mailer interface {
	Deliver(ctx context.Context, c Confirmation) error
}

// Confirmation is the patient email for one stored appointment.
type Confirmation struct {
	AppointmentID string
	Kind          appointments.Kind
	To            string
	Patient       string
	Subject       string
	Text          string
	HTML          string
}

// Sender identifies the clinic on outgoing mail.
type Sender struct {
	Address string
	Name    string
	ReplyTo string
}

func (s Sender) withDefaults() Sender {
	if s.Name == "" {
		s.Name = "Medexa"
	}
	return s
}

// LogMailer records confirmations instead of sending them. Used when
// EMAIL_PROVIDER=stub.
type LogMailer struct {
	logger *logging.Logger
}

func NewLogMailer(logger *logging.Logger) *LogMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Deliver(ctx context.Context, c Confirmation) error {
	m.logger.Info("confirmation suppressed by log mailer", "appointment_id", c.AppointmentID, "kind", c.Kind, "to", c.To)
	return nil
}
