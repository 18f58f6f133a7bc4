package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/medexa/medexa-platform/pkg/logging"
)

// SendGridMailer delivers confirmations through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   Sender
	logger *logging.Logger
}

// NewSendGridMailer returns nil without an API key.
func NewSendGridMailer(apiKey string, from Sender, logger *logging.Logger) *SendGridMailer {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), from: from.withDefaults(), logger: logger}
}

func (m *SendGridMailer) Deliver(ctx context.Context, c Confirmation) error {
	if m.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	resp, err := m.client.SendWithContext(ctx, sendGridMessage(m.from, c))
	if err != nil {
		return fmt.Errorf("notify: sendgrid deliver %s: %w", c.AppointmentID, err)
	}
	if resp.StatusCode >= 400 {
		m.logger.Error("sendgrid rejected confirmation", "status", resp.StatusCode, "body", resp.Body, "appointment_id", c.AppointmentID)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	m.logger.Info("confirmation sent via sendgrid", "appointment_id", c.AppointmentID, "status", resp.StatusCode)
	return nil
}

// sendGridMessage builds the v3 payload. SendGrid requires text/plain to
// precede text/html.
func sendGridMessage(from Sender, c Confirmation) *mail.SGMailV3 {
	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(from.Name, from.Address))
	if from.ReplyTo != "" {
		msg.SetReplyTo(mail.NewEmail(from.Name, from.ReplyTo))
	}
	msg.Subject = c.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(c.Patient, c.To))
	if c.AppointmentID != "" {
		p.SetCustomArg("appointment_id", c.AppointmentID)
	}
	msg.AddPersonalizations(p)

	msg.AddContent(mail.NewContent("text/plain", c.Text))
	if c.HTML != "" {
		msg.AddContent(mail.NewContent("text/html", c.HTML))
	}
	msg.AddCategories(confirmationCategory)
	if c.Kind != "" {
		msg.AddCategories(string(c.Kind))
	}
	return msg
}
