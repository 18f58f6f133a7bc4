package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/medexa/medexa-platform/pkg/logging"
)

// SESAPI is the SES v2 call used by SESMailer.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer delivers confirmations through AWS SES v2.
type SESMailer struct {
	client SESAPI
	from   Sender
	logger *logging.Logger
}

func NewSESMailer(client SESAPI, from Sender, logger *logging.Logger) *SESMailer {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESMailer{client: client, from: from.withDefaults(), logger: logger}
}

func (m *SESMailer) Deliver(ctx context.Context, c Confirmation) error {
	out, err := m.client.SendEmail(ctx, sesInput(m.from, c))
	if err != nil {
		return fmt.Errorf("notify: ses deliver %s: %w", c.AppointmentID, err)
	}
	m.logger.Info("confirmation sent via ses", "appointment_id", c.AppointmentID, "message_id", aws.ToString(out.MessageId))
	return nil
}

func sesInput(from Sender, c Confirmation) *sesv2.SendEmailInput {
	// net/mail encodes accented display names per RFC 2047.
	fromAddr := (&mail.Address{Name: from.Name, Address: from.Address}).String()
	to := c.To
	if c.Patient != "" {
		to = (&mail.Address{Name: c.Patient, Address: c.To}).String()
	}

	body := &types.Body{Text: utf8Content(c.Text)}
	if c.HTML != "" {
		body.Html = utf8Content(c.HTML)
	}
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddr),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(c.Subject), Body: body},
		},
		EmailTags: []types.MessageTag{{Name: aws.String("category"), Value: aws.String(confirmationCategory)}},
	}
	if from.ReplyTo != "" {
		in.ReplyToAddresses = []string{from.ReplyTo}
	}
	if c.Kind != "" {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("kind"), Value: aws.String(string(c.Kind))})
	}
	if c.AppointmentID != "" {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("appointment_id"), Value: aws.String(c.AppointmentID)})
	}
	return in
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

var _ Mailer = (*SESMailer)(nil)
