package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/medexa/medexa-platform/internal/appointments"
)

func sampleConfirmation() Confirmation {
	return Confirmation{
		AppointmentID: "appt-1",
		Kind:          appointments.KindHomeVisit,
		To:            "ana@example.com",
		Patient:       "Ana Núñez",
		Subject:       "Tu visita de enfermería a domicilio está confirmada",
		Text:          "Hola Ana",
		HTML:          "<p>Hola Ana</p>",
	}
}

func TestNewSendGridMailerNilWithoutAPIKey(t *testing.T) {
	if m := NewSendGridMailer("", Sender{Address: "citas@medexa.hn"}, nil); m != nil {
		t.Error("expected nil mailer when API key is empty")
	}
}

func TestNewSendGridMailerDefaultsSenderName(t *testing.T) {
	m := NewSendGridMailer("SG.key", Sender{Address: "citas@medexa.hn"}, nil)
	if m == nil {
		t.Fatal("expected non-nil mailer")
	}
	if m.from.Name != "Medexa" {
		t.Errorf("expected default sender name 'Medexa', got %q", m.from.Name)
	}
}

func TestSendGridMailerNilClient(t *testing.T) {
	m := &SendGridMailer{}
	if err := m.Deliver(context.Background(), sampleConfirmation()); err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestSendGridMessage(t *testing.T) {
	from := Sender{Address: "citas@medexa.hn", Name: "Medexa Citas", ReplyTo: "soporte@medexa.hn"}
	msg := sendGridMessage(from, sampleConfirmation())

	if msg.From.Address != "citas@medexa.hn" || msg.From.Name != "Medexa Citas" {
		t.Errorf("unexpected from %+v", msg.From)
	}
	if msg.ReplyTo == nil || msg.ReplyTo.Address != "soporte@medexa.hn" {
		t.Errorf("expected reply-to, got %+v", msg.ReplyTo)
	}
	if len(msg.Personalizations) != 1 || msg.Personalizations[0].To[0].Address != "ana@example.com" {
		t.Fatalf("unexpected personalizations %+v", msg.Personalizations)
	}
	if got := msg.Personalizations[0].CustomArgs["appointment_id"]; got != "appt-1" {
		t.Errorf("expected appointment_id custom arg, got %q", got)
	}
	if len(msg.Content) != 2 || msg.Content[0].Type != "text/plain" || msg.Content[1].Type != "text/html" {
		t.Errorf("expected text then html content, got %+v", msg.Content)
	}
	if strings.Join(msg.Categories, ",") != "booking-confirmation,domicilio" {
		t.Errorf("unexpected categories %v", msg.Categories)
	}
}

func TestSendGridMessageTextOnly(t *testing.T) {
	c := sampleConfirmation()
	c.HTML = ""
	msg := sendGridMessage(Sender{Address: "citas@medexa.hn"}.withDefaults(), c)
	if len(msg.Content) != 1 {
		t.Errorf("expected only text content, got %d parts", len(msg.Content))
	}
	if msg.ReplyTo != nil {
		t.Errorf("expected no reply-to, got %+v", msg.ReplyTo)
	}
}

func TestLogMailerDeliver(t *testing.T) {
	if err := NewLogMailer(nil).Deliver(context.Background(), sampleConfirmation()); err != nil {
		t.Errorf("log mailer should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailerDeliver(t *testing.T) {
	fake := &fakeSES{}
	m := NewSESMailer(fake, Sender{Address: "citas@medexa.hn", ReplyTo: "soporte@medexa.hn"}, nil)

	if err := m.Deliver(context.Background(), sampleConfirmation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(fake.input.FromEmailAddress); got != `"Medexa" <citas@medexa.hn>` {
		t.Errorf("unexpected from address %q", got)
	}
	to := fake.input.Destination.ToAddresses[0]
	if !strings.HasSuffix(to, "<ana@example.com>") || !strings.HasPrefix(to, "=?utf-8?") {
		t.Errorf("expected encoded patient name, got %q", to)
	}
	if len(fake.input.ReplyToAddresses) != 1 || fake.input.ReplyToAddresses[0] != "soporte@medexa.hn" {
		t.Errorf("unexpected reply-to %v", fake.input.ReplyToAddresses)
	}
	if fake.input.Content.Simple.Body.Html == nil || fake.input.Content.Simple.Body.Text == nil {
		t.Error("expected text and html bodies")
	}

	tags := map[string]string{}
	for _, tag := range fake.input.EmailTags {
		tags[aws.ToString(tag.Name)] = aws.ToString(tag.Value)
	}
	if tags["category"] != "booking-confirmation" || tags["kind"] != "domicilio" || tags["appointment_id"] != "appt-1" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestSESMailerDeliverError(t *testing.T) {
	m := NewSESMailer(&fakeSES{err: errors.New("throttled")}, Sender{Address: "citas@medexa.hn"}, nil)
	err := m.Deliver(context.Background(), sampleConfirmation())
	if err == nil || !strings.Contains(err.Error(), "appt-1") {
		t.Errorf("expected error naming the appointment, got %v", err)
	}
}
