// Package booking turns a confirmed wizard draft into a stored appointment.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/observability/metrics"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("medexa.internal.booking")

// LoginPath is where unauthenticated submissions are sent.
const LoginPath = "/auth/login"

// ConfirmationSender is notified after an appointment is stored.
type ConfirmationSender interface {
	BookingConfirmed(ctx context.Context, appt *appointments.Appointment) error
}

// Gateway checks the session and performs the single insert for a draft.
// It implements wizard.Submitter.
type Gateway struct {
	auth    session.Authenticator
	repo    appointments.Repository
	confirm ConfirmationSender
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewGateway constructs a gateway. confirm and m may be nil.
func NewGateway(auth session.Authenticator, repo appointments.Repository, confirm ConfirmationSender, m *metrics.BookingMetrics, logger *logging.Logger) *Gateway {
	if auth == nil {
		panic("booking: authenticator required")
	}
	if repo == nil {
		panic("booking: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{auth: auth, repo: repo, confirm: confirm, metrics: m, logger: logger}
}

// LoginRedirect is the login path that returns to the wizard for kind.
func LoginRedirect(kind appointments.Kind) string {
	return LoginPath + "?redirect=" + wizard.OriginPath(kind)
}

// Submit persists the draft held by w. Without a session it returns a
// redirect outcome and writes nothing. Store failures are wrapped in
// wizard.ErrSubmissionFailed.
func (g *Gateway) Submit(ctx context.Context, w *wizard.Wizard) (*wizard.Outcome, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("medexa.kind", string(w.Kind)),
		attribute.String("medexa.draft_id", w.ID),
	)
	start := time.Now()
	observe := func(outcome string) {
		g.metrics.ObserveSubmission(string(w.Kind), outcome, time.Since(start).Seconds())
	}

	identity, err := g.auth.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			g.logger.Warn("session lookup failed, treating as signed out", "error", err)
		}
		observe("redirect")
		return &wizard.Outcome{Redirect: LoginRedirect(w.Kind)}, nil
	}
	span.SetAttributes(attribute.String("medexa.user_id", identity.ID))

	appt, err := BuildAppointment(w, identity.ID)
	if err != nil {
		observe("invalid")
		span.SetStatus(codes.Error, "invalid draft")
		return nil, err
	}

	created, err := g.repo.Create(ctx, appt)
	if err != nil {
		observe("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		g.logger.Error("failed to save appointment", "error", err, "draft_id", w.ID, "user_id", identity.ID, "kind", w.Kind)
		return nil, fmt.Errorf("%w: %w", wizard.ErrSubmissionFailed, err)
	}
	observe("created")
	span.SetAttributes(attribute.String("medexa.appointment_id", created.ID))
	g.logger.Info("appointment booked", "appointment_id", created.ID, "user_id", identity.ID, "kind", created.Kind, "cost", created.Cost)

	if g.confirm != nil {
		if err := g.confirm.BookingConfirmed(ctx, created); err != nil {
			g.metrics.ObserveEmail(false)
			g.logger.Warn("booking confirmation not sent", "error", err, "appointment_id", created.ID)
		} else {
			g.metrics.ObserveEmail(true)
		}
	}
	return &wizard.Outcome{Appointment: created}, nil
}
