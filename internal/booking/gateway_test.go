package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/medexa/medexa-platform/internal/appointments"
	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/internal/wizard"
	"github.com/medexa/medexa-platform/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	appointments.Repository
	creates int
	err     error
}

func (c *countingRepo) Create(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error) {
	c.creates++
	if c.err != nil {
		return nil, c.err
	}
	return c.Repository.Create(ctx, appt)
}

type fakeConfirmer struct {
	sent []*appointments.Appointment
	err  error
}

func (f *fakeConfirmer) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) error {
	f.sent = append(f.sent, appt)
	return f.err
}

func homeVisitAtConfirm(t *testing.T, urgency string) *wizard.Wizard {
	t.Helper()
	w, err := wizard.New(appointments.KindHomeVisit)
	require.NoError(t, err)
	require.NoError(t, w.SelectService("Presión arterial"))
	require.NoError(t, w.SelectService("Control de diabetes"))
	fields := map[string]string{
		"date":        "2025-06-01",
		"time":        "09:00 AM",
		"patientName": "Ana Ruiz",
		"patientAge":  "34",
		"phone":       "+504 9999-0000",
		"email":       "ana@example.com",
		"city":        "Tegucigalpa",
		"address":     "Col. Kennedy",
		"symptoms":    "Mareos",
	}
	if urgency != "" {
		fields["urgency"] = urgency
	}
	for name, value := range fields {
		require.NoError(t, w.SetField(name, value))
	}
	require.True(t, w.Advance())
	require.True(t, w.Advance())
	return w
}

func signedIn(auth *session.InMemoryAuthenticator) context.Context {
	tok := auth.Issue(session.Identity{ID: "user-1", Email: "ana@example.com"})
	return session.WithAccessToken(context.Background(), tok)
}

func TestSubmitHomeVisitHappyPath(t *testing.T) {
	auth := session.NewInMemoryAuthenticator()
	repo := appointments.NewInMemoryRepository()
	confirm := &fakeConfirmer{}
	gw := NewGateway(auth, repo, confirm, nil, logging.Discard())

	w := homeVisitAtConfirm(t, "")
	out, err := w.Submit(signedIn(auth), gw)
	require.NoError(t, err)
	require.NotNil(t, out.Appointment)
	assert.Empty(t, out.Redirect)
	assert.Equal(t, wizard.StepSubmitted, w.Step)

	appt := out.Appointment
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, 400.0, appt.Cost)
	assert.Equal(t, appointments.StatusConfirmed, appt.Status)
	assert.Equal(t, appointments.KindHomeVisit, appt.Kind)
	assert.Equal(t, "Enfermería a Domicilio", appt.Specialty)
	assert.Equal(t, "Presión arterial, Control de diabetes", appt.Services)
	assert.Equal(t, "Mareos", appt.Reason)
	assert.Equal(t, 34, appt.PatientAge)
	assert.Equal(t, "user-1", appt.UserID)

	stored, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, confirm.sent, 1)
}

func TestSubmitUrgencyPricing(t *testing.T) {
	auth := session.NewInMemoryAuthenticator()
	gw := NewGateway(auth, appointments.NewInMemoryRepository(), nil, nil, logging.Discard())

	for urgency, cost := range map[string]float64{"urgent": 600, "emergency": 800, "normal": 400} {
		w := homeVisitAtConfirm(t, urgency)
		out, err := w.Submit(signedIn(auth), gw)
		require.NoError(t, err, urgency)
		assert.Equal(t, cost, out.Appointment.Cost, urgency)
	}
}

func TestSubmitWithoutSessionRedirects(t *testing.T) {
	repo := &countingRepo{Repository: appointments.NewInMemoryRepository()}
	gw := NewGateway(session.NewInMemoryAuthenticator(), repo, nil, nil, logging.Discard())

	w := homeVisitAtConfirm(t, "")
	out, err := w.Submit(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/login?redirect=/agendar-domicilio", out.Redirect)
	assert.Nil(t, out.Appointment)
	assert.Zero(t, repo.creates)
	assert.Equal(t, wizard.StepConfirm, w.Step)
}

func TestSubmitTelemedicineRedirectPath(t *testing.T) {
	assert.Equal(t, "/auth/login?redirect=/agendar-telemedicina", LoginRedirect(appointments.KindTelemedicine))
}

func TestSubmitStoreFailureIsRetryable(t *testing.T) {
	auth := session.NewInMemoryAuthenticator()
	repo := &countingRepo{Repository: appointments.NewInMemoryRepository(), err: errors.New("connection refused")}
	gw := NewGateway(auth, repo, nil, nil, logging.Discard())

	w := homeVisitAtConfirm(t, "")
	_, err := w.Submit(signedIn(auth), gw)
	assert.ErrorIs(t, err, wizard.ErrSubmissionFailed)
	assert.Equal(t, wizard.StepConfirm, w.Step)
	assert.Equal(t, "Col. Kennedy", w.HomeVisit.Address)

	repo.err = nil
	out, err := w.Submit(signedIn(auth), gw)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Appointment.ID)
	assert.Equal(t, 2, repo.creates)
}

func TestSubmitConfirmationFailureDoesNotFailBooking(t *testing.T) {
	auth := session.NewInMemoryAuthenticator()
	gw := NewGateway(auth, appointments.NewInMemoryRepository(), &fakeConfirmer{err: errors.New("sendgrid 500")}, nil, logging.Discard())

	out, err := homeVisitAtConfirm(t, "").Submit(signedIn(auth), gw)
	require.NoError(t, err)
	assert.NotNil(t, out.Appointment)
}

func TestBuildTelemedicine(t *testing.T) {
	w, err := wizard.New(appointments.KindTelemedicine)
	require.NoError(t, err)
	for name, value := range map[string]string{
		"specialty": "ginecologia", "date": "2025-06-02", "time": "15:00",
		"patientName": "María", "patientAge": "29", "phone": "1", "email": "m@example.com",
		"city": "Choluteca", "reason": "Control anual",
	} {
		require.NoError(t, w.SetField(name, value))
	}

	appt, err := BuildAppointment(w, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "Ginecología", appt.Specialty)
	assert.Equal(t, 350.0, appt.Cost)
	assert.Empty(t, appt.Services)
	assert.Empty(t, appt.Urgency)
	assert.Empty(t, appt.Address)
	assert.Equal(t, "Control anual", appt.Reason)
	require.NoError(t, appt.Validate())
}

func TestBuildRejectsInvalidDrafts(t *testing.T) {
	w := homeVisitAtConfirm(t, "whenever")
	_, err := BuildAppointment(w, "user-1")
	assert.ErrorIs(t, err, wizard.ErrInvalidDraft)

	w = homeVisitAtConfirm(t, "")
	require.NoError(t, w.SetField("patientAge", "treinta"))
	_, err = BuildAppointment(w, "user-1")
	assert.ErrorIs(t, err, wizard.ErrInvalidDraft)

	tm, _ := wizard.New(appointments.KindTelemedicine)
	require.NoError(t, tm.SetField("specialty", "cardiologia"))
	_, err = BuildAppointment(tm, "user-1")
	assert.ErrorIs(t, err, wizard.ErrInvalidDraft)
}

func TestSubmitRejectsUnreadableSchedule(t *testing.T) {
	auth := session.NewInMemoryAuthenticator()
	repo := &countingRepo{Repository: appointments.NewInMemoryRepository()}
	gw := NewGateway(auth, repo, nil, nil, logging.Discard())

	tm, err := wizard.New(appointments.KindTelemedicine)
	require.NoError(t, err)
	for name, value := range map[string]string{
		"specialty": "cardiologia", "date": "mañana", "time": "cuando sea",
		"patientName": "Luis", "phone": "1", "email": "l@example.com", "reason": "Dolor de pecho",
	} {
		require.NoError(t, tm.SetField(name, value))
	}

	out, err := gw.Submit(signedIn(auth), tm)
	assert.ErrorIs(t, err, wizard.ErrInvalidDraft)
	assert.Nil(t, out)
	assert.Zero(t, repo.creates)
}

func TestBuildRejectsUnreadableSchedule(t *testing.T) {
	cases := []struct {
		name, date, tod string
	}{
		{"word date", "mañana", "09:00 AM"},
		{"word time", "2025-06-01", "cuando sea"},
		{"day first date", "01/06/2025", "15:00"},
		{"blank", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := homeVisitAtConfirm(t, "")
			w.HomeVisit.Date = tc.date
			w.HomeVisit.Time = tc.tod
			_, err := BuildAppointment(w, "user-1")
			assert.ErrorIs(t, err, wizard.ErrInvalidDraft)
		})
	}
}

func TestBuildBlankAgeIsZero(t *testing.T) {
	w := homeVisitAtConfirm(t, "")
	require.NoError(t, w.SetField("patientAge", " "))
	appt, err := BuildAppointment(w, "user-1")
	require.NoError(t, err)
	assert.Zero(t, appt.PatientAge)
}
