package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for booking and room flows.
type BookingMetrics struct {
	submissions     *prometheus.CounterVec
	submitLatency   *prometheus.HistogramVec
	roomsCreated    *prometheus.CounterVec
	roomLatency     prometheus.Histogram
	wizardAdvances  *prometheus.CounterVec
	profileRepairs  prometheus.Counter
	emailsAttempted *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medexa",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by kind and outcome",
		}, []string{"kind", "outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medexa",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of booking submissions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		roomsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medexa",
			Subsystem: "rooms",
			Name:      "created_total",
			Help:      "Video room provisioning attempts by status",
		}, []string{"status"}),
		roomLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medexa",
			Subsystem: "rooms",
			Name:      "provision_latency_seconds",
			Help:      "Latency of Daily room creation",
			Buckets:   prometheus.DefBuckets,
		}),
		wizardAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medexa",
			Subsystem: "wizard",
			Name:      "advance_total",
			Help:      "Wizard advance attempts by kind and result",
		}, []string{"kind", "result"}),
		profileRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medexa",
			Subsystem: "profile",
			Name:      "patient_profiles_created_total",
			Help:      "Patient profiles created on read for accounts missing one",
		}),
		emailsAttempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medexa",
			Subsystem: "notify",
			Name:      "confirmation_emails_total",
			Help:      "Booking confirmation emails by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.submitLatency, m.roomsCreated, m.roomLatency,
		m.wizardAdvances, m.profileRepairs, m.emailsAttempted)
	return m
}

// ObserveSubmission records one gateway call. outcome is "created",
// "redirect", "invalid" or "failed".
func (m *BookingMetrics) ObserveSubmission(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
	m.submitLatency.WithLabelValues(kind).Observe(seconds)
}

func (m *BookingMetrics) ObserveRoom(ok bool, seconds float64) {
	if m == nil {
		return
	}
	m.roomsCreated.WithLabelValues(statusLabel(ok)).Inc()
	m.roomLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveAdvance(kind string, advanced bool) {
	if m == nil {
		return
	}
	result := "blocked"
	if advanced {
		result = "advanced"
	}
	m.wizardAdvances.WithLabelValues(kind, result).Inc()
}

func (m *BookingMetrics) ObserveProfileRepair() {
	if m == nil {
		return
	}
	m.profileRepairs.Inc()
}

func (m *BookingMetrics) ObserveEmail(ok bool) {
	if m == nil {
		return
	}
	m.emailsAttempted.WithLabelValues(statusLabel(ok)).Inc()
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
