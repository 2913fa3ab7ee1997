package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for booking and intake flows. A nil *Metrics is a no-op.
type Metrics struct {
	slotFetches      *prometheus.CounterVec
	bookings         *prometheus.CounterVec
	bookingLatency   prometheus.Histogram
	reconcileInserts prometheus.Counter
	leads            *prometheus.CounterVec
	voiceCalls       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		slotFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "booking",
			Name:      "slot_fetch_total",
			Help:      "Slot list lookups by outcome",
		}, []string{"outcome"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Appointment submissions by result",
		}, []string{"result"}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "studio",
			Subsystem: "booking",
			Name:      "submission_latency_seconds",
			Help:      "Latency of appointment submissions",
			Buckets:   prometheus.DefBuckets,
		}),
		reconcileInserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "availability",
			Name:      "reconcile_inserted_total",
			Help:      "Default weekday rows created by reconciliation",
		}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Lead and form submissions by kind and result",
		}, []string{"kind", "result"}),
		voiceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "voice",
			Name:      "web_calls_total",
			Help:      "Voice web call provisioning attempts by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotFetches, m.bookings, m.bookingLatency, m.reconcileInserts, m.leads, m.voiceCalls)
	return m
}

func (m *Metrics) ObserveSlotFetch(outcome string) {
	if m == nil {
		return
	}
	m.slotFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBooking(result string, seconds float64) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
	m.bookingLatency.Observe(seconds)
}

func (m *Metrics) AddReconcileInserts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconcileInserts.Add(float64(n))
}

func (m *Metrics) ObserveLead(kind, result string) {
	if m == nil {
		return
	}
	m.leads.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveVoiceCall(result string) {
	if m == nil {
		return
	}
	m.voiceCalls.WithLabelValues(result).Inc()
}
