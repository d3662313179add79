package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookEventsTotal     *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Send API metrics
	SendRequestsTotal   *prometheus.CounterVec
	SendDurationSeconds *prometheus.HistogramVec

	// Lookup metrics
	StatsLookupsTotal   *prometheus.CounterVec
	ProfileLookupsTotal *prometheus.CounterVec
	LookupDuration      *prometheus.HistogramVec

	// Conversation metrics
	ConversationsActive prometheus.Gauge
	StageTransitions    *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropsTotal *prometheus.CounterVec
	RateLimiterKeys       *prometheus.GaugeVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	m := &Metrics{
		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_webhook_events_total",
				Help: "Total number of inbound events by kind and status",
			},
			[]string{"event_kind", "status"}, // status: success, error, ignored, unknown
		),

		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "torneio_webhook_duration_seconds",
				Help:    "Event processing duration in seconds by kind, including outbound calls",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"event_kind"},
		),

		SendRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_send_requests_total",
				Help: "Total number of Send API calls by action kind and status",
			},
			[]string{"kind", "status"}, // status: success, error
		),

		SendDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "torneio_send_duration_seconds",
				Help:    "Send API call duration in seconds by action kind",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind"},
		),

		StatsLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_stats_lookups_total",
				Help: "Total number of summoner lookups by result",
			},
			[]string{"result"}, // result: found, not_found, error
		),

		ProfileLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_profile_lookups_total",
				Help: "Total number of platform profile lookups by status",
			},
			[]string{"status"}, // status: success, empty, error
		),

		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "torneio_lookup_duration_seconds",
				Help:    "Outbound lookup duration in seconds by target",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"target"}, // target: profile, summoner
		),

		ConversationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "torneio_conversations_active",
				Help: "Number of users with conversation state held in memory",
			},
		),

		StageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_stage_transitions_total",
				Help: "Total number of conversation stage changes",
			},
			[]string{"from", "to"},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_http_errors_total",
				Help: "Total webhook request rejections by error type",
			},
			[]string{"error_type"}, // error_type: invalid_signature, invalid_body, verify_failed
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"},
		),

		RateLimiterDropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "torneio_rate_limiter_drops_total",
				Help: "Total number of inbound events dropped by a rate limiter",
			},
			[]string{"limiter"},
		),

		RateLimiterKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "torneio_rate_limiter_keys",
				Help: "Number of keys currently tracked by a keyed rate limiter",
			},
			[]string{"limiter"},
		),
	}

	return m
}

// RecordWebhookEvent records one processed inbound event
func (m *Metrics) RecordWebhookEvent(kind, status string, duration float64) {
	m.WebhookEventsTotal.WithLabelValues(kind, status).Inc()
	if duration > 0 {
		m.WebhookDurationSeconds.WithLabelValues(kind).Observe(duration)
	}
}

// RecordSend records one Send API call
func (m *Metrics) RecordSend(kind, status string, duration float64) {
	m.SendRequestsTotal.WithLabelValues(kind, status).Inc()
	m.SendDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordStatsLookup records a summoner lookup outcome
func (m *Metrics) RecordStatsLookup(result string, duration float64) {
	m.StatsLookupsTotal.WithLabelValues(result).Inc()
	m.LookupDuration.WithLabelValues("summoner").Observe(duration)
}

// RecordProfileLookup records a platform profile lookup outcome
func (m *Metrics) RecordProfileLookup(status string, duration float64) {
	m.ProfileLookupsTotal.WithLabelValues(status).Inc()
	m.LookupDuration.WithLabelValues("profile").Observe(duration)
}

// SetConversationsActive sets the number of users with in-memory state
func (m *Metrics) SetConversationsActive(count int) {
	m.ConversationsActive.Set(float64(count))
}

// RecordStageTransition records a conversation stage change
func (m *Metrics) RecordStageTransition(from, to string) {
	m.StageTransitions.WithLabelValues(from, to).Inc()
}

// RecordHTTPError records a rejected webhook request
func (m *Metrics) RecordHTTPError(errorType string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// RecordRateLimiterDrop records an event rejected by a limiter
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	m.RateLimiterDropsTotal.WithLabelValues(limiter).Inc()
}

// SetRateLimiterKeys sets the number of keys tracked by a keyed limiter
func (m *Metrics) SetRateLimiterKeys(limiter string, count int) {
	m.RateLimiterKeys.WithLabelValues(limiter).Set(float64(count))
}
