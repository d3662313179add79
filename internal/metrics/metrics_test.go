package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.WebhookEventsTotal == nil || m.SendRequestsTotal == nil || m.StatsLookupsTotal == nil {
		t.Error("expected counters to be initialized")
	}
	if m.ConversationsActive == nil {
		t.Error("ConversationsActive is nil")
	}
}

func TestNew_SeparateRegistries(t *testing.T) {
	// Registering twice on the same registry panics; separate registries must not.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestRecordWebhookEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordWebhookEvent("message", "success", 0.2)
	m.RecordWebhookEvent("message", "success", 0.1)
	m.RecordWebhookEvent("delivery", "ignored", 0)

	if got := testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("message", "success")); got != 2 {
		t.Errorf("message/success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("delivery", "ignored")); got != 1 {
		t.Errorf("delivery/ignored = %v, want 1", got)
	}
}

func TestRecordSendAndLookups(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSend("text", "success", 0.1)
	m.RecordSend("image", "error", 0.3)
	m.RecordStatsLookup("not_found", 0.2)
	m.RecordProfileLookup("success", 0.05)

	if got := testutil.ToFloat64(m.SendRequestsTotal.WithLabelValues("image", "error")); got != 1 {
		t.Errorf("image/error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StatsLookupsTotal.WithLabelValues("not_found")); got != 1 {
		t.Errorf("not_found = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProfileLookupsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("profile success = %v, want 1", got)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetConversationsActive(7)
	m.RecordStageTransition("awaiting_name", "awaiting_name_confirmation")
	m.RecordHTTPError("invalid_signature")
	m.RecordSingleflightDedup("lolapi")

	if got := testutil.ToFloat64(m.ConversationsActive); got != 7 {
		t.Errorf("ConversationsActive = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("invalid_signature")); got != 1 {
		t.Errorf("invalid_signature = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SingleflightDedupTotal.WithLabelValues("lolapi")); got != 1 {
		t.Errorf("dedup = %v, want 1", got)
	}
}

func TestRateLimiterMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRateLimiterDrop("sender")
	m.SetRateLimiterKeys("sender", 3)

	if got := testutil.ToFloat64(m.RateLimiterDropsTotal.WithLabelValues("sender")); got != 1 {
		t.Errorf("drops = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RateLimiterKeys.WithLabelValues("sender")); got != 3 {
		t.Errorf("keys = %v, want 3", got)
	}
}
