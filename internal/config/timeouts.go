// Package config provides centralized timeout constants for the application.
//
// The Messenger platform expects the webhook to acknowledge a batch quickly
// and redelivers on timeouts, so the HTTP response is written before any
// outbound call is made. Processing then runs detached under WebhookProcessing.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds the processing of a single inbound event,
	// including every Send API call and lookup it triggers.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout. Payloads are small JSON bodies.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second

	// WebhookMaxBodyBytes caps the size of a webhook request body.
	WebhookMaxBodyBytes = 1 << 20
)

// Outbound timeouts
const (
	// OutboundRequest is the default per-call timeout for the Send API,
	// the profile lookup and the stats service.
	OutboundRequest = 10 * time.Second
)

// Health and shutdown
const (
	// ReadinessCheckTimeout bounds the /readyz handler.
	ReadinessCheckTimeout = 3 * time.Second

	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = time.Minute
)
