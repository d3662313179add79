package webhook

import (
	"time"

	"github.com/torneiomaker/messenger-bot/internal/ratelimit"
)

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithWebhookTimeout sets the per-event processing timeout.
func WithWebhookTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.webhookTimeout = timeout
		}
	}
}

// WithMaxBodyBytes caps the size of a webhook POST body.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithSenderLimiter drops events from senders that exceed their budget.
// Receipts and echoes are never limited.
func WithSenderLimiter(l *ratelimit.KeyedLimiter) HandlerOption {
	return func(h *Handler) {
		h.senderLimiter = l
	}
}
