// Package webhook serves the Messenger webhook: subscription verification on
// GET and signed event batches on POST.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/torneiomaker/messenger-bot/internal/bot"
	"github.com/torneiomaker/messenger-bot/internal/config"
	"github.com/torneiomaker/messenger-bot/internal/ctxutil"
	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
	"github.com/torneiomaker/messenger-bot/internal/logger"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
	"github.com/torneiomaker/messenger-bot/internal/metrics"
	"github.com/torneiomaker/messenger-bot/internal/ratelimit"
	"github.com/torneiomaker/messenger-bot/internal/sentry"
)

// EventProcessor handles one classified event to completion.
type EventProcessor interface {
	Process(ctx context.Context, ev bot.Event) error
}

// Handler handles Messenger webhook requests
type Handler struct {
	appSecret       string
	validationToken string
	processor       EventProcessor
	metrics         *metrics.Metrics
	logger          *logger.Logger
	senderLimiter   *ratelimit.KeyedLimiter // optional, per sender id
	wg              sync.WaitGroup          // async batch processing
	order           *sequencer              // per-sender delivery order across batches

	webhookTimeout time.Duration
	maxBodyBytes   int64
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	AppSecret       string
	ValidationToken string
	Processor       EventProcessor
	Metrics         *metrics.Metrics
	Logger          *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig, opts ...HandlerOption) *Handler {
	h := &Handler{
		appSecret:       cfg.AppSecret,
		validationToken: cfg.ValidationToken,
		processor:       cfg.Processor,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger.WithModule("webhook"),
		webhookTimeout:  config.WebhookProcessing,
		maxBodyBytes:    config.WebhookMaxBodyBytes,
		order:           newSequencer(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Verify answers the subscription handshake.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")

	if mode != "subscribe" || token == "" || token != h.validationToken {
		h.logger.WithField("mode", mode).Warn("Webhook validation failed; tokens do not match")
		h.recordHTTPError("verify_failed")
		c.Status(http.StatusForbidden)
		return
	}

	h.logger.Info("Webhook validated")
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Handle is the Gin handler for event delivery.
func (h *Handler) Handle(c *gin.Context) {
	// 1. Read and authenticate the raw body
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WithField("limit", tooLarge.Limit).Warn("Webhook body too large")
			h.recordHTTPError("invalid_body")
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.WithError(err).Error("Failed to read webhook body")
		c.Status(http.StatusBadRequest)
		return
	}

	if err := messenger.VerifyRequest(h.appSecret, c.Request.Header, body); err != nil {
		errorType := "invalid_body"
		if domerrors.IsSignatureMismatch(err) {
			errorType = "invalid_signature"
		}
		h.logger.WithError(err).Warn("Invalid webhook signature")
		h.recordHTTPError(errorType)
		c.Status(http.StatusBadRequest)
		return
	}

	// 2. Parse
	var cb messenger.Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		h.logger.WithError(err).Warn("Invalid webhook body")
		h.recordHTTPError("invalid_body")
		c.Status(http.StatusBadRequest)
		return
	}

	// 3. Acknowledge before processing
	c.Status(http.StatusOK)

	if cb.Object != messenger.ObjectPage {
		h.logger.WithField("object", cb.Object).Debug("Ignoring non-page callback")
		return
	}

	// The request context is canceled once the response is written.
	baseCtx := ctxutil.PreserveTracing(c.Request.Context())

	var events []messenger.MessagingEvent
	var senders []string
	for _, entry := range cb.Entry {
		for _, raw := range entry.Messaging {
			events = append(events, raw)
			senders = append(senders, raw.Sender.ID)
		}
	}
	// Reserve turns before responding so a later POST from the same sender
	// queues behind this one.
	turns := h.order.reserve(senders)

	h.wg.Go(func() {
		defer func() {
			for _, t := range turns {
				t.release()
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
				sentry.RecoverPanic(baseCtx, r)
			}
		}()

		for i, raw := range events {
			turns[i].wait()
			h.processEvent(baseCtx, raw)
			turns[i].release()
		}
	})
}

// processEvent classifies and processes a single messaging event.
func (h *Handler) processEvent(baseCtx context.Context, raw messenger.MessagingEvent) {
	start := time.Now()

	log := h.logger.WithField("sender_id", raw.Sender.ID)
	if requestID, ok := ctxutil.GetRequestID(baseCtx); ok {
		log = log.WithRequestID(requestID)
	}

	ev, ok := bot.Classify(raw)
	if !ok {
		log.WithError(domerrors.ErrUnknownEventShape).
			WithField("timestamp", raw.Timestamp).
			Warn("Webhook received unknown messaging event")
		h.recordEvent(bot.KindUnknown, "unknown", start)
		return
	}
	kind := ev.Kind()

	if h.senderLimiter != nil && !bot.IsObservational(ev) && !h.senderLimiter.Allow(raw.Sender.ID) {
		log.WithField("event_kind", string(kind)).Warn("Sender rate limit exceeded; dropping event")
		h.recordEvent(kind, "rate_limited", start)
		return
	}

	ctx, cancel := context.WithTimeout(baseCtx, h.webhookTimeout)
	defer cancel()

	status := "success"
	if err := h.processor.Process(ctx, ev); err != nil {
		status = "error"
		log.WithError(err).WithField("event_kind", string(kind)).Error("Failed to handle event")
		sentry.CaptureExceptionWithContext(ctx, fmt.Errorf("process %s event: %w", kind, err), map[string]string{
			"event_kind": string(kind),
		})
	} else if bot.IsObservational(ev) {
		status = "observed"
	}
	h.recordEvent(kind, status, start)

	log.WithField("event_kind", string(kind)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("Event processed")
}

func (h *Handler) recordEvent(kind bot.Kind, status string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordWebhookEvent(string(kind), status, time.Since(start).Seconds())
}

func (h *Handler) recordHTTPError(errorType string) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordHTTPError(errorType)
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
