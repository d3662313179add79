package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/torneiomaker/messenger-bot/internal/conversation"
	"github.com/torneiomaker/messenger-bot/internal/ctxutil"
	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
	"github.com/torneiomaker/messenger-bot/internal/logger"
	"github.com/torneiomaker/messenger-bot/internal/lolapi"
	"github.com/torneiomaker/messenger-bot/internal/messenger"
	"github.com/torneiomaker/messenger-bot/internal/metrics"
	"github.com/torneiomaker/messenger-bot/internal/ratelimit"
)

// Sender delivers one outbound action.
type Sender interface {
	Send(ctx context.Context, recipientID string, action messenger.Action) (*messenger.SendResponse, error)
}

// ProfileFetcher looks up a user's first name on the platform.
type ProfileFetcher interface {
	FirstName(ctx context.Context, userID string) (string, error)
}

// SummonerResolver resolves a summoner handle.
type SummonerResolver interface {
	Resolve(ctx context.Context, handle string) (lolapi.Result, error)
}

// Processor runs engine decisions against the outside world: it stores
// profiles, sends replies in order and performs lookups.
type Processor struct {
	engine    *Engine
	store     *conversation.Store
	sender    Sender
	profiles  ProfileFetcher
	summoners SummonerResolver
	limiter   *ratelimit.Limiter
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Engine    *Engine
	Store     *conversation.Store
	Sender    Sender
	Profiles  ProfileFetcher
	Summoners SummonerResolver
	// SendLimiter paces Send API calls across all users. Optional.
	SendLimiter *ratelimit.Limiter
	Logger      *logger.Logger
	Metrics     *metrics.Metrics // optional
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		engine:    cfg.Engine,
		store:     cfg.Store,
		sender:    cfg.Sender,
		profiles:  cfg.Profiles,
		summoners: cfg.Summoners,
		limiter:   cfg.SendLimiter,
		logger:    cfg.Logger.WithModule("processor"),
		metrics:   cfg.Metrics,
	}
}

// Process handles one event to completion. Events of the same sender are
// serialized; events of different senders run concurrently.
//
// Send and lookup failures are logged and never returned. The only error
// is a rejected state change, in which case the profile is left as it was.
func (p *Processor) Process(ctx context.Context, ev Event) error {
	src := ev.Source()
	ctx = ctxutil.WithUserID(ctx, src.SenderID)
	ctx = ctxutil.WithPageID(ctx, src.RecipientID)
	ctx = ctxutil.WithEventKind(ctx, string(ev.Kind()))

	if IsObservational(ev) {
		p.observe(ctx, ev)
		return nil
	}

	err := p.store.Update(src.SenderID, func(profile *conversation.Profile) error {
		d := p.engine.Handle(*profile, ev)
		*profile = d.Profile
		p.sendAll(ctx, src.SenderID, d.Actions)

		if d.Lookup == nil {
			return nil
		}
		next, ok := p.lookup(ctx, *profile, *d.Lookup)
		if !ok {
			return nil
		}
		*profile = next.Profile
		p.sendAll(ctx, src.SenderID, next.Actions)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update conversation %s: %w", src.SenderID, err)
	}
	return nil
}

// lookup runs the requested lookup and feeds the outcome back to the
// engine. ok is false when there is nothing to apply.
func (p *Processor) lookup(ctx context.Context, profile conversation.Profile, req Lookup) (Decision, bool) {
	switch req.Kind {
	case LookupProfile:
		start := time.Now()
		name, err := p.profiles.FirstName(ctx, profile.UserID)
		status := "success"
		switch {
		case err != nil:
			status = "error"
			p.logger.WithError(err).
				WithField("status_code", domerrors.StatusCode(err)).
				WarnContext(ctx, "Profile lookup failed, using typed name")
		case name == "":
			status = "empty"
		}
		if p.metrics != nil {
			p.metrics.RecordProfileLookup(status, time.Since(start).Seconds())
		}
		return p.engine.ApplyFirstName(profile, name), true

	case LookupSummoner:
		res, err := p.summoners.Resolve(ctx, req.Handle)
		if err != nil {
			p.logger.WithError(err).
				WithField("handle", req.Handle).
				WithField("status_code", domerrors.StatusCode(err)).
				ErrorContext(ctx, "Summoner lookup failed")
			return Decision{}, false
		}
		if !res.Found {
			p.logger.WithError(domerrors.ErrLookupNotFound).
				WithField("handle", req.Handle).
				InfoContext(ctx, "Summoner not found")
		}
		return p.engine.ApplySummoner(profile, res), true
	}
	return Decision{}, false
}

// sendAll delivers actions one after another so their order is preserved.
func (p *Processor) sendAll(ctx context.Context, recipientID string, actions []messenger.Action) {
	for _, action := range actions {
		p.send(ctx, recipientID, action)
	}
}

func (p *Processor) send(ctx context.Context, recipientID string, action messenger.Action) {
	kind := string(action.Kind)
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.logger.WithError(err).WithField("kind", kind).WarnContext(ctx, "Send skipped while waiting for rate limiter")
			p.recordSend(kind, "skipped", 0)
			return
		}
	}

	start := time.Now()
	resp, err := p.sender.Send(ctx, recipientID, action)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		p.logger.WithError(err).
			WithField("kind", kind).
			WithField("status_code", domerrors.StatusCode(err)).
			ErrorContext(ctx, "Failed calling Send API")
		p.recordSend(kind, "error", elapsed)
		return
	}

	p.logger.WithField("kind", kind).
		WithField("message_id", resp.MessageID).
		DebugContext(ctx, "Sent message")
	p.recordSend(kind, "success", elapsed)
}

func (p *Processor) recordSend(kind, status string, duration float64) {
	if p.metrics != nil {
		p.metrics.RecordSend(kind, status, duration)
	}
}

// observe logs events that never produce a reply.
func (p *Processor) observe(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case Echo:
		p.logger.WithFields(map[string]any{
			"mid":      ev.MID,
			"app_id":   ev.AppID,
			"metadata": ev.Metadata,
		}).DebugContext(ctx, "Received echo")
	case DeliveryReceipt:
		p.logger.WithFields(map[string]any{
			"mids":      ev.MIDs,
			"watermark": ev.Watermark,
		}).DebugContext(ctx, "Received delivery confirmation")
	case ReadReceipt:
		p.logger.WithFields(map[string]any{
			"watermark": ev.Watermark,
			"seq":       ev.Seq,
		}).DebugContext(ctx, "Received message read event")
	case AccountLink:
		p.logger.WithFields(map[string]any{
			"status":             ev.Status,
			"authorization_code": ev.AuthorizationCode,
		}).InfoContext(ctx, "Received account link event")
	}
}
