package logger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultRemoteBuffer = 1024
	remoteFlushTimeout  = 5 * time.Second
)

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// remoteSink owns the single goroutine that forwards records to a slow
// handler, so HTTP calls to the log backend never run on request paths.
// A full queue drops records rather than blocking.
type remoteSink struct {
	queue   chan queuedRecord
	done    sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Uint64
}

func newRemoteSink(size int) *remoteSink {
	if size <= 0 {
		size = defaultRemoteBuffer
	}
	s := &remoteSink{queue: make(chan queuedRecord, size)}
	s.done.Go(func() {
		for q := range s.queue {
			_ = q.handler.Handle(q.ctx, q.record)
		}
	})
	return s
}

func (s *remoteSink) wrap(h slog.Handler) slog.Handler {
	return &queuedHandler{sink: s, next: h}
}

func (s *remoteSink) push(ctx context.Context, r slog.Record, h slog.Handler) {
	if s.closed.Load() {
		return
	}
	select {
	case s.queue <- queuedRecord{ctx: context.WithoutCancel(ctx), record: r, handler: h}:
	default:
		s.dropped.Add(1)
	}
}

func (s *remoteSink) close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, remoteFlushTimeout)
		defer cancel()
	}
	close(s.queue)

	drained := make(chan struct{})
	go func() {
		s.done.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// queuedHandler hands records to the sink instead of handling them inline.
type queuedHandler struct {
	sink *remoteSink
	next slog.Handler
}

func (h *queuedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *queuedHandler) Handle(ctx context.Context, r slog.Record) error {
	h.sink.push(ctx, r.Clone(), h.next)
	return nil
}

func (h *queuedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &queuedHandler{sink: h.sink, next: h.next.WithAttrs(attrs)}
}

func (h *queuedHandler) WithGroup(name string) slog.Handler {
	return &queuedHandler{sink: h.sink, next: h.next.WithGroup(name)}
}

// fanout sends each record to every enabled handler.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
