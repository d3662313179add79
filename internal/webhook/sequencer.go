package webhook

import "sync"

// sequencer hands out per-sender turns in the order they were reserved.
// Reservations happen synchronously in Handle, so events of one sender are
// processed in delivery order even when their batches run in separate
// goroutines. Different senders never wait on each other.
type sequencer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newSequencer() *sequencer {
	return &sequencer{tails: make(map[string]chan struct{})}
}

// turn is one reserved slot. wait blocks until the previous holder of the
// same key released. Only the goroutine that owns the turn may release it.
type turn struct {
	seq      *sequencer
	key      string
	prev     <-chan struct{}
	done     chan struct{}
	released bool
}

// reserve queues one turn per key, in order, under a single lock so that a
// batch is never interleaved with another batch's reservations.
func (s *sequencer) reserve(keys []string) []*turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]*turn, len(keys))
	for i, key := range keys {
		t := &turn{seq: s, key: key, prev: s.tails[key], done: make(chan struct{})}
		s.tails[key] = t.done
		turns[i] = t
	}
	return turns
}

func (t *turn) wait() {
	if t.prev != nil {
		<-t.prev
	}
}

func (t *turn) release() {
	if t.released {
		return
	}
	t.released = true

	t.seq.mu.Lock()
	if t.seq.tails[t.key] == t.done {
		delete(t.seq.tails, t.key)
	}
	t.seq.mu.Unlock()
	close(t.done)
}
