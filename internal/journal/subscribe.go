package journal

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/problem"
)

// DefaultBufferSize is the per-subscription channel capacity.
const DefaultBufferSize = 256

// notifier wakes subscription pumps after each append.
//
// Each pump registers a buffered signal channel of size 1; wake() is
// non-blocking and coalesces, the same signaling shape as a
// single-consumer event queue.
type notifier struct {
	mu      sync.Mutex
	signals map[string]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{signals: make(map[string]chan struct{})}
}

func (n *notifier) register(id string) chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan struct{}, 1)
	n.signals[id] = ch
	return ch
}

func (n *notifier) unregister(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.signals, id)
}

func (n *notifier) wake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.signals {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	bufferSize int
	batchSize  int
}

// WithBufferSize sets the subscription channel capacity.
//
// Overflow policy: when the consumer lags by more than the buffer, the
// subscription's own pump blocks; the journal never buffers further and
// the writer is never affected. Events are delayed, never dropped.
func WithBufferSize(n int) SubscribeOption {
	return func(c *subscribeConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// Subscription is a long-lived, ordered event stream from a recorded
// position. Consume Events() until it closes, then check Err():
//
//	for ev := range sub.Events() { ... }
//	if err := sub.Err(); err != nil { /* resync required */ }
//
// A nil Err after close means the subscription context ended normally.
type Subscription struct {
	id     string
	events chan event.Stamped
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// Events returns the ordered event channel. Closed when the
// subscription ends.
func (s *Subscription) Events() <-chan event.Stamped {
	return s.events
}

// Err returns the terminal error, if any. A JournalGap problem means
// the replication session is broken and the consumer must resubscribe
// from a known-good position and refold.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the subscription and releases its resources.
func (s *Subscription) Close() {
	s.cancel()
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Subscribe streams every event at position >= from, in order, exactly
// once. The stream is unbounded and restartable: a consumer that
// recorded position P may resubscribe from P at any time.
//
// The pump goroutine reads the journal at its own cursor, so a slow
// consumer delays only itself. A gap in positions fails the
// subscription with JournalGap; events are never silently skipped.
func (j *Journal) Subscribe(ctx context.Context, from int64, opts ...SubscribeOption) *Subscription {
	cfg := subscribeConfig{bufferSize: DefaultBufferSize, batchSize: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	if from < 1 {
		from = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:     uuid.Must(uuid.NewV7()).String(),
		events: make(chan event.Stamped, cfg.bufferSize),
		cancel: cancel,
	}

	wake := j.notifier.register(sub.id)

	go func() {
		defer close(sub.events)
		defer j.notifier.unregister(sub.id)
		defer cancel()

		slog.Debug("journal subscription started", "subscription", sub.id, "from", from)

		next := from
		for {
			batch, err := j.Read(ctx, next, cfg.batchSize)
			if err != nil {
				if ctx.Err() == nil {
					sub.fail(err)
					slog.Error("journal subscription read failed",
						"subscription", sub.id, "position", next, "error", err)
				}
				return
			}

			for _, ev := range batch {
				if ev.Position != next {
					gap := problem.New(problem.CodeJournalGap,
						"expected position %d, journal delivered %d", next, ev.Position)
					sub.fail(gap)
					slog.Error("journal gap detected",
						"subscription", sub.id, "expected", next, "got", ev.Position)
					return
				}
				select {
				case sub.events <- ev:
					next++
				case <-ctx.Done():
					return
				}
			}

			if len(batch) < cfg.batchSize {
				// Caught up - wait for the next append.
				select {
				case <-wake:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return sub
}
