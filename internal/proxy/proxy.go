package proxy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/item"
	"github.com/roach88/signet/internal/journal"
)

// ErrAwaitTimeout is returned by AwaitEvent when no matching event
// arrives within the timeout.
var ErrAwaitTimeout = errors.New("await event: timed out")

// ErrSessionEnded is returned by AwaitEvent when the replication
// session terminates before a matching event arrives. Err() carries
// the cause when the session failed.
var ErrSessionEnded = errors.New("await event: replication session ended")

// Proxy replicates the repository's state by folding the journal.
//
// One goroutine owns the fold: it consumes the subscription, folds
// each event in journal order, publishes the successor snapshot by
// atomic swap, and only then wakes waiters whose predicate matched.
// A query issued after a matched AwaitEvent therefore observes a
// snapshot folded at least through the matched event.
//
// A detected journal gap (or any subscription failure) is fatal to the
// session: Done() closes, Err() reports the cause, and the caller must
// start a fresh proxy to resync.
type Proxy struct {
	sub   *journal.Subscription
	state atomic.Pointer[State]
	done  chan struct{}

	mu      sync.Mutex
	waiters []*waiter
	err     error
}

type waiter struct {
	pred event.Predicate
	ch   chan event.Stamped // buffered, capacity 1
}

// Start subscribes to the journal from position 1 and begins folding.
// The returned proxy replicates until ctx is cancelled or the session
// fails.
func Start(ctx context.Context, j *journal.Journal, opts ...journal.SubscribeOption) *Proxy {
	p := &Proxy{
		sub:  j.Subscribe(ctx, 1, opts...),
		done: make(chan struct{}),
	}
	p.state.Store(Empty())
	go p.run()
	return p
}

// run is the single-writer fold loop.
func (p *Proxy) run() {
	defer close(p.done)

	slog.Info("replicator started")
	for ev := range p.sub.Events() {
		next := Fold(p.state.Load(), ev)
		p.state.Store(next)

		slog.Debug("event folded",
			"position", ev.Position,
			"type", ev.Event.Type,
			"path", ev.Event.ItemPath().Name,
		)

		p.notify(ev)
	}

	if err := p.sub.Err(); err != nil {
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		slog.Error("replication session failed", "error", err, "position", p.state.Load().Position())
	} else {
		slog.Info("replicator stopped", "position", p.state.Load().Position())
	}
}

// notify delivers the event to every waiter whose predicate matches,
// then drops those waiters. Buffered channels keep the fold loop from
// ever blocking on a slow awaiter.
func (p *Proxy) notify(ev event.Stamped) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.waiters[:0]
	for _, w := range p.waiters {
		if w.pred(ev) {
			w.ch <- ev
		} else {
			kept = append(kept, w)
		}
	}
	p.waiters = kept
}

// CurrentState returns the latest fully-folded snapshot. Never a
// partial fold: the fold loop publishes complete successors only.
func (p *Proxy) CurrentState() *State {
	return p.state.Load()
}

// IDToWorkflow resolves an exact revision id against the latest
// snapshot.
func (p *Proxy) IDToWorkflow(id item.ID) (*item.Workflow, error) {
	return p.CurrentState().IDToWorkflow(id)
}

// PathToWorkflow resolves a path against the latest snapshot.
func (p *Proxy) PathToWorkflow(path item.Path) (*item.Workflow, error) {
	return p.CurrentState().PathToWorkflow(path)
}

// AwaitEvent blocks until the first future event satisfying pred has
// been folded, and returns it. Events folded before the call never
// match. Fails with ErrAwaitTimeout after the timeout, with ctx's
// error on cancellation, and with ErrSessionEnded if replication
// stops; in every case the waiter is deregistered and its resources
// released.
func (p *Proxy) AwaitEvent(ctx context.Context, pred event.Predicate, timeout time.Duration) (event.Stamped, error) {
	w := &waiter{pred: pred, ch: make(chan event.Stamped, 1)}

	p.mu.Lock()
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()
	defer p.remove(w)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-w.ch:
		return ev, nil
	case <-timer.C:
		return event.Stamped{}, ErrAwaitTimeout
	case <-ctx.Done():
		return event.Stamped{}, ctx.Err()
	case <-p.done:
		if err := p.Err(); err != nil {
			return event.Stamped{}, err
		}
		return event.Stamped{}, ErrSessionEnded
	}
}

func (p *Proxy) remove(target *waiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == target {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

// Done closes when the replication session ends, normally or not.
func (p *Proxy) Done() <-chan struct{} {
	return p.done
}

// Err reports why the session failed, or nil after a clean shutdown.
// A JournalGap problem means the local state is no longer trustworthy
// and a fresh proxy must refold from the journal.
func (p *Proxy) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close stops replication and releases the subscription.
func (p *Proxy) Close() {
	p.sub.Close()
	<-p.done
}
