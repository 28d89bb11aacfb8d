// Package repo implements the authoritative item repository and its
// signed commit protocol. Commits validate a whole batch - signatures,
// decoding, version discipline, delete preconditions - and only then
// append the resulting events contiguously to the journal and swap the
// in-memory index. Queries observe either the state before a batch or
// the state fully after it, never an interleaving.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/signet/internal/crypt"
	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/item"
	"github.com/roach88/signet/internal/journal"
	"github.com/roach88/signet/internal/problem"
)

// Repo is the authoritative store. The commit mutex is the single
// serialization point: two commits never interleave their validation
// or their emitted events. Readers load the index snapshot without
// locking.
type Repo struct {
	mu       sync.Mutex // serializes validate-then-append
	journal  *journal.Journal
	verifier *crypt.Registry
	decoder  *item.Decoder
	index    atomic.Pointer[Index]
}

// New builds a repository over the journal and rebuilds the index by
// folding the journal's existing history.
func New(ctx context.Context, j *journal.Journal, verifier *crypt.Registry) (*Repo, error) {
	r := &Repo{
		journal:  j,
		verifier: verifier,
		decoder:  item.NewDecoder(),
	}

	idx := newIndex()
	history, err := j.Read(ctx, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}
	for _, ev := range history {
		idx.apply(ev.Event)
	}
	r.index.Store(idx)

	if len(history) > 0 {
		slog.Info("repository index rebuilt",
			"events", len(history),
			"last_position", history[len(history)-1].Position,
		)
	}
	return r, nil
}

// Snapshot returns the current index. The snapshot is immutable and
// stays consistent however long the caller holds it.
func (r *Repo) Snapshot() *Index {
	return r.index.Load()
}

// UpdateRepo commits a fixed slice of operations under one version id.
// Convenience wrapper over Commit for callers that already hold the
// whole batch.
func (r *Repo) UpdateRepo(ctx context.Context, version item.VersionID, ops []Operation) ([]event.Stamped, error) {
	ch := make(chan Operation, len(ops))
	for _, op := range ops {
		ch <- op
	}
	close(ch)
	return r.Commit(ctx, version, ch)
}

// Commit atomically applies a streamed batch of operations under one
// version id and returns the emitted events at their journal
// positions.
//
// Operations are validated as they arrive so that large batches never
// require the raw payloads to be buffered. Precondition order:
//
//  1. the version id must be new (checked before any operation is read)
//  2. per operation, in submission order: the payload must decode into
//     a known item type, its signature must verify, and its declared
//     version must equal the batch version; a Delete must target a
//     path that is Known as of the batch start with earlier in-batch
//     operations applied
//
// The first violation rejects the entire batch: no event is emitted,
// the index is untouched. Cancelling ctx aborts the same way.
func (r *Repo) Commit(ctx context.Context, version item.VersionID, ops <-chan Operation) ([]event.Stamped, error) {
	if version == "" {
		return nil, fmt.Errorf("version id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.index.Load()
	if base.HasVersion(version) {
		return nil, problem.New(problem.CodeDuplicateVersion,
			"version %q already exists in repository history", version)
	}

	staged := base.clone()
	staged.versions[version] = true
	events := []event.Keyed{event.KeyedRepo(event.VersionAdded(version))}

	for {
		var (
			op Operation
			ok bool
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("commit %q cancelled: %w", version, ctx.Err())
		case op, ok = <-ops:
		}
		if !ok {
			break
		}

		e, err := r.validateOp(version, staged, op)
		if err != nil {
			return nil, err
		}
		staged.apply(e)
		events = append(events, event.KeyedRepo(e))
	}

	positions, err := r.journal.Append(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("commit %q: %w", version, err)
	}
	r.index.Store(staged)

	slog.Info("commit applied",
		"version", version,
		"operations", len(events)-1,
		"first_position", positions[0],
		"last_position", positions[len(positions)-1],
	)

	stamped := make([]event.Stamped, len(events))
	for i, ke := range events {
		stamped[i] = event.Stamped{Position: positions[i], Keyed: ke}
	}
	return stamped, nil
}

// validateOp checks one operation against the staged state and returns
// the event it will emit.
func (r *Repo) validateOp(version item.VersionID, staged *Index, op Operation) (event.Event, error) {
	switch {
	case op.addOrReplace != nil:
		signed := *op.addOrReplace

		wf, err := r.decoder.Decode(signed.Payload)
		if err != nil {
			return event.Event{}, err
		}
		if err := r.verifier.Verify(signed); err != nil {
			return event.Event{}, err
		}
		if wf.Version() != version {
			return event.Event{}, problem.New(problem.CodeVersionMismatch,
				"item %s declares version %q, commit is %q", wf.Path(), wf.Version(), version)
		}

		if staged.PathEntry(wf.Path()).Status == StatusKnown {
			return event.ItemChanged(wf), nil
		}
		return event.ItemAdded(wf), nil

	case op.deletePath != nil:
		path := *op.deletePath
		entry := staged.PathEntry(path)
		switch entry.Status {
		case StatusKnown:
			return event.ItemDeleted(path), nil
		case StatusDeleted:
			return event.Event{}, problem.New(problem.CodeUnknownKey,
				"cannot delete %s: already deleted", path)
		default:
			return event.Event{}, problem.New(problem.CodeUnknownKey,
				"cannot delete %s: path is unknown", path)
		}

	default:
		return event.Event{}, fmt.Errorf("empty operation")
	}
}
