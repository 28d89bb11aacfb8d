// Package proxy implements the client-side state replicator: a
// subscriber that folds the event journal into a locally queryable
// Controller State mirroring the repository's authoritative state.
package proxy

import (
	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/item"
	"github.com/roach88/signet/internal/problem"
)

// PathStatus is the replicated standing of a path.
type PathStatus int

const (
	// PathUnknown: no commit for this path has been folded yet.
	PathUnknown PathStatus = iota
	// PathKnown: the path resolves to a current revision.
	PathKnown
	// PathDeleted: the latest folded commit deleted the path.
	PathDeleted
)

// String returns the status name.
func (s PathStatus) String() string {
	switch s {
	case PathKnown:
		return "Known"
	case PathDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

type pathEntry struct {
	status  PathStatus
	current item.ID
}

// State is an immutable Controller State snapshot: every folded item
// revision, the current status per path, and the journal position the
// snapshot has folded through.
//
// State is a pure fold of the event sequence from Empty: replaying the
// same journal prefix always yields the same snapshot.
type State struct {
	items    map[item.ID]*item.Workflow
	paths    map[item.Path]pathEntry
	versions []item.VersionID // in commit order (journal order)
	position int64
}

// Empty is the snapshot before any event has been folded.
func Empty() *State {
	return &State{
		items: make(map[item.ID]*item.Workflow),
		paths: make(map[item.Path]pathEntry),
	}
}

// Fold applies one stamped event and returns the successor snapshot.
// The input snapshot is not modified; holders of older snapshots keep
// a consistent view.
func Fold(s *State, ev event.Stamped) *State {
	next := &State{
		items:    make(map[item.ID]*item.Workflow, len(s.items)+1),
		paths:    make(map[item.Path]pathEntry, len(s.paths)+1),
		versions: s.versions,
		position: ev.Position,
	}
	for id, wf := range s.items {
		next.items[id] = wf
	}
	for p, e := range s.paths {
		next.paths[p] = e
	}

	e := ev.Event
	switch e.Type {
	case event.TypeVersionAdded:
		next.versions = append(s.versions[:len(s.versions):len(s.versions)], e.Version)
	case event.TypeItemAdded, event.TypeItemChanged:
		next.items[e.ID] = e.Workflow
		next.paths[e.ID.Path] = pathEntry{status: PathKnown, current: e.ID}
	case event.TypeItemDeleted:
		next.paths[e.Path] = pathEntry{status: PathDeleted}
	}
	return next
}

// Position returns the journal position the snapshot has folded
// through; 0 for Empty.
func (s *State) Position() int64 {
	return s.position
}

// Versions returns the folded version ids in commit order. Display
// order is journal order, never lexical.
func (s *State) Versions() []item.VersionID {
	return s.versions
}

// PathStatus returns the current standing of a path.
func (s *State) PathStatus(path item.Path) PathStatus {
	return s.paths[path].status
}

// IDToWorkflow resolves an exact revision id. A miss is UnknownKey
// even when the path is known under a different version.
func (s *State) IDToWorkflow(id item.ID) (*item.Workflow, error) {
	wf, ok := s.items[id]
	if !ok {
		return nil, problem.New(problem.CodeUnknownKey, "unknown workflow id %s", id)
	}
	return wf, nil
}

// PathToWorkflow resolves a path to its latest known revision.
// Unknown paths yield UnknownKey; deleted paths yield ItemDeleted.
func (s *State) PathToWorkflow(path item.Path) (*item.Workflow, error) {
	entry := s.paths[path]
	switch entry.status {
	case PathKnown:
		return s.items[entry.current], nil
	case PathDeleted:
		return nil, problem.New(problem.CodeItemDeleted, "workflow %s has been deleted", path)
	default:
		return nil, problem.New(problem.CodeUnknownKey, "unknown workflow path %s", path)
	}
}

// Paths returns every path the snapshot has seen with its status.
func (s *State) Paths() map[item.Path]PathStatus {
	out := make(map[item.Path]PathStatus, len(s.paths))
	for p, e := range s.paths {
		out[p] = e.status
	}
	return out
}
