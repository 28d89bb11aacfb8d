// Package event defines the repository's domain events and their
// journal serialization. Events are immutable and totally ordered by
// journal position; the folded Controller State is a pure function of
// the event sequence alone.
package event

import (
	"github.com/roach88/signet/internal/item"
)

// Type discriminates the event union.
type Type string

const (
	// TypeVersionAdded opens a commit: a new version id entered history.
	TypeVersionAdded Type = "VersionAdded"

	// TypeItemAdded introduces a path that was previously Unknown.
	TypeItemAdded Type = "ItemAdded"

	// TypeItemChanged replaces an existing path with a new revision.
	TypeItemChanged Type = "ItemChanged"

	// TypeItemDeleted marks a Known path as Deleted. Historical
	// revisions stay resolvable by exact id.
	TypeItemDeleted Type = "ItemDeleted"
)

// Event is one entry of the tagged union. Exactly the fields relevant
// to its Type are set:
//
//	VersionAdded          Version
//	ItemAdded/ItemChanged ID, Workflow
//	ItemDeleted           Path
//
// ItemAdded and ItemChanged carry the decoded workflow so that a
// remote replicator can fold the journal into a complete state with
// no back-channel to the repository.
type Event struct {
	Type     Type
	Version  item.VersionID
	ID       item.ID
	Workflow *item.Workflow
	Path     item.Path
}

// VersionAdded constructs a VersionAdded event.
func VersionAdded(version item.VersionID) Event {
	return Event{Type: TypeVersionAdded, Version: version}
}

// ItemAdded constructs an ItemAdded event for a decoded workflow.
func ItemAdded(wf *item.Workflow) Event {
	return Event{Type: TypeItemAdded, ID: wf.ID, Workflow: wf}
}

// ItemChanged constructs an ItemChanged event for a decoded workflow.
func ItemChanged(wf *item.Workflow) Event {
	return Event{Type: TypeItemChanged, ID: wf.ID, Workflow: wf}
}

// ItemDeleted constructs an ItemDeleted event.
func ItemDeleted(path item.Path) Event {
	return Event{Type: TypeItemDeleted, Path: path}
}

// ItemPath returns the path the event concerns, or the zero Path for
// VersionAdded.
func (e Event) ItemPath() item.Path {
	switch e.Type {
	case TypeItemAdded, TypeItemChanged:
		return e.ID.Path
	case TypeItemDeleted:
		return e.Path
	default:
		return item.Path{}
	}
}

// RepoKey routes repository-level events. All events in this package
// use it; per-aggregate keys are reserved for future event kinds.
const RepoKey = "Repo"

// Keyed is an event together with its aggregate routing key.
type Keyed struct {
	Key   string
	Event Event
}

// KeyedRepo wraps a repository-level event.
func KeyedRepo(e Event) Keyed {
	return Keyed{Key: RepoKey, Event: e}
}

// Stamped is a Keyed event at its journal position. Position is the
// total order: position(a) < position(b) means a happened before b.
type Stamped struct {
	Position int64
	Keyed
}

// Predicate selects events, e.g. for replication-progress waits.
type Predicate func(Stamped) bool

// MatchItemAdded matches the ItemAdded event for a specific path.
func MatchItemAdded(path item.Path) Predicate {
	return func(s Stamped) bool {
		return s.Event.Type == TypeItemAdded && s.Event.ID.Path == path
	}
}

// MatchItemDeleted matches the ItemDeleted event for a specific path.
func MatchItemDeleted(path item.Path) Predicate {
	return func(s Stamped) bool {
		return s.Event.Type == TypeItemDeleted && s.Event.Path == path
	}
}
