package repo

import (
	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/item"
)

// Status is the current standing of a path in the repository.
type Status int

const (
	// StatusUnknown means the path has never been committed.
	StatusUnknown Status = iota
	// StatusKnown means the path resolves to a current revision.
	StatusKnown
	// StatusDeleted means the path's latest commit deleted it.
	// Historical revisions remain resolvable by exact id.
	StatusDeleted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusKnown:
		return "Known"
	case StatusDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// PathEntry is the per-path slot of the index: the current status and,
// when Known, the id of the latest revision.
type PathEntry struct {
	Status  Status
	Current item.ID
}

// Index is an immutable snapshot of the repository: every committed
// version id, every item revision, and the current status per path.
//
// Writers build a modified copy under the commit mutex and swap it in;
// readers hold a consistent snapshot and never observe a partially
// applied commit.
type Index struct {
	versions map[item.VersionID]bool
	items    map[item.ID]*item.Workflow
	paths    map[item.Path]PathEntry
}

func newIndex() *Index {
	return &Index{
		versions: make(map[item.VersionID]bool),
		items:    make(map[item.ID]*item.Workflow),
		paths:    make(map[item.Path]PathEntry),
	}
}

// clone copies the index maps. Workflow values are shared: they are
// immutable after decoding.
func (x *Index) clone() *Index {
	c := &Index{
		versions: make(map[item.VersionID]bool, len(x.versions)+1),
		items:    make(map[item.ID]*item.Workflow, len(x.items)+1),
		paths:    make(map[item.Path]PathEntry, len(x.paths)+1),
	}
	for v := range x.versions {
		c.versions[v] = true
	}
	for id, wf := range x.items {
		c.items[id] = wf
	}
	for p, e := range x.paths {
		c.paths[p] = e
	}
	return c
}

// HasVersion reports whether a version id exists in committed history.
func (x *Index) HasVersion(version item.VersionID) bool {
	return x.versions[version]
}

// Item resolves an exact revision id.
func (x *Index) Item(id item.ID) (*item.Workflow, bool) {
	wf, ok := x.items[id]
	return wf, ok
}

// PathEntry returns the current standing of a path.
func (x *Index) PathEntry(path item.Path) PathEntry {
	return x.paths[path]
}

// apply folds one event into the (mutable, pre-publication) index.
// Called while rebuilding from the journal and while staging a commit.
func (x *Index) apply(e event.Event) {
	switch e.Type {
	case event.TypeVersionAdded:
		x.versions[e.Version] = true
	case event.TypeItemAdded, event.TypeItemChanged:
		x.items[e.ID] = e.Workflow
		x.paths[e.ID.Path] = PathEntry{Status: StatusKnown, Current: e.ID}
	case event.TypeItemDeleted:
		x.paths[e.Path] = PathEntry{Status: StatusDeleted}
	}
}
