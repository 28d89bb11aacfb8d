// Package item defines the versioned data model of the repository:
// typed item paths, caller-assigned version ids, and the decoded
// workflow objects placed under repository control.
package item

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind distinguishes item namespaces. Paths of different kinds never
// compare equal even when their names match.
type Kind string

// KindWorkflow is the only registered item kind.
const KindWorkflow Kind = "Workflow"

// Path is a stable, typed identifier for an item across versions.
// Comparison is value equality; Path is valid as a map key.
type Path struct {
	Kind Kind
	Name string
}

// NewWorkflowPath validates and NFC-normalizes a workflow path name.
//
// Names are normalized at the construction boundary so that two
// spellings of the same path are one key everywhere downstream.
// A valid name starts with "/" and has no empty segments.
func NewWorkflowPath(name string) (Path, error) {
	name = norm.NFC.String(name)
	if name == "" {
		return Path{}, fmt.Errorf("workflow path must not be empty")
	}
	if !strings.HasPrefix(name, "/") {
		return Path{}, fmt.Errorf("workflow path %q must start with %q", name, "/")
	}
	if strings.HasSuffix(name, "/") || strings.Contains(name, "//") {
		return Path{}, fmt.Errorf("workflow path %q has an empty segment", name)
	}
	return Path{Kind: KindWorkflow, Name: name}, nil
}

// MustWorkflowPath is NewWorkflowPath that panics on invalid input.
// For fixtures and tests with literal paths.
func MustWorkflowPath(name string) Path {
	p, err := NewWorkflowPath(name)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path name. The kind is implied by context.
func (p Path) String() string {
	return p.Name
}

// IsZero reports whether the path is the zero value.
func (p Path) IsZero() bool {
	return p.Kind == "" && p.Name == ""
}

// VersionID is an opaque, caller-chosen identifier naming one commit.
// It must be unique across the repository's history; ordering for
// display purposes is journal position, never lexical value.
type VersionID string

// ID identifies one concrete, immutable item revision.
type ID struct {
	Path    Path
	Version VersionID
}

// String renders the id as "path~version".
func (id ID) String() string {
	return id.Path.Name + "~" + string(id.Version)
}
