package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/item"
	"github.com/roach88/signet/internal/problem"
)

func wf(path string, version item.VersionID) *item.Workflow {
	return &item.Workflow{
		ID:           item.ID{Path: item.MustWorkflowPath(path), Version: version},
		Instructions: []item.Instruction{{"TYPE": "Execute"}},
	}
}

func stampAll(events ...event.Event) []event.Stamped {
	out := make([]event.Stamped, len(events))
	for i, e := range events {
		out[i] = event.Stamped{Position: int64(i + 1), Keyed: event.KeyedRepo(e)}
	}
	return out
}

func foldAll(s *State, events []event.Stamped) *State {
	for _, ev := range events {
		s = Fold(s, ev)
	}
	return s
}

func bLifecycle() []event.Stamped {
	return stampAll(
		event.VersionAdded("V1"),
		event.ItemAdded(wf("/B-WORKFLOW", "V1")),
		event.VersionAdded("V2"),
		event.ItemChanged(wf("/B-WORKFLOW", "V2")),
		event.VersionAdded("V3"),
		event.ItemDeleted(item.MustWorkflowPath("/B-WORKFLOW")),
	)
}

func TestFold_DoesNotMutateInput(t *testing.T) {
	empty := Empty()
	next := Fold(empty, stampAll(event.VersionAdded("V1"))[0])

	assert.Equal(t, int64(0), empty.Position())
	assert.Empty(t, empty.Versions())
	assert.Equal(t, int64(1), next.Position())
	assert.Equal(t, []item.VersionID{"V1"}, next.Versions())
}

func TestFold_IdempotentReplay(t *testing.T) {
	events := bLifecycle()

	// Folding the same prefix twice from empty yields identical snapshots.
	for prefix := 0; prefix <= len(events); prefix++ {
		a := foldAll(Empty(), events[:prefix])
		b := foldAll(Empty(), events[:prefix])
		assert.Equal(t, a, b, "prefix %d", prefix)
	}
}

func TestFold_PathLifecycle(t *testing.T) {
	path := item.MustWorkflowPath("/B-WORKFLOW")
	events := bLifecycle()

	s := Empty()
	assert.Equal(t, PathUnknown, s.PathStatus(path))

	s = foldAll(s, events[:2]) // V1 added
	assert.Equal(t, PathKnown, s.PathStatus(path))
	got, err := s.PathToWorkflow(path)
	require.NoError(t, err)
	assert.Equal(t, item.VersionID("V1"), got.Version())

	s = foldAll(s, events[2:4]) // changed to V2
	got, err = s.PathToWorkflow(path)
	require.NoError(t, err)
	assert.Equal(t, item.VersionID("V2"), got.Version())

	s = foldAll(s, events[4:]) // deleted
	assert.Equal(t, PathDeleted, s.PathStatus(path))
	_, err = s.PathToWorkflow(path)
	assert.Equal(t, problem.CodeItemDeleted, problem.CodeOf(err))

	// Both historical revisions stay resolvable by exact id.
	for _, v := range []item.VersionID{"V1", "V2"} {
		_, err := s.IDToWorkflow(item.ID{Path: path, Version: v})
		assert.NoError(t, err, "revision %s", v)
	}
}

func TestState_IDToWorkflow_MissIsUnknownKey(t *testing.T) {
	s := foldAll(Empty(), stampAll(
		event.VersionAdded("V1"),
		event.ItemAdded(wf("/B-WORKFLOW", "V1")),
	))

	// The path is known, but not under this version.
	_, err := s.IDToWorkflow(item.ID{Path: item.MustWorkflowPath("/B-WORKFLOW"), Version: "V9"})
	assert.Equal(t, problem.CodeUnknownKey, problem.CodeOf(err))
}

func TestState_PathToWorkflow_UnknownPath(t *testing.T) {
	_, err := Empty().PathToWorkflow(item.MustWorkflowPath("/NEVER"))
	assert.Equal(t, problem.CodeUnknownKey, problem.CodeOf(err))
}

func TestState_VersionsInCommitOrder(t *testing.T) {
	// "V10" sorts before "V9" lexically; commit order must win.
	s := foldAll(Empty(), stampAll(
		event.VersionAdded("V9"),
		event.VersionAdded("V10"),
	))
	assert.Equal(t, []item.VersionID{"V9", "V10"}, s.Versions())
}
