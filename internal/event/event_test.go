package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/signet/internal/item"
)

func testWorkflow(t *testing.T, path string, version item.VersionID) *item.Workflow {
	t.Helper()
	return &item.Workflow{
		ID: item.ID{Path: item.MustWorkflowPath(path), Version: version},
		Instructions: []item.Instruction{
			{"TYPE": "Execute", "agentPath": "/AGENT"},
		},
	}
}

func TestEvent_ItemPath(t *testing.T) {
	path := item.MustWorkflowPath("/B-WORKFLOW")

	assert.Equal(t, path, ItemAdded(testWorkflow(t, "/B-WORKFLOW", "V1")).ItemPath())
	assert.Equal(t, path, ItemDeleted(path).ItemPath())
	assert.True(t, VersionAdded("V1").ItemPath().IsZero())
}

func TestEvent_WireRoundTrip(t *testing.T) {
	events := []Event{
		VersionAdded("V1"),
		ItemAdded(testWorkflow(t, "/B-WORKFLOW", "V1")),
		ItemChanged(testWorkflow(t, "/B-WORKFLOW", "V2")),
		ItemDeleted(item.MustWorkflowPath("/B-WORKFLOW")),
	}

	for _, e := range events {
		data, err := json.Marshal(e)
		require.NoError(t, err, "marshal %s", e.Type)

		var got Event
		require.NoError(t, json.Unmarshal(data, &got), "unmarshal %s", e.Type)
		assert.Equal(t, e, got)
	}
}

func TestEvent_WireDiscriminator(t *testing.T) {
	data, err := json.Marshal(ItemAdded(testWorkflow(t, "/B-WORKFLOW", "V1")))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "ItemAdded", doc["TYPE"])
	assert.Equal(t, "/B-WORKFLOW", doc["path"])
	assert.Equal(t, "V1", doc["versionId"])
	assert.NotNil(t, doc["workflow"], "content must travel with the event")
}

func TestEvent_UnmarshalRejectsUnknownType(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"TYPE":"OrderAdded"}`), &e)
	assert.Error(t, err)
}

func TestEvent_MarshalRejectsMissingContent(t *testing.T) {
	e := Event{Type: TypeItemAdded, ID: item.ID{Path: item.MustWorkflowPath("/A"), Version: "V1"}}
	_, err := json.Marshal(e)
	assert.Error(t, err)
}

func TestMatchPredicates(t *testing.T) {
	path := item.MustWorkflowPath("/B-WORKFLOW")
	other := item.MustWorkflowPath("/OTHER")

	added := Stamped{Position: 2, Keyed: KeyedRepo(ItemAdded(testWorkflow(t, "/B-WORKFLOW", "V1")))}
	deleted := Stamped{Position: 4, Keyed: KeyedRepo(ItemDeleted(path))}

	assert.True(t, MatchItemAdded(path)(added))
	assert.False(t, MatchItemAdded(other)(added))
	assert.False(t, MatchItemAdded(path)(deleted))

	assert.True(t, MatchItemDeleted(path)(deleted))
	assert.False(t, MatchItemDeleted(path)(added))
}
