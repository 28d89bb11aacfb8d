package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_AfterLifecycle(t *testing.T) {
	db := seedLifecycle(t)

	out, err := runCLI(t, "state", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "State at position 4")
	assert.Contains(t, out, "Versions: 2")
	assert.Contains(t, out, "V1")
	assert.Contains(t, out, "V2")
	assert.Contains(t, out, "Deleted")
	assert.Contains(t, out, "/B-WORKFLOW")
}

func TestState_KnownPathShowsVersion(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V1")
	manifest := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)
	_, err := runCLI(t, "commit", "--db", db, "--manifest", manifest)
	require.NoError(t, err)

	out, err := runCLI(t, "state", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Known")
	assert.Contains(t, out, "/B-WORKFLOW (V1)")
}

func TestState_EmptyJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "signet.db")

	out, err := runCLI(t, "state", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "State at position 0")
	assert.Contains(t, out, "Versions: 0")
	assert.Contains(t, out, "Paths: 0")
}

func TestState_JSONOutput(t *testing.T) {
	db := seedLifecycle(t)

	out, err := runCLI(t, "--format", "json", "state", "--db", db)
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(4), data["position"])

	paths, ok := data["paths"].([]interface{})
	require.True(t, ok)
	require.Len(t, paths, 1)
	entry, ok := paths[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/B-WORKFLOW", entry["path"])
	assert.Equal(t, "Deleted", entry["status"])
}
