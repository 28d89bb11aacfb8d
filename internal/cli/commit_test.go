package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit_AddWorkflow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V1")
	manifest := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)

	out, err := runCLI(t, "commit", "--db", db, "--manifest", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "Committed version V1: 2 event(s)")
	assert.Contains(t, out, "VersionAdded")
	assert.Contains(t, out, "/B-WORKFLOW")
}

func TestCommit_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V1")
	manifest := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)

	out, err := runCLI(t, "--format", "json", "commit", "--db", db, "--manifest", manifest)
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "V1", data["version_id"])
}

func TestCommit_DuplicateVersionRejected(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V1")
	manifest := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)

	_, err := runCLI(t, "commit", "--db", db, "--manifest", manifest)
	require.NoError(t, err)

	_, err = runCLI(t, "commit", "--db", db, "--manifest", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "DuplicateVersion")
}

func TestCommit_VersionMismatchRejected(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	// Payload declares V9 but the manifest commits under V1.
	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V9")
	manifest := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)

	_, err := runCLI(t, "commit", "--db", db, "--manifest", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "VersionMismatch")
}

func TestCommit_GeneratedVersionID(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V1")
	add := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)
	// No versionId: a UUIDv7 id is generated. Works for delete-only
	// commits, where no payload constrains the version.
	del := writeFile(t, dir, "delete.yaml", `delete:
  - /B-WORKFLOW
`)

	_, err := runCLI(t, "commit", "--db", db, "--manifest", add)
	require.NoError(t, err)

	out, err := runCLI(t, "commit", "--db", db, "--manifest", del)
	require.NoError(t, err)
	assert.Contains(t, out, "2 event(s)")
	assert.Contains(t, out, "ItemDeleted")
}

func TestCommit_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")

	_, err := runCLI(t, "commit", "--db", db, "--manifest", filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCommit_EmptyManifest(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")
	manifest := writeFile(t, dir, "empty.yaml", `versionId: V1
`)

	_, err := runCLI(t, "commit", "--db", db, "--manifest", manifest)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no operations")
}
