package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with the given arguments and
// captures its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkflowPayload(t *testing.T, dir, name, path string, version string) string {
	t.Helper()
	payload := fmt.Sprintf(`{
  "TYPE": "Workflow",
  "path": %q,
  "versionId": %q,
  "instructions": [{"TYPE": "Execute", "agentPath": "/AGENT"}]
}`, path, version)
	return writeFile(t, dir, name, payload)
}

// seedLifecycle commits the add/delete lifecycle of /B-WORKFLOW into a
// fresh journal and returns the journal path.
func seedLifecycle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "signet.db")

	writeWorkflowPayload(t, dir, "b-workflow.json", "/B-WORKFLOW", "V1")
	add := writeFile(t, dir, "add.yaml", `versionId: V1
addOrReplace:
  - b-workflow.json
`)
	del := writeFile(t, dir, "delete.yaml", `versionId: V2
delete:
  - /B-WORKFLOW
`)

	_, err := runCLI(t, "commit", "--db", db, "--manifest", add)
	require.NoError(t, err)
	_, err = runCLI(t, "commit", "--db", db, "--manifest", del)
	require.NoError(t, err)

	return db
}
