package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/signet/internal/crypt"
	"github.com/roach88/signet/internal/event"
	"github.com/roach88/signet/internal/item"
	"github.com/roach88/signet/internal/journal"
	"github.com/roach88/signet/internal/repo"
)

// CommitOptions holds flags for the commit command.
type CommitOptions struct {
	*RootOptions
	Journal  string
	Manifest string
}

// CommitManifest is the YAML description of one commit: the payload
// files to add or replace and the paths to delete, all under a single
// version id.
type CommitManifest struct {
	VersionID    string   `yaml:"versionId"`
	AddOrReplace []string `yaml:"addOrReplace"`
	Delete       []string `yaml:"delete"`
}

// CommitResult holds the outcome of a successful commit.
type CommitResult struct {
	VersionID string         `json:"version_id"`
	Events    []EventSummary `json:"events"`
}

// EventSummary is one journaled event, flattened for display.
type EventSummary struct {
	Position  int64  `json:"position"`
	Type      string `json:"type"`
	VersionID string `json:"version_id,omitempty"`
	Path      string `json:"path,omitempty"`
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit a signed batch of item operations",
		Long: `Commit a batch of item operations described by a YAML manifest.

The manifest names payload files to add or replace and item paths to
delete, all committed atomically under one version id. When the
manifest carries no versionId, a fresh UUIDv7 id is generated. Payloads
are signed with the local test signer.

Exit codes:
  0 - Commit accepted, events journaled
  1 - Commit rejected (duplicate version, tampered payload, etc.)
  2 - Command error (journal not found, unreadable manifest, etc.)

Examples:
  signet commit --db ./signet.db --manifest ./commit.yaml
  signet commit --db ./signet.db --manifest ./commit.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "path to commit manifest (required)")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runCommit(opts *CommitOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	manifest, err := loadManifest(opts.Manifest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	version := item.VersionID(manifest.VersionID)
	if version == "" {
		version = item.VersionID(uuid.Must(uuid.NewV7()).String())
	}

	signer := crypt.NewSillyVerifier("")
	ops := make([]repo.Operation, 0, len(manifest.AddOrReplace)+len(manifest.Delete))
	for _, file := range manifest.AddOrReplace {
		payload, err := os.ReadFile(resolveManifestPath(opts.Manifest, file))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read payload %s", file), err)
		}
		ops = append(ops, repo.AddOrReplace(signer.SillySign(string(payload))))
	}
	for _, name := range manifest.Delete {
		path, err := item.NewWorkflowPath(name)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid delete path %s", name), err)
		}
		ops = append(ops, repo.Delete(path))
	}
	if len(ops) == 0 {
		return NewExitError(ExitCommandError, "manifest names no operations")
	}

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	r, err := repo.New(ctx, j, crypt.NewRegistry(signer))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to rebuild repository index", err)
	}

	stamped, err := r.UpdateRepo(ctx, version, ops)
	if err != nil {
		if opts.Format == "json" {
			if werr := writeJSON(cmd.OutOrStdout(), errorResponse(err)); werr != nil {
				return werr
			}
		}
		return WrapExitError(ExitFailure, "commit rejected", err)
	}

	result := CommitResult{
		VersionID: string(version),
		Events:    summarize(stamped),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Committed version %s: %d event(s)\n", result.VersionID, len(result.Events))
	for _, ev := range result.Events {
		printEventSummary(w, ev)
	}
	return nil
}

func loadManifest(path string) (CommitManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CommitManifest{}, err
	}
	var manifest CommitManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return CommitManifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return manifest, nil
}

// resolveManifestPath resolves a payload file relative to the manifest
// location, so a manifest directory is self-contained.
func resolveManifestPath(manifestPath, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(filepath.Dir(manifestPath), file)
}

func summarize(stamped []event.Stamped) []EventSummary {
	out := make([]EventSummary, len(stamped))
	for i, ev := range stamped {
		version := ev.Event.Version
		if version == "" {
			version = ev.Event.ID.Version
		}
		out[i] = EventSummary{
			Position:  ev.Position,
			Type:      string(ev.Event.Type),
			VersionID: string(version),
			Path:      ev.Event.ItemPath().Name,
		}
	}
	return out
}

func printEventSummary(w io.Writer, ev EventSummary) {
	switch {
	case ev.Path != "":
		fmt.Fprintf(w, "  %4d  %-12s %s\n", ev.Position, ev.Type, ev.Path)
	case ev.VersionID != "":
		fmt.Fprintf(w, "  %4d  %-12s %s\n", ev.Position, ev.Type, ev.VersionID)
	default:
		fmt.Fprintf(w, "  %4d  %-12s\n", ev.Position, ev.Type)
	}
}
