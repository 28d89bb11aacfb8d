package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/signet/internal/journal"
	"github.com/roach88/signet/internal/proxy"
)

// StateOptions holds flags for the state command.
type StateOptions struct {
	*RootOptions
	Journal string
}

// StatePath is one path with its replicated standing.
type StatePath struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	VersionID string `json:"version_id,omitempty"`
}

// StateResult holds the folded Controller State summary.
type StateResult struct {
	Position int64       `json:"position"`
	Versions []string    `json:"versions"`
	Paths    []StatePath `json:"paths"`
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Fold the journal and print the current state",
		Long: `Fold the full event journal into a Controller State snapshot and
print the committed versions and the standing of every path.

Exit codes:
  0 - State printed
  2 - Command error (journal not found, etc.)

Examples:
  signet state --db ./signet.db
  signet state --db ./signet.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runState(opts *StateOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	state, err := foldJournal(ctx, opts.Journal)
	if err != nil {
		return err
	}

	result := stateResult(state)

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "State at position %d\n", result.Position)
	fmt.Fprintf(w, "Versions: %d\n", len(result.Versions))
	for _, v := range result.Versions {
		fmt.Fprintf(w, "  %s\n", v)
	}
	fmt.Fprintf(w, "Paths: %d\n", len(result.Paths))
	for _, p := range result.Paths {
		if p.VersionID != "" {
			fmt.Fprintf(w, "  %-10s %s (%s)\n", p.Status, p.Path, p.VersionID)
		} else {
			fmt.Fprintf(w, "  %-10s %s\n", p.Status, p.Path)
		}
	}
	return nil
}

// foldJournal reads the full journal and folds it from the empty state.
func foldJournal(ctx context.Context, path string) (*proxy.State, error) {
	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	stamped, err := j.Read(ctx, 1, 0)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	state := proxy.Empty()
	for _, ev := range stamped {
		state = proxy.Fold(state, ev)
	}
	return state, nil
}

func stateResult(state *proxy.State) StateResult {
	result := StateResult{
		Position: state.Position(),
		Versions: make([]string, 0, len(state.Versions())),
		Paths:    make([]StatePath, 0),
	}
	for _, v := range state.Versions() {
		result.Versions = append(result.Versions, string(v))
	}

	for path, status := range state.Paths() {
		entry := StatePath{Path: path.Name, Status: status.String()}
		if status == proxy.PathKnown {
			if wf, err := state.PathToWorkflow(path); err == nil {
				entry.VersionID = string(wf.Version())
			}
		}
		result.Paths = append(result.Paths, entry)
	}
	sort.Slice(result.Paths, func(i, j int) bool {
		return result.Paths[i].Path < result.Paths[j].Path
	})
	return result
}
