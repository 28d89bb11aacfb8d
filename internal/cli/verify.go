package cli

import (
	"context"
	"fmt"
	"reflect"

	"github.com/spf13/cobra"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Journal string
}

// VerifyResult holds the replay verification outcome.
type VerifyResult struct {
	Position      int64 `json:"position"`
	Deterministic bool  `json:"deterministic"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify deterministic replay of the journal",
		Long: `Fold the full journal twice from the empty state and verify both
folds produce identical snapshots.

Exit codes:
  0 - Replay is deterministic
  1 - Replay verification failed (snapshots differ)
  2 - Command error (journal not found, etc.)

Examples:
  signet verify --db ./signet.db
  signet verify --db ./signet.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	first, err := foldJournal(ctx, opts.Journal)
	if err != nil {
		return err
	}
	second, err := foldJournal(ctx, opts.Journal)
	if err != nil {
		return err
	}

	result := VerifyResult{
		Position:      first.Position(),
		Deterministic: reflect.DeepEqual(first, second),
	}

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.Deterministic {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "ReplayMismatch",
				Message: "replay verification failed",
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
			return err
		}
		if !result.Deterministic {
			return NewExitError(ExitFailure, "replay verification failed")
		}
		return nil
	}

	w := cmd.OutOrStdout()
	if result.Deterministic {
		fmt.Fprintf(w, "Replay verified deterministic through position %d\n", result.Position)
		return nil
	}
	fmt.Fprintf(w, "Replay verification failed at position %d\n", result.Position)
	return NewExitError(ExitFailure, "replay verification failed")
}
