package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/signet/internal/journal"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Journal string
	From    int64
	Limit   int
}

// EventsResult holds the journal dump.
type EventsResult struct {
	From   int64          `json:"from"`
	Count  int            `json:"count"`
	Events []EventSummary `json:"events"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Dump the event journal",
		Long: `Dump journaled events in position order, starting at a position.

Exit codes:
  0 - Events dumped
  2 - Command error (journal not found, etc.)

Examples:
  signet events --db ./signet.db
  signet events --db ./signet.db --from 10 --limit 50
  signet events --db ./signet.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.From, "from", 1, "first position to dump")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 = all)")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := journal.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	stamped, err := j.Read(ctx, opts.From, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := EventsResult{
		From:   opts.From,
		Count:  len(stamped),
		Events: summarize(stamped),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result})
	}

	w := cmd.OutOrStdout()
	if result.Count == 0 {
		fmt.Fprintln(w, "No events.")
		return nil
	}
	fmt.Fprintf(w, "%d event(s) from position %d\n", result.Count, result.From)
	for _, ev := range result.Events {
		printEventSummary(w, ev)
	}
	return nil
}
