package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/reqlbridge/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal string
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List journaled executions, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to show (0 for all)")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	exists, err := afero.Exists(opts.fs(), opts.Journal)
	if err != nil || !exists {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("journal not found: %s", opts.Journal)})
	}

	s, err := store.Open(opts.Journal)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeJournal, Message: fmt.Sprintf("opening journal: %v", err)})
	}
	defer s.Close()

	executions, err := s.ListExecutions(cmd.Context(), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeJournal, Message: err.Error()})
	}

	if formatter.Format == "json" {
		return formatter.Success(executions)
	}

	if len(executions) == 0 {
		fmt.Fprintln(formatter.Writer, "No executions recorded")
		return nil
	}
	for _, e := range executions {
		outcome := e.ResultHash
		if e.Status == store.StatusError {
			outcome = fmt.Sprintf("%s %s", e.ErrorCode, e.Error)
		}
		fmt.Fprintf(formatter.Writer, "%4d  %-12s %-20s %-5s %5dms  %s\n",
			e.Seq, e.Action, e.Entity, e.Status, e.DurationMS, outcome)
	}
	return nil
}
