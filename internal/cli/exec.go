package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlbridge/internal/ir"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Journal string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <query-file>",
		Short: "Run a query file against RethinkDB",
		Long: `Compile a query file, run it against the configured RethinkDB server
and print the result as canonical JSON.

create prints the new document's key, fetch the matching documents,
modify and delete the changed document (or [] when nothing matched).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the execution in this SQLite journal")

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := LoadQuery(opts.fs(), path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	d, cleanup, err := openDriver(opts.RootOptions, opts.Journal)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer cleanup()

	formatter.VerboseLog("Executing %s", q)

	result, err := d.Execute(cmd.Context(), q)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(data))
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}
