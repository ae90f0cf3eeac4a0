package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlbridge/internal/ir"
	"github.com/roach88/reqlbridge/internal/queryreql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	IDKey string
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Entity      string `json:"entity"`
	Action      string `json:"action"`
	Term        string `json:"term"`
	Fingerprint string `json:"fingerprint"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a query file to a ReQL term",
		Long: `Compile a YAML, CUE or JSON query file into the ReQL term the driver
would run. Nothing is sent to the database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.IDKey, "id-key", queryreql.DefaultIDKey, "primary key field omitted from create payloads when null")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := LoadQuery(opts.fs(), path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded %s from %s", q, path)

	compiler := &queryreql.Compiler{IDKey: opts.IDKey}
	term, err := compiler.Compile(q)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	termStr := term.String()
	if formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, termStr)
		return nil
	}

	fingerprint, err := ir.QueryFingerprint(q.Entity, string(q.Action), termStr)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	return formatter.Success(CompileResult{
		Entity:      q.Entity,
		Action:      string(q.Action),
		Term:        termStr,
		Fingerprint: fingerprint,
	})
}
