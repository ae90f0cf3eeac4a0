package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlbridge/internal/queryir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Check a query file without compiling it",
		Long: `Check a query file for constructs RethinkDB cannot express (unions,
unknown operators) and for constructs that compile but are probably
mistakes, such as a prefix match against a number.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := LoadQuery(opts.fs(), path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	res := queryir.Validate(q)
	result := ValidationResult{
		Valid:    res.Compilable,
		Warnings: res.Warnings,
		Errors:   res.Errors,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, path, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, path string, result ValidationResult) {
	if result.Valid {
		fmt.Fprintf(formatter.Writer, "✓ %s compiles\n", path)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s does not compile\n", path)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  error: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
	}
}
