package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reqlbridge/internal/queryir"
)

// SchemaOptions holds flags shared by the schema subcommands.
type SchemaOptions struct {
	*RootOptions
	Journal string
	Fields  []string
	Remove  []string
}

// NewSchemaCommand creates the schema command and its subcommands.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create, modify or drop tables",
	}
	cmd.PersistentFlags().StringVar(&opts.Journal, "journal", "", "record the operation in this SQLite journal")

	create := &cobra.Command{
		Use:           "create <table>",
		Short:         "Create a table and wait until it is ready",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd, queryir.CreateTable{Table: args[0], Fields: opts.Fields})
		},
	}
	create.Flags().StringSliceVar(&opts.Fields, "field", nil, "declared field (informational, tables are schemaless)")

	modify := &cobra.Command{
		Use:           "modify <table>",
		Short:         "Accept a field change; tables are schemaless so nothing is sent",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd, queryir.ModifyTable{Table: args[0], Add: opts.Fields, Remove: opts.Remove})
		},
	}
	modify.Flags().StringSliceVar(&opts.Fields, "add", nil, "field to add")
	modify.Flags().StringSliceVar(&opts.Remove, "remove", nil, "field to remove")

	drop := &cobra.Command{
		Use:           "drop <table>",
		Short:         "Drop a table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd, queryir.DeleteTable{Table: args[0]})
		},
	}

	cmd.AddCommand(create, modify, drop)
	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command, op queryir.SchemaOp) error {
	formatter := opts.formatter(cmd)

	d, cleanup, err := openDriver(opts.RootOptions, opts.Journal)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer cleanup()

	if err := d.ApplySchema(cmd.Context(), op); err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	verb := cmd.Name()
	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"table": op.TableName(), "operation": verb})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s %s\n", verb, op.TableName())
	return nil
}
