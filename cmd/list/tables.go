package list

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ddbreport/cmd/commands"
	"ddbreport/internal/config"
	"ddbreport/internal/tables"
)

// NewTablesCmd creates and returns the tables command
func NewTablesCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List DynamoDB tables a report would cover",
		Long: `List the DynamoDB tables whose names start with <env>.<namespace>. for
any configured environment, one per line in sorted order.`,
		Example: `  # Tables of the default environments
  ddbreport list tables

  # Every table in the region
  ddbreport list tables --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runTables(ctx, cmd.OutOrStdout(), all)
		},
	}

	commands.AddSelectionFlags(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "List every table instead of the configured environments")

	return cmd
}

func runTables(ctx context.Context, out io.Writer, all bool) error {
	backend, err := commands.Connect(ctx, config.Config)
	if err != nil {
		return err
	}

	var prefixes []string
	if !all {
		prefixes = commands.Selection().Prefixes()
	}

	names, err := backend.ListTables(ctx, prefixes)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for _, name := range tables.Unique(names) {
		fmt.Fprintln(out, name)
	}
	return nil
}
