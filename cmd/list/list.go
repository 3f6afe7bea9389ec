package list

import (
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tables and AWS profiles",
		Long: `List what a report run would see.
Currently supports listing:
  - DynamoDB tables matching the configured environments and namespace
  - Available AWS credential profiles`,
	}

	cmd.AddCommand(NewTablesCmd())
	cmd.AddCommand(NewProfilesCmd())

	return cmd
}
