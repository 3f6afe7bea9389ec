package init

import (
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize ddbreport configuration files",
		Long: `Initialize ddbreport configuration files.

This command helps you create a default config.yaml with the report settings
and their defaults.`,
	}

	cmd.AddCommand(NewConfigCmd())

	return cmd
}
