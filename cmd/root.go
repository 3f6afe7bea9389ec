package cmd

import (
	initCmd "ddbreport/cmd/init"
	"ddbreport/cmd/list"
	"ddbreport/cmd/rw"
	"ddbreport/cmd/throughput"
	"ddbreport/cmd/version"
	"ddbreport/internal/config"
	"ddbreport/internal/logging"

	"github.com/spf13/cobra"
)

// skipsConfig reports whether cmd runs without loading configuration
func skipsConfig(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "init"
}

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "ddbreport",
		Short: "ddbreport - DynamoDB consumed capacity reports",
		Long: `ddbreport is a command-line tool that turns the consumed capacity CloudWatch
records for DynamoDB tables into read/write volume (GiB, GiB/day) and write
throughput (rows/sec) reports, grouped by environment.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsConfig(cmd) {
				return nil
			}

			if err := config.InitConfig(true, cmd); err != nil {
				return err
			}
			if configFile != "" {
				if err := config.SetConfigFile(configFile); err != nil {
					return err
				}
			}
			if err := config.BindFlags(cmd); err != nil {
				return err
			}
			config.Load()

			logging.Configure(logging.LogConfig{
				Level:  logging.ParseLevel(config.Config.LogLevel),
				Format: logging.ParseFormat(config.Config.LogFormat),
			})
			config.LogConfigurationSources(true, cmd)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("profile", "p", "default", "AWS profile to use (supports SSO profiles)")
	rootCmd.PersistentFlags().String("region", config.DefaultRegion, "AWS region the tables live in")
	rootCmd.PersistentFlags().String("role", "", "Role ARN or name to assume before querying")
	rootCmd.PersistentFlags().Int("max-workers", 1, "Maximum number of tables fetched concurrently")
	rootCmd.PersistentFlags().Float64("requests-per-second", config.DefaultRateLimitConfig.RequestsPerSecond, "Pacing of each AWS API")
	rootCmd.PersistentFlags().String("log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().String("log-level", "INFO", "Set logging level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(rw.NewRWCmd())
	rootCmd.AddCommand(throughput.NewThroughputCmd())
	rootCmd.AddCommand(list.NewListCmd())
	rootCmd.AddCommand(initCmd.NewInitCmd())
	rootCmd.AddCommand(version.NewVersionCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
