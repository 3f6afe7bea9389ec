package rw

import (
	"github.com/spf13/cobra"

	"ddbreport/cmd/commands"
	"ddbreport/internal/report"
)

// NewRWCmd creates the rw command
func NewRWCmd() *cobra.Command {
	opts := &commands.Options{}

	cmd := &cobra.Command{
		Use:   "rw",
		Short: "Report read and write volume in GiB",
		Long: `Report how much data each DynamoDB table read and wrote over the lookback window.

Consumed read and write capacity units are summed from CloudWatch and converted
to bytes (1 WCU = 1 KiB, 1 RCU = 4 KiB), GiB and GiB/day. Tables are grouped by
environment, with a subtotal per environment and a grand total.

When no tables are given, every table named <env>.<namespace>.<...> is reported.

Examples:
  # Last 30 days of every prod, staging and dev table
  ddbreport rw

  # One table across all environments over the last week
  ddbreport rw --namespace features --tables clicks --hours 168

  # Save the report to S3
  ddbreport rw --save s3 --bucket my-bucket --bucket-region us-west-2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Run(cmd, report.ReadWrite, opts)
		},
	}

	commands.AddReportFlags(cmd, opts)

	return cmd
}
