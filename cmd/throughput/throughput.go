package throughput

import (
	"time"

	"github.com/spf13/cobra"

	"ddbreport/cmd/commands"
	"ddbreport/internal/report"
)

// NewThroughputCmd creates the throughput command
func NewThroughputCmd() *cobra.Command {
	opts := &commands.Options{}
	var periodSeconds int

	cmd := &cobra.Command{
		Use:   "throughput",
		Short: "Report write throughput in rows per second",
		Long: `Report the average and peak write rate of each DynamoDB table.

Consumed write capacity is read from CloudWatch per period and turned into
WCU/s. Rows/s assume every item has the table's average item size, taken
from DescribeTable. Peak totals add up per-table peaks that need not have
happened at the same time.

Examples:
  # Hourly buckets over the last 30 days
  ddbreport throughput

  # Five minute buckets over the last day
  ddbreport throughput --hours 24 --period 300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Period = time.Duration(periodSeconds) * time.Second
			return commands.Run(cmd, report.Throughput, opts)
		},
	}

	commands.AddReportFlags(cmd, opts)
	cmd.Flags().IntVar(&periodSeconds, "period", 3600, "Metric period in seconds, a multiple of 60")

	return cmd
}
