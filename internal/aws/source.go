package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"ddbreport/internal/aws/ratelimit"
	"ddbreport/internal/aws/utils"
	"ddbreport/internal/report"
)

// CloudWatchSource reads DynamoDB table metrics from CloudWatch and table
// metadata from DynamoDB. Every call is paced and attempted once.
type CloudWatchSource struct {
	dynamo     dynamodbiface.DynamoDBAPI
	cloudwatch cloudwatchiface.CloudWatchAPI

	dynamoLimiter     *ratelimit.ServiceLimiter
	cloudwatchLimiter *ratelimit.ServiceLimiter
}

// NewCloudWatchSource creates a source over the given clients, pacing each
// API to requestsPerSecond
func NewCloudWatchSource(dynamo dynamodbiface.DynamoDBAPI, cw cloudwatchiface.CloudWatchAPI, requestsPerSecond float64) *CloudWatchSource {
	limits := ratelimit.DefaultServiceConfig()
	limits.DefaultRequestsPerSecond = requestsPerSecond

	return &CloudWatchSource{
		dynamo:            dynamo,
		cloudwatch:        cw,
		dynamoLimiter:     ratelimit.NewServiceLimiter(limits),
		cloudwatchLimiter: ratelimit.NewServiceLimiter(limits),
	}
}

// ListTables returns the sorted names of the tables starting with any of
// prefixes, or every table when prefixes is empty
func (s *CloudWatchSource) ListTables(ctx context.Context, prefixes []string) ([]string, error) {
	var names []string
	err := s.dynamoLimiter.Execute(ctx, "ListTables", func() error {
		var err error
		names, err = utils.ListTableNames(ctx, s.dynamo, prefixes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// MetricSum returns the sum of metric for table over [start, end) at the
// given period. No datapoints sums to 0.
func (s *CloudWatchSource) MetricSum(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) (float64, error) {
	points, err := s.datapoints(ctx, table, metric, start, end, period)
	if err != nil {
		return 0, err
	}
	return utils.SumDatapoints(points), nil
}

// MetricSeries returns the per-period sums of metric for table in timestamp
// order. Periods without data are absent.
func (s *CloudWatchSource) MetricSeries(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) ([]float64, error) {
	points, err := s.datapoints(ctx, table, metric, start, end, period)
	if err != nil {
		return nil, err
	}
	return utils.Values(points), nil
}

func (s *CloudWatchSource) datapoints(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) ([]utils.Datapoint, error) {
	if period < time.Minute || period%time.Minute != 0 {
		return nil, fmt.Errorf("%s %s: period %s is not a positive multiple of 60s", table, metric, period)
	}

	var points []utils.Datapoint
	err := s.cloudwatchLimiter.Execute(ctx, "GetMetricStatistics", func() error {
		var err error
		points, err = utils.GetMetricDatapoints(ctx, s.cloudwatch, utils.TableMetric(table, metric, start, end, period))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", table, metric, err)
	}
	return points, nil
}

// DescribeTable returns the stored size and item count of table
func (s *CloudWatchSource) DescribeTable(ctx context.Context, table string) (report.Descriptor, error) {
	desc := report.Descriptor{Name: table}
	err := s.dynamoLimiter.Execute(ctx, "DescribeTable", func() error {
		var err error
		desc.StoredBytes, desc.ItemCount, err = utils.DescribeTableSize(ctx, s.dynamo, table)
		return err
	})
	if err != nil {
		return report.Descriptor{}, fmt.Errorf("%s: %w", table, err)
	}
	return desc, nil
}
