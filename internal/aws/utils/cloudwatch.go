package utils

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
)

const (
	// DynamoDBNamespace is the CloudWatch namespace of DynamoDB table metrics
	DynamoDBNamespace = "AWS/DynamoDB"
	// TableDimension is the dimension identifying a table
	TableDimension = "TableName"
	// StatisticSum is the statistic consumed capacity is read with
	StatisticSum = "Sum"
)

// MetricConfig represents configuration for retrieving CloudWatch metrics
type MetricConfig struct {
	Namespace     string
	ResourceID    string
	DimensionName string
	MetricName    string
	Statistic     string
	StartTime     time.Time
	EndTime       time.Time
	Period        int64
}

// TableMetric returns the config of a DynamoDB table metric summed per period
func TableMetric(table, metric string, start, end time.Time, period time.Duration) MetricConfig {
	return MetricConfig{
		Namespace:     DynamoDBNamespace,
		ResourceID:    table,
		DimensionName: TableDimension,
		MetricName:    metric,
		Statistic:     StatisticSum,
		StartTime:     start,
		EndTime:       end,
		Period:        int64(period / time.Second),
	}
}

// Datapoint is one statistic value of a metric period
type Datapoint struct {
	Timestamp time.Time
	Value     float64
}

// GetMetricDatapoints retrieves the datapoints of a metric using
// GetMetricStatistics, ordered by timestamp
func GetMetricDatapoints(ctx context.Context, cwClient cloudwatchiface.CloudWatchAPI, config MetricConfig) ([]Datapoint, error) {
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(config.Namespace),
		MetricName: aws.String(config.MetricName),
		StartTime:  aws.Time(config.StartTime),
		EndTime:    aws.Time(config.EndTime),
		Period:     aws.Int64(config.Period),
		Statistics: []*string{
			aws.String(config.Statistic),
		},
		Dimensions: []*cloudwatch.Dimension{
			{
				Name:  aws.String(config.DimensionName),
				Value: aws.String(config.ResourceID),
			},
		},
	}

	output, err := cwClient.GetMetricStatisticsWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric statistics: %w", err)
	}

	points := make([]Datapoint, 0, len(output.Datapoints))
	for _, dp := range output.Datapoints {
		if dp == nil {
			continue
		}
		points = append(points, Datapoint{
			Timestamp: aws.TimeValue(dp.Timestamp),
			Value:     statisticValue(dp, config.Statistic),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	return points, nil
}

func statisticValue(dp *cloudwatch.Datapoint, statistic string) float64 {
	switch statistic {
	case "Average":
		return aws.Float64Value(dp.Average)
	case "Maximum":
		return aws.Float64Value(dp.Maximum)
	case "Minimum":
		return aws.Float64Value(dp.Minimum)
	case "SampleCount":
		return aws.Float64Value(dp.SampleCount)
	default:
		return aws.Float64Value(dp.Sum)
	}
}

// SumDatapoints adds up the values of points
func SumDatapoints(points []Datapoint) float64 {
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return total
}

// Values returns the values of points in order
func Values(points []Datapoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}
