// Package collector turns the metrics of a MetricSource into per-table
// report.ResourceMetrics.
package collector

import (
	"context"
	"fmt"
	"time"

	"ddbreport/internal/logging"
	"ddbreport/internal/report"
	"ddbreport/internal/tables"
	"ddbreport/internal/worker"
)

// CloudWatch metric names of DynamoDB consumed capacity
const (
	ReadMetric  = "ConsumedReadCapacityUnits"
	WriteMetric = "ConsumedWriteCapacityUnits"
)

// DefaultSeriesPeriod is the bucket width of the write series
const DefaultSeriesPeriod = time.Hour

// Source supplies table names, metric values and table metadata
type Source interface {
	ListTables(ctx context.Context, prefixes []string) ([]string, error)
	MetricSum(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) (float64, error)
	MetricSeries(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) ([]float64, error)
	DescribeTable(ctx context.Context, table string) (report.Descriptor, error)
}

// FetchError is a failed call for one table
type FetchError struct {
	Table  string
	Metric string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("fetching %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("fetching %s of %s: %v", e.Metric, e.Table, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a collection run
type Options struct {
	// Window is the time range metrics are read for
	Window report.Window
	// Period is the bucket width of metric series
	Period time.Duration
	// Workers bounds concurrent table fetches, 1 or less is sequential
	Workers int
}

// fetchFunc computes the metrics of one table
type fetchFunc func(ctx context.Context, table string) (report.ResourceMetrics, error)

// ReadWrite collects the consumed read and write units of every table summed
// over the whole window. Results keep the order of names.
func ReadWrite(ctx context.Context, src Source, names []string, opts Options) ([]report.ResourceMetrics, error) {
	window := opts.Window.Duration()
	start, end := opts.Window.Start, opts.Window.End

	return collect(ctx, names, opts.Workers, func(ctx context.Context, table string) (report.ResourceMetrics, error) {
		reads, err := src.MetricSum(ctx, table, ReadMetric, start, end, window)
		if err != nil {
			return report.ResourceMetrics{}, &FetchError{Table: table, Metric: ReadMetric, Err: err}
		}
		writes, err := src.MetricSum(ctx, table, WriteMetric, start, end, window)
		if err != nil {
			return report.ResourceMetrics{}, &FetchError{Table: table, Metric: WriteMetric, Err: err}
		}
		return report.NewReadWrite(table, reads, writes, window), nil
	})
}

// Throughput collects the size of every table and its consumed write units
// per period. Results keep the order of names.
func Throughput(ctx context.Context, src Source, names []string, opts Options) ([]report.ResourceMetrics, error) {
	period := opts.Period
	if period <= 0 {
		period = DefaultSeriesPeriod
	}
	start, end := opts.Window.Start, opts.Window.End

	return collect(ctx, names, opts.Workers, func(ctx context.Context, table string) (report.ResourceMetrics, error) {
		desc, err := src.DescribeTable(ctx, table)
		if err != nil {
			return report.ResourceMetrics{}, &FetchError{Table: table, Err: err}
		}
		desc.Name = table

		series, err := src.MetricSeries(ctx, table, WriteMetric, start, end, period)
		if err != nil {
			return report.ResourceMetrics{}, &FetchError{Table: table, Metric: WriteMetric, Err: err}
		}
		return report.NewThroughput(desc, series, period), nil
	})
}

func collect(ctx context.Context, names []string, workers int, fetch fetchFunc) ([]report.ResourceMetrics, error) {
	results := make([]report.ResourceMetrics, len(names))
	if len(names) == 0 {
		return results, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(names) {
		workers = len(names)
	}

	pool, err := worker.NewPool(ctx, workers)
	if err != nil {
		return nil, err
	}
	// fetches are bounded by ctx and the SDK client, not by the pool
	pool.SetTaskTimeout(0)
	pool.Start()
	defer pool.Stop()

	tasks := make([]worker.Task, len(names))
	for i, table := range names {
		i, table := i, table
		tasks[i] = func(ctx context.Context) error {
			logging.TableStart(i+1, len(names), table)
			m, err := fetch(ctx, table)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		}
	}

	if err := pool.ExecuteTasks(tasks); err != nil {
		return nil, err
	}

	metrics := pool.GetMetrics()
	logging.Debug("Collection finished", map[string]interface{}{
		"tables":       len(names),
		"workers":      workers,
		"peak_workers": metrics.PeakWorkers,
		"avg_ms":       metrics.AverageExecutionMs,
	})

	return results, nil
}

// Resolve returns the tables a run covers: the expansion of names when any
// are given, otherwise every table matching the selection's prefixes.
func Resolve(ctx context.Context, src Source, sel tables.Selection, names []string) ([]string, error) {
	if len(names) > 0 {
		return sel.Expand(names), nil
	}

	listed, err := src.ListTables(ctx, sel.Prefixes())
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return sel.Filter(listed), nil
}
