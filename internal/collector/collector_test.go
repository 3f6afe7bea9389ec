package collector

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ddbreport/internal/logging"
	"ddbreport/internal/report"
	"ddbreport/internal/tables"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListTables(ctx context.Context, prefixes []string) ([]string, error) {
	args := m.Called(prefixes)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *mockSource) MetricSum(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) (float64, error) {
	args := m.Called(table, metric, period)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockSource) MetricSeries(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) ([]float64, error) {
	args := m.Called(table, metric, period)
	series, _ := args.Get(0).([]float64)
	return series, args.Error(1)
}

func (m *mockSource) DescribeTable(ctx context.Context, table string) (report.Descriptor, error) {
	args := m.Called(table)
	return args.Get(0).(report.Descriptor), args.Error(1)
}

var window = report.Window{
	Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
}

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestReadWrite(t *testing.T) {
	src := &mockSource{}
	src.On("MetricSum", "prod.a", ReadMetric, 720*time.Hour).Return(262144.0, nil)
	src.On("MetricSum", "prod.a", WriteMetric, 720*time.Hour).Return(0.0, nil)
	src.On("MetricSum", "staging.b", ReadMetric, 720*time.Hour).Return(0.0, nil)
	src.On("MetricSum", "staging.b", WriteMetric, 720*time.Hour).Return(1048576.0, nil)

	for _, workers := range []int{1, 4} {
		got, err := ReadWrite(context.Background(), src, []string{"staging.b", "prod.a"}, Options{Window: window, Workers: workers})
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "staging.b", got[0].Name, "input order is kept")
		assert.Equal(t, 1.0, got[0].WriteGiB)
		assert.Equal(t, "prod.a", got[1].Name)
		assert.Equal(t, 1.0, got[1].ReadGiB)
		assert.InDelta(t, 1.0/30, got[1].GiBPerDay, 1e-12)
	}
}

// deadlineSource records whether fetches ran under a deadline
type deadlineSource struct {
	*mockSource

	mu       sync.Mutex
	deadline bool
}

func (s *deadlineSource) MetricSum(ctx context.Context, table, metric string, start, end time.Time, period time.Duration) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ctx.Deadline(); ok {
		s.deadline = true
	}
	return 0, nil
}

func TestFetchesHaveNoTaskDeadline(t *testing.T) {
	src := &deadlineSource{mockSource: &mockSource{}}

	got, err := ReadWrite(context.Background(), src, []string{"prod.a", "prod.b"}, Options{Window: window, Workers: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.False(t, src.deadline, "fetches are bounded only by the caller's context")
}

func TestReadWriteFetchErrorIsFatal(t *testing.T) {
	denied := errors.New("AccessDenied")
	src := &mockSource{}
	src.On("MetricSum", "prod.a", ReadMetric, mock.Anything).Return(1.0, nil)
	src.On("MetricSum", "prod.a", WriteMetric, mock.Anything).Return(0.0, denied)

	got, err := ReadWrite(context.Background(), src, []string{"prod.a", "prod.b"}, Options{Window: window, Workers: 1})

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, denied)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "prod.a", fetchErr.Table)
	assert.Equal(t, WriteMetric, fetchErr.Metric)
	src.AssertNotCalled(t, "MetricSum", "prod.b", ReadMetric, mock.Anything)
}

func TestThroughput(t *testing.T) {
	src := &mockSource{}
	src.On("DescribeTable", "prod.a").Return(report.Descriptor{Name: "prod.a", StoredBytes: 25000, ItemCount: 10}, nil)
	src.On("MetricSeries", "prod.a", WriteMetric, time.Hour).Return([]float64{108000, 54000}, nil)
	src.On("DescribeTable", "prod.empty").Return(report.Descriptor{}, nil)
	src.On("MetricSeries", "prod.empty", WriteMetric, time.Hour).Return(nil, nil)

	got, err := Throughput(context.Background(), src, []string{"prod.a", "prod.empty"}, Options{Window: window})
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, int64(3), a.UnitsPerItem)
	assert.InDelta(t, 22.5, a.AvgUnitRate, 1e-9)
	assert.InDelta(t, 30.0, a.PeakUnitRate, 1e-9)
	assert.InDelta(t, 7.5, a.AvgRowRate, 1e-9)
	assert.InDelta(t, 10.0, a.PeakRowRate, 1e-9)

	empty := got[1]
	assert.Equal(t, "prod.empty", empty.Name)
	assert.Equal(t, int64(1), empty.UnitsPerItem)
	assert.Zero(t, empty.AvgRowRate)
	assert.Zero(t, empty.PeakRowRate)
}

func TestThroughputDescribeError(t *testing.T) {
	src := &mockSource{}
	src.On("DescribeTable", "prod.a").Return(report.Descriptor{}, errors.New("ResourceNotFoundException"))

	_, err := Throughput(context.Background(), src, []string{"prod.a"}, Options{Window: window, Period: time.Hour})
	assert.ErrorContains(t, err, "fetching prod.a: ResourceNotFoundException")
}

func TestCollectEmpty(t *testing.T) {
	got, err := ReadWrite(context.Background(), &mockSource{}, nil, Options{Window: window})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve(t *testing.T) {
	sel := tables.Selection{Environments: []string{"prod", "dev"}, Namespace: "features"}

	src := &mockSource{}
	src.On("ListTables", []string{"prod.features.", "dev.features."}).
		Return([]string{"prod.features.b", "dev.features.a", "prod.features.b"}, nil)

	listed, err := Resolve(context.Background(), src, sel, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev.features.a", "prod.features.b"}, listed)

	expanded, err := Resolve(context.Background(), src, sel, []string{"clicks"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dev.features.clicks", "prod.features.clicks"}, expanded)
	src.AssertNumberOfCalls(t, "ListTables", 1)
}

func TestResolveListError(t *testing.T) {
	src := &mockSource{}
	src.On("ListTables", mock.Anything).Return(nil, errors.New("expired token"))

	_, err := Resolve(context.Background(), src, tables.Selection{Environments: []string{"prod"}}, nil)
	assert.ErrorContains(t, err, "listing tables: expired token")
}
