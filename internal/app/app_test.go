package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/jgoulah/griddash/pkg/models"
)

type stubSource struct {
	ds    *dataset.Dataset
	err   error
	gate  chan struct{}
	calls int
}

func (s *stubSource) Load(ctx context.Context) (*dataset.Dataset, error) {
	s.calls++
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.ds, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDataset() *dataset.Dataset {
	return dataset.New([]models.Record{
		{Datetime: "2024-01-01T05:00:00", Actual: 10, Predicted: 12, Hour: 5},
		{Datetime: "2024-01-01T05:30:00", Actual: 20, Predicted: 18, Hour: 5},
		{Datetime: "2024-01-01T07:00:00", Actual: 4, Predicted: 5, Hour: 7},
	})
}

func startAndWait(t *testing.T, a *App) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Start(ctx)
	return a.Wait(ctx)
}

func TestStartRendersAllRecords(t *testing.T) {
	a := New(&stubSource{ds: sampleDataset()}, WithLogger(quietLogger()))
	require.NoError(t, startAndWait(t, a))

	v := a.Snapshot()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, "all", v.Selection)
	assert.Len(t, v.Options, 25)
	assert.Equal(t, 3, v.Records)
	require.NotNil(t, v.Line)
	require.NotNil(t, v.Bar)
	assert.Len(t, v.Line.Data.Labels, 3)
	assert.Equal(t, 15.0, v.Bar.Data.Datasets[0].Data[5])
	assert.Equal(t, 4.0, v.Bar.Data.Datasets[0].Data[7])
	assert.Equal(t, 2, a.Live())
}

func TestUpdateFiltersByHour(t *testing.T) {
	a := New(&stubSource{ds: sampleDataset()}, WithLogger(quietLogger()))
	require.NoError(t, startAndWait(t, a))

	v, err := a.Update(dataset.Hour(5))
	require.NoError(t, err)
	assert.Equal(t, "5", v.Selection)
	assert.Equal(t, []string{"2024-01-01T05:00:00", "2024-01-01T05:30:00"}, v.Line.Data.Labels)

	bars := v.Bar.Data.Datasets[0].Data
	require.Len(t, bars, 24)
	assert.Equal(t, 15.0, bars[5])
	assert.Zero(t, bars[7])
	assert.Equal(t, 2, v.Summary.Records)
}

func TestUpdateNoMatches(t *testing.T) {
	a := New(&stubSource{ds: sampleDataset()}, WithLogger(quietLogger()))
	require.NoError(t, startAndWait(t, a))

	v, err := a.Update(dataset.Hour(23))
	require.NoError(t, err)
	assert.Empty(t, v.Line.Data.Labels)
	for _, b := range v.Bar.Data.Datasets[0].Data {
		assert.Zero(t, b)
	}
}

func TestRepeatedUpdateKeepsOneChartPerMount(t *testing.T) {
	a := New(&stubSource{ds: sampleDataset()}, WithLogger(quietLogger()))
	require.NoError(t, startAndWait(t, a))

	first, err := a.Update(dataset.Hour(5))
	require.NoError(t, err)
	second, err := a.Update(dataset.Hour(5))
	require.NoError(t, err)

	assert.NotEqual(t, first.Line.ID, second.Line.ID)
	assert.NotEqual(t, first.Bar.ID, second.Bar.ID)
	assert.Equal(t, first.Line.Data, second.Line.Data)
	assert.Equal(t, 2, a.Live())
}

func TestEmptyDataset(t *testing.T) {
	a := New(&stubSource{ds: dataset.New(nil)}, WithLogger(quietLogger()))
	require.NoError(t, startAndWait(t, a))

	v := a.Snapshot()
	assert.Equal(t, StateReady, v.State)
	assert.Len(t, v.Options, 25)
	require.NotNil(t, v.Line)
	require.NotNil(t, v.Bar)
	assert.Empty(t, v.Line.Data.Labels)
	assert.Len(t, v.Bar.Data.Datasets[0].Data, 24)
}

func TestLoadFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	loadErr := errors.New("connection refused")

	a := New(&stubSource{err: loadErr}, WithLogger(quietLogger()), WithMetrics(metrics))
	err := startAndWait(t, a)
	require.ErrorIs(t, err, loadErr)

	v := a.Snapshot()
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "connection refused", v.Error)
	assert.Nil(t, v.Line)
	assert.Nil(t, v.Bar)
	assert.Empty(t, v.Options)
	assert.Nil(t, a.Dataset())
	assert.Equal(t, 0, a.Live())

	_, err = a.Update(dataset.All())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadFailures))
}

func TestUpdateBeforeLoad(t *testing.T) {
	src := &stubSource{ds: sampleDataset(), gate: make(chan struct{})}
	a := New(src, WithLogger(quietLogger()))

	a.Start(context.Background())
	v, err := a.Update(dataset.Hour(5))
	require.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, StateLoading, v.State)

	close(src.gate)
	require.NoError(t, a.Wait(context.Background()))
	_, err = a.Update(dataset.Hour(5))
	assert.NoError(t, err)
}

func TestStartIsIdempotent(t *testing.T) {
	src := &stubSource{ds: sampleDataset()}
	a := New(src, WithLogger(quietLogger()))

	ch1 := a.Start(context.Background())
	ch2 := a.Start(context.Background())
	<-ch1
	<-ch2
	assert.Equal(t, 1, src.calls)
}

func TestWaitHonoursContext(t *testing.T) {
	src := &stubSource{ds: sampleDataset(), gate: make(chan struct{})}
	a := New(src, WithLogger(quietLogger()))
	a.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Wait(ctx), context.Canceled)
	close(src.gate)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	a := New(&stubSource{ds: sampleDataset()}, WithLogger(quietLogger()), WithMetrics(metrics), WithLinePoints(1))
	require.NoError(t, startAndWait(t, a))

	v, err := a.Update(dataset.Hour(5))
	require.NoError(t, err)
	assert.Len(t, v.Line.Data.Labels, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Records))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Updates.WithLabelValues("all")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Updates.WithLabelValues("hour")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Draws.WithLabelValues("lineChart")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Draws.WithLabelValues("barChart")))
}
