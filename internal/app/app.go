package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jgoulah/griddash/internal/aggregate"
	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/jgoulah/griddash/internal/render"
)

// ErrNotReady is returned by updates issued before the dataset has loaded
var ErrNotReady = errors.New("dataset not loaded")

// State is the load state of the application
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Source produces the dataset the dashboard shows
type Source interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// View is a snapshot of what the dashboard currently shows
type View struct {
	State     State              `json:"state"`
	Selection string             `json:"selection"`
	Options   []dataset.Option   `json:"options"`
	Records   int                `json:"records"`
	Line      *render.Config     `json:"line,omitempty"`
	Bar       *render.Config     `json:"bar,omitempty"`
	Summary   *aggregate.Summary `json:"summary,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// App owns the dataset and the mounted charts. The dataset is written once
// by the load; every later update is serialised by mu.
type App struct {
	source   Source
	logger   *slog.Logger
	metrics  *Metrics
	renderer *render.Renderer

	mu        sync.Mutex
	started   bool
	done      chan struct{}
	state     State
	data      *dataset.Dataset
	loadErr   error
	selection dataset.Selection
	summary   aggregate.Summary
}

// Option configures an App
type Option func(*App)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithMetrics sets the collectors updated by the app
func WithMetrics(m *Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLinePoints sets how many records the line chart shows
func WithLinePoints(n int) Option {
	return func(a *App) {
		a.renderer = render.New(render.WithLinePoints(n), render.WithDrawHook(a.countDraw))
	}
}

// New creates an application context for source. Nothing is loaded until Start.
func New(source Source, opts ...Option) *App {
	a := &App{
		source: source,
		logger: slog.Default(),
		done:   make(chan struct{}),
		state:  StateLoading,
	}
	a.renderer = render.New(render.WithDrawHook(a.countDraw))
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = NewMetrics(nil)
	}
	return a
}

// Start loads the dataset in the background and returns a channel closed
// when the load has finished. On success the charts are drawn for all
// records. The load cannot be cancelled except through ctx, which callers
// only cancel on shutdown. Calling Start again returns the same channel.
func (a *App) Start(ctx context.Context) <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		a.started = true
		go a.load(ctx)
	}
	return a.done
}

// Wait blocks until the load finishes or ctx is done, and returns the load error
func (a *App) Wait(ctx context.Context) error {
	select {
	case <-a.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

func (a *App) load(ctx context.Context) {
	defer close(a.done)

	start := time.Now()
	ds, err := a.source.Load(ctx)
	a.metrics.LoadSeconds.Observe(time.Since(start).Seconds())

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.state = StateFailed
		a.loadErr = err
		a.metrics.LoadFailures.Inc()
		a.logger.Error("dataset load failed", "error", err)
		return
	}

	if ds == nil {
		ds = dataset.New(nil)
	}
	a.data = ds
	a.state = StateReady
	a.metrics.Records.Set(float64(ds.Len()))
	a.logger.Info("dataset loaded", "records", ds.Len(), "elapsed", time.Since(start))

	a.update(dataset.All())
}

// Update filters the dataset by sel, aggregates the subset and redraws both charts
func (a *App) Update(sel dataset.Selection) (View, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateReady {
		return a.view(), fmt.Errorf("%w (state %s)", ErrNotReady, a.state)
	}

	a.update(sel)
	return a.view(), nil
}

func (a *App) update(sel dataset.Selection) {
	subset := a.data.Select(sel)
	summary := aggregate.Summarize(subset)

	a.renderer.DrawLine(subset)
	a.renderer.DrawBar(summary.HourlyAverage)

	a.selection = sel
	a.summary = summary

	kind := "hour"
	if sel.IsAll() {
		kind = "all"
	}
	a.metrics.Updates.WithLabelValues(kind).Inc()
	a.logger.Debug("charts updated", "selection", sel.String(), "records", len(subset))
}

func (a *App) countDraw(mount string, _ *render.Chart) {
	a.metrics.Draws.WithLabelValues(mount).Inc()
}

// Snapshot returns the current view without redrawing
func (a *App) Snapshot() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view()
}

// Dataset returns the loaded dataset, or nil before a successful load
func (a *App) Dataset() *dataset.Dataset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Live returns the number of live chart instances
func (a *App) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.renderer.Live()
}

func (a *App) view() View {
	v := View{
		State:     a.state,
		Selection: a.selection.String(),
		Options:   []dataset.Option{},
		Records:   a.data.Len(),
	}

	if a.loadErr != nil {
		v.Error = a.loadErr.Error()
	}
	if a.state != StateReady {
		return v
	}

	v.Options = dataset.HourOptions()
	if c := a.renderer.Line().Current(); c != nil {
		cfg := c.Config()
		v.Line = &cfg
	}
	if c := a.renderer.Bar().Current(); c != nil {
		cfg := c.Config()
		v.Bar = &cfg
	}
	summary := a.summary
	v.Summary = &summary
	return v
}
