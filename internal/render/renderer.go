package render

import (
	"strconv"

	"github.com/jgoulah/griddash/pkg/models"
)

const (
	// DefaultLinePoints is how many records the line chart shows
	DefaultLinePoints = 50

	// Mount point names, matching the canvas ids of the dashboard page
	MountLine = "lineChart"
	MountBar  = "barChart"

	hourBuckets = 24
)

// Mount is a chart slot that holds at most one live chart
type Mount struct {
	name    string
	current *Chart
}

// Name returns the mount point name
func (m *Mount) Name() string {
	return m.name
}

// Current returns the mounted chart, or nil when the mount is empty
func (m *Mount) Current() *Chart {
	return m.current
}

// Replace mounts c and releases the chart it replaces
func (m *Mount) Replace(c *Chart) {
	old := m.current
	m.current = c
	if old != nil && old != c {
		old.Release()
	}
}

// Renderer draws the dashboard charts onto its two mount points.
// It is not safe for concurrent use; callers serialise draws.
type Renderer struct {
	line       *Mount
	bar        *Mount
	linePoints int
	onDraw     func(mount string, c *Chart)
}

// Option configures a Renderer
type Option func(*Renderer)

// WithLinePoints sets how many records the line chart shows
func WithLinePoints(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.linePoints = n
		}
	}
}

// WithDrawHook registers a function called after every draw
func WithDrawHook(fn func(mount string, c *Chart)) Option {
	return func(r *Renderer) { r.onDraw = fn }
}

// New creates a renderer with empty mount points
func New(opts ...Option) *Renderer {
	r := &Renderer{
		line:       &Mount{name: MountLine},
		bar:        &Mount{name: MountBar},
		linePoints: DefaultLinePoints,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DrawLine charts actual against predicted for the first records, in the order given
func (r *Renderer) DrawLine(records []models.Record) *Chart {
	if len(records) > r.linePoints {
		records = records[:r.linePoints]
	}

	labels := make([]string, len(records))
	actual := make([]float64, len(records))
	predicted := make([]float64, len(records))
	for i, rec := range records {
		labels[i] = rec.Datetime
		actual[i] = rec.Actual
		predicted[i] = rec.Predicted
	}

	c := newChart(KindLine, labels, []Series{
		{Label: "Actual", Data: actual, BorderWidth: 2},
		{Label: "Predicted", Data: predicted, BorderWidth: 2},
	})
	r.mount(r.line, c)
	return c
}

// DrawBar charts the hourly averages over the 24 hour categories
func (r *Renderer) DrawBar(averages []float64) *Chart {
	labels := make([]string, hourBuckets)
	data := make([]float64, hourBuckets)
	for h := 0; h < hourBuckets; h++ {
		labels[h] = strconv.Itoa(h)
		if h < len(averages) {
			data[h] = averages[h]
		}
	}

	c := newChart(KindBar, labels, []Series{
		{Label: "Average Energy Consumption", Data: data, BorderWidth: 1},
	})
	r.mount(r.bar, c)
	return c
}

func (r *Renderer) mount(m *Mount, c *Chart) {
	m.Replace(c)
	if r.onDraw != nil {
		r.onDraw(m.name, c)
	}
}

// Line returns the line chart mount point
func (r *Renderer) Line() *Mount {
	return r.line
}

// Bar returns the bar chart mount point
func (r *Renderer) Bar() *Mount {
	return r.bar
}

// Live returns the number of mounted, unreleased charts
func (r *Renderer) Live() int {
	n := 0
	for _, m := range []*Mount{r.line, r.bar} {
		if c := m.current; c != nil && !c.Released() {
			n++
		}
	}
	return n
}
