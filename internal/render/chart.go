package render

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind is the chart type understood by the browser charting library
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// Series is one dataset drawn on a chart
type Series struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	BorderWidth int       `json:"borderWidth"`
	Fill        bool      `json:"fill"`
}

// Chart is one drawn chart instance. Instances are immutable; redrawing a
// mount point creates a new instance and releases the old one.
type Chart struct {
	id       string
	kind     Kind
	labels   []string
	series   []Series
	released atomic.Bool
}

func newChart(kind Kind, labels []string, series []Series) *Chart {
	return &Chart{
		id:     uuid.NewString(),
		kind:   kind,
		labels: labels,
		series: series,
	}
}

// ID uniquely identifies this instance
func (c *Chart) ID() string {
	return c.id
}

// Kind returns the chart type
func (c *Chart) Kind() Kind {
	return c.kind
}

// Labels returns the category axis labels
func (c *Chart) Labels() []string {
	return c.labels
}

// Series returns the drawn datasets
func (c *Chart) Series() []Series {
	return c.series
}

// Release marks the instance as destroyed. Releasing twice is a no-op.
func (c *Chart) Release() {
	c.released.Store(true)
}

// Released reports whether the instance has been destroyed
func (c *Chart) Released() bool {
	return c.released.Load()
}

// Config is a chart configuration in the shape the browser library expects
type Config struct {
	ID   string     `json:"id"`
	Type Kind       `json:"type"`
	Data ConfigData `json:"data"`
}

// ConfigData holds the labels and datasets of a Config
type ConfigData struct {
	Labels   []string `json:"labels"`
	Datasets []Series `json:"datasets"`
}

// Config returns the browser configuration for the chart
func (c *Chart) Config() Config {
	labels := c.labels
	if labels == nil {
		labels = []string{}
	}
	return Config{
		ID:   c.id,
		Type: c.kind,
		Data: ConfigData{Labels: labels, Datasets: c.series},
	}
}
