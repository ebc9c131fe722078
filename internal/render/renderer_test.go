package render

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/griddash/pkg/models"
)

func makeRecords(n int) []models.Record {
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.Record{
			Datetime:  fmt.Sprintf("2024-01-01T%02d:%02d:00", i/60%24, i%60),
			Actual:    float64(i),
			Predicted: float64(i) + 0.5,
			Hour:      i / 60 % 24,
		}
	}
	return records
}

func TestDrawLineTruncatesInOrder(t *testing.T) {
	r := New()
	records := makeRecords(120)

	c := r.DrawLine(records)
	require.Equal(t, KindLine, c.Kind())
	require.Len(t, c.Labels(), DefaultLinePoints)
	assert.Equal(t, records[0].Datetime, c.Labels()[0])
	assert.Equal(t, records[49].Datetime, c.Labels()[49])

	series := c.Series()
	require.Len(t, series, 2)
	assert.Equal(t, "Actual", series[0].Label)
	assert.Equal(t, "Predicted", series[1].Label)
	assert.Equal(t, 2, series[0].BorderWidth)
	assert.False(t, series[0].Fill)
	assert.Equal(t, 49.0, series[0].Data[49])
	assert.Equal(t, 49.5, series[1].Data[49])
}

func TestDrawLineShortInput(t *testing.T) {
	c := New().DrawLine(makeRecords(3))
	assert.Len(t, c.Labels(), 3)
	assert.Len(t, c.Series()[0].Data, 3)
}

func TestDrawLineCustomPoints(t *testing.T) {
	c := New(WithLinePoints(10)).DrawLine(makeRecords(30))
	assert.Len(t, c.Labels(), 10)

	c = New(WithLinePoints(0)).DrawLine(makeRecords(80))
	assert.Len(t, c.Labels(), DefaultLinePoints)
}

func TestDrawBar(t *testing.T) {
	avg := make([]float64, 24)
	avg[5] = 15

	c := New().DrawBar(avg)
	require.Equal(t, KindBar, c.Kind())
	require.Len(t, c.Labels(), 24)
	assert.Equal(t, "0", c.Labels()[0])
	assert.Equal(t, "23", c.Labels()[23])

	series := c.Series()
	require.Len(t, series, 1)
	assert.Equal(t, "Average Energy Consumption", series[0].Label)
	assert.Equal(t, 1, series[0].BorderWidth)
	assert.Equal(t, 15.0, series[0].Data[5])
}

func TestDrawBarPadsShortInput(t *testing.T) {
	c := New().DrawBar(nil)
	require.Len(t, c.Series()[0].Data, 24)
	for _, v := range c.Series()[0].Data {
		assert.Zero(t, v)
	}
}

func TestRedrawReplacesInstance(t *testing.T) {
	r := New()
	assert.Nil(t, r.Line().Current())
	assert.Nil(t, r.Bar().Current())
	assert.Equal(t, 0, r.Live())

	records := makeRecords(5)
	first := r.DrawLine(records)
	firstBar := r.DrawBar(make([]float64, 24))
	assert.Equal(t, 2, r.Live())

	second := r.DrawLine(records)
	secondBar := r.DrawBar(make([]float64, 24))

	assert.NotEqual(t, first.ID(), second.ID())
	assert.True(t, first.Released())
	assert.True(t, firstBar.Released())
	assert.False(t, second.Released())
	assert.Same(t, second, r.Line().Current())
	assert.Same(t, secondBar, r.Bar().Current())
	assert.Equal(t, 2, r.Live())
}

func TestMountReplaceSameChart(t *testing.T) {
	m := &Mount{name: "x"}
	c := newChart(KindBar, nil, nil)
	m.Replace(c)
	m.Replace(c)
	assert.False(t, c.Released())
	assert.Equal(t, "x", m.Name())
}

func TestDrawHook(t *testing.T) {
	var mounts []string
	r := New(WithDrawHook(func(mount string, c *Chart) {
		mounts = append(mounts, mount)
	}))

	r.DrawLine(nil)
	r.DrawBar(nil)
	assert.Equal(t, []string{MountLine, MountBar}, mounts)
}

func TestConfigJSON(t *testing.T) {
	c := New().DrawLine(nil)

	raw, err := json.Marshal(c.Config())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "line", decoded["type"])
	assert.Equal(t, c.ID(), decoded["id"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, []any{}, data["labels"])
	datasets := data["datasets"].([]any)
	require.Len(t, datasets, 2)
	assert.Equal(t, []any{}, datasets[0].(map[string]any)["data"])
}
