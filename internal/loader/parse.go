package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/griddash/pkg/models"
)

// Stats describes what happened to the rows of one CSV text
type Stats struct {
	Lines          int // Data lines after the header, including blank ones
	Accepted       int
	SkippedColumns int // Fewer than 3 columns
	SkippedNumeric int // Actual or predicted not a finite number
	UnknownHour    int // Accepted, but the datetime could not be parsed
}

// Skipped returns the total number of dropped rows
func (s Stats) Skipped() int {
	return s.SkippedColumns + s.SkippedNumeric
}

// Parse turns CSV text into records. The first line is a header and is
// discarded. Fields are split on commas without quoting support; rows with
// fewer than three columns or non-numeric actual/predicted values are skipped.
// Hours are computed in loc.
func Parse(text string, loc *time.Location) ([]models.Record, Stats) {
	var stats Stats
	if loc == nil {
		loc = time.Local
	}

	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return []models.Record{}, stats
	}
	lines = lines[1:]
	stats.Lines = len(lines)

	records := make([]models.Record, 0, len(lines))
	for _, line := range lines {
		cols := strings.Split(line, ",")
		if len(cols) < 3 {
			stats.SkippedColumns++
			continue
		}

		actual, err := parseNumber(cols[1])
		if err != nil {
			stats.SkippedNumeric++
			continue
		}
		predicted, err := parseNumber(cols[2])
		if err != nil {
			stats.SkippedNumeric++
			continue
		}

		datetime := cols[0]
		hour := ParseHour(datetime, loc)
		if hour == models.HourUnknown {
			stats.UnknownHour++
		}

		records = append(records, models.Record{
			Datetime:  datetime,
			Actual:    actual,
			Predicted: predicted,
			Hour:      hour,
		})
	}

	stats.Accepted = len(records)
	return records, stats
}

// parseNumber parses a finite float, ignoring surrounding whitespace
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// Layouts carrying their own offset; converted into the target location
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
}

// Layouts without an offset; interpreted in the target location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"Jan 2, 2006 15:04:05",
	"January 2, 2006 15:04:05",
}

// ParseHour returns the hour of day of s in loc, or models.HourUnknown.
// Date-only ISO values are taken as UTC midnight, other date-only values as
// local midnight.
func ParseHour(s string, loc *time.Location) int {
	t, ok := parseDatetime(s, loc)
	if !ok {
		return models.HourUnknown
	}
	return t.Hour()
}

func parseDatetime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.In(loc), true
	}

	for _, layout := range []string{"1/2/2006", "Jan 2, 2006", "January 2, 2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
