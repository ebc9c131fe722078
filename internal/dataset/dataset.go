package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jgoulah/griddash/pkg/models"
)

// Hours is the number of hour-of-day values a selection can take
const Hours = 24

// ErrInvalidSelection is returned for selector values that are neither "all" nor an hour
var ErrInvalidSelection = errors.New("invalid selection")

// Dataset holds all loaded records in CSV row order. It is never modified
// after New returns.
type Dataset struct {
	records []models.Record
}

// New wraps records into a dataset. The caller must not modify records afterwards.
func New(records []models.Record) *Dataset {
	return &Dataset{records: records}
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns a borrowed view of every record. Appending to the
// returned slice never writes into the dataset.
func (d *Dataset) Records() []models.Record {
	if d == nil {
		return nil
	}
	return d.records[:len(d.records):len(d.records)]
}

// Select returns the records matching sel
func (d *Dataset) Select(sel Selection) []models.Record {
	return Select(d.Records(), sel)
}

// Select filters records by hour. The "all" selection returns records as is;
// an hour selection keeps matching records in their original order.
func Select(records []models.Record, sel Selection) []models.Record {
	if sel.IsAll() {
		return records
	}

	filtered := make([]models.Record, 0)
	for _, r := range records {
		if r.Hour == sel.hour {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Selection is either "all" or a single hour of the day.
// The zero value selects all records.
type Selection struct {
	hour  int
	valid bool
}

// All selects every record
func All() Selection {
	return Selection{}
}

// Hour selects the records of hour h. It panics if h is outside 0-23.
func Hour(h int) Selection {
	if h < 0 || h >= Hours {
		panic(fmt.Sprintf("dataset: hour %d out of range", h))
	}
	return Selection{hour: h, valid: true}
}

// ParseSelection parses a selector value: "all" (or empty) or an integer hour
func ParseSelection(s string) (Selection, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return All(), nil
	}

	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h >= Hours {
		return Selection{}, fmt.Errorf("%w: %q (use all or 0-23)", ErrInvalidSelection, s)
	}
	return Hour(h), nil
}

// IsAll reports whether the selection covers every record
func (s Selection) IsAll() bool {
	return !s.valid
}

// Hour returns the selected hour and whether one is selected
func (s Selection) Hour() (int, bool) {
	return s.hour, s.valid
}

// String returns the selector value for s
func (s Selection) String() string {
	if s.IsAll() {
		return "all"
	}
	return strconv.Itoa(s.hour)
}

// Option is one entry of the hour selector
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// HourOptions returns the selector entries: "all" followed by 0:00 through 23:00
func HourOptions() []Option {
	opts := make([]Option, 0, Hours+1)
	opts = append(opts, Option{Value: "all", Label: "all"})
	for h := 0; h < Hours; h++ {
		opts = append(opts, Option{Value: strconv.Itoa(h), Label: fmt.Sprintf("%d:00", h)})
	}
	return opts
}
