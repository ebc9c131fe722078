package models

// HourUnknown marks a record whose datetime could not be parsed.
// Such records never fall into an hour bucket.
const HourUnknown = -1

// Record represents a single CSV row of actual vs predicted consumption
type Record struct {
	Datetime  string  `json:"datetime"` // As written by the producer
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	Hour      int     `json:"hour"` // 0-23 local hour, or HourUnknown
}

// HasHour reports whether the record belongs to an hour bucket
func (r Record) HasHour() bool {
	return r.Hour >= 0 && r.Hour <= 23
}
