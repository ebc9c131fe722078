package aggregate

import (
	"math"

	"github.com/jgoulah/griddash/pkg/models"
)

// Buckets is the number of hour-of-day buckets
const Buckets = 24

// HourlyAverage returns the mean actual value per hour of day. Empty buckets
// are exactly 0, so the result always has Buckets entries. Records without a
// known hour are ignored.
func HourlyAverage(records []models.Record) []float64 {
	avg, _ := hourly(records)
	return avg
}

func hourly(records []models.Record) ([]float64, []int) {
	buckets := make([][]float64, Buckets)
	counts := make([]int, Buckets)

	for _, r := range records {
		if !r.HasHour() {
			continue
		}
		buckets[r.Hour] = append(buckets[r.Hour], r.Actual)
		counts[r.Hour]++
	}

	avg := make([]float64, Buckets)
	for i, values := range buckets {
		avg[i] = mean(values)
	}
	return avg, counts
}

// mean averages values without overflowing: when the plain sum leaves the
// float64 range every value is divided by n before summing. Empty input is 0.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	n := float64(len(values))
	if !math.IsInf(sum, 0) {
		return sum / n
	}

	sum = 0
	for _, v := range values {
		sum += v / n
	}
	return sum
}

// clamp keeps x inside the finite float64 range
func clamp(x float64) float64 {
	return math.Max(-math.MaxFloat64, math.Min(math.MaxFloat64, x))
}

// Accuracy describes how far predictions are from the actual values
type Accuracy struct {
	Count int     `json:"count"`
	MAE   float64 `json:"mae"`  // Mean absolute error
	RMSE  float64 `json:"rmse"` // Root mean squared error
}

// Evaluate computes prediction accuracy over records. An empty input yields
// zeros. Errors are taken at half scale so the difference of two finite values
// cannot overflow; results beyond the float64 range are clamped.
func Evaluate(records []models.Record) Accuracy {
	if len(records) == 0 {
		return Accuracy{}
	}

	halves := make([]float64, len(records))
	var scale float64
	for i, r := range records {
		h := math.Abs(r.Predicted/2 - r.Actual/2)
		halves[i] = h
		scale = math.Max(scale, h)
	}

	acc := Accuracy{
		Count: len(records),
		MAE:   clamp(2 * mean(halves)),
	}
	if scale == 0 {
		return acc
	}

	var sq float64
	for _, h := range halves {
		sq += (h / scale) * (h / scale)
	}
	acc.RMSE = clamp(2 * (scale * math.Sqrt(sq/float64(len(records)))))
	return acc
}

// Summary bundles everything derived from one subset of records
type Summary struct {
	Records       int       `json:"records"`
	UnknownHour   int       `json:"unknown_hour"`
	HourlyAverage []float64 `json:"hourly_average"`
	HourlyCount   []int     `json:"hourly_count"`
	Accuracy      Accuracy  `json:"accuracy"`
}

// Summarize computes the hourly averages, bucket sizes and accuracy of records
func Summarize(records []models.Record) Summary {
	avg, counts := hourly(records)

	unknown := 0
	for _, r := range records {
		if !r.HasHour() {
			unknown++
		}
	}

	return Summary{
		Records:       len(records),
		UnknownHour:   unknown,
		HourlyAverage: avg,
		HourlyCount:   counts,
		Accuracy:      Evaluate(records),
	}
}
