package stats

import (
	"fmt"
	"math"
	"sort"
)

// PercentileMethod represents different methods for calculating percentiles
type PercentileMethod int

const (
	// Linear interpolation between closest ranks (numpy default, R-7)
	Linear PercentileMethod = iota

	// Lower value of the two closest ranks
	Lower

	// Higher value of the two closest ranks
	Higher

	// Midpoint of the two closest ranks
	Midpoint
)

// Percentiles computes order statistics over a sample.
//
// References:
//   - Hyndman, R.J., Fan, Y. (1996). "Sample Quantiles in Statistical Packages"
//     The American Statistician, 50(4), 361-365
type Percentiles struct {
	method PercentileMethod
}

// NewPercentiles creates a new percentile calculator with linear interpolation
func NewPercentiles() *Percentiles {
	return &Percentiles{method: Linear}
}

// NewPercentilesWithMethod creates a percentile calculator with specified method
func NewPercentilesWithMethod(method PercentileMethod) *Percentiles {
	return &Percentiles{method: method}
}

// CalculatePercentile computes a single percentile value (0-100)
func (p *Percentiles) CalculatePercentile(data []float64, percentile float64) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty data")
	}

	if percentile < 0 || percentile > 100 {
		return 0, fmt.Errorf("percentile must be between 0 and 100, got %g", percentile)
	}

	values := make([]float64, len(data))
	copy(values, data)
	sort.Float64s(values)

	return p.calculatePercentile(values, percentile/100.0), nil
}

// Positive returns the p-th percentile over the strictly positive entries of
// data. ok is false when no entry is positive.
func (p *Percentiles) Positive(data []float64, percentile float64) (value float64, ok bool) {
	positive := make([]float64, 0, len(data))
	for _, v := range data {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return 0, false
	}

	value, err := p.CalculatePercentile(positive, percentile)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (p *Percentiles) calculatePercentile(sortedData []float64, q float64) float64 {
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	switch p.method {
	case Lower:
		return sortedData[p.lowerRank(sortedData, q)]
	case Higher:
		return sortedData[p.upperRank(sortedData, q)]
	case Midpoint:
		return (sortedData[p.lowerRank(sortedData, q)] + sortedData[p.upperRank(sortedData, q)]) / 2.0
	default:
		return p.linearInterpolation(sortedData, q)
	}
}

// linearInterpolation places the quantile at h = (n-1)*q on the 0-based
// rank axis and interpolates between its neighbours
func (p *Percentiles) linearInterpolation(data []float64, q float64) float64 {
	n := len(data)
	h := float64(n-1) * q

	lower := int(math.Floor(h))
	upper := int(math.Ceil(h))
	if lower < 0 {
		return data[0]
	}
	if upper >= n {
		return data[n-1]
	}
	if lower == upper {
		return data[lower]
	}

	fraction := h - float64(lower)
	return data[lower] + fraction*(data[upper]-data[lower])
}

func (p *Percentiles) lowerRank(data []float64, q float64) int {
	idx := int(math.Floor(float64(len(data)-1) * q))
	return max(0, min(idx, len(data)-1))
}

func (p *Percentiles) upperRank(data []float64, q float64) int {
	idx := int(math.Ceil(float64(len(data)-1) * q))
	return max(0, min(idx, len(data)-1))
}
