package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 61.0, MedianInt([]int{60, 62, 61}))
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, 60, RoundHalfEven(60.5))
	assert.Equal(t, 62, RoundHalfEven(61.5))
	assert.Equal(t, -2, RoundHalfEven(-1.5))
	assert.Equal(t, 69, RoundHalfEven(69.4))
}

func TestPopulationStdDev(t *testing.T) {
	assert.InDelta(t, 2.0, PopulationStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, PopulationStdDev([]float64{3}))
}

func TestPeakNormalize(t *testing.T) {
	in := []float64{0.1, -0.5, 0.25}
	out := PeakNormalize(in)

	assert.InDeltaSlice(t, []float64{0.2, -1, 0.5}, out, 1e-12)
	assert.Equal(t, []float64{0.1, -0.5, 0.25}, in)
	assert.Equal(t, []float64{0, 0}, PeakNormalize([]float64{0, 0}))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(440))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestCenteredFrames(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	frames := NewCenteredFrames(signal, 4, 2)

	assert.Equal(t, 5, frames.Len())
	assert.Equal(t, []float64{0, 0, 1, 2}, frames.Frame(0))
	assert.Equal(t, []float64{1, 2, 3, 4}, frames.Frame(1))
	assert.Equal(t, []float64{7, 8, 0, 0}, frames.Frame(4))
	assert.Equal(t, 1, FrameCount(0, 128))
}
