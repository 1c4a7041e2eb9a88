package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
)

// Energy computes short-time energy over centred, hop-strided frames so its
// output lines up frame-for-frame with the pitch trackers
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// ComputeFrameRMS calculates the RMS of every centred frame.
// A signal of n samples yields 1 + n/hop values.
func (e *Energy) ComputeFrameRMS(signal []float64) []float64 {
	if e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	frames := common.NewCenteredFrames(signal, e.frameSize, e.hopSize)
	energies := make([]float64, frames.Len())

	for i := range energies {
		frame := frames.Frame(i)

		sumSquares := 0.0
		for _, s := range frame {
			sumSquares += s * s
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}
