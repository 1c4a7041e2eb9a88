package segmentation

import (
	"math"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
	"github.com/RyanBlaney/sonido-midi/algorithms/stats"
)

// Adaptive gate constants
const (
	adaptivePercentile = 25.0
	adaptiveScale      = 0.35
	adaptiveFloor      = 0.0015
)

// AlignTrack pads (by repeating the last value) or truncates the energy and
// confidence arrays to the length of the frequency array. Missing values are
// zero. NaN confidences become zero.
func AlignTrack(track FrameTrack) FrameTrack {
	n := track.Len()
	aligned := FrameTrack{
		Frequencies: append([]float64(nil), track.Frequencies...),
		Energy:      fitLength(track.Energy, n),
	}

	if track.Confidence != nil {
		conf := fitLength(track.Confidence, n)
		for i, c := range conf {
			if math.IsNaN(c) {
				conf[i] = 0
			}
		}
		aligned.Confidence = conf
	}

	return aligned
}

func fitLength(values []float64, n int) []float64 {
	out := make([]float64, n)
	copied := copy(out, values)
	if copied < n && len(values) > 0 {
		edge := values[len(values)-1]
		for i := copied; i < n; i++ {
			out[i] = edge
		}
	}
	return out
}

// EffectiveGate returns min(base, adaptive) where adaptive is the 25th
// percentile of the strictly positive energies scaled by 0.35 and floored at
// 0.0015. Without positive energies the base gate is used unchanged.
func EffectiveGate(energy []float64, base float64) float64 {
	q, ok := stats.NewPercentiles().Positive(energy, adaptivePercentile)
	if !ok {
		return base
	}

	adaptive := math.Max(adaptiveFloor, q*adaptiveScale)
	return math.Min(base, adaptive)
}

// VoicedMask marks frames with a finite frequency, energy at or above gate
// and, when a confidence signal exists, confidence at or above floor.
// The track must already be aligned.
func VoicedMask(track FrameTrack, gate, confidenceFloor float64) []bool {
	voiced := make([]bool, track.Len())
	for i, f := range track.Frequencies {
		if !common.IsFinite(f) || track.Energy[i] < gate {
			continue
		}
		if track.Confidence != nil && track.Confidence[i] < confidenceFloor {
			continue
		}
		voiced[i] = true
	}
	return voiced
}
