package segmentation

import (
	"math"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
)

// HzToMIDI converts a frequency to a fractional MIDI note number (A4 = 440 Hz = 69)
func HzToMIDI(freq float64) float64 {
	return 12*(math.Log2(freq)-math.Log2(440.0)) + 69
}

// QuantizeFrequency returns the nearest semitone for a frequency, clamped to
// [NoPitch, MaxNote]. Non-positive or non-finite frequencies give NoPitch.
func QuantizeFrequency(freq float64) int {
	if !common.IsFinite(freq) || freq <= 0 {
		return NoPitch
	}
	return common.ClampInt(common.RoundHalfEven(HzToMIDI(freq)), NoPitch, MaxNote)
}

// Quantize maps voiced frames to semitones and everything else to NoPitch
func Quantize(frequencies []float64, voiced []bool) []int {
	notes := make([]int, len(frequencies))
	for i, f := range frequencies {
		if i < len(voiced) && voiced[i] {
			notes[i] = QuantizeFrequency(f)
		} else {
			notes[i] = NoPitch
		}
	}
	return notes
}
