package segmentation

import (
	"github.com/RyanBlaney/sonido-midi/algorithms/common"
)

const (
	smoothRadius    = 2
	smoothMinFrames = 4
	smoothMinVoiced = 2
)

// Smooth median-filters the notes over a centred 5-frame window clipped at the
// array bounds, reading only the voiced values. Every frame whose window holds
// at least two voiced values takes their rounded median, NoPitch frames at the
// edge of a voiced run included. Frames with fewer stay as they are, so an
// isolated voiced frame never spreads. Sequences of four frames or fewer are
// returned as-is.
func Smooth(notes []int) []int {
	out := append([]int(nil), notes...)
	if len(notes) <= smoothMinFrames {
		return out
	}

	window := make([]int, 0, 2*smoothRadius+1)
	for i := range notes {
		lo := max(0, i-smoothRadius)
		hi := min(len(notes), i+smoothRadius+1)

		window = window[:0]
		for _, v := range notes[lo:hi] {
			if v >= 0 {
				window = append(window, v)
			}
		}

		if len(window) >= smoothMinVoiced {
			out[i] = common.RoundHalfEven(common.MedianInt(window))
		}
	}

	return out
}
