package segmentation

import (
	"github.com/RyanBlaney/sonido-midi/algorithms/common"
)

// MaxGapFrames converts a bridge duration to a frame count, at least one
func MaxGapFrames(bridgeSeconds float64, sampleRate, hopLength int) int {
	frames := common.RoundHalfEven(bridgeSeconds * float64(sampleRate) / float64(hopLength))
	return max(1, frames)
}

// BridgeGaps fills runs of NoPitch frames that sit between two voiced frames
// when the run is at most maxGap frames long and the flanking pitches differ
// by no more than tolerance. The run takes the rounded mean of its flanks.
// Leading and trailing gaps are left alone.
func BridgeGaps(notes []int, maxGap, tolerance int) []int {
	out := append([]int(nil), notes...)
	n := len(out)
	if n <= 2 {
		return out
	}

	i := 0
	for i < n {
		if out[i] >= 0 {
			i++
			continue
		}

		start := i
		for i < n && out[i] < 0 {
			i++
		}

		left := start - 1
		if left < 0 || i >= n {
			continue
		}

		l, r := out[left], out[i]
		if i-start <= maxGap && common.AbsInt(l-r) <= tolerance {
			fill := common.RoundHalfEven(float64(l+r) / 2)
			for k := start; k < i; k++ {
				out[k] = fill
			}
		}
	}

	return out
}

// CorrectOutliers replaces a single voiced frame whose two voiced neighbours
// agree with each other (within tolerance) while it differs from both by more
// than tolerance. Corrections are applied left to right, so a corrected frame
// is the left neighbour of the next test.
func CorrectOutliers(notes []int, tolerance int) []int {
	out := append([]int(nil), notes...)

	for i := 1; i < len(out)-1; i++ {
		l, m, r := out[i-1], out[i], out[i+1]
		if l < 0 || m < 0 || r < 0 {
			continue
		}
		if common.AbsInt(l-r) > tolerance {
			continue
		}
		if common.AbsInt(m-l) > tolerance && common.AbsInt(m-r) > tolerance {
			out[i] = common.RoundHalfEven(float64(l+r) / 2)
		}
	}

	return out
}
