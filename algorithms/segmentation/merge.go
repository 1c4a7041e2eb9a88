package segmentation

import (
	"math"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
)

// Merge joins chronologically adjacent events separated by at most
// bridgeSeconds whose pitches differ by at most tolerance. The merged event
// keeps the earlier event's pitch. Overlapping events count as a zero gap.
func Merge(events []NoteEvent, bridgeSeconds float64, tolerance int) []NoteEvent {
	merged := make([]NoteEvent, 0, len(events))

	for _, ev := range events {
		if len(merged) == 0 {
			merged = append(merged, ev)
			continue
		}

		last := &merged[len(merged)-1]
		gap := math.Max(0, ev.StartTime-last.EndTime)
		if gap <= bridgeSeconds && common.AbsInt(ev.Pitch-last.Pitch) <= tolerance {
			last.EndTime = math.Max(last.EndTime, ev.EndTime)
			continue
		}

		merged = append(merged, ev)
	}

	return merged
}
