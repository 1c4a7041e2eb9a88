package segmentation

import (
	"fmt"
)

var degreeNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the scientific pitch name of a MIDI note (60 = C4).
// NoPitch and out-of-range values render as "-".
func NoteName(pitch int) string {
	if pitch < 0 || pitch > MaxNote {
		return "-"
	}
	return fmt.Sprintf("%s%d", degreeNames[pitch%12], pitch/12-1)
}
