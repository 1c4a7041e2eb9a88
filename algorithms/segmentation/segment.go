package segmentation

import (
	"github.com/RyanBlaney/sonido-midi/algorithms/common"
)

// Segment walks the notes once and emits one event per voiced stretch. An
// event keeps the pitch it started with while later frames stay within
// params.PitchTolerance of it. A NoPitch frame closes it, and a larger jump
// closes it and opens a new one. Events shorter than MinNoteSeconds are
// dropped. An event still open at the end of the sequence ends at len(notes).
func Segment(notes []int, params Params) []NoteEvent {
	events := make([]NoteEvent, 0)

	current := NoPitch
	start := 0

	closeRun := func(end int) {
		if current < 0 {
			return
		}
		ev := NoteEvent{
			Pitch:     current,
			StartTime: params.FrameTime(start),
			EndTime:   params.FrameTime(end),
		}
		if ev.Duration() >= params.MinNoteSeconds {
			events = append(events, ev)
		}
		current = NoPitch
	}

	for i, note := range notes {
		switch {
		case note < 0:
			closeRun(i)
		case current < 0:
			current = note
			start = i
		case common.AbsInt(note-current) > params.PitchTolerance:
			closeRun(i)
			current = note
			start = i
		}
	}
	closeRun(len(notes))

	return events
}
