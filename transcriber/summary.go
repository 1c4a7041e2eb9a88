package transcriber

import (
	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
)

// Summary describes how much of a recording the detected notes cover
type Summary struct {
	Notes           int     `json:"notes"`
	NoteSeconds     float64 `json:"note_seconds"`
	AudioSeconds    float64 `json:"audio_seconds"`
	CoveragePercent float64 `json:"coverage_percent"`
	LowestPitch     int     `json:"lowest_pitch"`
	HighestPitch    int     `json:"highest_pitch"`
}

// Summarize totals event durations against the audio length. Pitch bounds
// are NoPitch when there are no events.
func Summarize(events []segmentation.NoteEvent, audioSeconds float64) Summary {
	s := Summary{
		Notes:        len(events),
		AudioSeconds: audioSeconds,
		LowestPitch:  segmentation.NoPitch,
		HighestPitch: segmentation.NoPitch,
	}

	for i, ev := range events {
		s.NoteSeconds += ev.Duration()
		if i == 0 || ev.Pitch < s.LowestPitch {
			s.LowestPitch = ev.Pitch
		}
		if i == 0 || ev.Pitch > s.HighestPitch {
			s.HighestPitch = ev.Pitch
		}
	}

	if audioSeconds > 0 {
		s.CoveragePercent = s.NoteSeconds / audioSeconds * 100
	}

	return s
}
