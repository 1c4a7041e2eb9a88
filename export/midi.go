package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/logging"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

const channel = 0

// TickedNote is a note event placed on the tick timeline
type TickedNote struct {
	Pitch uint8
	Start uint32
	End   uint32
}

// Encoder writes note events as a single-track Standard MIDI File at a
// constant tempo and 480 ticks per quarter note
type Encoder struct {
	bpm         float64
	tempoMicros int
	velocity    uint8
	logger      logging.Logger
}

// NewEncoder creates an encoder for the given tempo and note-on velocity
func NewEncoder(bpm float64, velocity int) (*Encoder, error) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return nil, fmt.Errorf("%w: tempo must be positive, got %g", config.ErrInvalidConfig, bpm)
	}
	if velocity < 1 || velocity > 127 {
		return nil, fmt.Errorf("%w: velocity must be in 1..127, got %d", config.ErrInvalidConfig, velocity)
	}

	return &Encoder{
		bpm:         bpm,
		tempoMicros: common.RoundHalfEven(60_000_000 / bpm),
		velocity:    uint8(velocity),
		logger: logging.WithFields(logging.Fields{
			"component": "midi_encoder",
		}),
	}, nil
}

// TempoMicros returns microseconds per quarter note
func (e *Encoder) TempoMicros() int {
	return e.tempoMicros
}

// SecondsToTicks converts a time in seconds to a tick position
func (e *Encoder) SecondsToTicks(seconds float64) uint32 {
	secondsPerTick := float64(e.tempoMicros) * 1e-6 / config.TicksPerQuarter
	ticks := common.RoundHalfEven(seconds / secondsPerTick)
	return uint32(max(ticks, 0))
}

// Timeline places events on the tick grid. Every note lasts at least one
// tick, and a note that would start before the previous note ended is moved
// to that end so the stream stays monotonic.
func (e *Encoder) Timeline(events []segmentation.NoteEvent) ([]TickedNote, error) {
	notes := make([]TickedNote, 0, len(events))
	var cursor uint32

	for i, ev := range events {
		if ev.Pitch < 0 || ev.Pitch > segmentation.MaxNote {
			return nil, fmt.Errorf("event %d: pitch %d outside MIDI range", i, ev.Pitch)
		}

		start := e.SecondsToTicks(ev.StartTime)
		end := e.SecondsToTicks(ev.EndTime)

		if start < cursor {
			e.logger.Warn("overlapping note clamped", logging.Fields{
				"event":      i,
				"pitch":      ev.Pitch,
				"start_tick": start,
				"cursor":     cursor,
			})
			start = cursor
		}
		if end <= start {
			end = start + 1
		}

		notes = append(notes, TickedNote{Pitch: uint8(ev.Pitch), Start: start, End: end})
		cursor = end
	}

	return notes, nil
}

// Encode builds the file: one tempo meta event, a note-on/note-off pair per
// event in delta time, and the end-of-track marker one tick after the last note
func (e *Encoder) Encode(events []segmentation.NoteEvent) (*smf.SMF, error) {
	notes, err := e.Timeline(events)
	if err != nil {
		return nil, err
	}

	var track smf.Track
	track.Add(0, smf.MetaTempo(e.bpm))

	var cursor uint32
	for _, n := range notes {
		track.Add(n.Start-cursor, midi.NoteOn(channel, n.Pitch, e.velocity))
		track.Add(n.End-n.Start, midi.NoteOff(channel, n.Pitch))
		cursor = n.End
	}
	track.Close(1)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(config.TicksPerQuarter)
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	return s, nil
}

// Write encodes events to w
func (e *Encoder) Write(w io.Writer, events []segmentation.NoteEvent) error {
	s, err := e.Encode(events)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write MIDI data: %w", err)
	}
	return nil
}

// WriteFile encodes events to path atomically
func (e *Encoder) WriteFile(path string, events []segmentation.NoteEvent) error {
	return writeFileAtomic(path, func(f *os.File) error {
		return e.Write(f, events)
	})
}
