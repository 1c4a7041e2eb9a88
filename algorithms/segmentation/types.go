// Package segmentation turns frame-level pitch, voicing and energy arrays into
// discrete note events. Every stage is a pure function over explicit arrays
// and returns a fresh slice, so stages can be tested and reordered in isolation.
//
// Stage order: gate -> quantize -> smooth -> bridge gaps -> correct outliers
// -> segment -> merge.
package segmentation

import (
	"errors"
	"fmt"
)

const (
	// NoPitch marks a frame without a usable pitch
	NoPitch = -1

	// MaxNote is the highest MIDI note number
	MaxNote = 127
)

// NoteEvent is a single detected note
type NoteEvent struct {
	Pitch     int     `json:"pitch"`      // MIDI note 0-127
	StartTime float64 `json:"start_time"` // seconds
	EndTime   float64 `json:"end_time"`   // seconds
}

// Duration returns the event length in seconds
func (e NoteEvent) Duration() float64 {
	return e.EndTime - e.StartTime
}

// FrameTrack holds the per-frame analyzer output for one buffer.
// Confidence is nil when the analyzer has no voicing signal.
type FrameTrack struct {
	Frequencies []float64 `json:"frequencies"`
	Confidence  []float64 `json:"confidence,omitempty"`
	Energy      []float64 `json:"energy"`
}

// Len returns the number of frames, defined by the frequency array
func (ft FrameTrack) Len() int {
	return len(ft.Frequencies)
}

// Params configures a segmentation pass
type Params struct {
	SampleRate int `json:"sample_rate"`
	HopLength  int `json:"hop_length"`

	MinNoteSeconds   float64 `json:"min_note_seconds"`
	BaseEnergyGate   float64 `json:"base_energy_gate"`
	ConfidenceFloor  float64 `json:"confidence_floor"`
	GapBridgeSeconds float64 `json:"gap_bridge_seconds"`
	PitchTolerance   int     `json:"pitch_tolerance_semitones"`
}

// ErrInvalidParams is returned for parameters that would make frame timing undefined
var ErrInvalidParams = errors.New("invalid segmentation parameters")

// Validate checks the frame geometry and thresholds
func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidParams, p.SampleRate)
	}
	if p.HopLength <= 0 {
		return fmt.Errorf("%w: hop length must be positive, got %d", ErrInvalidParams, p.HopLength)
	}
	if p.MinNoteSeconds < 0 || p.GapBridgeSeconds < 0 || p.BaseEnergyGate < 0 || p.ConfidenceFloor < 0 {
		return fmt.Errorf("%w: durations and thresholds must not be negative", ErrInvalidParams)
	}
	if p.PitchTolerance < 0 {
		return fmt.Errorf("%w: pitch tolerance must not be negative, got %d", ErrInvalidParams, p.PitchTolerance)
	}
	return nil
}

// FrameTime maps a frame index to seconds
func (p Params) FrameTime(i int) float64 {
	return float64(i*p.HopLength) / float64(p.SampleRate)
}
