// Package transcriber drives the pitch analysis and segmentation stages over a
// mono sample buffer and turns the result into note events.
package transcriber

import (
	"fmt"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/algorithms/temporal"
	"github.com/RyanBlaney/sonido-midi/algorithms/tonal"
	"github.com/RyanBlaney/sonido-midi/logging"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

// Analysis carries the frame-level data behind a transcription
type Analysis struct {
	SampleRate   int                         `json:"sample_rate"`
	AudioSeconds float64                     `json:"audio_seconds"`
	Method       string                      `json:"method"`
	Track        segmentation.FrameTrack     `json:"-"`
	Result       *segmentation.Result        `json:"result"`
	Config       *config.TranscriptionConfig `json:"config"`
}

// Events returns the detected notes, never nil
func (a *Analysis) Events() []segmentation.NoteEvent {
	if a == nil || a.Result == nil {
		return []segmentation.NoteEvent{}
	}
	return a.Result.Events
}

// Transcriber converts audio buffers into note events. It keeps no per-call
// state, so one instance may serve concurrent calls.
type Transcriber struct {
	config *config.TranscriptionConfig
	logger logging.Logger
}

// NewTranscriber validates cfg and creates a transcriber. A nil cfg selects the defaults.
func NewTranscriber(cfg *config.TranscriptionConfig) (*Transcriber, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := *cfg
	return &Transcriber{
		config: &c,
		logger: logging.WithFields(logging.Fields{
			"component": "transcriber",
		}),
	}, nil
}

// Config returns a copy of the active configuration
func (t *Transcriber) Config() config.TranscriptionConfig {
	return *t.config
}

// Transcribe returns the note events found in samples
func (t *Transcriber) Transcribe(samples []float64, sampleRate int) ([]segmentation.NoteEvent, error) {
	analysis, err := t.Analyze(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return analysis.Events(), nil
}

// Analyze runs the full pass and keeps the intermediate frame data.
// An empty buffer gives an empty result and no error.
func (t *Transcriber) Analyze(samples []float64, sampleRate int) (*Analysis, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", config.ErrInvalidConfig, sampleRate)
	}

	analysis := &Analysis{
		SampleRate:   sampleRate,
		AudioSeconds: float64(len(samples)) / float64(sampleRate),
		Config:       t.config,
		Result:       &segmentation.Result{Events: []segmentation.NoteEvent{}},
	}
	if len(samples) == 0 {
		return analysis, nil
	}

	signal := common.PeakNormalize(samples)

	pitch, err := tonal.NewPitchAnalyzer(t.config.PitchTrackerParams(sampleRate)).Track(signal)
	if err != nil {
		t.logger.Error(err, "pitch analysis failed", logging.Fields{
			"samples":     len(samples),
			"sample_rate": sampleRate,
		})
		return nil, fmt.Errorf("failed to analyze pitch: %w", err)
	}

	energy := temporal.NewEnergy(t.config.FrameLength, t.config.HopLength).ComputeFrameRMS(signal)

	analysis.Method = pitch.Method.String()
	analysis.Track = segmentation.FrameTrack{
		Frequencies: pitch.Frequencies,
		Confidence:  pitch.Confidence,
		Energy:      energy,
	}

	result, err := segmentation.Run(analysis.Track, t.config.SegmentationParams(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to segment notes: %w", err)
	}
	analysis.Result = result

	t.logger.Debug("transcription complete", logging.Fields{
		"frames":         result.Frames,
		"voiced_frames":  result.VoicedFrames,
		"effective_gate": result.EffectiveGate,
		"events":         len(result.Events),
		"method":         analysis.Method,
	})

	return analysis, nil
}
