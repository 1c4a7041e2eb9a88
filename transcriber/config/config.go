package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/algorithms/tonal"
)

// TicksPerQuarter is the fixed timeline resolution of exported files
const TicksPerQuarter = 480

// ErrInvalidConfig is returned by Validate for unusable parameter sets
var ErrInvalidConfig = errors.New("invalid configuration")

// Profile names a preset parameter set
type Profile string

const (
	ProfileDefault Profile = "default"
	ProfileExport  Profile = "export"
)

// ParseProfile maps a profile name to a Profile. An empty name is the default profile.
func ParseProfile(name string) (Profile, error) {
	switch Profile(name) {
	case "", ProfileDefault:
		return ProfileDefault, nil
	case ProfileExport:
		return ProfileExport, nil
	default:
		return "", fmt.Errorf("%w: unknown profile %q", ErrInvalidConfig, name)
	}
}

// TranscriptionConfig configures a full transcription pass
type TranscriptionConfig struct {
	// Analysis
	HopLength      int     `json:"hop_length"`
	FrameLength    int     `json:"frame_length"`
	PitchFloorHz   float64 `json:"pitch_floor_hz"`
	PitchCeilingHz float64 `json:"pitch_ceiling_hz"`

	// Segmentation
	MinNoteSeconds   float64 `json:"min_note_seconds"`
	BaseEnergyGate   float64 `json:"base_energy_gate"`
	ConfidenceFloor  float64 `json:"confidence_floor"`
	GapBridgeSeconds float64 `json:"gap_bridge_seconds"`
	PitchTolerance   int     `json:"pitch_tolerance_semitones"`

	// Output
	TempoBPM float64 `json:"tempo_bpm"`
	Velocity int     `json:"velocity"`
}

// DefaultConfig returns the parameters of the full-pass analysis
func DefaultConfig() *TranscriptionConfig {
	return &TranscriptionConfig{
		HopLength:        128,
		FrameLength:      2048,
		PitchFloorHz:     65.41,   // C2
		PitchCeilingHz:   1046.50, // C6
		MinNoteSeconds:   0.05,
		BaseEnergyGate:   0.006,
		ConfidenceFloor:  0.03,
		GapBridgeSeconds: 0.22,
		PitchTolerance:   2,
		TempoBPM:         120,
		Velocity:         96,
	}
}

// ExportConfig returns the more permissive parameters used when writing files
func ExportConfig() *TranscriptionConfig {
	config := DefaultConfig()
	config.MinNoteSeconds = 0.035
	config.BaseEnergyGate = 0.0045
	config.GapBridgeSeconds = 0.28
	return config
}

// ConfigForProfile returns the preset for a profile. Unknown profiles get the defaults.
func ConfigForProfile(profile Profile) *TranscriptionConfig {
	switch profile {
	case ProfileExport:
		return ExportConfig()
	default:
		return DefaultConfig()
	}
}

// LoadConfig reads a JSON file over the preset of profile. Keys missing from
// the file keep the preset values. The result is validated.
func LoadConfig(path string, profile Profile) (*TranscriptionConfig, error) {
	config := ConfigForProfile(profile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects parameter sets the pipeline cannot run with
func (c *TranscriptionConfig) Validate() error {
	switch {
	case c.HopLength <= 0:
		return fmt.Errorf("%w: hop_length must be positive, got %d", ErrInvalidConfig, c.HopLength)
	case c.FrameLength <= 0:
		return fmt.Errorf("%w: frame_length must be positive, got %d", ErrInvalidConfig, c.FrameLength)
	case c.PitchFloorHz <= 0 || c.PitchFloorHz >= c.PitchCeilingHz:
		return fmt.Errorf("%w: pitch range [%.2f, %.2f] Hz is empty", ErrInvalidConfig, c.PitchFloorHz, c.PitchCeilingHz)
	case c.MinNoteSeconds < 0:
		return fmt.Errorf("%w: min_note_seconds must not be negative", ErrInvalidConfig)
	case c.BaseEnergyGate < 0:
		return fmt.Errorf("%w: base_energy_gate must not be negative", ErrInvalidConfig)
	case c.ConfidenceFloor < 0:
		return fmt.Errorf("%w: confidence_floor must not be negative", ErrInvalidConfig)
	case c.GapBridgeSeconds < 0:
		return fmt.Errorf("%w: gap_bridge_seconds must not be negative", ErrInvalidConfig)
	case c.PitchTolerance < 0:
		return fmt.Errorf("%w: pitch_tolerance_semitones must not be negative", ErrInvalidConfig)
	case c.TempoBPM <= 0 || math.IsNaN(c.TempoBPM) || math.IsInf(c.TempoBPM, 0):
		return fmt.Errorf("%w: tempo_bpm must be positive, got %g", ErrInvalidConfig, c.TempoBPM)
	case c.Velocity < 1 || c.Velocity > 127:
		return fmt.Errorf("%w: velocity must be in 1..127, got %d", ErrInvalidConfig, c.Velocity)
	}
	return nil
}

// SegmentationParams binds the segmentation thresholds to a sample rate
func (c *TranscriptionConfig) SegmentationParams(sampleRate int) segmentation.Params {
	return segmentation.Params{
		SampleRate:       sampleRate,
		HopLength:        c.HopLength,
		MinNoteSeconds:   c.MinNoteSeconds,
		BaseEnergyGate:   c.BaseEnergyGate,
		ConfidenceFloor:  c.ConfidenceFloor,
		GapBridgeSeconds: c.GapBridgeSeconds,
		PitchTolerance:   c.PitchTolerance,
	}
}

// PitchTrackerParams binds the analysis parameters to a sample rate
func (c *TranscriptionConfig) PitchTrackerParams(sampleRate int) tonal.PitchTrackerParams {
	params := tonal.DefaultPitchTrackerParams(sampleRate)
	params.FrameLength = c.FrameLength
	params.HopLength = c.HopLength
	params.MinFreq = c.PitchFloorHz
	params.MaxFreq = c.PitchCeilingHz
	return params
}

// LiveConfig configures the live note estimator and preview cadence
type LiveConfig struct {
	BufferSeconds      float64       `json:"buffer_seconds"`
	MinSamples         int           `json:"min_samples"`
	FrameLength        int           `json:"frame_length"`
	HopLength          int           `json:"hop_length"`
	PitchFloorHz       float64       `json:"pitch_floor_hz"`
	PitchCeilingHz     float64       `json:"pitch_ceiling_hz"`
	BaseEnergyGate     float64       `json:"base_energy_gate"`
	ConfidenceFloor    float64       `json:"confidence_floor"`
	MaxJitterSemitones float64       `json:"max_jitter_semitones"`
	Interval           time.Duration `json:"interval"`
}

// DefaultLiveConfig returns the preview settings: a 0.42 s window polled every 120 ms
func DefaultLiveConfig() *LiveConfig {
	return &LiveConfig{
		BufferSeconds:      0.42,
		MinSamples:         1024,
		FrameLength:        2048,
		HopLength:          128,
		PitchFloorHz:       65.41,
		PitchCeilingHz:     1046.50,
		BaseEnergyGate:     0.006,
		ConfidenceFloor:    0.02,
		MaxJitterSemitones: 2.4,
		Interval:           120 * time.Millisecond,
	}
}

// Validate rejects live settings the estimator or monitor cannot run with
func (c *LiveConfig) Validate() error {
	switch {
	case c.BufferSeconds <= 0:
		return fmt.Errorf("%w: buffer_seconds must be positive", ErrInvalidConfig)
	case c.MinSamples < 0:
		return fmt.Errorf("%w: min_samples must not be negative", ErrInvalidConfig)
	case c.FrameLength <= 0 || c.HopLength <= 0:
		return fmt.Errorf("%w: frame_length and hop_length must be positive", ErrInvalidConfig)
	case c.PitchFloorHz <= 0 || c.PitchFloorHz >= c.PitchCeilingHz:
		return fmt.Errorf("%w: pitch range [%.2f, %.2f] Hz is empty", ErrInvalidConfig, c.PitchFloorHz, c.PitchCeilingHz)
	case c.BaseEnergyGate < 0 || c.ConfidenceFloor < 0 || c.MaxJitterSemitones < 0:
		return fmt.Errorf("%w: gates and jitter limit must not be negative", ErrInvalidConfig)
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// PitchTrackerParams binds the live analysis window to a sample rate
func (c *LiveConfig) PitchTrackerParams(sampleRate int) tonal.PitchTrackerParams {
	params := tonal.DefaultPitchTrackerParams(sampleRate)
	params.FrameLength = c.FrameLength
	params.HopLength = c.HopLength
	params.MinFreq = c.PitchFloorHz
	params.MaxFreq = c.PitchCeilingHz
	return params
}
