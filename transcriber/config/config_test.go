package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, 128, c.HopLength)
	assert.Equal(t, 2048, c.FrameLength)
	assert.Equal(t, 0.05, c.MinNoteSeconds)
	assert.Equal(t, 0.006, c.BaseEnergyGate)
	assert.Equal(t, 0.22, c.GapBridgeSeconds)
	assert.Equal(t, 2, c.PitchTolerance)
	assert.Equal(t, 120.0, c.TempoBPM)
	assert.Equal(t, 96, c.Velocity)

	e := ExportConfig()
	require.NoError(t, e.Validate())
	assert.Equal(t, 0.035, e.MinNoteSeconds)
	assert.Equal(t, 0.0045, e.BaseEnergyGate)
	assert.Equal(t, 0.28, e.GapBridgeSeconds)
	assert.Equal(t, c.HopLength, e.HopLength)

	require.NoError(t, DefaultLiveConfig().Validate())
}

func TestProfiles(t *testing.T) {
	p, err := ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileDefault, p)

	p, err = ParseProfile("export")
	require.NoError(t, err)
	assert.Equal(t, ExportConfig(), ConfigForProfile(p))

	_, err = ParseProfile("studio")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TranscriptionConfig)
	}{
		{"zero hop", func(c *TranscriptionConfig) { c.HopLength = 0 }},
		{"negative frame", func(c *TranscriptionConfig) { c.FrameLength = -1 }},
		{"floor above ceiling", func(c *TranscriptionConfig) { c.PitchFloorHz = 2000 }},
		{"negative min note", func(c *TranscriptionConfig) { c.MinNoteSeconds = -0.1 }},
		{"negative gate", func(c *TranscriptionConfig) { c.BaseEnergyGate = -1 }},
		{"negative bridge", func(c *TranscriptionConfig) { c.GapBridgeSeconds = -1 }},
		{"negative tolerance", func(c *TranscriptionConfig) { c.PitchTolerance = -1 }},
		{"zero tempo", func(c *TranscriptionConfig) { c.TempoBPM = 0 }},
		{"NaN tempo", func(c *TranscriptionConfig) { c.TempoBPM = math.NaN() }},
		{"infinite tempo", func(c *TranscriptionConfig) { c.TempoBPM = math.Inf(1) }},
		{"velocity too high", func(c *TranscriptionConfig) { c.Velocity = 128 }},
		{"velocity zero", func(c *TranscriptionConfig) { c.Velocity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tempo_bpm": 90, "pitch_tolerance_semitones": 1}`), 0o644))

	c, err := LoadConfig(path, ProfileExport)
	require.NoError(t, err)
	assert.Equal(t, 90.0, c.TempoBPM)
	assert.Equal(t, 1, c.PitchTolerance)
	assert.Equal(t, 0.28, c.GapBridgeSeconds)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"hop_length": 0}`), 0o644))
	_, err = LoadConfig(bad, ProfileDefault)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"), ProfileDefault)
	assert.Error(t, err)
}

func TestTrackerParams(t *testing.T) {
	c := DefaultConfig()
	p := c.PitchTrackerParams(22050)
	assert.Equal(t, 22050, p.SampleRate)
	assert.Equal(t, c.FrameLength, p.FrameLength)
	assert.Equal(t, c.PitchFloorHz, p.MinFreq)

	s := c.SegmentationParams(22050)
	require.NoError(t, s.Validate())
	assert.Equal(t, c.GapBridgeSeconds, s.GapBridgeSeconds)
}
