package cmd

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-midi/export"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

func TestAnalysisFlags(t *testing.T) {
	f := analysisFlags{profile: "export", bpm: 90}
	cfg, err := f.load()
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.TempoBPM)
	assert.Equal(t, 0.28, cfg.GapBridgeSeconds)

	f = analysisFlags{profile: "loud"}
	_, err = f.load()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	f = analysisFlags{profile: "default", bpm: -1}
	_, err = f.load()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestOutputPath(t *testing.T) {
	outDir = ""
	assert.Equal(t, filepath.Join("takes", "hum.mid"), outputPath(filepath.Join("takes", "hum.wav"), ".mid"))

	outDir = "out"
	defer func() { outDir = "" }()
	assert.Equal(t, filepath.Join("out", "hum.mono.wav"), outputPath(filepath.Join("takes", "hum.flac"), ".mono.wav"))
}

func TestTranscribeAll(t *testing.T) {
	dir := t.TempDir()

	tone := make([]float64, 22050)
	for i := range tone {
		tone[i] = 0.5 * math.Sin(2*math.Pi*392*float64(i)/22050)
	}
	input := filepath.Join(dir, "hum.wav")
	require.NoError(t, export.WriteWAV(input, tone, 22050))

	silent := filepath.Join(dir, "silence.wav")
	require.NoError(t, export.WriteWAV(silent, make([]float64, 22050), 22050))

	outDir = filepath.Join(dir, "out")
	workers = 2
	defer func() { outDir, workers = "", 0 }()

	require.NoError(t, transcribeAll(context.Background(), config.ExportConfig(), []string{input, silent}))

	assert.FileExists(t, filepath.Join(outDir, "hum.mid"))
	_, err := os.Stat(filepath.Join(outDir, "silence.mid"))
	assert.True(t, os.IsNotExist(err))

	err = transcribeAll(context.Background(), config.ExportConfig(), []string{filepath.Join(dir, "missing.wav")})
	assert.Error(t, err)
}
