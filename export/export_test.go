package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

type decodedNote struct {
	key      uint8
	velocity uint8
	on, off  int64
}

// readBack decodes a written file into tempo and absolute-tick notes
func readBack(t *testing.T, data []byte) (float64, []decodedNote) {
	t.Helper()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)
	assert.Equal(t, smf.MetricTicks(480), s.TimeFormat)

	var (
		bpm      float64
		notes    []decodedNote
		abs      int64
		previous int64
	)
	for _, ev := range s.Tracks[0] {
		abs += int64(ev.Delta)
		require.GreaterOrEqual(t, abs, previous)
		previous = abs

		var ch, key, vel uint8
		switch {
		case ev.Message.GetMetaTempo(&bpm):
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			notes = append(notes, decodedNote{key: key, velocity: vel, on: abs})
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			require.NotEmpty(t, notes)
			last := &notes[len(notes)-1]
			require.Equal(t, last.key, key)
			last.off = abs
		}
	}
	return bpm, notes
}

func TestEncoderTiming(t *testing.T) {
	enc, err := NewEncoder(120, 96)
	require.NoError(t, err)
	assert.Equal(t, 500000, enc.TempoMicros())
	assert.Equal(t, uint32(960), enc.SecondsToTicks(1.0))
	assert.Equal(t, uint32(480), enc.SecondsToTicks(0.5))
	assert.Equal(t, uint32(0), enc.SecondsToTicks(-1))

	enc90, err := NewEncoder(90, 96)
	require.NoError(t, err)
	assert.Equal(t, 666667, enc90.TempoMicros())
}

func TestEncoderRejectsBadSettings(t *testing.T) {
	_, err := NewEncoder(0, 96)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	_, err = NewEncoder(120, 0)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	_, err = NewEncoder(120, 128)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestTimeline(t *testing.T) {
	enc, err := NewEncoder(120, 96)
	require.NoError(t, err)

	t.Run("consecutive", func(t *testing.T) {
		notes, err := enc.Timeline([]segmentation.NoteEvent{{Pitch: 60, StartTime: 0, EndTime: 0.5}, {Pitch: 62, StartTime: 0.5, EndTime: 1}})
		require.NoError(t, err)
		assert.Equal(t, []TickedNote{{60, 0, 480}, {62, 480, 960}}, notes)
	})

	t.Run("minimum one tick", func(t *testing.T) {
		notes, err := enc.Timeline([]segmentation.NoteEvent{{Pitch: 60, StartTime: 0.1, EndTime: 0.1}})
		require.NoError(t, err)
		assert.Equal(t, []TickedNote{{60, 96, 97}}, notes)
	})

	t.Run("overlap clamped", func(t *testing.T) {
		notes, err := enc.Timeline([]segmentation.NoteEvent{{Pitch: 60, StartTime: 0, EndTime: 1}, {Pitch: 64, StartTime: 0.5, EndTime: 1.5}})
		require.NoError(t, err)
		assert.Equal(t, []TickedNote{{60, 0, 960}, {64, 960, 1440}}, notes)
	})

	t.Run("overlap swallowed", func(t *testing.T) {
		notes, err := enc.Timeline([]segmentation.NoteEvent{{Pitch: 60, StartTime: 0, EndTime: 1}, {Pitch: 64, StartTime: 0.2, EndTime: 0.4}})
		require.NoError(t, err)
		assert.Equal(t, TickedNote{64, 960, 961}, notes[1])
	})

	t.Run("bad pitch", func(t *testing.T) {
		_, err := enc.Timeline([]segmentation.NoteEvent{{Pitch: 128, StartTime: 0, EndTime: 1}})
		assert.Error(t, err)
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	enc, err := NewEncoder(120, 96)
	require.NoError(t, err)

	events := []segmentation.NoteEvent{
		{Pitch: 60, StartTime: 0.25, EndTime: 0.75},
		{Pitch: 64, StartTime: 1.0, EndTime: 1.0},
		{Pitch: 67, StartTime: 1.5, EndTime: 2.0},
	}

	var buf bytes.Buffer
	require.NoError(t, enc.Write(&buf, events))

	bpm, notes := readBack(t, buf.Bytes())
	assert.InDelta(t, 120.0, bpm, 0.01)
	require.Len(t, notes, 3)

	assert.Equal(t, decodedNote{key: 60, velocity: 96, on: 240, off: 720}, notes[0])
	assert.Equal(t, int64(960), notes[1].on)
	assert.Equal(t, int64(961), notes[1].off)
	assert.Equal(t, uint8(67), notes[2].key)
	for _, n := range notes {
		assert.GreaterOrEqual(t, n.off, n.on+1)
	}
}

func TestEncodeEmpty(t *testing.T) {
	enc, err := NewEncoder(100, 96)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.Write(&buf, nil))

	bpm, notes := readBack(t, buf.Bytes())
	assert.InDelta(t, 100.0, bpm, 0.01)
	assert.Empty(t, notes)
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "take.mid")

	enc, err := NewEncoder(120, 96)
	require.NoError(t, err)
	require.NoError(t, enc.WriteFile(path, []segmentation.NoteEvent{{Pitch: 69, StartTime: 0, EndTime: 1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "take.mid", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, notes := readBack(t, data)
	assert.Len(t, notes, 1)

	err = enc.WriteFile(filepath.Join(dir, "missing", "take.mid"), nil)
	assert.Error(t, err)
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	samples := []float64{0, 0.5, -0.5, 1, -1, 2, -2}
	require.NoError(t, WriteWAV(path, samples, 8000))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 8000, int(dec.SampleRate))
	assert.Equal(t, 1, int(dec.NumChans))
	assert.Equal(t, []int{0, 16383, -16383, 32767, -32767, 32767, -32767}, buf.Data)
}

func sine(freq float64, sampleRate int, seconds float64) []float64 {
	out := make([]float64, int(seconds*float64(sampleRate)))
	for i := range out {
		out[i] = 0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestExporterWritesFiles(t *testing.T) {
	dir := t.TempDir()
	ex, err := NewExporter(nil)
	require.NoError(t, err)

	req := Request{
		Samples:    sine(440, 22050, 0.8),
		SampleRate: 22050,
		MIDIPath:   filepath.Join(dir, "take.mid"),
		WAVPath:    filepath.Join(dir, "take.wav"),
	}

	jobID, reports := ex.Submit(req)
	_, err = uuid.Parse(jobID)
	require.NoError(t, err)

	report := <-reports
	require.NoError(t, report.Err)
	assert.Equal(t, jobID, report.JobID)
	assert.Equal(t, 1, report.Summary.Notes)
	assert.Greater(t, report.Summary.CoveragePercent, 80.0)
	assert.FileExists(t, report.MIDIPath)
	assert.FileExists(t, report.WAVPath)

	_, open := <-reports
	assert.False(t, open)

	data, err := os.ReadFile(report.MIDIPath)
	require.NoError(t, err)
	_, notes := readBack(t, data)
	require.Len(t, notes, 1)
	assert.Equal(t, uint8(69), notes[0].key)
}

func TestExporterNoNotes(t *testing.T) {
	dir := t.TempDir()
	ex, err := NewExporter(config.ExportConfig())
	require.NoError(t, err)

	report, err := ex.Export(Request{
		Samples:    make([]float64, 22050),
		SampleRate: 22050,
		MIDIPath:   filepath.Join(dir, "silence.mid"),
		WAVPath:    filepath.Join(dir, "silence.wav"),
	})
	assert.ErrorIs(t, err, ErrNoNotes)
	assert.Empty(t, report.MIDIPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = ex.Export(Request{SampleRate: 22050, MIDIPath: filepath.Join(dir, "empty.mid")})
	assert.ErrorIs(t, err, ErrNoNotes)

	_, err = ex.Export(Request{Samples: []float64{1}, SampleRate: 22050})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
