package tonal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate int, seconds, amplitude float64) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestYinTrackersFindSinePitch(t *testing.T) {
	params := DefaultPitchTrackerParams(44100)
	signal := sine(440, 44100, 0.25, 0.8)

	for _, tracker := range []*YinTracker{NewYinTracker(params), NewDirectYinTracker(params)} {
		track, err := tracker.Track(signal)
		require.NoError(t, err)
		require.Len(t, track.Frequencies, 1+len(signal)/params.HopLength)

		mid := len(track.Frequencies) / 2
		assert.InDelta(t, 440.0, track.Frequencies[mid], 1.0, tracker.method.String())
	}
}

func TestYinFFTReportsConfidence(t *testing.T) {
	params := DefaultPitchTrackerParams(44100)
	track, err := NewYinTracker(params).Track(sine(330, 44100, 0.2, 0.5))
	require.NoError(t, err)

	assert.True(t, track.HasConfidence())
	assert.Len(t, track.Confidence, len(track.Frequencies))
	assert.Greater(t, track.Confidence[len(track.Confidence)/2], 0.9)
}

func TestDirectTrackerHasNoConfidence(t *testing.T) {
	track, err := NewDirectYinTracker(DefaultPitchTrackerParams(44100)).Track(sine(330, 44100, 0.1, 0.5))
	require.NoError(t, err)
	assert.False(t, track.HasConfidence())
}

func TestSilenceHasNoPitch(t *testing.T) {
	params := DefaultPitchTrackerParams(44100)
	track, err := NewYinTracker(params).Track(make([]float64, 8000))
	require.NoError(t, err)

	for i, f := range track.Frequencies {
		assert.True(t, math.IsNaN(f), "frame %d", i)
		assert.Equal(t, 0.0, track.Confidence[i])
	}
}

func TestShortFrameRejectedByPrimaryOnly(t *testing.T) {
	params := DefaultPitchTrackerParams(44100)
	params.FrameLength = 1024

	_, err := NewYinTracker(params).Track(sine(220, 44100, 0.1, 0.5))
	assert.ErrorIs(t, err, ErrFrameTooShort)

	track, err := NewPitchAnalyzer(params).Track(sine(220, 44100, 0.1, 0.5))
	require.NoError(t, err)
	assert.Equal(t, YinDirect, track.Method)
	assert.InDelta(t, 220.0, track.Frequencies[len(track.Frequencies)/2], 1.0)
}

func TestInvalidParams(t *testing.T) {
	params := DefaultPitchTrackerParams(0)
	_, err := NewDirectYinTracker(params).Track([]float64{0, 1})
	assert.Error(t, err)

	params = DefaultPitchTrackerParams(44100)
	params.MinFreq = 2000
	_, err = NewYinTracker(params).Track([]float64{0, 1})
	assert.Error(t, err)
}

type stubAnalyzer struct {
	track *PitchTrack
	err   error
	calls int
}

func (s *stubAnalyzer) Track(signal []float64) (*PitchTrack, error) {
	s.calls++
	return s.track, s.err
}

func TestFallbackTracker(t *testing.T) {
	good := &PitchTrack{Frequencies: []float64{440}}

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubAnalyzer{track: good}
		fallback := &stubAnalyzer{track: &PitchTrack{}}
		track, err := NewFallbackTracker(primary, fallback).Track(nil)

		require.NoError(t, err)
		assert.Same(t, good, track)
		assert.Equal(t, 0, fallback.calls)
	})

	t.Run("fallback used", func(t *testing.T) {
		primary := &stubAnalyzer{err: errors.New("boom")}
		fallback := &stubAnalyzer{track: good}
		track, err := NewFallbackTracker(primary, fallback).Track(nil)

		require.NoError(t, err)
		assert.Same(t, good, track)
	})

	t.Run("both fail", func(t *testing.T) {
		cause := errors.New("fallback boom")
		primary := &stubAnalyzer{err: errors.New("boom")}
		fallback := &stubAnalyzer{err: cause}
		_, err := NewFallbackTracker(primary, fallback).Track(nil)

		assert.ErrorIs(t, err, ErrAnalysisFailed)
		assert.ErrorIs(t, err, cause)
	})
}
