package transcriber

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/capture"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

func chirp(f0, f1 float64, sampleRate int, seconds float64) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = 0.5 * math.Sin(2*math.Pi*(f0*t+(f1-f0)*t*t/(2*seconds)))
	}
	return out
}

func TestLiveEstimator(t *testing.T) {
	le, err := NewLiveEstimator(nil)
	require.NoError(t, err)

	t.Run("steady tone", func(t *testing.T) {
		note, ok := le.Estimate(sine(220, 44100, 0.42, 0.4), 44100)
		require.True(t, ok)
		assert.Equal(t, 57, note)
	})

	t.Run("too short", func(t *testing.T) {
		_, ok := le.Estimate(sine(220, 44100, 0.01, 0.4), 44100)
		assert.False(t, ok)
	})

	t.Run("too quiet", func(t *testing.T) {
		_, ok := le.Estimate(sine(220, 44100, 0.42, 0.005), 44100)
		assert.False(t, ok)
	})

	t.Run("silence", func(t *testing.T) {
		note, ok := le.Estimate(make([]float64, 18000), 44100)
		assert.False(t, ok)
		assert.Equal(t, segmentation.NoPitch, note)
	})

	t.Run("sliding pitch rejected", func(t *testing.T) {
		_, ok := le.Estimate(chirp(100, 800, 44100, 0.42), 44100)
		assert.False(t, ok)
	})
}

func TestNewLiveEstimatorValidates(t *testing.T) {
	cfg := config.DefaultLiveConfig()
	cfg.Interval = 0
	_, err := NewLiveEstimator(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

type fakeSource struct {
	mu     sync.Mutex
	status capture.Status
	audio  []float64
}

func (f *fakeSource) set(status capture.Status, audio []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.audio = status, audio
}

func (f *fakeSource) Status() capture.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSource) Recent(seconds float64) []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audio
}

func (f *fakeSource) SampleRate() int { return 44100 }

func TestMonitorPoll(t *testing.T) {
	le, err := NewLiveEstimator(nil)
	require.NoError(t, err)

	src := &fakeSource{}
	m, err := NewMonitor(src, le, time.Millisecond)
	require.NoError(t, err)

	_, ok := m.Poll()
	assert.False(t, ok, "idle source before any point")

	src.set(capture.Status{Recording: true, Elapsed: 1.0}, sine(220, 44100, 0.42, 0.4))
	point, ok := m.Poll()
	require.True(t, ok)
	assert.Equal(t, LivePoint{Elapsed: 1.0, Note: 57}, point)

	src.set(capture.Status{Recording: true, Paused: true, Elapsed: 1.2}, nil)
	point, ok = m.Poll()
	require.True(t, ok)
	assert.Equal(t, LivePoint{Elapsed: 1.2, Note: segmentation.NoPitch}, point)

	_, ok = m.Poll()
	assert.False(t, ok, "only one closing point")

	src.set(capture.Status{Recording: true, Elapsed: 1.5}, make([]float64, 18000))
	point, ok = m.Poll()
	require.True(t, ok)
	assert.Equal(t, segmentation.NoPitch, point.Note)

	src.set(capture.Status{Elapsed: 1.6}, nil)
	_, ok = m.Poll()
	assert.False(t, ok, "no closing point after silence")
}

func TestMonitorRun(t *testing.T) {
	le, err := NewLiveEstimator(nil)
	require.NoError(t, err)

	src := &fakeSource{}
	src.set(capture.Status{Recording: true, Elapsed: 0.5}, sine(440, 44100, 0.42, 0.4))

	m, err := NewMonitor(src, le, 5*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan LivePoint)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, out) }()

	select {
	case point := <-out:
		assert.Equal(t, 69, point.Note)
	case <-time.After(5 * time.Second):
		t.Fatal("no live point emitted")
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitorWithRecorder(t *testing.T) {
	le, err := NewLiveEstimator(nil)
	require.NoError(t, err)

	rec, err := capture.NewRecorder(44100, 5)
	require.NoError(t, err)
	rec.StartNew()

	tone := sine(330, 44100, 0.5, 0.4)
	for i := 0; i+1024 <= len(tone); i += 1024 {
		rec.Write(tone[i : i+1024])
	}

	m, err := NewMonitor(rec, le, time.Millisecond)
	require.NoError(t, err)
	point, ok := m.Poll()
	require.True(t, ok)
	assert.Equal(t, 64, point.Note)

	rec.Stop()
	point, ok = m.Poll()
	require.True(t, ok)
	assert.Equal(t, segmentation.NoPitch, point.Note)
}

func TestMonitorRejectsNonPositiveInterval(t *testing.T) {
	le, err := NewLiveEstimator(nil)
	require.NoError(t, err)

	for _, interval := range []time.Duration{0, -time.Millisecond} {
		m, err := NewMonitor(&fakeSource{}, le, interval)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Nil(t, m)
	}
}
