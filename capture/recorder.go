// Package capture holds recorded audio for the analysis stages. Device I/O
// lives outside this package: a driver pushes chunks through Recorder.Write.
package capture

import (
	"fmt"
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
	"github.com/RyanBlaney/sonido-midi/logging"
)

// levelHistorySeconds bounds how far back the level meter reaches
const levelHistorySeconds = 15.0

// DefaultMaxSeconds bounds the length of a single take
const DefaultMaxSeconds = 600.0

type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is a consistent view of the recorder at one instant
type Status struct {
	Recording bool    `json:"recording"`
	Paused    bool    `json:"paused"`
	Elapsed   float64 `json:"elapsed"` // seconds captured in the current take
}

// LevelPoint is the RMS of one captured chunk at the chunk's midpoint
type LevelPoint struct {
	Time float64 `json:"time"`
	RMS  float64 `json:"rms"`
}

// Recorder accumulates mono chunks from a capture callback. Every method is
// safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	sampleRate  int
	samples     *RingBuffer
	levels      []LevelPoint
	sampleCount int64
	state       State
	logger      logging.Logger
}

// NewRecorder creates a recorder keeping at most maxSeconds of audio
func NewRecorder(sampleRate int, maxSeconds float64) (*Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxSeconds
	}

	return &Recorder{
		sampleRate: sampleRate,
		samples:    NewRingBuffer(int(math.Ceil(maxSeconds * float64(sampleRate)))),
		state:      StateIdle,
		logger: logging.WithFields(logging.Fields{
			"component":   "recorder",
			"sample_rate": sampleRate,
		}),
	}, nil
}

func (r *Recorder) SampleRate() int {
	return r.sampleRate
}

// StartNew discards the previous take and starts recording
func (r *Recorder) StartNew() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples.Clear()
	r.levels = nil
	r.sampleCount = 0
	r.state = StateRecording
	r.logger.Info("recording started")
}

// Pause suspends capture. It has no effect unless recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		r.state = StatePaused
	}
}

// Resume continues a paused take
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StatePaused {
		r.state = StateRecording
	}
}

// Stop ends the take. Captured audio stays available until the next StartNew.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording || r.state == StatePaused {
		r.logger.Info("recording stopped", logging.Fields{
			"seconds": r.elapsedLocked(),
			"dropped": r.samples.Dropped(),
		})
	}
	r.state = StateStopped
}

// Write is the capture callback. Chunks are ignored unless recording and not
// paused. It returns the number of samples accepted.
func (r *Recorder) Write(chunk []float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording || len(chunk) == 0 {
		return 0
	}

	r.samples.Write(chunk)

	start := r.elapsedLocked()
	midpoint := start + float64(len(chunk))/(2*float64(r.sampleRate))
	r.levels = append(r.levels, LevelPoint{Time: midpoint, RMS: common.RMS(chunk)})
	r.sampleCount += int64(len(chunk))

	cutoff := r.elapsedLocked() - levelHistorySeconds
	trim := 0
	for trim < len(r.levels) && r.levels[trim].Time < cutoff {
		trim++
	}
	if trim > 0 {
		r.levels = append(r.levels[:0], r.levels[trim:]...)
	}

	return len(chunk)
}

// Snapshot returns a copy of the captured audio. Later writes never reach it.
func (r *Recorder) Snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples.Snapshot()
}

// Recent returns a copy of the trailing seconds of audio
func (r *Recorder) Recent(seconds float64) []float64 {
	if seconds <= 0 {
		return []float64{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.samples.Recent(int(seconds * float64(r.sampleRate)))
}

// LevelHistory returns the level points of the trailing seconds, or all of
// them when seconds is not positive
func (r *Recorder) LevelHistory(seconds float64) []LevelPoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seconds <= 0 {
		return append([]LevelPoint{}, r.levels...)
	}

	cutoff := r.elapsedLocked() - seconds
	out := make([]LevelPoint, 0, len(r.levels))
	for _, p := range r.levels {
		if p.Time >= cutoff {
			out = append(out, p)
		}
	}
	return out
}

func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Status{
		Recording: r.state == StateRecording || r.state == StatePaused,
		Paused:    r.state == StatePaused,
		Elapsed:   r.elapsedLocked(),
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SecondsRecorded returns the length of the current take, including audio
// that has since been overwritten
func (r *Recorder) SecondsRecorded() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

func (r *Recorder) elapsedLocked() float64 {
	return float64(r.sampleCount) / float64(r.sampleRate)
}
