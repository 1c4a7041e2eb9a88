package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/capture"
	"github.com/RyanBlaney/sonido-midi/logging"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

// LiveSource is the capture side of a live preview
type LiveSource interface {
	Status() capture.Status
	Recent(seconds float64) []float64
	SampleRate() int
}

// LivePoint is one preview sample. Note is NoPitch when nothing was detected.
type LivePoint struct {
	Elapsed float64 `json:"elapsed"`
	Note    int     `json:"note"`
}

// Monitor polls a LiveSource on a fixed cadence and reports the held note
type Monitor struct {
	source    LiveSource
	estimator *LiveEstimator
	interval  time.Duration
	logger    logging.Logger

	last    LivePoint
	hasLast bool
}

// NewMonitor creates a monitor polling every interval. The interval must be positive.
func NewMonitor(source LiveSource, estimator *LiveEstimator, interval time.Duration) (*Monitor, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: monitor interval must be positive, got %s", config.ErrInvalidConfig, interval)
	}
	return &Monitor{
		source:    source,
		estimator: estimator,
		interval:  interval,
		logger: logging.WithFields(logging.Fields{
			"component": "live_monitor",
		}),
	}, nil
}

// Poll takes one reading. While recording it always yields a point. After
// recording stops or pauses it yields a single NoPitch point if the previous
// point was voiced, and nothing afterwards.
func (m *Monitor) Poll() (LivePoint, bool) {
	status := m.source.Status()

	var point LivePoint
	switch {
	case status.Recording && !status.Paused:
		audio := m.source.Recent(m.estimator.BufferSeconds())
		note, ok := m.estimator.Estimate(audio, m.source.SampleRate())
		if !ok {
			note = segmentation.NoPitch
		}
		point = LivePoint{Elapsed: status.Elapsed, Note: note}

	case m.hasLast && m.last.Note != segmentation.NoPitch:
		point = LivePoint{Elapsed: status.Elapsed, Note: segmentation.NoPitch}

	default:
		return LivePoint{}, false
	}

	m.last, m.hasLast = point, true
	return point, true
}

// Run polls until ctx is done, sending every point to out. It returns ctx.Err().
func (m *Monitor) Run(ctx context.Context, out chan<- LivePoint) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug("live monitor started", logging.Fields{"interval": m.interval.String()})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			point, ok := m.Poll()
			if !ok {
				continue
			}
			select {
			case out <- point:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
