package transcriber

import (
	"github.com/RyanBlaney/sonido-midi/algorithms/common"
	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/algorithms/tonal"
	"github.com/RyanBlaney/sonido-midi/logging"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

// LiveEstimator collapses a short trailing buffer to a single note
type LiveEstimator struct {
	config *config.LiveConfig
	logger logging.Logger
}

// NewLiveEstimator validates cfg. A nil cfg selects the defaults.
func NewLiveEstimator(cfg *config.LiveConfig) (*LiveEstimator, error) {
	if cfg == nil {
		cfg = config.DefaultLiveConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := *cfg
	return &LiveEstimator{
		config: &c,
		logger: logging.WithFields(logging.Fields{
			"component": "live_estimator",
		}),
	}, nil
}

// BufferSeconds is the length of trailing audio Estimate expects
func (le *LiveEstimator) BufferSeconds() float64 {
	return le.config.BufferSeconds
}

// Estimate returns the note held in samples. ok is false for short or quiet
// buffers, buffers without pitched frames, low voicing confidence, or when
// the pitch wanders more than the jitter limit.
func (le *LiveEstimator) Estimate(samples []float64, sampleRate int) (note int, ok bool) {
	if len(samples) < le.config.MinSamples || sampleRate <= 0 {
		return segmentation.NoPitch, false
	}
	if common.RMS(samples) < le.config.BaseEnergyGate {
		return segmentation.NoPitch, false
	}

	track, err := tonal.NewPitchAnalyzer(le.config.PitchTrackerParams(sampleRate)).Track(samples)
	if err != nil {
		le.logger.Debug("live analysis failed", logging.Fields{"error": err.Error()})
		return segmentation.NoPitch, false
	}

	var midi, confidence []float64
	for i, f := range track.Frequencies {
		if !common.IsFinite(f) || f <= 0 {
			continue
		}
		midi = append(midi, segmentation.HzToMIDI(f))
		if track.HasConfidence() {
			confidence = append(confidence, track.Confidence[i])
		}
	}

	if len(midi) == 0 {
		return segmentation.NoPitch, false
	}
	if track.HasConfidence() && common.Median(confidence) < le.config.ConfidenceFloor {
		return segmentation.NoPitch, false
	}
	if common.PopulationStdDev(midi) > le.config.MaxJitterSemitones {
		return segmentation.NoPitch, false
	}

	return common.ClampInt(common.RoundHalfEven(common.Median(midi)), 0, segmentation.MaxNote), true
}
