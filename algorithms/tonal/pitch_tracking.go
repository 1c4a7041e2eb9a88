package tonal

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-midi/algorithms/common"
	"github.com/RyanBlaney/sonido-midi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-midi/logging"
)

var (
	// ErrFrameTooShort is returned when a frame cannot hold two periods of the pitch floor
	ErrFrameTooShort = errors.New("frame too short for pitch floor")

	// ErrAnalysisFailed is returned when every tracker in a fallback chain failed
	ErrAnalysisFailed = errors.New("pitch analysis failed")
)

// PitchTrackingMethod selects how the YIN difference function is computed
type PitchTrackingMethod int

const (
	// YinFFT computes the difference function through FFT cross-correlation
	// and reports a per-frame voicing confidence
	YinFFT PitchTrackingMethod = iota

	// YinDirect computes the difference function sample by sample and
	// always produces a single estimate per frame, without confidence
	YinDirect
)

func (m PitchTrackingMethod) String() string {
	switch m {
	case YinFFT:
		return "yin-fft"
	case YinDirect:
		return "yin-direct"
	default:
		return "unknown"
	}
}

// PitchTrackerParams contains parameters for frame-level pitch tracking
type PitchTrackerParams struct {
	SampleRate  int `json:"sample_rate"`
	FrameLength int `json:"frame_length"`
	HopLength   int `json:"hop_length"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Hz
	MaxFreq float64 `json:"max_freq"` // Hz

	// Trough threshold on the cumulative mean normalised difference
	Threshold float64 `json:"threshold"`
}

// DefaultPitchTrackerParams covers C2..C6 with 2048-sample frames
func DefaultPitchTrackerParams(sampleRate int) PitchTrackerParams {
	return PitchTrackerParams{
		SampleRate:  sampleRate,
		FrameLength: 2048,
		HopLength:   128,
		MinFreq:     65.41,
		MaxFreq:     1046.50,
		Threshold:   0.1,
	}
}

// PitchTrack is the per-frame output of a tracker. Frequencies holds NaN for
// frames without a pitch. Confidence is nil when the tracker has no voicing signal.
type PitchTrack struct {
	Frequencies []float64
	Confidence  []float64
	Method      PitchTrackingMethod
}

// HasConfidence reports whether the track carries a voicing signal
func (pt *PitchTrack) HasConfidence() bool {
	return pt != nil && pt.Confidence != nil
}

// FrameAnalyzer turns a mono signal into a per-frame pitch track
type FrameAnalyzer interface {
	Track(signal []float64) (*PitchTrack, error)
}

// YinTracker implements the YIN fundamental frequency estimator over centred frames.
// It holds no per-call state and is safe for concurrent use.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
type YinTracker struct {
	params PitchTrackerParams
	method PitchTrackingMethod
	fft    *spectral.FFT
}

// NewYinTracker creates the FFT-based tracker with voicing confidence
func NewYinTracker(params PitchTrackerParams) *YinTracker {
	return &YinTracker{params: params, method: YinFFT, fft: spectral.NewFFT()}
}

// NewDirectYinTracker creates the direct single-estimate tracker
func NewDirectYinTracker(params PitchTrackerParams) *YinTracker {
	return &YinTracker{params: params, method: YinDirect, fft: spectral.NewFFT()}
}

// GetParameters returns the tracker parameters
func (y *YinTracker) GetParameters() PitchTrackerParams {
	return y.params
}

// lagRange returns the integration window and the lag search range
func (y *YinTracker) lagRange() (win, minTau, maxTau int, err error) {
	p := y.params
	if p.SampleRate <= 0 || p.FrameLength <= 0 || p.HopLength <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid tracker geometry: sample rate %d, frame %d, hop %d",
			p.SampleRate, p.FrameLength, p.HopLength)
	}
	if p.MinFreq <= 0 || p.MaxFreq <= p.MinFreq {
		return 0, 0, 0, fmt.Errorf("invalid frequency range [%g, %g]", p.MinFreq, p.MaxFreq)
	}

	win = p.FrameLength / 2
	minTau = max(1, int(math.Floor(float64(p.SampleRate)/p.MaxFreq)))
	maxTau = int(math.Ceil(float64(p.SampleRate) / p.MinFreq))
	limit := p.FrameLength - win - 1

	if maxTau > limit {
		if y.method == YinFFT {
			return 0, 0, 0, fmt.Errorf("%w: need lag %d but frame %d allows %d",
				ErrFrameTooShort, maxTau, p.FrameLength, limit)
		}
		maxTau = limit
	}
	if minTau >= maxTau {
		return 0, 0, 0, fmt.Errorf("%w: empty lag range [%d, %d]", ErrFrameTooShort, minTau, maxTau)
	}

	return win, minTau, maxTau, nil
}

// Track estimates the fundamental frequency of every centred frame
func (y *YinTracker) Track(signal []float64) (*PitchTrack, error) {
	win, minTau, maxTau, err := y.lagRange()
	if err != nil {
		return nil, err
	}

	frames := common.NewCenteredFrames(signal, y.params.FrameLength, y.params.HopLength)
	track := &PitchTrack{
		Frequencies: make([]float64, frames.Len()),
		Method:      y.method,
	}
	if y.method == YinFFT {
		track.Confidence = make([]float64, frames.Len())
	}

	fftSize := common.NextPowerOfTwo(y.params.FrameLength + win)

	for i := 0; i < frames.Len(); i++ {
		frame := frames.Frame(i)

		var diff []float64
		if y.method == YinFFT {
			diff = y.differenceFFT(frame, win, maxTau, fftSize)
		} else {
			diff = y.differenceDirect(frame, win, maxTau)
		}

		freq, confidence := y.estimate(diff, minTau, maxTau)
		track.Frequencies[i] = freq
		if track.Confidence != nil {
			track.Confidence[i] = confidence
		}
	}

	return track, nil
}

// differenceDirect computes d(tau) = sum_{j<win} (x[j] - x[j+tau])^2
func (y *YinTracker) differenceDirect(frame []float64, win, maxTau int) []float64 {
	diff := make([]float64, maxTau+1)
	for tau := 1; tau <= maxTau; tau++ {
		sum := 0.0
		for j := range win {
			delta := frame[j] - frame[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}
	return diff
}

// differenceFFT expands the squared difference into two energy terms and a
// cross-correlation term, the latter computed in the frequency domain
func (y *YinTracker) differenceFFT(frame []float64, win, maxTau, fftSize int) []float64 {
	// prefix sums of x^2
	energy := make([]float64, len(frame)+1)
	for j, s := range frame {
		energy[j+1] = energy[j] + s*s
	}

	corr := y.fft.CrossCorrelate(frame[:win], frame, fftSize, maxTau)

	diff := make([]float64, maxTau+1)
	head := energy[win]
	for tau := 1; tau <= maxTau && tau < len(corr); tau++ {
		d := head + (energy[tau+win] - energy[tau]) - 2*corr[tau]
		// round-off can push perfectly periodic lags slightly negative
		diff[tau] = math.Max(d, 0)
	}
	return diff
}

// estimate applies the cumulative mean normalisation, threshold search and
// parabolic refinement to a difference function
func (y *YinTracker) estimate(diff []float64, minTau, maxTau int) (float64, float64) {
	total := 0.0
	for _, d := range diff {
		total += d
	}
	if total < 1e-12 {
		// silent frame
		return math.NaN(), 0
	}

	cmndf := make([]float64, len(diff))
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum > 0 {
			cmndf[tau] = diff[tau] * float64(tau) / runningSum
		} else {
			cmndf[tau] = 1.0
		}
	}

	best := -1
	for tau := minTau; tau <= maxTau; tau++ {
		if cmndf[tau] < y.params.Threshold {
			for tau+1 <= maxTau && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			best = tau
			break
		}
	}

	if best < 0 {
		if y.method == YinFFT {
			return math.NaN(), 0
		}
		// single-estimate mode: take the deepest trough in range
		best = minTau
		for tau := minTau + 1; tau <= maxTau; tau++ {
			if cmndf[tau] < cmndf[best] {
				best = tau
			}
		}
	}

	period := parabolicInterpolation(cmndf, best)
	if period <= 0 {
		return math.NaN(), 0
	}
	frequency := float64(y.params.SampleRate) / period
	confidence := math.Max(0, math.Min(1, 1-cmndf[best]))

	if y.method == YinFFT && (frequency < y.params.MinFreq || frequency > y.params.MaxFreq) {
		return math.NaN(), 0
	}

	return frequency, confidence
}

// parabolicInterpolation refines an extremum location using its two neighbours
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}

// FallbackTracker runs a primary tracker and falls back to a simpler one if
// the primary fails on the same signal
type FallbackTracker struct {
	primary  FrameAnalyzer
	fallback FrameAnalyzer
	logger   logging.Logger
}

// NewFallbackTracker chains two analyzers
func NewFallbackTracker(primary, fallback FrameAnalyzer) *FallbackTracker {
	return &FallbackTracker{
		primary:  primary,
		fallback: fallback,
		logger: logging.WithFields(logging.Fields{
			"component": "pitch_tracker",
		}),
	}
}

// NewPitchAnalyzer returns the YIN-FFT tracker backed by the direct tracker
func NewPitchAnalyzer(params PitchTrackerParams) *FallbackTracker {
	return NewFallbackTracker(NewYinTracker(params), NewDirectYinTracker(params))
}

// Track implements FrameAnalyzer
func (ft *FallbackTracker) Track(signal []float64) (*PitchTrack, error) {
	track, err := ft.primary.Track(signal)
	if err == nil {
		return track, nil
	}

	ft.logger.Warn("primary pitch tracker failed, falling back", logging.Fields{
		"error":   err.Error(),
		"samples": len(signal),
	})

	track, fallbackErr := ft.fallback.Track(signal)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: primary: %v, fallback: %w", ErrAnalysisFailed, err, fallbackErr)
	}

	return track, nil
}
