package common

// CenteredFrames slices a signal into overlapping frames centred on multiples
// of the hop, zero padding frameSize/2 samples at both ends. Frame t covers
// samples [t*hop - frameSize/2, t*hop + frameSize/2) of the original signal.
//
// Frames are views into a single padded copy, so callers must not modify them.
type CenteredFrames struct {
	padded    []float64
	frameSize int
	hopSize   int
	count     int
}

// NewCenteredFrames pads signal once and prepares frame views over it
func NewCenteredFrames(signal []float64, frameSize, hopSize int) *CenteredFrames {
	if frameSize <= 0 || hopSize <= 0 {
		return &CenteredFrames{frameSize: frameSize, hopSize: hopSize}
	}

	pad := frameSize / 2
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)

	return &CenteredFrames{
		padded:    padded,
		frameSize: frameSize,
		hopSize:   hopSize,
		count:     FrameCount(len(signal), hopSize),
	}
}

// FrameCount is the number of centred frames for a signal of n samples
func FrameCount(n, hopSize int) int {
	if hopSize <= 0 || n < 0 {
		return 0
	}
	return 1 + n/hopSize
}

// Len returns the number of frames
func (cf *CenteredFrames) Len() int {
	return cf.count
}

// Frame returns the i-th frame
func (cf *CenteredFrames) Frame(i int) []float64 {
	start := i * cf.hopSize
	end := start + cf.frameSize
	if i < 0 || i >= cf.count || end > len(cf.padded) {
		// tail frames of very short signals run past the padding
		frame := make([]float64, cf.frameSize)
		if i >= 0 && start < len(cf.padded) {
			copy(frame, cf.padded[start:])
		}
		return frame
	}
	return cf.padded[start:end]
}

// GetFrameSize returns the frame size
func (cf *CenteredFrames) GetFrameSize() int {
	return cf.frameSize
}

// GetHopSize returns the hop size
func (cf *CenteredFrames) GetHopSize() int {
	return cf.hopSize
}
