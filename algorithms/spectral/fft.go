package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the forward transform of a real signal using mjibson/go-dsp.
// go-dsp handles non-power-of-2 sizes, but callers doing correlation should
// pad to a power of two for speed.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// CrossCorrelate returns c[lag] = sum_j a[j]*b[j+lag] for lag in [0, maxLag].
// Both inputs are zero padded to size (a power of two >= len(a)+len(b)),
// which keeps circular wrap-around out of the requested lags.
func (f *FFT) CrossCorrelate(a, b []float64, size, maxLag int) []float64 {
	if len(a) == 0 || len(b) == 0 || maxLag < 0 {
		return []float64{}
	}

	pa := make([]float64, size)
	pb := make([]float64, size)
	copy(pa, a)
	copy(pb, b)

	fa := f.Compute(pa)
	fb := f.Compute(pb)

	prod := make([]complex128, size)
	for i := range prod {
		ca := fa[i]
		prod[i] = complex(real(ca), -imag(ca)) * fb[i]
	}

	corr := f.ComputeInverseReal(prod)
	if maxLag+1 > len(corr) {
		maxLag = len(corr) - 1
	}
	return corr[:maxLag+1]
}
