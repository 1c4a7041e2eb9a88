package export

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	snapshotBitDepth = 16
	pcmFormat        = 1
)

// WriteWAV stores mono samples in [-1, 1] as 16-bit PCM. Out-of-range samples are clipped.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	const scale = 1<<(snapshotBitDepth-1) - 1

	data := make([]int, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		data[i] = int(s * scale)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: snapshotBitDepth,
	}

	return writeFileAtomic(path, func(f *os.File) error {
		enc := wav.NewEncoder(f, sampleRate, snapshotBitDepth, 1, pcmFormat)
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("failed to encode WAV: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to finalize WAV: %w", err)
		}
		return nil
	})
}
