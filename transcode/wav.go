package transcode

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// errNeedsFFmpeg marks WAV encodings the native reader does not handle
var errNeedsFFmpeg = errors.New("wav encoding requires ffmpeg")

func (d *Decoder) decodeWAV(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedFormat, filename)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, errNeedsFFmpeg
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data from %s: %w", filename, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	sampleRate := int(dec.SampleRate)
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s has %d channels at %d Hz", ErrUnsupportedFormat, filename, channels, sampleRate)
	}

	pcm, err := downmix(buf.Data, channels, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, filename, err)
	}
	pcm = d.limitSamples(pcm, sampleRate)

	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   durationOf(len(pcm), sampleRate),
		Metadata: &AudioMetadata{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
			Codec:      "pcm",
			Duration:   float64(len(buf.Data)/channels) / float64(sampleRate),
			Format:     "wav",
		},
	}, nil
}

// downmix averages interleaved integer frames into mono floats in [-1, 1].
// 8-bit WAV data is unsigned and is re-centred first.
func downmix(data []int, channels, bitDepth int) ([]float64, error) {
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("bit depth %d", bitDepth)
	}

	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range out {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c] - offset)
		}
		out[i] = sum / float64(channels) / scale
	}
	return out, nil
}
