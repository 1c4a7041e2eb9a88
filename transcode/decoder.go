package transcode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-midi/algorithms/filters"
	"github.com/RyanBlaney/sonido-midi/logging"
)

// ErrUnsupportedFormat is returned for inputs no decoder path can read
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// AudioData represents decoded mono audio
type AudioData struct {
	PCM        []float64      `json:"-"` // mono samples in [-1, 1]
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"` // channel count of the source before downmix
	Duration   time.Duration  `json:"duration"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// Seconds returns the length of the decoded audio
func (a *AudioData) Seconds() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.PCM)) / float64(a.SampleRate)
}

// AudioMetadata holds source properties reported by the decoder
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth,omitempty"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate,omitempty"`
	Format     string  `json:"format"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"` // 0 keeps the source rate (ffmpeg path only)
	MaxDuration      time.Duration `json:"max_duration"`       // 0 means no limit
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"` // per ffmpeg/ffprobe invocation

	// DC offset removal, for capture hardware with a biased input
	RemoveDC   bool    `json:"remove_dc"`
	DCCutoffHz float64 `json:"dc_cutoff_hz"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 0,
		MaxDuration:      0,
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          60 * time.Second,
		RemoveDC:         false,
		DCCutoffHz:       10.0,
	}
}

// Decoder turns audio files into mono float64 PCM. WAV files are read
// natively; everything else goes through ffmpeg.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file to mono PCM
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	audio, err := d.decode(ctx, filename, logger)
	if err != nil {
		return nil, err
	}

	if d.config.RemoveDC {
		audio.PCM = filters.NewDCRemovalWithCutoff(audio.SampleRate, d.config.DCCutoffHz).ProcessBuffer(audio.PCM)
	}

	return audio, nil
}

func (d *Decoder) decode(ctx context.Context, filename string, logger logging.Logger) (*AudioData, error) {
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		audio, err := d.decodeWAV(filename)
		if err == nil {
			logger.Debug("decoded WAV natively", logging.Fields{
				"sample_rate": audio.SampleRate,
				"channels":    audio.Channels,
				"samples":     len(audio.PCM),
			})
			return audio, nil
		}
		if !errors.Is(err, errNeedsFFmpeg) {
			return nil, err
		}
		logger.Debug("WAV encoding not handled natively, using ffmpeg")
	}

	return d.decodeWithFFmpeg(ctx, filename, logger)
}

// GetSupportedFormats returns the file extensions this decoder is expected to read
func (d *Decoder) GetSupportedFormats() []string {
	return []string{
		"wav", "aac", "mp3", "flac", "ogg", "opus", "m4a", "webm", "mp4",
		// FFmpeg supports many more formats
	}
}

func (d *Decoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(ctx, d.config.Timeout)
	}
	return context.WithCancel(ctx)
}

func (d *Decoder) limitSamples(pcm []float64, sampleRate int) []float64 {
	if d.config.MaxDuration <= 0 {
		return pcm
	}
	limit := int(d.config.MaxDuration.Seconds() * float64(sampleRate))
	if limit < len(pcm) {
		return pcm[:limit]
	}
	return pcm
}

func durationOf(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

func (d *Decoder) String() string {
	return fmt.Sprintf("Decoder(ffmpeg=%s, target_rate=%d)", d.config.FFmpegPath, d.config.TargetSampleRate)
}
