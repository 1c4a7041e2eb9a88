// Package export writes transcriptions to disk: Standard MIDI Files for the
// detected notes and WAV snapshots of the raw audio.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-midi/logging"
	"github.com/RyanBlaney/sonido-midi/transcriber"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

// ErrNoNotes is returned when an export finds no stable notes to write
var ErrNoNotes = errors.New("no notes detected")

// Request describes one export job
type Request struct {
	Samples    []float64
	SampleRate int
	MIDIPath   string
	WAVPath    string // optional raw audio snapshot
}

// Report is the outcome of an export job
type Report struct {
	JobID    string              `json:"job_id"`
	MIDIPath string              `json:"midi_path,omitempty"`
	WAVPath  string              `json:"wav_path,omitempty"`
	Summary  transcriber.Summary `json:"summary"`
	Elapsed  time.Duration       `json:"elapsed"`
	Err      error               `json:"-"`
}

// Exporter transcribes audio and writes the results
type Exporter struct {
	transcriber *transcriber.Transcriber
	encoder     *Encoder
	logger      logging.Logger
}

// NewExporter creates an exporter. A nil cfg selects the export profile.
func NewExporter(cfg *config.TranscriptionConfig) (*Exporter, error) {
	if cfg == nil {
		cfg = config.ExportConfig()
	}

	tr, err := transcriber.NewTranscriber(cfg)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncoder(cfg.TempoBPM, cfg.Velocity)
	if err != nil {
		return nil, err
	}

	return &Exporter{
		transcriber: tr,
		encoder:     enc,
		logger: logging.WithFields(logging.Fields{
			"component": "exporter",
		}),
	}, nil
}

// Submit runs the job on its own goroutine over a private copy of the
// samples. The returned channel yields exactly one report and is then closed.
func (e *Exporter) Submit(req Request) (string, <-chan Report) {
	jobID := uuid.NewString()

	snapshot := req
	snapshot.Samples = append([]float64(nil), req.Samples...)

	out := make(chan Report, 1)
	go func() {
		defer close(out)
		out <- e.run(jobID, snapshot)
	}()

	return jobID, out
}

// Export runs the job on the calling goroutine
func (e *Exporter) Export(req Request) (Report, error) {
	report := e.run(uuid.NewString(), req)
	return report, report.Err
}

func (e *Exporter) run(jobID string, req Request) Report {
	started := time.Now()
	logger := e.logger.WithFields(logging.Fields{"job_id": jobID})

	report := Report{JobID: jobID}
	finish := func(err error) Report {
		report.Elapsed = time.Since(started)
		report.Err = err
		if err != nil {
			if errors.Is(err, ErrNoNotes) {
				logger.Warn("export produced no notes", logging.Fields{"audio_seconds": report.Summary.AudioSeconds})
			} else {
				logger.Error(err, "export failed")
			}
		}
		return report
	}

	if req.MIDIPath == "" {
		return finish(fmt.Errorf("%w: missing MIDI output path", config.ErrInvalidConfig))
	}
	if len(req.Samples) == 0 {
		return finish(fmt.Errorf("%w: no audio recorded", ErrNoNotes))
	}

	events, err := e.transcriber.Transcribe(req.Samples, req.SampleRate)
	if err != nil {
		return finish(err)
	}

	report.Summary = transcriber.Summarize(events, float64(len(req.Samples))/float64(req.SampleRate))
	if len(events) == 0 {
		return finish(ErrNoNotes)
	}

	if req.WAVPath != "" {
		if err := WriteWAV(req.WAVPath, req.Samples, req.SampleRate); err != nil {
			return finish(fmt.Errorf("failed to write audio snapshot: %w", err))
		}
		report.WAVPath = req.WAVPath
	}

	if err := e.encoder.WriteFile(req.MIDIPath, events); err != nil {
		return finish(fmt.Errorf("failed to write MIDI file: %w", err))
	}
	report.MIDIPath = req.MIDIPath

	logger.Info("saved MIDI", logging.Fields{
		"path":     req.MIDIPath,
		"notes":    report.Summary.Notes,
		"coverage": fmt.Sprintf("%.1f%%", report.Summary.CoveragePercent),
	})

	return finish(nil)
}
