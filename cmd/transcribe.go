package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/RyanBlaney/sonido-midi/export"
	"github.com/RyanBlaney/sonido-midi/transcode"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

var (
	transcribeFlags analysisFlags
	outDir          string
	workers         int
	wavSnapshot     bool
)

func init() {
	transcribeFlags.register(transcribeCmd, config.ProfileExport)
	transcribeCmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory (default: next to each input)")
	transcribeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel transcriptions (default: CPUs - 1)")
	transcribeCmd.Flags().BoolVar(&wavSnapshot, "wav-snapshot", false, "also write the decoded mono audio as 16-bit WAV")
	rootCmd.AddCommand(transcribeCmd)
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio files...>",
	Short: "Transcribes audio files to MIDI",
	Long: `Transcribes each audio file to a .mid file with the same base name.
WAV files are read directly; other formats require ffmpeg.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := transcribeFlags.load()
		if err != nil {
			return err
		}
		return transcribeAll(cmd.Context(), cfg, args)
	},
}

type transcribeResult struct {
	input  string
	report export.Report
	err    error
}

func transcribeAll(ctx context.Context, cfg *config.TranscriptionConfig, inputs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	exporter, err := export.NewExporter(cfg)
	if err != nil {
		return err
	}
	decoder := transcribeFlags.decoder()

	w := workers
	if w <= 0 {
		w = max(runtime.NumCPU()-1, 1)
	}
	w = min(w, len(inputs))

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(inputs)),
		mpb.PrependDecorators(
			decor.Name("Transcribing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	jobs := make(chan string, len(inputs))
	results := make(chan transcribeResult, len(inputs))

	var wg sync.WaitGroup
	for i := 0; i < w; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for input := range jobs {
				results <- transcribeOne(ctx, decoder, exporter, input)
			}
		}()
	}

	for _, input := range inputs {
		jobs <- input
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []transcribeResult
	for r := range results {
		bar.Increment()
		collected = append(collected, r)
	}
	p.Wait()

	failed := 0
	for _, r := range collected {
		switch {
		case errors.Is(r.err, export.ErrNoNotes):
			fmt.Printf("%s: no notes found, try a cleaner recording\n", r.input)
		case r.err != nil:
			failed++
			fmt.Printf("%s: %v\n", r.input, r.err)
		default:
			s := r.report.Summary
			fmt.Printf("%s -> %s (%d notes, %.1f%% voiced coverage)\n", r.input, r.report.MIDIPath, s.Notes, s.CoveragePercent)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

func transcribeOne(ctx context.Context, decoder *transcode.Decoder, exporter *export.Exporter, input string) transcribeResult {
	audio, err := decoder.DecodeFile(ctx, input)
	if err != nil {
		return transcribeResult{input: input, err: err}
	}

	req := export.Request{
		Samples:    audio.PCM,
		SampleRate: audio.SampleRate,
		MIDIPath:   outputPath(input, ".mid"),
	}
	if wavSnapshot {
		req.WAVPath = outputPath(input, ".mono.wav")
	}

	report, err := exporter.Export(req)
	return transcribeResult{input: input, report: report, err: err}
}

func outputPath(input, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if outDir != "" {
		return filepath.Join(outDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}
