package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/capture"
	"github.com/RyanBlaney/sonido-midi/transcode"
	"github.com/RyanBlaney/sonido-midi/transcriber"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

const previewChunkSamples = 1024

var previewSpeed float64

func init() {
	previewCmd.Flags().Float64Var(&previewSpeed, "speed", 1.0, "playback speed relative to real time")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <audio file>",
	Short: "Streams a file through the live note estimator",
	Long: `Feeds an audio file into a recorder chunk by chunk, as a capture device
would, and prints the live note estimate on the preview cadence.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if previewSpeed <= 0 {
			return fmt.Errorf("speed must be positive, got %g", previewSpeed)
		}

		audio, err := transcode.NewDecoder(nil).DecodeFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runPreview(ctx, audio)
	},
}

func runPreview(ctx context.Context, audio *transcode.AudioData) error {
	liveCfg := config.DefaultLiveConfig()
	estimator, err := transcriber.NewLiveEstimator(liveCfg)
	if err != nil {
		return err
	}

	recorder, err := capture.NewRecorder(audio.SampleRate, audio.Seconds()+1)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := time.Duration(float64(liveCfg.Interval) / previewSpeed)
	monitor, err := transcriber.NewMonitor(recorder, estimator, interval)
	if err != nil {
		return err
	}

	points := make(chan transcriber.LivePoint)
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx, points) }()

	go func() {
		feed(ctx, recorder, audio)
		recorder.Stop()
		// let the monitor emit its closing point
		time.Sleep(2 * interval)
		cancel()
	}()

	for {
		select {
		case p := <-points:
			if p.Note == segmentation.NoPitch {
				fmt.Printf("%7.2fs  -\n", p.Elapsed)
			} else {
				fmt.Printf("%7.2fs  %-4s (%d)\n", p.Elapsed, segmentation.NoteName(p.Note), p.Note)
			}
		case <-done:
			return nil
		}
	}
}

// feed writes the file into the recorder in device-sized chunks at the preview speed
func feed(ctx context.Context, recorder *capture.Recorder, audio *transcode.AudioData) {
	chunkDuration := time.Duration(float64(previewChunkSamples) / float64(audio.SampleRate) * float64(time.Second) / previewSpeed)
	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	recorder.StartNew()
	for start := 0; start < len(audio.PCM); start += previewChunkSamples {
		end := min(start+previewChunkSamples, len(audio.PCM))
		recorder.Write(audio.PCM[start:end])

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
