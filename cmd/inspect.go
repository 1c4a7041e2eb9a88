package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-midi/algorithms/segmentation"
	"github.com/RyanBlaney/sonido-midi/transcriber"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

var (
	inspectFlags analysisFlags
	inspectJSON  bool
)

func init() {
	inspectFlags.register(inspectCmd, config.ProfileDefault)
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the analysis as JSON")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <audio file>",
	Short: "Prints the notes detected in an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := inspectFlags.load()
		if err != nil {
			return err
		}

		audio, err := inspectFlags.decoder().DecodeFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		tr, err := transcriber.NewTranscriber(cfg)
		if err != nil {
			return err
		}
		analysis, err := tr.Analyze(audio.PCM, audio.SampleRate)
		if err != nil {
			return err
		}

		summary := transcriber.Summarize(analysis.Events(), audio.Seconds())
		if inspectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Analysis *transcriber.Analysis `json:"analysis"`
				Summary  transcriber.Summary   `json:"summary"`
			}{analysis, summary})
		}

		printInspection(args[0], analysis, summary)
		return nil
	},
}

func printInspection(input string, analysis *transcriber.Analysis, summary transcriber.Summary) {
	fmt.Printf("%s: %.2fs at %d Hz, tracker %s\n", input, analysis.AudioSeconds, analysis.SampleRate, analysis.Method)
	fmt.Printf("frames %d, voiced %d, energy gate %.4f\n\n", analysis.Result.Frames, analysis.Result.VoicedFrames, analysis.Result.EffectiveGate)

	fmt.Printf("%4s  %-5s %5s  %8s  %8s  %8s\n", "#", "note", "midi", "start", "end", "length")
	for i, ev := range analysis.Events() {
		fmt.Printf("%4d  %-5s %5d  %8.3f  %8.3f  %8.3f\n",
			i+1, segmentation.NoteName(ev.Pitch), ev.Pitch, ev.StartTime, ev.EndTime, ev.Duration())
	}

	fmt.Printf("\n%d notes, %.1f%% voiced coverage", summary.Notes, summary.CoveragePercent)
	if summary.Notes > 0 {
		fmt.Printf(", range %s-%s", segmentation.NoteName(summary.LowestPitch), segmentation.NoteName(summary.HighestPitch))
	}
	fmt.Println()
}
