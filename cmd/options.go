package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-midi/transcode"
	"github.com/RyanBlaney/sonido-midi/transcriber/config"
)

// analysisFlags are shared by every command that runs a transcription
type analysisFlags struct {
	profile    string
	configPath string
	bpm        float64
	removeDC   bool
}

func (f *analysisFlags) register(cmd *cobra.Command, defaultProfile config.Profile) {
	cmd.Flags().StringVar(&f.profile, "profile", string(defaultProfile), "parameter preset (default, export)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "JSON file overriding the preset")
	cmd.Flags().Float64Var(&f.bpm, "bpm", 0, "tempo of the written file (overrides the preset)")
	cmd.Flags().BoolVar(&f.removeDC, "remove-dc", false, "high-pass the decoded audio to strip a DC offset")
}

func (f *analysisFlags) decoder() *transcode.Decoder {
	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.RemoveDC = f.removeDC
	return transcode.NewDecoder(decoderConfig)
}

func (f *analysisFlags) load() (*config.TranscriptionConfig, error) {
	profile, err := config.ParseProfile(f.profile)
	if err != nil {
		return nil, err
	}

	cfg := config.ConfigForProfile(profile)
	if f.configPath != "" {
		if cfg, err = config.LoadConfig(f.configPath, profile); err != nil {
			return nil, err
		}
	}
	if f.bpm != 0 {
		cfg.TempoBPM = f.bpm
	}

	return cfg, cfg.Validate()
}
