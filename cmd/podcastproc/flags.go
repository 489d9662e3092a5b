package main

import (
	"github.com/spf13/cobra"
)

// runFlags are the per-run overrides shared by process, transcribe, and generate.
type runFlags struct {
	output       string
	whisperModel string
	chapters     int
	titles       int
	apiKey       string
	noCache      bool
}

func (f *runFlags) registerOutput(cmd *cobra.Command, usage string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", usage)
}

func (f *runFlags) registerTranscription(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.whisperModel, "whisper-model", "m", "", "WhisperX model (tiny, base, small, medium, large-v3)")
}

func (f *runFlags) registerGeneration(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.chapters, "chapters", "c", 0, "Target number of chapters (3-30)")
	cmd.Flags().IntVar(&f.titles, "titles", 0, "Number of title variations")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "OpenRouter API key (overrides config and OPENROUTER_API_KEY)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Ignore and do not update the generation cache")
}
