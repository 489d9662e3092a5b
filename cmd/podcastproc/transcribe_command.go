package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"podcastproc/internal/artifacts"
	"podcastproc/internal/textutil"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Transcribe audio with WhisperX without generating content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyOverrides(cfg, &flags); err != nil {
				return err
			}
			runCtx, logger, err := ctx.begin(cmd)
			if err != nil {
				return err
			}
			defer ctx.close(logger)

			audio := args[0]
			outDir := outputDirFor(cfg.OutputDirFor(textutil.StemOf(audio)), flags.output)
			transcriber, err := ctx.transcriberValue()
			if err != nil {
				return err
			}
			t, err := transcriber.Transcribe(runCtx, audio)
			if err != nil {
				return fmt.Errorf("transcribe %s: %w", filepath.Base(audio), err)
			}
			if _, err := artifacts.NewWriter(logger).WriteTranscript(outDir, t); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, strings.Join(renderTranscriptPanel(t, 0, colorize), "\n"))
			fmt.Fprintf(out, "\nTranscript written to %s\n", outDir)
			return nil
		},
	}
	flags.registerOutput(cmd, "Output directory (default <paths.output_dir>/<audio name>)")
	flags.registerTranscription(cmd)
	return cmd
}

func outputDirFor(fallback, flag string) string {
	if dir := strings.TrimSpace(flag); dir != "" {
		return dir
	}
	return fallback
}
