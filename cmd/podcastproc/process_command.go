package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"podcastproc/internal/artifacts"
	"podcastproc/internal/logging"
	"podcastproc/internal/textutil"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "process <audio>",
		Short: "Transcribe audio and generate description, titles, and chapters",
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

			// Fail on a missing API key before spending minutes transcribing.
			generator, err := ctx.newGenerator(logger, !flags.noCache)
			if err != nil {
				return err
			}

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
			writer := artifacts.NewWriter(logger)
			if _, err := writer.WriteTranscript(outDir, t); err != nil {
				return err
			}
			logger.Info("transcript saved", logging.String("dir", outDir))

			res, genErr := generator.Generate(runCtx, t)
			if genErr != nil && res.States == nil {
				return genErr
			}
			if _, err := writer.Write(outDir, t, res); err != nil {
				return err
			}
			renderRunSummary(cmd.OutOrStdout(), t, res, outDir)
			if genErr != nil {
				return genErr
			}
			return failureError(res, outDir)
		},
	}
	flags.registerOutput(cmd, "Output directory (default <paths.output_dir>/<audio name>)")
	flags.registerTranscription(cmd)
	flags.registerGeneration(cmd)
	return cmd
}
