package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"podcastproc/internal/artifacts"
	"podcastproc/internal/generation"
	"podcastproc/internal/transcript"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "generate <transcript.json>",
		Short: "Regenerate content from a saved transcript",
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

			t, err := transcript.Load(args[0])
			if err != nil {
				return err
			}
			generator, err := ctx.newGenerator(logger, !flags.noCache)
			if err != nil {
				return err
			}
			outDir := outputDirFor(filepath.Dir(args[0]), flags.output)

			res, genErr := generator.Generate(runCtx, t)
			if genErr != nil && res.States == nil {
				return genErr
			}
			if _, err := artifacts.NewWriter(logger).Write(outDir, t, res); err != nil {
				return err
			}
			renderRunSummary(cmd.OutOrStdout(), t, res, outDir)
			if genErr != nil {
				return genErr
			}
			return failureError(res, outDir)
		},
	}
	flags.registerOutput(cmd, "Output directory (default: the transcript's directory)")
	flags.registerGeneration(cmd)
	return cmd
}

// failureError turns failed content types into a non-zero exit. Resolved
// artifacts are already on disk.
func failureError(res generation.Result, outDir string) error {
	if res.Complete() {
		return nil
	}
	return fmt.Errorf("%d of %d content types failed; see %s", len(res.Failures), len(generation.ContentTypes), filepath.Join(outDir, artifacts.Failures))
}
