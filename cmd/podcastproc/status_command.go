package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podcastproc/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, external programs, and the completion API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := append([]preflight.Option{preflight.WithLLMOptions(ctx.llmOptions...)}, ctx.preflightOptions...)
			if offline {
				opts = append(opts, preflight.WithoutLLM())
			}
			results := preflight.RunAll(cmd.Context(), cfg, opts...)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Readiness", colorize)
			failed := 0
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
					failed++
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed > 0 {
				return fmt.Errorf("%d of %d readiness checks failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the completion API round trip")
	return cmd
}
