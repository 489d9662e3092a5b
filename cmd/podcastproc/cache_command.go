package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podcastproc/internal/gencache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the generation cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func withCache(ctx *commandContext, fn func(*gencache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := gencache.Open(cfg.CachePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "List cached replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *gencache.Store) error {
				entries, err := store.Entries(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cache: %s\n", store.Path())
				if len(entries) == 0 {
					fmt.Fprintln(out, "No cached replies")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Key[:12],
						e.ContentType,
						e.CreatedAt.Local().Format("2006-01-02 15:04"),
						strconv.Itoa(e.Hits),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Key", "Content", "Created", "Hits"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}, nil))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *gencache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached replies\n", removed)
				return nil
			})
		},
	}
}
