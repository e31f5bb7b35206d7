package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelfetch/internal/cache"
	"reelfetch/internal/scratch"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached videos",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func openCache(ctx *commandContext) (*cache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Paths.CacheDir, cfg.CacheTTL(), nil)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached videos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Cache %s is empty\n", store.Dir())
				return nil
			}

			const stampLayout = "2006-01-02 15:04"
			var total int64
			var stale int
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				total += entry.Size
				if !entry.Fresh {
					stale++
				}
				rows = append(rows, []string{
					entry.Key,
					humanBytes(entry.Size),
					entry.ModTime.Local().Format(stampLayout),
					time.Since(entry.ModTime).Round(time.Minute).String(),
					yesNo(entry.Fresh),
				})
			}
			fmt.Fprintln(out, renderTable("", []string{"Key", "Size", "Modified", "Age", "Fresh"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d files, %s total, %d stale (ttl %s)\n", len(entries), humanBytes(total), stale, store.TTL())
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete stale cached videos and abandoned scratch files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			removed, reclaimed, err := store.Prune()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d stale files (%s reclaimed)\n", removed, humanBytes(reclaimed))
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			swept := scratch.CleanStale(cmd.Context(), cfg.Paths.ScratchDir, scratch.DefaultMaxAge, nil)
			fmt.Fprintf(out, "Removed %d abandoned scratch files (%s reclaimed)\n", len(swept.Removed), humanBytes(swept.Reclaimed))
			if len(swept.Errors) > 0 {
				return fmt.Errorf("scratch cleanup: %s: %w", swept.Errors[0].Path, swept.Errors[0].Error)
			}
			return nil
		},
	}
}
