package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phototriage/internal/hashcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Fingerprint cache utilities",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache database location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheStrict(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()
			fmt.Fprintln(cmd.OutOrStdout(), cache.Path())
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop cache entries for files that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCacheStrict(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			runCtx, cancel := signalContext()
			defer cancel()

			removed, err := cache.Prune(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d stale cache entries\n", removed)
			return nil
		},
	})

	return cacheCmd
}

// openCacheStrict opens the configured cache or fails, unlike the scan path
// which degrades to uncached operation.
func openCacheStrict(ctx *commandContext) (*hashcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, fmt.Errorf("the fingerprint cache is disabled in the configuration")
	}
	cache, err := hashcache.Open(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("open fingerprint cache: %w", err)
	}
	return cache, nil
}
