package main

import (
	"context"
	"fmt"
	"log/slog"

	"phototriage/internal/cluster"
	"phototriage/internal/config"
	"phototriage/internal/scan"
)

// scanFlags are the knobs shared by the scan and dedupe commands.
type scanFlags struct {
	threshold int
	workers   int
	noCache   bool
}

// scanAndCluster fingerprints the directory and partitions the records.
// The threshold is validated up front so out-of-range flag values are
// rejected before any file is touched.
func (c *commandContext) scanAndCluster(ctx context.Context, logger *slog.Logger, dir string, flags scanFlags) (*scan.Result, []cluster.Cluster, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if flags.threshold < config.MinThreshold || flags.threshold > config.MaxThreshold {
		return nil, nil, fmt.Errorf("threshold must be between %d and %d, got %d",
			config.MinThreshold, config.MaxThreshold, flags.threshold)
	}

	cache := c.openCache(logger, flags.noCache)
	if cache != nil {
		defer cache.Close()
	}

	progress := newProgressPrinter("Fingerprinting")
	defer progress.finish()

	result, err := scan.Run(ctx, scan.Options{
		Root:       dir,
		Extensions: cfg.Scan.Extensions,
		Workers:    flags.workers,
		Cache:      cache,
		Progress:   progress.update,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	clusters, err := cluster.Partition(result.Records, flags.threshold)
	if err != nil {
		return nil, nil, err
	}
	return result, clusters, nil
}

func resolveThreshold(cfg *config.Config, flagValue int, changed bool) int {
	if changed {
		return flagValue
	}
	return cfg.Scan.Threshold
}
