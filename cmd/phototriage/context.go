package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"phototriage/internal/config"
	"phototriage/internal/hashcache"
	"phototriage/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return logger, nil
}

// openCache returns the fingerprint cache per config, or nil when disabled.
// A cache that fails to open degrades to uncached scanning rather than
// aborting the run.
func (c *commandContext) openCache(logger *slog.Logger, noCache bool) *hashcache.Cache {
	cfg, err := c.ensureConfig()
	if err != nil || noCache || !cfg.Cache.Enabled {
		return nil
	}
	cache, err := hashcache.Open(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("fingerprint cache unavailable",
			logging.String("dir", cfg.Cache.Dir),
			logging.Error(err),
		)
		return nil
	}
	return cache
}

// signalContext returns a context cancelled by SIGINT or SIGTERM, so long
// scans and batch moves stop at the next file boundary.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func plural(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}
