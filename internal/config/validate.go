package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinThreshold and MaxThreshold bound the accepted Hamming distance
	// threshold. Values outside this range are rejected, never clamped.
	MinThreshold = 0
	MaxThreshold = 20
)

var validPeriods = map[string]struct{}{
	"year": {}, "month": {}, "week": {}, "day": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScan() error {
	if c.Scan.Threshold < MinThreshold || c.Scan.Threshold > MaxThreshold {
		return fmt.Errorf("scan.threshold must be between %d and %d, got %d", MinThreshold, MaxThreshold, c.Scan.Threshold)
	}
	if c.Scan.Workers < 0 {
		return errors.New("scan.workers must be zero or positive")
	}
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must not be empty")
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("scan.extensions entry %q is not a file extension", ext)
		}
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if _, ok := validPeriods[c.Organize.Period]; !ok {
		return fmt.Errorf("organize.period must be one of year, month, week, day; got %q", c.Organize.Period)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error; got %q", c.Logging.Level)
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Dir) == "" {
		return errors.New("cache.dir must be set when cache.enabled is true")
	}
	return nil
}
