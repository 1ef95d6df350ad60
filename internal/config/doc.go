// Package config loads, validates, and defaults the TOML configuration for
// phototriage. Path fields are tilde-expanded and normalized on load;
// validation rejects out-of-range thresholds and unknown periods before any
// work begins.
package config
