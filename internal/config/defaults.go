package config

const (
	// DefaultThreshold mirrors the historical default similarity slider value.
	DefaultThreshold = 8

	defaultCacheDir  = "~/.cache/phototriage"
	defaultLogDir    = "~/.local/share/phototriage/logs"
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
	defaultPeriod    = "month"
)

// DefaultExtensions lists the recognized image file extensions.
func DefaultExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp", ".tiff", ".heic"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scan: Scan{
			Threshold:  DefaultThreshold,
			Workers:    0,
			Extensions: DefaultExtensions(),
		},
		Cache: Cache{
			Enabled: true,
			Dir:     defaultCacheDir,
		},
		Organize: Organize{
			Period: defaultPeriod,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
