// Package logging builds the slog loggers used across phototriage and
// provides attribute helpers so call sites stay consistent about field names.
package logging
