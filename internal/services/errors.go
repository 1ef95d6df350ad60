package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDecode marks files that could not be decoded as images.
	ErrDecode = errors.New("decode error")
	// ErrMetadata marks files whose metadata could not be read at all.
	// Missing EXIF fields are not errors and never carry this marker.
	ErrMetadata = errors.New("metadata unavailable")
	// ErrMoveConflict marks a destination path occupied by different content.
	ErrMoveConflict = errors.New("move conflict")
	// ErrIO marks per-file filesystem failures (permissions, disk full).
	ErrIO = errors.New("io failure")
	// ErrValidation marks invalid caller input detected mid-operation.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks bad configuration rejected before any work starts.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the whole batch rather than
// being collected into the per-file failure list.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
