// Package scan walks a directory tree and produces one fingerprint record
// per recognized image, using a bounded worker pool. The phase is
// embarrassingly parallel per file; ordering is restored afterward so the
// downstream clustering sees a deterministic sequence.
package scan
