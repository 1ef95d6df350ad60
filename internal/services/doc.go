// Package services defines the error taxonomy shared across phototriage
// operations. Sentinel markers classify failures (decode, metadata, move
// conflict, io, validation, configuration) so callers can decide between
// collecting a per-file failure and aborting the batch.
package services
