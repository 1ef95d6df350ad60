package scan

import "time"

// TrashDirName is the directory duplicates are relocated into. The scanner
// never descends into it.
const TrashDirName = "_duplicates_trash"

// Record describes one successfully fingerprinted image. Records are
// immutable after the scan produces them and live only for the session.
type Record struct {
	// Index is the dense scan-order identifier, assigned after the walk so
	// clustering output stays deterministic regardless of worker timing.
	Index int `json:"index"`
	// Path is the absolute file path.
	Path string `json:"path"`
	// RelPath is the slash-separated path relative to the scan root.
	RelPath string `json:"rel_path"`
	Size    int64  `json:"size"`
	Hash    uint64 `json:"hash"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	// CapturedAt is the EXIF capture date when one was present.
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

// Skip records a file that was walked but excluded from clustering.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Progress reports files processed out of the total candidate count. The
// scanner invokes it from one worker at a time, under its own lock, so
// callbacks may mutate shared state without further synchronization.
type Progress func(done, total int)

// Result is the outcome of one scan: fingerprinted records in scan order
// plus every file that was skipped, with its reason.
type Result struct {
	Root    string
	Records []Record
	Skipped []Skip
}
