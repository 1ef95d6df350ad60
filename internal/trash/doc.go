// Package trash relocates discarded duplicates into a per-root trash
// directory and restores them from a durable move ledger.
//
// A session walks a fixed lifecycle: idle, detecting (review), reviewed,
// validated, restored. Every relocation is written to a JSONL manifest and
// fsynced before the file moves, so after a crash the manifest is always a
// superset of the moves that happened; restore reconciles the difference.
package trash
