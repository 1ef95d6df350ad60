package trash

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"phototriage/internal/scan"
)

// ManifestName is the ledger file inside the trash directory. One JSON
// object per line, so the moves stay recoverable with nothing but a text
// editor if the application is gone.
const ManifestName = "manifest.jsonl"

// MoveRecord is one entry of the append-only move ledger.
type MoveRecord struct {
	SessionID    string    `json:"session_id"`
	ClusterID    int       `json:"cluster_id"`
	OriginalPath string    `json:"original_path"`
	TrashPath    string    `json:"trash_path"`
	MovedAt      time.Time `json:"moved_at"`
}

// Dir returns the trash directory for a scanned root.
func Dir(root string) string {
	return filepath.Join(root, scan.TrashDirName)
}

func manifestPath(root string) string {
	return filepath.Join(Dir(root), ManifestName)
}

// loadRecords reads every manifest entry. A missing manifest is an empty
// ledger. Malformed lines are an error: the manifest is the sole source of
// truth for restore, so silently dropping entries would risk data.
func loadRecords(path string) ([]MoveRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var records []MoveRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var record MoveRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return records, nil
}

// appendRecords appends entries to the manifest and fsyncs before returning,
// so the ledger hits disk before any file it describes is moved.
func appendRecords(path string, records []MoveRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create trash directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	for _, record := range records {
		encoded, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode manifest record: %w", err)
		}
		if _, err := f.Write(append(encoded, '\n')); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync manifest: %w", err)
	}
	return f.Close()
}

// rewriteRecords atomically replaces the manifest contents. An empty record
// set removes the manifest file entirely.
func rewriteRecords(path string, records []MoveRecord) error {
	if len(records) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove manifest: %w", err)
		}
		return nil
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open manifest temp: %w", err)
	}
	for _, record := range records {
		encoded, err := json.Marshal(record)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("encode manifest record: %w", err)
		}
		if _, err := f.Write(append(encoded, '\n')); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("write manifest temp: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync manifest temp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close manifest temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
