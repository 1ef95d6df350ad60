package trash

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"phototriage/internal/fileutil"
	"phototriage/internal/logging"
	"phototriage/internal/services"
)

// RestoreReport summarizes one restore pass over the manifest.
type RestoreReport struct {
	Restored []MoveRecord
	Failed   []Failure
	// AlreadyDone counts entries whose original path already held a
	// byte-identical copy, typically from an interrupted earlier restore.
	AlreadyDone int
}

// Restore moves every file recorded in the root's manifest back to its
// original location. It acquires the session lock for the duration; a root
// with an active session cannot be restored concurrently.
//
// Restore is idempotent. Entries whose trash copy is gone but whose original
// path holds identical bytes are treated as already restored; entries whose
// original path is occupied by different content are left in the trash and
// reported as failures. Successfully restored entries are removed from the
// manifest, so a partially failing restore can simply be re-run.
func Restore(ctx context.Context, root string, logger *slog.Logger) (*RestoreReport, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "restore", "resolve root", root, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "restore"))

	dir := Dir(abs)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return &RestoreReport{}, nil
		}
		return nil, services.Wrap(services.ErrIO, "restore", "stat trash directory", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "restore", "acquire session lock", dir, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "restore", "acquire session lock",
			fmt.Sprintf("another session is active on %s", abs), nil)
	}
	defer func() {
		_ = lock.Unlock()
		cleanupAfterRestore(dir, logger)
	}()

	return restoreLocked(ctx, abs, logger)
}

// restoreLocked performs the restore. The caller holds the session lock.
func restoreLocked(ctx context.Context, root string, logger *slog.Logger) (*RestoreReport, error) {
	path := manifestPath(root)
	records, err := loadRecords(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "restore", "load manifest", root, err)
	}

	report := &RestoreReport{}
	var remaining []MoveRecord
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			remaining = append(remaining, record)
			continue
		}
		outcome, err := restoreOne(record)
		switch outcome {
		case restoredNow:
			report.Restored = append(report.Restored, record)
			logger.Debug("file restored",
				logging.String("from", record.TrashPath),
				logging.String("to", record.OriginalPath),
			)
		case restoredEarlier:
			report.AlreadyDone++
		case restoreFailed:
			remaining = append(remaining, record)
			report.Failed = append(report.Failed, Failure{Path: record.OriginalPath, Reason: err.Error()})
			logger.Warn("restore failed",
				logging.String("path", record.OriginalPath),
				logging.Error(err),
			)
		}
	}

	if err := rewriteRecords(path, remaining); err != nil {
		return report, services.Wrap(services.ErrIO, "restore", "update manifest", root, err)
	}
	logger.Info("restore finished",
		logging.Int("restored", len(report.Restored)),
		logging.Int("already_done", report.AlreadyDone),
		logging.Int("failed", len(report.Failed)),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

type restoreOutcome int

const (
	restoredNow restoreOutcome = iota
	restoredEarlier
	restoreFailed
)

// restoreOne moves a single manifest entry back. Conflicts are detected
// before moving: an occupied original path aborts this entry unless the
// occupier is byte-identical to the trash copy, which means an earlier
// restore already ran but died before trimming the manifest.
func restoreOne(record MoveRecord) (restoreOutcome, error) {
	_, trashErr := os.Stat(record.TrashPath)
	_, origErr := os.Stat(record.OriginalPath)
	trashExists := trashErr == nil
	origExists := origErr == nil

	switch {
	case !trashExists && origExists:
		// Crash between move and manifest trim: the move already happened.
		return restoredEarlier, nil
	case !trashExists && !origExists:
		return restoreFailed, fmt.Errorf("trash copy missing: %s", record.TrashPath)
	case trashExists && origExists:
		same, err := fileutil.SameContent(record.TrashPath, record.OriginalPath)
		if err != nil {
			return restoreFailed, fmt.Errorf("compare with occupier: %w", err)
		}
		if !same {
			return restoreFailed, services.Wrap(services.ErrMoveConflict, "restore", "check original path",
				fmt.Sprintf("occupied by different content: %s", record.OriginalPath), nil)
		}
		// Duplicate copies of an already restored file; drop the trash one.
		if err := os.Remove(record.TrashPath); err != nil {
			return restoreFailed, fmt.Errorf("remove redundant trash copy: %w", err)
		}
		return restoredEarlier, nil
	}

	if err := os.MkdirAll(filepath.Dir(record.OriginalPath), 0o755); err != nil {
		return restoreFailed, fmt.Errorf("recreate original directory: %w", err)
	}
	if err := fileutil.MoveFile(record.TrashPath, record.OriginalPath); err != nil {
		return restoreFailed, err
	}
	return restoredNow, nil
}

// cleanupAfterRestore removes now-empty subdirectories of the trash
// directory, and the directory itself once only the lock file is left.
func cleanupAfterRestore(dir string, logger *slog.Logger) {
	pruneEmptyDirs(dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.Name() != lockName {
			return
		}
	}
	_ = os.Remove(filepath.Join(dir, lockName))
	if err := os.Remove(dir); err != nil {
		logger.Debug("trash directory not removed", logging.Error(err))
	}
}

// pruneEmptyDirs removes empty directories below dir, deepest first. dir
// itself is kept.
func pruneEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		pruneEmptyDirs(sub)
		_ = os.Remove(sub)
	}
}
