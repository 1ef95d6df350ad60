package trash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"phototriage/internal/cluster"
	"phototriage/internal/fileutil"
	"phototriage/internal/logging"
	"phototriage/internal/services"
)

// State tracks a session through review and validation.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateReviewed
	StateValidated
	StateRestored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateReviewed:
		return "reviewed"
	case StateValidated:
		return "validated"
	case StateRestored:
		return "restored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const lockName = ".lock"

// Failure is a per-file error that did not abort the batch.
type Failure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ValidateReport summarizes one validation: what moved and what failed.
type ValidateReport struct {
	SessionID string
	Moved     []MoveRecord
	Failed    []Failure
}

// Session owns one review-and-validate pass over a scanned root. Exactly one
// session may hold a root at a time; the flock on the trash directory
// enforces that across processes.
type Session struct {
	id      string
	root    string
	dir     string
	state   State
	groups  []cluster.Cluster
	skipped map[int]bool
	lock    *flock.Flock
	logger  *slog.Logger
}

// NewSession acquires the session lock for root. Callers must Close the
// session to release it.
func NewSession(root string, logger *slog.Logger) (*Session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "trash", "resolve root", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "trash", "stat root", abs, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "trash", "stat root", fmt.Sprintf("%s is not a directory", abs), nil)
	}

	if logger == nil {
		logger = logging.NewNop()
	}

	dir := Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "trash", "create trash directory", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "trash", "acquire session lock", dir, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "trash", "acquire session lock",
			fmt.Sprintf("another session is active on %s", abs), nil)
	}

	return &Session{
		id:      uuid.NewString(),
		root:    abs,
		dir:     dir,
		state:   StateIdle,
		skipped: map[int]bool{},
		lock:    lock,
		logger:  logger.With(logging.String(logging.FieldComponent, "trash")),
	}, nil
}

// ID returns the session identifier recorded in manifest entries.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Root returns the scanned root the session operates on.
func (s *Session) Root() string { return s.root }

// Close releases the session lock and removes the trash directory if this
// session left nothing in it.
func (s *Session) Close() error {
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			return err
		}
		s.lock = nil
	}
	s.cleanupEmptyDir()
	return nil
}

// Begin enters review with the given partition. Singleton clusters are
// dropped immediately; they are not duplicate groups.
func (s *Session) Begin(clusters []cluster.Cluster) error {
	if s.state != StateIdle {
		return s.badState("begin review", StateIdle)
	}
	s.groups = cluster.Duplicates(clusters)
	s.state = StateDetecting
	s.logger.Info("review started",
		logging.String("session", s.id),
		logging.Int("duplicate_groups", len(s.groups)),
	)
	return nil
}

// Groups returns the duplicate groups under review.
func (s *Session) Groups() []cluster.Cluster {
	return s.groups
}

// Choose sets the representative of one group.
func (s *Session) Choose(clusterID, memberIndex int) error {
	if s.state != StateDetecting {
		return s.badState("choose representative", StateDetecting)
	}
	for i, group := range s.groups {
		if group.ID != clusterID {
			continue
		}
		chosen, err := cluster.Choose(group, memberIndex)
		if err != nil {
			return err
		}
		s.groups[i] = chosen
		delete(s.skipped, clusterID)
		return nil
	}
	return services.Wrap(services.ErrValidation, "trash", "choose representative",
		fmt.Sprintf("no duplicate group with id %d", clusterID), nil)
}

// Skip excludes a group from validation without choosing a keeper.
func (s *Session) Skip(clusterID int) error {
	if s.state != StateDetecting {
		return s.badState("skip group", StateDetecting)
	}
	for _, group := range s.groups {
		if group.ID == clusterID {
			s.skipped[clusterID] = true
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "trash", "skip group",
		fmt.Sprintf("no duplicate group with id %d", clusterID), nil)
}

// Review transitions to the reviewed state once every group has a chosen
// representative or an explicit skip.
func (s *Session) Review() error {
	if s.state != StateDetecting {
		return s.badState("finish review", StateDetecting)
	}
	for _, group := range s.groups {
		if !group.Chosen() && !s.skipped[group.ID] {
			return services.Wrap(services.ErrValidation, "trash", "finish review",
				fmt.Sprintf("group %d has no representative and was not skipped", group.ID), nil)
		}
	}
	s.state = StateReviewed
	return nil
}

// Validate relocates every non-representative member of every reviewed group
// into the trash directory, preserving relative subpaths. The manifest is
// appended and fsynced before the first move, so a crash mid-way leaves a
// ledger that is a safe superset of the completed moves. Per-file failures
// are isolated; after the loop the manifest is trimmed to the moves that
// actually happened.
func (s *Session) Validate(ctx context.Context) (*ValidateReport, error) {
	if s.state != StateReviewed {
		return nil, s.badState("validate selection", StateReviewed)
	}

	var plan []MoveRecord
	now := time.Now().UTC()
	for _, group := range s.groups {
		if s.skipped[group.ID] || !group.Chosen() {
			continue
		}
		for _, member := range group.Discards() {
			target := filepath.Join(s.dir, filepath.FromSlash(member.RelPath))
			target, err := fileutil.DisambiguatedPath(target)
			if err != nil {
				return nil, services.Wrap(services.ErrIO, "trash", "plan moves", member.Path, err)
			}
			plan = append(plan, MoveRecord{
				SessionID:    s.id,
				ClusterID:    group.ID,
				OriginalPath: member.Path,
				TrashPath:    target,
				MovedAt:      now,
			})
		}
	}

	report := &ValidateReport{SessionID: s.id}
	if len(plan) == 0 {
		s.state = StateValidated
		return report, nil
	}

	previous, err := loadRecords(manifestPath(s.root))
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "trash", "load manifest", s.root, err)
	}

	if err := appendRecords(manifestPath(s.root), plan); err != nil {
		return nil, services.Wrap(services.ErrIO, "trash", "persist manifest", s.root, err)
	}

	for _, record := range plan {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := fileutil.MoveFile(record.OriginalPath, record.TrashPath); err != nil {
			report.Failed = append(report.Failed, Failure{Path: record.OriginalPath, Reason: err.Error()})
			s.logger.Warn("duplicate move failed",
				logging.String("path", record.OriginalPath),
				logging.Error(err),
			)
			continue
		}
		report.Moved = append(report.Moved, record)
		s.logger.Debug("duplicate moved to trash",
			logging.String("from", record.OriginalPath),
			logging.String("to", record.TrashPath),
		)
	}

	// Trim the superset down to the moves that completed.
	kept := append(previous, report.Moved...)
	if err := rewriteRecords(manifestPath(s.root), kept); err != nil {
		return report, services.Wrap(services.ErrIO, "trash", "trim manifest", s.root, err)
	}

	s.state = StateValidated
	s.logger.Info("selection validated",
		logging.String("session", s.id),
		logging.Int("moved", len(report.Moved)),
		logging.Int("failed", len(report.Failed)),
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Restore replays this session's validation in reverse.
func (s *Session) Restore(ctx context.Context) (*RestoreReport, error) {
	if s.state != StateValidated {
		return nil, s.badState("restore", StateValidated)
	}
	report, err := restoreLocked(ctx, s.root, s.logger)
	if err != nil {
		return report, err
	}
	pruneEmptyDirs(s.dir)
	s.state = StateRestored
	return report, nil
}

func (s *Session) badState(operation string, want State) error {
	return services.Wrap(services.ErrValidation, "trash", operation,
		fmt.Sprintf("session is %s, requires %s", s.state, want), nil)
}

// cleanupEmptyDir removes the trash directory when only the lock file (and
// no relocated content or manifest) remains.
func (s *Session) cleanupEmptyDir() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.Name() != lockName {
			return
		}
	}
	_ = os.Remove(filepath.Join(s.dir, lockName))
	if err := os.Remove(s.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("trash directory not removed", logging.Error(err))
	}
}
