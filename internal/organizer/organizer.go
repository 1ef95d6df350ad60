package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phototriage/internal/exifdata"
	"phototriage/internal/fileutil"
	"phototriage/internal/logging"
	"phototriage/internal/services"
)

// Period is the bucket granularity for date-based organization.
type Period int

const (
	PeriodYear Period = iota
	PeriodMonth
	PeriodWeek
	PeriodDay
)

// ParsePeriod maps a config or flag value to a Period.
func ParsePeriod(value string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "year":
		return PeriodYear, nil
	case "month":
		return PeriodMonth, nil
	case "week":
		return PeriodWeek, nil
	case "day":
		return PeriodDay, nil
	default:
		return 0, services.Wrap(services.ErrConfiguration, "organize", "parse period",
			fmt.Sprintf("period must be year, month, week, or day; got %q", value), nil)
	}
}

func (p Period) String() string {
	switch p {
	case PeriodYear:
		return "year"
	case PeriodMonth:
		return "month"
	case PeriodWeek:
		return "week"
	case PeriodDay:
		return "day"
	default:
		return fmt.Sprintf("period(%d)", int(p))
	}
}

// Mode selects whether organized files are copied or moved.
type Mode int

const (
	ModeMove Mode = iota
	ModeCopy
)

func (m Mode) String() string {
	if m == ModeCopy {
		return "copy"
	}
	return "move"
}

const (
	// UnknownBucket collects files with no usable capture date.
	UnknownBucket = "date_inconnue"
	// TrashedBucket collects files carrying a .trashed marker in their name.
	TrashedBucket = "_trash"
)

// Bucket formats a capture timestamp at the period's granularity. A nil
// timestamp lands in UnknownBucket.
func (p Period) Bucket(capturedAt *time.Time) string {
	if capturedAt == nil {
		return UnknownBucket
	}
	t := *capturedAt
	switch p {
	case PeriodYear:
		return t.Format("2006")
	case PeriodMonth:
		return t.Format("2006-01")
	case PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01-02")
	}
}

// Progress reports files processed out of the total.
type Progress func(done, total int)

// Options configures one organizer run.
type Options struct {
	Source string
	Dest   string
	Period Period
	Mode   Mode

	// Recognize filters the source listing; nil accepts every regular file.
	Recognize func(path string) bool
	// ReadCapturedAt extracts the capture timestamp; nil uses EXIF data.
	// A nil timestamp or an error routes the file to UnknownBucket.
	ReadCapturedAt func(path string) (*time.Time, error)
	// DryRun plans targets without touching the destination.
	DryRun bool

	Progress Progress
	Logger   *slog.Logger
}

// Placement describes where one source file went (or would go, under DryRun).
type Placement struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Bucket string `json:"bucket"`
}

// Skip is a file left alone, with the reason.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Failure is a per-file error that did not abort the run.
type Failure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes one organizer run.
type Report struct {
	Placed  []Placement `json:"placed"`
	Skipped []Skip      `json:"skipped,omitempty"`
	Failed  []Failure   `json:"failed,omitempty"`
}

// Run organizes the source directory's image files into per-bucket
// subdirectories of the destination. The listing is not recursive. Per-file
// failures are isolated; only setup problems abort the run.
func Run(ctx context.Context, opts Options) (*Report, error) {
	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "resolve source", opts.Source, err)
	}
	dest, err := filepath.Abs(opts.Dest)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "resolve destination", opts.Dest, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "stat source", source, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "stat source",
			fmt.Sprintf("%s is not a directory", source), nil)
	}
	// Moving into a subdirectory of the source would re-list moved files on
	// the next run and can orbit files between buckets.
	if opts.Mode == ModeMove && isWithin(source, dest) {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "check destination",
			fmt.Sprintf("destination %s is inside source %s; use copy mode or another destination", dest, source), nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "organizer"))

	readCapturedAt := opts.ReadCapturedAt
	if readCapturedAt == nil {
		readCapturedAt = func(path string) (*time.Time, error) {
			meta, err := exifdata.Read(path)
			if err != nil {
				return nil, err
			}
			return meta.CapturedAt, nil
		}
	}

	files, skipped, err := listSource(source, opts.Recognize)
	if err != nil {
		return nil, err
	}
	report := &Report{Skipped: skipped}

	if !opts.DryRun && opts.Mode == ModeCopy {
		var total int64
		for _, file := range files {
			total += file.size
		}
		if err := checkFreeSpace(dest, total); err != nil {
			return nil, err
		}
	}
	if !opts.DryRun {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, services.Wrap(services.ErrIO, "organize", "create destination", dest, err)
		}
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		bucket := TrashedBucket
		if !strings.Contains(strings.ToLower(file.name), ".trashed") {
			capturedAt, err := readCapturedAt(file.path)
			if err != nil {
				logger.Debug("capture date unavailable",
					logging.String("path", file.path),
					logging.Error(err),
				)
				capturedAt = nil
			}
			bucket = opts.Period.Bucket(capturedAt)
		}
		target := filepath.Join(dest, bucket, file.name)

		placed, skip, err := placeOne(file.path, target, opts.Mode, opts.DryRun)
		switch {
		case err != nil:
			report.Failed = append(report.Failed, Failure{Path: file.path, Reason: err.Error()})
			logger.Warn("organize failed", logging.String("path", file.path), logging.Error(err))
		case skip != "":
			report.Skipped = append(report.Skipped, Skip{Path: file.path, Reason: skip})
		default:
			report.Placed = append(report.Placed, Placement{Source: file.path, Target: placed, Bucket: bucket})
			logger.Debug("file organized",
				logging.String("from", file.path),
				logging.String("to", placed),
			)
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(files))
		}
	}

	logger.Info("organize finished",
		logging.String("mode", opts.Mode.String()),
		logging.String("period", opts.Period.String()),
		logging.Int("placed", len(report.Placed)),
		logging.Int("skipped", len(report.Skipped)),
		logging.Int("failed", len(report.Failed)),
	)
	return report, nil
}

type sourceFile struct {
	path string
	name string
	size int64
}

// listSource returns the organizable regular files directly under source.
func listSource(source string, recognize func(string) bool) ([]sourceFile, []Skip, error) {
	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrIO, "organize", "list source", source, err)
	}

	var files []sourceFile
	var skipped []Skip
	for _, entry := range entries {
		path := filepath.Join(source, entry.Name())
		if entry.IsDir() {
			continue
		}
		if !entry.Type().IsRegular() {
			skipped = append(skipped, Skip{Path: path, Reason: "not a regular file"})
			continue
		}
		if recognize != nil && !recognize(path) {
			skipped = append(skipped, Skip{Path: path, Reason: "unrecognized extension"})
			continue
		}
		info, err := entry.Info()
		if err != nil {
			skipped = append(skipped, Skip{Path: path, Reason: err.Error()})
			continue
		}
		files = append(files, sourceFile{path: path, name: entry.Name(), size: info.Size()})
	}
	return files, skipped, nil
}

// placeOne copies or moves src to target, disambiguating occupied targets.
// An occupied target with identical bytes counts as already organized: the
// file is skipped and, in move mode, the source is left in place.
func placeOne(src, target string, mode Mode, dryRun bool) (string, string, error) {
	if _, err := os.Stat(target); err == nil {
		same, err := fileutil.SameContent(src, target)
		if err != nil {
			return "", "", err
		}
		if same {
			return "", "identical copy already at destination", nil
		}
		target, err = fileutil.DisambiguatedPath(target)
		if err != nil {
			return "", "", err
		}
	} else if !os.IsNotExist(err) {
		return "", "", err
	}

	if dryRun {
		return target, "", nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", "", err
	}
	if mode == ModeCopy {
		if err := fileutil.CopyFileDurable(src, target); err != nil {
			return "", "", err
		}
		return target, "", nil
	}
	if err := fileutil.MoveFile(src, target); err != nil {
		return "", "", err
	}
	return target, "", nil
}

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
