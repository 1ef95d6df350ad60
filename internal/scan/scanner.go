package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"phototriage/internal/dhash"
	"phototriage/internal/exifdata"
	"phototriage/internal/fileutil"
	"phototriage/internal/hashcache"
	"phototriage/internal/logging"
	"phototriage/internal/services"
)

// Options configures a scan.
type Options struct {
	Root string
	// Extensions filters candidate files (lowercase, dot-prefixed).
	Extensions []string
	// Workers bounds the fingerprinting pool; 0 means one per CPU core.
	Workers int
	// Cache, when non-nil, is consulted before decoding and updated after.
	Cache    *hashcache.Cache
	Progress Progress
	Logger   *slog.Logger
}

// Run walks the root, fingerprints every recognized image in parallel, and
// returns the records in deterministic scan order. Per-file decode failures
// land in Result.Skipped; only an unusable root is fatal.
//
// Cancellation is cooperative and checked between files: on a cancelled
// context Run returns the records produced so far together with ctx.Err(),
// leaving the caller free to cluster the partial set.
func Run(ctx context.Context, opts Options) (*Result, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "resolve root", opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "stat root", root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "scanning", "stat root", fmt.Sprintf("%s is not a directory", root), nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "scanner"))

	candidates, err := collectCandidates(root, opts.Extensions)
	if err != nil {
		return nil, err
	}
	total := len(candidates)
	logger.Info("scan started", logging.String("root", root), logging.Int("candidates", total))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > total && total > 0 {
		workers = total
	}

	result := &Result{Root: root}

	var (
		mu   sync.Mutex
		done int
	)
	jobs := make(chan candidate)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(jobs)
		for _, cand := range candidates {
			select {
			case <-groupCtx.Done():
				return nil
			case jobs <- cand:
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for cand := range jobs {
				select {
				case <-groupCtx.Done():
					return nil
				default:
				}

				record, skip := fingerprintOne(groupCtx, cand, opts.Cache, logger)

				mu.Lock()
				if skip != nil {
					result.Skipped = append(result.Skipped, *skip)
				} else {
					result.Records = append(result.Records, *record)
				}
				done++
				if opts.Progress != nil {
					opts.Progress(done, total)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return result, err
	}

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].Index < result.Records[j].Index
	})
	for i := range result.Records {
		result.Records[i].Index = i
	}
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].Path < result.Skipped[j].Path
	})

	logger.Info("scan finished",
		logging.Int("fingerprinted", len(result.Records)),
		logging.Int("skipped", len(result.Skipped)),
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

type candidate struct {
	walkOrder int
	path      string
	relPath   string
}

func collectCandidates(root string, extensions []string) ([]candidate, error) {
	recognized := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		recognized[strings.ToLower(ext)] = struct{}{}
	}

	var candidates []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == TrashDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := recognized[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		candidates = append(candidates, candidate{
			walkOrder: len(candidates),
			path:      path,
			relPath:   fileutil.NormalizeRel(rel),
		})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "scanning", "walk tree", root, err)
	}
	return candidates, nil
}

func fingerprintOne(ctx context.Context, cand candidate, cache *hashcache.Cache, logger *slog.Logger) (*Record, *Skip) {
	info, err := os.Stat(cand.path)
	if err != nil {
		return nil, &Skip{Path: cand.path, Reason: fmt.Sprintf("stat: %v", err)}
	}

	record := Record{
		Index:   cand.walkOrder,
		Path:    cand.path,
		RelPath: cand.relPath,
		Size:    info.Size(),
	}

	cached := false
	if cache != nil {
		entry, hit, err := cache.Get(ctx, cand.path, info.Size(), info.ModTime())
		if err != nil {
			logger.Warn("fingerprint cache lookup failed", logging.String("path", cand.path), logging.Error(err))
		} else if hit {
			record.Hash = entry.Hash
			record.Width = entry.Width
			record.Height = entry.Height
			cached = true
		}
	}

	if !cached {
		hash, width, height, err := dhash.FromFile(cand.path)
		if err != nil {
			if errors.Is(err, services.ErrDecode) {
				logger.Debug("undecodable image skipped", logging.String("path", cand.path), logging.Error(err))
			}
			return nil, &Skip{Path: cand.path, Reason: err.Error()}
		}
		record.Hash = hash
		record.Width = width
		record.Height = height

		if cache != nil {
			entry := hashcache.Entry{Hash: hash, Width: width, Height: height}
			if err := cache.Put(ctx, cand.path, info.Size(), info.ModTime(), entry); err != nil {
				logger.Warn("fingerprint cache store failed", logging.String("path", cand.path), logging.Error(err))
			}
		}
	}

	if meta, err := exifdata.Read(cand.path); err == nil {
		record.CapturedAt = meta.CapturedAt
	}

	return &record, nil
}
