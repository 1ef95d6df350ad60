package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phototriage/internal/organizer"
	"phototriage/internal/services"
)

func ts(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// datesByName drives the organizer from a fixture table instead of EXIF.
func datesByName(dates map[string]*time.Time) func(string) (*time.Time, error) {
	return func(path string) (*time.Time, error) {
		captured, ok := dates[filepath.Base(path)]
		if !ok {
			return nil, errors.New("no metadata")
		}
		return captured, nil
	}
}

func TestBucketFormats(t *testing.T) {
	captured := ts("2023-04-12")
	cases := []struct {
		period organizer.Period
		want   string
	}{
		{organizer.PeriodYear, "2023"},
		{organizer.PeriodMonth, "2023-04"},
		{organizer.PeriodWeek, "2023-W15"},
		{organizer.PeriodDay, "2023-04-12"},
	}
	for _, tc := range cases {
		if got := tc.period.Bucket(captured); got != tc.want {
			t.Errorf("%s bucket = %q, want %q", tc.period, got, tc.want)
		}
		if got := tc.period.Bucket(nil); got != organizer.UnknownBucket {
			t.Errorf("%s bucket for nil date = %q, want %q", tc.period, got, organizer.UnknownBucket)
		}
	}
}

func TestBucketISOWeekYearBoundary(t *testing.T) {
	// 2024-12-30 belongs to ISO week 1 of 2025.
	if got := organizer.PeriodWeek.Bucket(ts("2024-12-30")); got != "2025-W01" {
		t.Fatalf("bucket = %q, want 2025-W01", got)
	}
}

func TestParsePeriod(t *testing.T) {
	for value, want := range map[string]organizer.Period{
		"year": organizer.PeriodYear, "Month": organizer.PeriodMonth,
		" week ": organizer.PeriodWeek, "day": organizer.PeriodDay,
	} {
		got, err := organizer.ParsePeriod(value)
		if err != nil || got != want {
			t.Fatalf("ParsePeriod(%q) = %v, %v; want %v", value, got, err, want)
		}
	}
	if _, err := organizer.ParsePeriod("fortnight"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunMovesFilesIntoMonthBuckets(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()

	dates := map[string]*time.Time{
		"a.jpg": ts("2023-04-01"),
		"b.jpg": ts("2023-04-20"),
		"c.jpg": ts("2023-05-02"),
		"d.jpg": ts("2022-12-31"),
	}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "undated.jpg"} {
		writeSource(t, source, name, "content of "+name)
	}

	report, err := organizer.Run(context.Background(), organizer.Options{
		Source:         source,
		Dest:           dest,
		Period:         organizer.PeriodMonth,
		Mode:           organizer.ModeMove,
		ReadCapturedAt: datesByName(dates),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Placed) != 5 {
		t.Fatalf("placed = %d, want 5", len(report.Placed))
	}
	if len(report.Failed) != 0 {
		t.Fatalf("failed = %v", report.Failed)
	}

	// 4 dated files across 3 months plus exactly one fallback bucket.
	for rel, name := range map[string]string{
		"2023-04/a.jpg":             "a.jpg",
		"2023-04/b.jpg":             "b.jpg",
		"2023-05/c.jpg":             "c.jpg",
		"2022-12/d.jpg":             "d.jpg",
		"date_inconnue/undated.jpg": "undated.jpg",
	} {
		target := filepath.Join(dest, filepath.FromSlash(rel))
		content, err := os.ReadFile(target)
		if err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
		if string(content) != "content of "+name {
			t.Fatalf("content of %s = %q", rel, content)
		}
		// Move mode removes the source.
		if _, err := os.Stat(filepath.Join(source, name)); !os.IsNotExist(err) {
			t.Fatalf("source %s should be gone after move", name)
		}
	}

	buckets, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("buckets = %d, want 4", len(buckets))
	}
}

func TestRunCopyRetainsSources(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeSource(t, source, "a.jpg", "alpha")

	report, err := organizer.Run(context.Background(), organizer.Options{
		Source:         source,
		Dest:           dest,
		Period:         organizer.PeriodYear,
		Mode:           organizer.ModeCopy,
		ReadCapturedAt: datesByName(map[string]*time.Time{"a.jpg": ts("2021-07-07")}),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(report.Placed))
	}
	if _, err := os.Stat(filepath.Join(source, "a.jpg")); err != nil {
		t.Fatalf("copy mode must retain the source: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "2021", "a.jpg")); err != nil {
		t.Fatalf("copy missing at destination: %v", err)
	}
}

func TestRunCollisionSuffixOnlyWhenContentDiffers(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeSource(t, source, "a.jpg", "original")
	occupied := filepath.Join(dest, "2021", "a.jpg")
	if err := os.MkdirAll(filepath.Dir(occupied), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(occupied, []byte("different"), 0o644); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	run := func() *organizer.Report {
		report, err := organizer.Run(context.Background(), organizer.Options{
			Source:         source,
			Dest:           dest,
			Period:         organizer.PeriodYear,
			Mode:           organizer.ModeCopy,
			ReadCapturedAt: datesByName(map[string]*time.Time{"a.jpg": ts("2021-01-01")}),
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return report
	}

	// Different content at the target: a _dup suffix, never an overwrite.
	report := run()
	if len(report.Placed) != 1 || filepath.Base(report.Placed[0].Target) != "a_dup.jpg" {
		t.Fatalf("placed = %+v, want a_dup.jpg", report.Placed)
	}
	content, err := os.ReadFile(occupied)
	if err != nil || string(content) != "different" {
		t.Fatalf("occupier was modified: %q, %v", content, err)
	}

	// Identical content already organized: skipped, no extra copy.
	report = run()
	if len(report.Placed) != 0 {
		t.Fatalf("second run placed %d files, want 0", len(report.Placed))
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("second run skipped = %+v, want 1 entry", report.Skipped)
	}
	if _, err := os.Stat(filepath.Join(dest, "2021", "a_dup2.jpg")); !os.IsNotExist(err) {
		t.Fatal("identical content must not produce another _dup copy")
	}
}

func TestRunRoutesTrashedMarkersAndSkipsUnrecognized(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeSource(t, source, "old.jpg.trashed", "trashed bytes")
	writeSource(t, source, "notes.txt", "not an image")
	if err := os.MkdirAll(filepath.Join(source, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, filepath.Join(source, "nested"), "deep.jpg", "below the listing")

	recognize := func(path string) bool {
		return filepath.Ext(path) != ".txt"
	}
	report, err := organizer.Run(context.Background(), organizer.Options{
		Source:         source,
		Dest:           dest,
		Period:         organizer.PeriodMonth,
		Mode:           organizer.ModeMove,
		Recognize:      recognize,
		ReadCapturedAt: datesByName(nil),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dest, organizer.TrashedBucket, "old.jpg.trashed")); err != nil {
		t.Fatalf("trashed marker file not routed to %s: %v", organizer.TrashedBucket, err)
	}
	if len(report.Skipped) != 1 || filepath.Base(report.Skipped[0].Path) != "notes.txt" {
		t.Fatalf("skipped = %+v, want notes.txt only", report.Skipped)
	}
	// The listing is not recursive.
	if _, err := os.Stat(filepath.Join(source, "nested", "deep.jpg")); err != nil {
		t.Fatalf("nested file must stay untouched: %v", err)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writeSource(t, source, "a.jpg", "alpha")

	report, err := organizer.Run(context.Background(), organizer.Options{
		Source:         source,
		Dest:           dest,
		Period:         organizer.PeriodDay,
		Mode:           organizer.ModeMove,
		DryRun:         true,
		ReadCapturedAt: datesByName(map[string]*time.Time{"a.jpg": ts("2023-04-02")}),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(report.Placed))
	}
	want := filepath.Join(dest, "2023-04-02", "a.jpg")
	if report.Placed[0].Target != want {
		t.Fatalf("planned target = %s, want %s", report.Placed[0].Target, want)
	}
	if _, err := os.Stat(filepath.Join(source, "a.jpg")); err != nil {
		t.Fatalf("dry run must not move the source: %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("dry run must not create the destination")
	}
}

func TestRunRejectsMoveIntoSourceSubdirectory(t *testing.T) {
	source := t.TempDir()
	_, err := organizer.Run(context.Background(), organizer.Options{
		Source: source,
		Dest:   filepath.Join(source, "sorted"),
		Period: organizer.PeriodMonth,
		Mode:   organizer.ModeMove,
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	// Copy mode may target a subdirectory.
	writeSource(t, source, "a.jpg", "alpha")
	report, err := organizer.Run(context.Background(), organizer.Options{
		Source:         source,
		Dest:           filepath.Join(source, "sorted"),
		Period:         organizer.PeriodMonth,
		Mode:           organizer.ModeCopy,
		ReadCapturedAt: datesByName(nil),
	})
	if err != nil {
		t.Fatalf("Run (copy): %v", err)
	}
	if len(report.Placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(report.Placed))
	}
}

func TestRunProgressCoversEveryFile(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		writeSource(t, source, name, name)
	}

	var calls []int
	_, err := organizer.Run(context.Background(), organizer.Options{
		Source:         source,
		Dest:           dest,
		Period:         organizer.PeriodMonth,
		Mode:           organizer.ModeCopy,
		ReadCapturedAt: datesByName(nil),
		Progress: func(done, total int) {
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			calls = append(calls, done)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 3 || calls[2] != 3 {
		t.Fatalf("progress calls = %v, want [1 2 3]", calls)
	}
}
