package main

import (
	"os"
	"path/filepath"
	"testing"

	"phototriage/internal/scan"
	"phototriage/internal/testsupport"
)

// photoDir builds a root with two visually identical photos and one very
// different one, which clusters into a single duplicate pair at the default
// threshold.
func photoDir(t *testing.T, base string) string {
	t.Helper()

	root := filepath.Join(base, "photos")
	ramp := testsupport.GradientImage(64, 48, false)
	testsupport.WritePNG(t, filepath.Join(root, "a.png"), ramp)
	testsupport.WritePNG(t, filepath.Join(root, "copy.png"), ramp)
	testsupport.WritePNG(t, filepath.Join(root, "other.png"), testsupport.GradientImage(64, 48, true))
	return root
}

func TestScanCommandListsDuplicateGroups(t *testing.T) {
	env := setupCLITestEnv(t)
	root := photoDir(t, env.baseDir)

	out, _, err := runCLI(t, []string{"scan", root}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "1 duplicate group")
	requireContains(t, out, "a.png")
	requireContains(t, out, "copy.png")
}

func TestDedupeDryRunMovesNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	root := photoDir(t, env.baseDir)

	out, _, err := runCLI(t, []string{"dedupe", root, "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("dedupe --dry-run: %v", err)
	}
	requireContains(t, out, "Dry run")

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("dry run changed the directory: %d entries", len(entries))
	}
}

func TestDedupeThenRestoreRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	root := photoDir(t, env.baseDir)

	out, _, err := runCLI(t, []string{"dedupe", root, "--keep", "first"}, env.configPath)
	if err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	requireContains(t, out, "Moved 1 duplicate")

	if _, err := os.Stat(filepath.Join(root, "a.png")); err != nil {
		t.Fatalf("keeper missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "copy.png")); !os.IsNotExist(err) {
		t.Fatal("duplicate should be in the trash")
	}
	if _, err := os.Stat(filepath.Join(root, scan.TrashDirName, "copy.png")); err != nil {
		t.Fatalf("trash copy missing: %v", err)
	}

	out, _, err = runCLI(t, []string{"restore", root}, env.configPath)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	requireContains(t, out, "Restored 1 file")

	if _, err := os.Stat(filepath.Join(root, "copy.png")); err != nil {
		t.Fatalf("duplicate not restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, scan.TrashDirName)); !os.IsNotExist(err) {
		t.Fatal("trash directory should be gone after restore")
	}
}

func TestDedupeRejectsOutOfRangeThreshold(t *testing.T) {
	env := setupCLITestEnv(t)
	root := photoDir(t, env.baseDir)

	if _, _, err := runCLI(t, []string{"dedupe", root, "--threshold", "21"}, env.configPath); err == nil {
		t.Fatal("threshold 21 should be rejected")
	}
}
