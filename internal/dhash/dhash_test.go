package dhash_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"phototriage/internal/dhash"
	"phototriage/internal/services"
	"phototriage/internal/testsupport"
)

func TestDistanceIsZeroForSelfAndSymmetric(t *testing.T) {
	a := dhash.FromImage(testsupport.GradientImage(120, 90, false))
	b := dhash.FromImage(testsupport.GradientImage(120, 90, true))

	if d := dhash.Distance(a, a); d != 0 {
		t.Fatalf("Distance(x, x) = %d, want 0", d)
	}
	if dhash.Distance(a, b) != dhash.Distance(b, a) {
		t.Fatal("Distance must be symmetric")
	}
}

func TestHashInvariantToBrightnessAndScale(t *testing.T) {
	base := testsupport.GradientImage(200, 150, false)
	reference := dhash.FromImage(base)

	brighter := dhash.FromImage(imaging.AdjustBrightness(base, 15))
	if d := dhash.Distance(reference, brighter); d > 4 {
		t.Fatalf("brightness shift moved hash by %d bits", d)
	}

	scaled := dhash.FromImage(imaging.Resize(base, 100, 75, imaging.Lanczos))
	if d := dhash.Distance(reference, scaled); d > 4 {
		t.Fatalf("rescaling moved hash by %d bits", d)
	}
}

func TestDistinctImagesAreFar(t *testing.T) {
	ramp := dhash.FromImage(testsupport.GradientImage(120, 90, false))
	reversed := dhash.FromImage(testsupport.GradientImage(120, 90, true))
	if d := dhash.Distance(ramp, reversed); d < 30 {
		t.Fatalf("opposite gradients should be far apart, got distance %d", d)
	}

	checker := dhash.FromImage(testsupport.CheckerImage(120, 90, 15))
	if d := dhash.Distance(ramp, checker); d < 20 {
		t.Fatalf("gradient and checkerboard should be far apart, got distance %d", d)
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ramp.png")
	testsupport.WritePNG(t, path, testsupport.GradientImage(64, 48, false))

	hash, width, height, err := dhash.FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if width != 64 || height != 48 {
		t.Fatalf("dimensions = %dx%d, want 64x48", width, height)
	}
	if want := dhash.FromImage(testsupport.GradientImage(64, 48, false)); hash != want {
		t.Fatalf("hash mismatch: file %016x, in-memory %016x", hash, want)
	}
}

func TestFromFileReportsDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := dhash.FromFile(path)
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestFromFileReportsMissingFile(t *testing.T) {
	_, _, _, err := dhash.FromFile(filepath.Join(t.TempDir(), "absent.png"))
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}
