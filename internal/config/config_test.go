package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phototriage/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Scan.Threshold != config.DefaultThreshold {
		t.Fatalf("unexpected default threshold %d", cfg.Scan.Threshold)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[scan]
threshold = 3
extensions = ["JPG", "png"]

[organize]
period = "week"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path %q, want %q", resolved, path)
	}
	if cfg.Scan.Threshold != 3 {
		t.Fatalf("threshold = %d, want 3", cfg.Scan.Threshold)
	}
	if got := cfg.Scan.Extensions; len(got) != 2 || got[0] != ".jpg" || got[1] != ".png" {
		t.Fatalf("extensions not normalized: %v", got)
	}
	if cfg.Organize.Period != "week" {
		t.Fatalf("period = %q, want week", cfg.Organize.Period)
	}
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[scan]\nthreshold = 21\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected threshold 21 to be rejected")
	} else if !strings.Contains(err.Error(), "threshold") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsUnknownPeriod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[organize]\nperiod = \"decade\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown period to be rejected")
	}
}

func TestRecognizesExtension(t *testing.T) {
	cfg := config.Default()
	cases := []struct {
		path string
		want bool
	}{
		{"a/b/photo.JPG", true},
		{"photo.jpeg", true},
		{"photo.webp", true},
		{"notes.txt", false},
		{"archive.jpg.zip", false},
	}
	for _, tc := range cases {
		if got := cfg.RecognizesExtension(tc.path); got != tc.want {
			t.Errorf("RecognizesExtension(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sample.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, _, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config must load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config must validate: %v", err)
	}
}
