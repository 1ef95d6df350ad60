package main

import (
	"testing"
	"time"

	"phototriage/internal/cluster"
	"phototriage/internal/scan"
)

func ts(value string) *time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestParseKeepPolicy(t *testing.T) {
	for value, want := range map[string]keepPolicy{
		"first": keepFirst, "Largest": keepLargest, " newest ": keepNewest,
	} {
		got, err := parseKeepPolicy(value)
		if err != nil || got != want {
			t.Fatalf("parseKeepPolicy(%q) = %v, %v; want %v", value, got, err, want)
		}
	}
	if _, err := parseKeepPolicy("best"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestKeepPolicyPick(t *testing.T) {
	group := cluster.Cluster{
		ID: 0,
		Members: []scan.Record{
			{Index: 0, RelPath: "a.jpg", Size: 100, CapturedAt: ts("2023-05-01T10:00:00Z")},
			{Index: 1, RelPath: "b.jpg", Size: 300},
			{Index: 2, RelPath: "c.jpg", Size: 200, CapturedAt: ts("2024-01-01T09:00:00Z")},
		},
		Representative: cluster.NoRepresentative,
	}

	if got := keepFirst.pick(group); got != 0 {
		t.Fatalf("first pick = %d, want 0", got)
	}
	if got := keepLargest.pick(group); got != 1 {
		t.Fatalf("largest pick = %d, want 1", got)
	}
	// Newest ignores members without a capture date.
	if got := keepNewest.pick(group); got != 2 {
		t.Fatalf("newest pick = %d, want 2", got)
	}

	// All dates missing: deterministic fallback to scan order.
	undated := cluster.Cluster{Members: []scan.Record{{Size: 1}, {Size: 1}}}
	if got := keepNewest.pick(undated); got != 0 {
		t.Fatalf("newest pick with no dates = %d, want 0", got)
	}

	// Size ties keep the earliest member.
	if got := keepLargest.pick(undated); got != 0 {
		t.Fatalf("largest pick on tie = %d, want 0", got)
	}
}
