package cluster_test

import (
	"errors"
	"fmt"
	"testing"

	"phototriage/internal/cluster"
	"phototriage/internal/scan"
	"phototriage/internal/services"
)

func records(hashes ...uint64) []scan.Record {
	recs := make([]scan.Record, len(hashes))
	for i, h := range hashes {
		recs[i] = scan.Record{
			Index:   i,
			Path:    fmt.Sprintf("/photos/%c.jpg", 'a'+i),
			RelPath: fmt.Sprintf("%c.jpg", 'a'+i),
			Hash:    h,
		}
	}
	return recs
}

func TestPartitionIsAPartition(t *testing.T) {
	recs := records(0x0, 0x1, 0xff00ff00ff00ff00, 0xff00ff00ff00ff01)

	clusters, err := cluster.Partition(recs, 2)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}

	seen := map[string]int{}
	total := 0
	for _, c := range clusters {
		for _, m := range c.Members {
			seen[m.Path]++
			total++
		}
	}
	if total != len(recs) {
		t.Fatalf("partition covers %d records, want %d", total, len(recs))
	}
	for path, count := range seen {
		if count != 1 {
			t.Fatalf("record %s appears in %d clusters", path, count)
		}
	}
}

func TestPartitionScenarioTwoCloseOneFar(t *testing.T) {
	// Pairwise Hamming distances: a-b = 2, b-c and a-c well above 8.
	a := uint64(0)
	b := uint64(0b11)
	c := uint64(0xffff000000000000)

	clusters, err := cluster.Partition(records(a, b, c), 8)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(clusters))
	}

	dups := cluster.Duplicates(clusters)
	if len(dups) != 1 {
		t.Fatalf("duplicate groups = %d, want 1", len(dups))
	}
	if len(dups[0].Members) != 2 {
		t.Fatalf("duplicate group size = %d, want 2", len(dups[0].Members))
	}
	if dups[0].Members[0].RelPath != "a.jpg" || dups[0].Members[1].RelPath != "b.jpg" {
		t.Fatalf("members out of scan order: %v", dups[0].Members)
	}
}

func TestPartitionZeroThresholdGroupsOnlyIdentical(t *testing.T) {
	clusters, err := cluster.Partition(records(7, 7, 6), 0)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("identical fingerprints should share a cluster, got sizes %d and %d",
			len(clusters[0].Members), len(clusters[1].Members))
	}
}

func TestPartitionThresholdMonotonic(t *testing.T) {
	recs := records(0x00, 0x03, 0x0f, 0xf0f0f0f0f0f0f0f0, 0xffffffffffffffff)

	previous := -1
	for threshold := 0; threshold <= 20; threshold++ {
		clusters, err := cluster.Partition(recs, threshold)
		if err != nil {
			t.Fatalf("Partition(threshold=%d): %v", threshold, err)
		}
		if previous != -1 && len(clusters) > previous {
			t.Fatalf("raising threshold to %d split clusters: %d -> %d", threshold, previous, len(clusters))
		}
		previous = len(clusters)
	}
}

func TestPartitionRejectsOutOfRangeThreshold(t *testing.T) {
	for _, threshold := range []int{-1, 21, 100} {
		_, err := cluster.Partition(records(1, 2), threshold)
		if !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("threshold %d: expected ErrConfiguration, got %v", threshold, err)
		}
	}
}

func TestPartitionEmptyInput(t *testing.T) {
	clusters, err := cluster.Partition(nil, 8)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("clusters = %d, want 0", len(clusters))
	}
}

func TestChoose(t *testing.T) {
	clusters, err := cluster.Partition(records(1, 1, 1), 0)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	group := clusters[0]

	chosen, err := cluster.Choose(group, 1)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if chosen.Representative != 1 {
		t.Fatalf("representative = %d, want 1", chosen.Representative)
	}
	if group.Representative != cluster.NoRepresentative {
		t.Fatal("Choose must not mutate its input")
	}

	discards := chosen.Discards()
	if len(discards) != 2 {
		t.Fatalf("discards = %d, want 2", len(discards))
	}

	// Re-choosing the same member is a no-op; a different member is refused.
	if _, err := cluster.Choose(chosen, 1); err != nil {
		t.Fatalf("idempotent re-choose failed: %v", err)
	}
	if _, err := cluster.Choose(chosen, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation on changing representative, got %v", err)
	}
	if _, err := cluster.Choose(group, 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation on out-of-range index, got %v", err)
	}
}
