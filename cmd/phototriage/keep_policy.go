package main

import (
	"fmt"
	"strings"

	"phototriage/internal/cluster"
)

// keepPolicy decides which member of a duplicate group survives dedupe.
type keepPolicy int

const (
	keepFirst keepPolicy = iota
	keepLargest
	keepNewest
)

func parseKeepPolicy(value string) (keepPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "first":
		return keepFirst, nil
	case "largest":
		return keepLargest, nil
	case "newest":
		return keepNewest, nil
	default:
		return 0, fmt.Errorf("keep policy must be first, largest, or newest; got %q", value)
	}
}

func (p keepPolicy) String() string {
	switch p {
	case keepLargest:
		return "largest"
	case keepNewest:
		return "newest"
	default:
		return "first"
	}
}

// pick returns the member index to keep. Ties and missing capture dates fall
// back to scan order, so the choice is deterministic for a given scan.
func (p keepPolicy) pick(group cluster.Cluster) int {
	best := 0
	switch p {
	case keepLargest:
		for i, member := range group.Members {
			if member.Size > group.Members[best].Size {
				best = i
			}
		}
	case keepNewest:
		for i, member := range group.Members {
			if member.CapturedAt == nil {
				continue
			}
			current := group.Members[best].CapturedAt
			if current == nil || member.CapturedAt.After(*current) {
				best = i
			}
		}
	}
	return best
}
