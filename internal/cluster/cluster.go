package cluster

import (
	"fmt"

	"phototriage/internal/config"
	"phototriage/internal/dhash"
	"phototriage/internal/scan"
	"phototriage/internal/services"
)

// NoRepresentative marks a cluster whose keeper has not been chosen yet.
const NoRepresentative = -1

// Cluster is one similarity group. Members are ordered ascending by scan
// order; Representative indexes into Members once the user has chosen.
type Cluster struct {
	ID             int           `json:"id"`
	Members        []scan.Record `json:"members"`
	Representative int           `json:"representative"`
}

// IsDuplicateGroup reports whether the cluster holds more than one image.
// Singleton clusters are excluded from duplicate review.
func (c Cluster) IsDuplicateGroup() bool {
	return len(c.Members) > 1
}

// Chosen reports whether a representative has been set.
func (c Cluster) Chosen() bool {
	return c.Representative != NoRepresentative
}

// Discards returns the members that would be relocated: everything except
// the representative.
func (c Cluster) Discards() []scan.Record {
	if !c.Chosen() {
		return nil
	}
	discards := make([]scan.Record, 0, len(c.Members)-1)
	for i, member := range c.Members {
		if i != c.Representative {
			discards = append(discards, member)
		}
	}
	return discards
}

// Partition groups records whose pairwise Hamming distance is at most
// threshold, using a single union-find pass over all pairs. The result is a
// true partition: every record lands in exactly one cluster, clusters are
// ordered by the scan order of their first member, and members within a
// cluster keep ascending scan order.
//
// The comparison is O(n²) over the record count, which is intentional for
// single-folder scans; anything replacing it must still find every pair
// within threshold distance.
func Partition(records []scan.Record, threshold int) ([]Cluster, error) {
	if threshold < config.MinThreshold || threshold > config.MaxThreshold {
		return nil, services.Wrap(services.ErrConfiguration, "clustering", "validate threshold",
			fmt.Sprintf("threshold %d outside [%d, %d]", threshold, config.MinThreshold, config.MaxThreshold), nil)
	}

	n := len(records)
	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dhash.Distance(records[i].Hash, records[j].Hash) <= threshold {
				uf.union(i, j)
			}
		}
	}

	memberIndexes := make(map[int][]int, n)
	var rootOrder []int
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if _, seen := memberIndexes[root]; !seen {
			rootOrder = append(rootOrder, root)
		}
		memberIndexes[root] = append(memberIndexes[root], i)
	}

	clusters := make([]Cluster, 0, len(rootOrder))
	for id, root := range rootOrder {
		indexes := memberIndexes[root]
		members := make([]scan.Record, 0, len(indexes))
		for _, idx := range indexes {
			members = append(members, records[idx])
		}
		clusters = append(clusters, Cluster{
			ID:             id,
			Members:        members,
			Representative: NoRepresentative,
		})
	}
	return clusters, nil
}

// Duplicates filters the partition down to the user-facing duplicate groups.
func Duplicates(clusters []Cluster) []Cluster {
	var groups []Cluster
	for _, c := range clusters {
		if c.IsDuplicateGroup() {
			groups = append(groups, c)
		}
	}
	return groups
}

// Choose returns a copy of c with the representative set to the given member
// index. Choosing is a one-shot decision: once set, the representative never
// changes within a session.
func Choose(c Cluster, index int) (Cluster, error) {
	if index < 0 || index >= len(c.Members) {
		return c, services.Wrap(services.ErrValidation, "clustering", "choose representative",
			fmt.Sprintf("member index %d outside cluster of %d", index, len(c.Members)), nil)
	}
	if c.Chosen() && c.Representative != index {
		return c, services.Wrap(services.ErrValidation, "clustering", "choose representative",
			fmt.Sprintf("cluster %d already keeps member %d", c.ID, c.Representative), nil)
	}
	c.Representative = index
	return c, nil
}
