// Package cluster partitions fingerprinted images into similarity groups.
//
// Grouping is transitive: if A is within threshold of B and B of C, all
// three share a cluster even when A and C are farther apart. Union-find
// makes the partition order-independent; deterministic presentation order
// comes from sorting members by scan order during readout.
package cluster
