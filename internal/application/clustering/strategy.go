// Package clustering implements the three pose-clustering strategies
// (density-based, hierarchical Ward linkage, connectivity-constrained
// agglomerative) and the consensus engine that fuses their label
// assignments into one robust partition.
package clustering

import (
	"context"

	"github.com/felipsoliveira/FTMap/internal/domain/pose"
)

// NoiseLabel marks a pose left unassigned by a strategy.  Only the
// density-based strategy may emit it; the consensus engine guarantees that
// every noise pose still ends up in exactly one output cluster.
const NoiseLabel = -1

// Strategy is the polymorphic clustering contract.  Implementations are
// stateless with respect to the inputs: the store and distance provider are
// read-only, and the returned label slice is freshly allocated per call, so
// strategies can run concurrently over the same inputs.
//
// Labels are contiguous integers starting at 0, ordered by the smallest
// pose index they contain; this canonical numbering makes strategy output
// deterministic and directly comparable across runs.
type Strategy interface {
	// Name returns the stable strategy identifier used in logs and results.
	Name() string

	// Assign produces one integer label per pose.
	Assign(ctx context.Context, store *pose.Store, dist pose.PairwiseDistances) ([]int, error)
}

// Canonical strategy names.
const (
	StrategyDensity       = "density"
	StrategyHierarchical  = "hierarchical"
	StrategyAgglomerative = "agglomerative"
)

// canonicalize renumbers labels to contiguous integers starting at 0 in
// order of first appearance by pose index, leaving NoiseLabel untouched.
func canonicalize(labels []int) []int {
	next := 0
	seen := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if l == NoiseLabel {
			out[i] = NoiseLabel
			continue
		}
		c, ok := seen[l]
		if !ok {
			c = next
			seen[l] = c
			next++
		}
		out[i] = c
	}
	return out
}

// countClusters returns the number of distinct non-noise labels.
func countClusters(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		if l != NoiseLabel {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

// groupByLabel returns the member indices of each non-noise label, keyed by
// label, with members in ascending pose order.
func groupByLabel(labels []int) map[int][]int {
	groups := make(map[int][]int)
	for i, l := range labels {
		if l == NoiseLabel {
			continue
		}
		groups[l] = append(groups[l], i)
	}
	return groups
}
