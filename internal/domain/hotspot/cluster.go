// Package hotspot defines the consensus cluster entity and the fixed
// feature-vector schema attached to it.  A fixed struct schema rather than a
// dynamic map guarantees at construction time that no feature is missing,
// even for degenerate clusters.
package hotspot

import (
	"fmt"
	"sort"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Cluster is a consensus group of poses representing one candidate binding
// region.  It is created by the consensus engine, enriched by the feature
// extractor and scorer, and read-only thereafter.
type Cluster struct {
	// ID is the cluster identifier, contiguous from 0 in consensus output
	// order.
	ID int

	// Members holds the pose indices in ascending order.  Non-empty, no
	// duplicates; a pose belongs to at most one consensus cluster.
	Members []int

	// ConsensusScore is the mean intra-cluster co-association, in [0,1].
	// Singletons carry 1 by convention (a single pose always agrees with
	// itself).
	ConsensusScore float64

	// StrategyAgreement is the fraction of contributing strategy weight
	// whose partitions keep this cluster's members together, in [0,1].
	StrategyAgreement float64

	// LowConfidence flags clusters produced by the degenerate-consensus
	// fallback path, where fewer than two strategies yielded a usable
	// partition.
	LowConfidence bool

	// Features is populated by the feature extractor; nil until then.
	Features *FeatureVector
}

// NewCluster builds a cluster over the given pose indices.  The member list
// is copied and sorted; empty or duplicated membership is rejected.
func NewCluster(id int, members []int, consensusScore float64) (*Cluster, error) {
	if len(members) == 0 {
		return nil, errors.Internal("cluster must have at least one member").
			WithDetail(fmt.Sprintf("id=%d", id))
	}
	sorted := make([]int, len(members))
	copy(sorted, members)
	sort.Ints(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, errors.Internal("cluster has duplicate member").
				WithDetail(fmt.Sprintf("id=%d pose=%d", id, sorted[i]))
		}
	}
	return &Cluster{
		ID:             id,
		Members:        sorted,
		ConsensusScore: consensusScore,
	}, nil
}

// Size returns the member pose count.
func (c *Cluster) Size() int { return len(c.Members) }

// String identifies the cluster in logs and error details.
func (c *Cluster) String() string {
	return fmt.Sprintf("cluster %d (%d poses)", c.ID, len(c.Members))
}
