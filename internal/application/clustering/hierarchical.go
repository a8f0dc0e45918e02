package clustering

import (
	"context"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// HierarchicalStrategy builds a Ward-linkage dendrogram over pose centers
// and cuts it either at a fixed distance threshold or at the cluster count
// with the best mean silhouette.
type HierarchicalStrategy struct {
	cfg config.HierarchicalConfig
}

func NewHierarchicalStrategy(cfg config.HierarchicalConfig) *HierarchicalStrategy {
	return &HierarchicalStrategy{cfg: cfg}
}

func (s *HierarchicalStrategy) Name() string { return StrategyHierarchical }

func (s *HierarchicalStrategy) Assign(ctx context.Context, store *pose.Store, dist pose.PairwiseDistances) ([]int, error) {
	n := store.Len()
	if n == 1 {
		return []int{0}, nil
	}

	merges, err := agglomerate(ctx, n, dist, linkWard)
	if err != nil {
		return nil, err
	}

	switch s.cfg.CutCriterion {
	case config.CutCriterionDistance:
		return labelsBelowHeight(n, merges, s.cfg.DistanceThreshold), nil
	case config.CutCriterionSilhouette:
		return s.silhouetteCut(n, merges, dist), nil
	default:
		return nil, errors.Newf(errors.ErrCodeConfiguration, "unknown cut criterion %q", s.cfg.CutCriterion)
	}
}

// silhouetteCut evaluates cuts at k = 2..min(MaxClusters, n−1) and keeps
// the one with the highest mean silhouette.  Ties go to the smaller k.
func (s *HierarchicalStrategy) silhouetteCut(n int, merges []linkMerge, dist pose.PairwiseDistances) []int {
	maxK := s.cfg.MaxClusters
	if maxK > n-1 {
		maxK = n - 1
	}
	if maxK < 2 {
		// Too few poses to compare cuts; everything is one cluster.
		return make([]int, n)
	}

	var best []int
	bestScore := -2.0
	for k := 2; k <= maxK; k++ {
		labels := labelsAtCount(n, merges, k)
		if score := meanSilhouette(labels, dist); score > bestScore {
			bestScore = score
			best = labels
		}
	}
	return best
}
