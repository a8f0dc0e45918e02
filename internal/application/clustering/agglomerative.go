package clustering

import (
	"context"
	"sort"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// AgglomerativeStrategy performs Ward-style agglomeration restricted to a
// symmetric k-nearest-neighbor connectivity graph, so merges only happen
// between spatially adjacent groups.  The cluster count is either fixed
// (TargetClusters > 0) or chosen by the variance-ratio criterion.
type AgglomerativeStrategy struct {
	cfg config.AgglomerativeConfig
}

func NewAgglomerativeStrategy(cfg config.AgglomerativeConfig) *AgglomerativeStrategy {
	return &AgglomerativeStrategy{cfg: cfg}
}

func (s *AgglomerativeStrategy) Name() string { return StrategyAgglomerative }

func (s *AgglomerativeStrategy) Assign(ctx context.Context, store *pose.Store, dist pose.PairwiseDistances) ([]int, error) {
	n := store.Len()
	if n == 1 {
		return []int{0}, nil
	}

	adjacency := knnGraph(n, s.cfg.ConnectivityK, dist)
	merges, err := s.agglomerateConstrained(ctx, store, adjacency)
	if err != nil {
		return nil, err
	}

	// The graph may be disconnected; merges stop at its component count.
	minClusters := n - len(merges)

	if s.cfg.TargetClusters > 0 {
		k := s.cfg.TargetClusters
		if k < minClusters {
			k = minClusters
		}
		if k > n {
			k = n
		}
		return labelsAtCount(n, merges, k), nil
	}

	maxK := s.cfg.MaxClusters
	if maxK > n-1 {
		maxK = n - 1
	}
	lowK := minClusters
	if lowK < 2 {
		lowK = 2
	}
	if lowK > maxK {
		return labelsAtCount(n, merges, minClusters), nil
	}

	var best []int
	bestScore := -2.0
	for k := lowK; k <= maxK; k++ {
		labels := labelsAtCount(n, merges, k)
		if score := varianceRatio(labels, store); score > bestScore {
			bestScore = score
			best = labels
		}
	}
	return best, nil
}

// knnGraph builds a symmetric k-nearest-neighbor adjacency list: an edge
// exists when either endpoint ranks the other among its k nearest.
func knnGraph(n, k int, dist pose.PairwiseDistances) [][]int {
	if k > n-1 {
		k = n - 1
	}
	adjacency := make([]map[int]struct{}, n)
	for i := range adjacency {
		adjacency[i] = make(map[int]struct{}, k)
	}

	neighbors := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		neighbors = neighbors[:0]
		for j := 0; j < n; j++ {
			if j != i {
				neighbors = append(neighbors, j)
			}
		}
		i := i
		sort.Slice(neighbors, func(a, b int) bool {
			da, db := dist.Distance(i, neighbors[a]), dist.Distance(i, neighbors[b])
			if da != db {
				return da < db
			}
			return neighbors[a] < neighbors[b]
		})
		for _, j := range neighbors[:k] {
			adjacency[i][j] = struct{}{}
			adjacency[j][i] = struct{}{}
		}
	}

	out := make([][]int, n)
	for i, set := range adjacency {
		out[i] = make([]int, 0, len(set))
		for j := range set {
			out[i] = append(out[i], j)
		}
		sort.Ints(out[i])
	}
	return out
}

type constrainedCluster struct {
	id       int
	size     int
	centroid pose.Coord
	adjacent map[int]struct{}
}

// agglomerateConstrained runs Ward merging where only graph-adjacent
// clusters may merge.  Heights are the Ward merge costs
// (n_i·n_j/(n_i+n_j))·‖c_i−c_j‖², monotone over the merge sequence for
// the replay helpers.  Dendrogram ids follow the same n+step convention
// as the unconstrained agglomeration.
func (s *AgglomerativeStrategy) agglomerateConstrained(ctx context.Context, store *pose.Store, adjacency [][]int) ([]linkMerge, error) {
	n := store.Len()
	active := make([]*constrainedCluster, n)
	for i := 0; i < n; i++ {
		adj := make(map[int]struct{}, len(adjacency[i]))
		for _, j := range adjacency[i] {
			adj[j] = struct{}{}
		}
		active[i] = &constrainedCluster{id: i, size: 1, centroid: store.Center(i), adjacent: adj}
	}
	index := make(map[int]*constrainedCluster, n)
	for _, c := range active {
		index[c.id] = c
	}

	merges := make([]linkMerge, 0, n-1)
	for step := 0; len(active) > 1; step++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCancelled, "agglomerative clustering cancelled")
		}

		var bestA, bestB *constrainedCluster
		bestCost := 0.0
		for _, a := range active {
			for bid := range a.adjacent {
				b := index[bid]
				if b == nil || a.id >= b.id {
					continue
				}
				cost := wardCost(a, b)
				tieWins := bestA != nil && cost == bestCost &&
					(a.id < bestA.id || (a.id == bestA.id && b.id < bestB.id))
				if bestA == nil || cost < bestCost || tieWins {
					bestA, bestB, bestCost = a, b, cost
				}
			}
		}
		if bestA == nil {
			break // disconnected graph, no adjacent pairs left
		}

		merged := &constrainedCluster{
			id:       n + step,
			size:     bestA.size + bestB.size,
			adjacent: make(map[int]struct{}, len(bestA.adjacent)+len(bestB.adjacent)),
		}
		wa := float64(bestA.size) / float64(merged.size)
		wb := float64(bestB.size) / float64(merged.size)
		for d := 0; d < 3; d++ {
			merged.centroid[d] = wa*bestA.centroid[d] + wb*bestB.centroid[d]
		}
		for _, src := range []*constrainedCluster{bestA, bestB} {
			for nb := range src.adjacent {
				if nb != bestA.id && nb != bestB.id {
					merged.adjacent[nb] = struct{}{}
				}
			}
		}

		delete(index, bestA.id)
		delete(index, bestB.id)
		index[merged.id] = merged
		kept := active[:0]
		for _, c := range active {
			if c != bestA && c != bestB {
				delete(c.adjacent, bestA.id)
				delete(c.adjacent, bestB.id)
				if _, ok := merged.adjacent[c.id]; ok {
					c.adjacent[merged.id] = struct{}{}
				}
				kept = append(kept, c)
			}
		}
		active = append(kept, merged)

		merges = append(merges, linkMerge{A: bestA.id, B: bestB.id, Height: bestCost})
	}
	return merges, nil
}

func wardCost(a, b *constrainedCluster) float64 {
	d := a.centroid.Dist(b.centroid)
	return float64(a.size) * float64(b.size) / float64(a.size+b.size) * d * d
}
