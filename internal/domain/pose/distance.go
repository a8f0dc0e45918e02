package pose

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// PairwiseDistances exposes Euclidean distances between pose centers.  Both
// implementations are read-only after construction and safe for concurrent
// use by the parallel clustering strategies.
type PairwiseDistances interface {
	// Distance returns the Euclidean distance between poses i and j.
	Distance(i, j int) float64

	// Len returns the number of poses covered.
	Len() int
}

// ─────────────────────────────────────────────────────────────────────────────
// Dense matrix
// ─────────────────────────────────────────────────────────────────────────────

// DistanceMatrix is a dense symmetric pairwise-distance matrix stored as the
// strict upper triangle.
type DistanceMatrix struct {
	n    int
	data []float64 // row-major upper triangle, excluding the diagonal
}

// NewDistanceMatrix precomputes all pairwise distances for the store.  It
// fails fast with a resource-limit error when the pose count exceeds
// maxPoses, surfacing the O(n²) cost instead of silently truncating.
func NewDistanceMatrix(store *Store, maxPoses int) (*DistanceMatrix, error) {
	n := store.Len()
	if n > maxPoses {
		return nil, errors.ResourceLimit("pose count exceeds O(n²) distance matrix ceiling").
			WithDetail(fmt.Sprintf("poses=%d ceiling=%d", n, maxPoses))
	}

	m := &DistanceMatrix{
		n:    n,
		data: make([]float64, n*(n-1)/2),
	}
	for i := 0; i < n; i++ {
		ci := store.Center(i)
		for j := i + 1; j < n; j++ {
			m.data[m.index(i, j)] = ci.Dist(store.Center(j))
		}
	}
	return m, nil
}

// index maps (i,j) with i<j onto the packed upper-triangle offset.
func (m *DistanceMatrix) index(i, j int) int {
	return i*(2*m.n-i-1)/2 + (j - i - 1)
}

// Distance returns the Euclidean distance between poses i and j.
func (m *DistanceMatrix) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	if i > j {
		i, j = j, i
	}
	return m.data[m.index(i, j)]
}

// Len returns the number of poses covered.
func (m *DistanceMatrix) Len() int { return m.n }

// ─────────────────────────────────────────────────────────────────────────────
// LRU-cached lazy distances
// ─────────────────────────────────────────────────────────────────────────────

// LazyDistances computes pairwise distances on demand and memoizes them in a
// bounded LRU cache.  It trades the dense matrix's O(n²) memory for repeated
// computation on cache misses, which suits workloads that touch only a
// neighborhood of each pose.
type LazyDistances struct {
	store *Store
	cache *lru.Cache[uint64, float64]
}

// NewLazyDistances builds a lazy provider over the store with a cache bound
// of cacheSize entries.
func NewLazyDistances(store *Store, cacheSize int) (*LazyDistances, error) {
	cache, err := lru.New[uint64, float64](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "invalid distance cache size")
	}
	return &LazyDistances{store: store, cache: cache}, nil
}

// Distance returns the Euclidean distance between poses i and j, computing
// and caching it on first use.
func (l *LazyDistances) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	if i > j {
		i, j = j, i
	}
	key := uint64(i)<<32 | uint64(uint32(j))
	if d, ok := l.cache.Get(key); ok {
		return d
	}
	d := l.store.Center(i).Dist(l.store.Center(j))
	l.cache.Add(key, d)
	return d
}

// Len returns the number of poses covered.
func (l *LazyDistances) Len() int { return l.store.Len() }
