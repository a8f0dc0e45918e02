package clustering

import (
	"context"
	"math"

	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// linkageMethod selects the Lance–Williams update rule used during
// agglomeration.
type linkageMethod int

const (
	linkWard linkageMethod = iota
	linkAverage
	linkComplete
)

// linkMerge records one agglomeration step.  Following the usual dendrogram
// convention, items 0..n−1 are singleton clusters and the merge at step s
// creates cluster n+s from clusters A and B at the given height.
type linkMerge struct {
	A, B   int
	Height float64
}

// agglomerate runs naive nearest-pair agglomeration over n items and
// returns the full merge sequence of n−1 steps.  Pair selection is
// deterministic: the lowest merge cost wins, ties broken by the smaller
// cluster id pair.  dist must be symmetric; for Ward it is interpreted as
// plain Euclidean distance and squared internally.
//
// The implementation is O(n³) time and O(n²) memory, which is acceptable
// because every caller already holds an O(n²) structure and the pose
// ceiling is enforced upstream.
func agglomerate(ctx context.Context, n int, dist pose.PairwiseDistances, method linkageMethod) ([]linkMerge, error) {
	if n == 0 {
		return nil, errors.Internal("agglomerate called with zero items")
	}
	if n == 1 {
		return nil, nil
	}

	// Active working set: ids[p] is the cluster id at position p, d[p][q]
	// its current linkage distance (squared for Ward).
	ids := make([]int, n)
	sizes := make([]int, n)
	d := make([][]float64, n)
	for p := 0; p < n; p++ {
		ids[p] = p
		sizes[p] = 1
		d[p] = make([]float64, n)
	}
	for p := 0; p < n; p++ {
		for q := p + 1; q < n; q++ {
			v := dist.Distance(p, q)
			if method == linkWard {
				v *= v
			}
			d[p][q] = v
			d[q][p] = v
		}
	}

	merges := make([]linkMerge, 0, n-1)
	active := n

	for step := 0; active > 1; step++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCancelled, "agglomeration cancelled")
		}

		// Find the cheapest active pair; ties resolve to the smaller id pair
		// so the merge order is reproducible.
		bi, bj := -1, -1
		best := math.Inf(1)
		for p := 0; p < active; p++ {
			for q := p + 1; q < active; q++ {
				v := d[p][q]
				if v < best || (v == best && better(ids[p], ids[q], bi, bj, ids)) {
					best = v
					bi, bj = p, q
				}
			}
		}

		height := best
		if method == linkWard {
			height = math.Sqrt(best)
		}
		merges = append(merges, linkMerge{A: ids[bi], B: ids[bj], Height: height})

		// Lance–Williams update of every remaining cluster against the new
		// merged cluster, written into position bi.
		ni := float64(sizes[bi])
		nj := float64(sizes[bj])
		dij := d[bi][bj]
		for p := 0; p < active; p++ {
			if p == bi || p == bj {
				continue
			}
			nk := float64(sizes[p])
			var v float64
			switch method {
			case linkWard:
				v = ((ni+nk)*d[bi][p] + (nj+nk)*d[bj][p] - nk*dij) / (ni + nj + nk)
			case linkAverage:
				v = (ni*d[bi][p] + nj*d[bj][p]) / (ni + nj)
			case linkComplete:
				v = math.Max(d[bi][p], d[bj][p])
			}
			d[bi][p] = v
			d[p][bi] = v
		}
		ids[bi] = n + step
		sizes[bi] += sizes[bj]

		// Compact: move the last active position into bj.
		last := active - 1
		if bj != last {
			ids[bj] = ids[last]
			sizes[bj] = sizes[last]
			for p := 0; p < active; p++ {
				d[bj][p] = d[last][p]
				d[p][bj] = d[p][last]
			}
			d[bj][bj] = 0
		}
		active--
	}

	return merges, nil
}

// better reports whether candidate pair (a,b) precedes the current best
// pair (ids[ci], ids[cj]) in the deterministic tie order.
func better(a, b, ci, cj int, ids []int) bool {
	if ci < 0 {
		return true
	}
	ba, bb := ids[ci], ids[cj]
	if a != ba {
		return a < ba
	}
	return b < bb
}

// labelsAtCount replays the merge sequence until k clusters remain and
// returns canonical labels.  k is clamped to [1, n].
func labelsAtCount(n int, merges []linkMerge, k int) []int {
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return replay(n, merges, n-k)
}

// labelsBelowHeight replays every merge whose height is strictly below the
// threshold and returns canonical labels.  Linkage heights are
// non-decreasing for the supported methods, so this is a proper dendrogram
// cut.
func labelsBelowHeight(n int, merges []linkMerge, threshold float64) []int {
	steps := 0
	for _, m := range merges {
		if m.Height >= threshold {
			break
		}
		steps++
	}
	return replay(n, merges, steps)
}

// replay applies the first steps merges through a union-find structure and
// produces canonical labels.
func replay(n int, merges []linkMerge, steps int) []int {
	parent := make([]int, n+steps)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for s := 0; s < steps; s++ {
		m := merges[s]
		ra, rb := find(m.A), find(m.B)
		merged := n + s
		parent[ra] = merged
		parent[rb] = merged
	}

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = find(i)
	}
	return canonicalize(labels)
}
