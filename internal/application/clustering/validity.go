package clustering

import (
	"math"

	"github.com/felipsoliveira/FTMap/internal/domain/pose"
)

// meanSilhouette computes the mean silhouette coefficient over all poses
// for the given labels.  Members of singleton clusters contribute 0 by the
// usual convention, and fewer than two clusters yields −1 so degenerate
// cuts always lose a comparison.
func meanSilhouette(labels []int, dist pose.PairwiseDistances) float64 {
	groups := groupByLabel(labels)
	if len(groups) < 2 {
		return -1
	}

	n := len(labels)
	var total float64
	for i := 0; i < n; i++ {
		own := labels[i]
		if own == NoiseLabel || len(groups[own]) < 2 {
			continue // contributes 0
		}

		// a: mean distance to own cluster, excluding self.
		var a float64
		for _, j := range groups[own] {
			if j != i {
				a += dist.Distance(i, j)
			}
		}
		a /= float64(len(groups[own]) - 1)

		// b: smallest mean distance to any other cluster.
		b := math.Inf(1)
		for l, members := range groups {
			if l == own {
				continue
			}
			var sum float64
			for _, j := range members {
				sum += dist.Distance(i, j)
			}
			if m := sum / float64(len(members)); m < b {
				b = m
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}

// varianceRatio computes the Calinski–Harabasz index: between-cluster
// dispersion over within-cluster dispersion, scaled by the degrees of
// freedom.  Higher is better; fewer than two clusters yields −1.
func varianceRatio(labels []int, store *pose.Store) float64 {
	groups := groupByLabel(labels)
	k := len(groups)
	n := len(labels)
	if k < 2 || k >= n {
		return -1
	}

	var overall pose.Coord
	for i := 0; i < n; i++ {
		c := store.Center(i)
		overall[0] += c[0]
		overall[1] += c[1]
		overall[2] += c[2]
	}
	overall[0] /= float64(n)
	overall[1] /= float64(n)
	overall[2] /= float64(n)

	var between, within float64
	for _, members := range groups {
		var centroid pose.Coord
		for _, i := range members {
			c := store.Center(i)
			centroid[0] += c[0]
			centroid[1] += c[1]
			centroid[2] += c[2]
		}
		m := float64(len(members))
		centroid[0] /= m
		centroid[1] /= m
		centroid[2] /= m

		d := centroid.Dist(overall)
		between += m * d * d
		for _, i := range members {
			di := store.Center(i).Dist(centroid)
			within += di * di
		}
	}

	if within == 0 {
		return math.Inf(1)
	}
	return (between / float64(k-1)) / (within / float64(n-k))
}
