package clustering

import (
	"context"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// DensityStrategy groups poses whose centers have at least MinPts
// neighbours (the point itself included) within radius Eps, with classic
// core/border/noise semantics: clusters are connected components of core
// points plus their reachable neighbours, and unreachable points receive
// NoiseLabel.
//
// The strategy is deterministic: points are visited in ascending pose
// index and neighbourhoods expand through a FIFO queue, so identical
// inputs always produce identical labels.
type DensityStrategy struct {
	cfg config.DensityConfig
}

// NewDensityStrategy constructs the strategy; cfg is assumed validated.
func NewDensityStrategy(cfg config.DensityConfig) *DensityStrategy {
	return &DensityStrategy{cfg: cfg}
}

// Name returns StrategyDensity.
func (s *DensityStrategy) Name() string { return StrategyDensity }

// Assign implements Strategy.
func (s *DensityStrategy) Assign(ctx context.Context, store *pose.Store, dist pose.PairwiseDistances) ([]int, error) {
	n := store.Len()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = NoiseLabel
	}

	const unvisited = -2
	state := make([]int, n) // unvisited, or assigned cluster, or NoiseLabel
	for i := range state {
		state[i] = unvisited
	}

	neighbours := func(i int) []int {
		var out []int
		for j := 0; j < n; j++ {
			if j != i && dist.Distance(i, j) <= s.cfg.Eps {
				out = append(out, j)
			}
		}
		return out
	}

	next := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCancelled, "density clustering cancelled")
		}
		if state[i] != unvisited {
			continue
		}

		nb := neighbours(i)
		if len(nb)+1 < s.cfg.MinPts {
			state[i] = NoiseLabel
			continue
		}

		// i is a core point: start a new cluster and expand breadth-first.
		cluster := next
		next++
		state[i] = cluster

		queue := append([]int(nil), nb...)
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]

			if state[p] == NoiseLabel {
				// Previously noise, now reachable: border point.
				state[p] = cluster
			}
			if state[p] != unvisited {
				continue
			}
			state[p] = cluster

			pb := neighbours(p)
			if len(pb)+1 >= s.cfg.MinPts {
				// p is core too; its neighbourhood joins the expansion.
				queue = append(queue, pb...)
			}
		}
	}

	copy(labels, state)
	return canonicalize(labels), nil
}
