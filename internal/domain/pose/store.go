package pose

import (
	"math"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Store owns all poses for the lifetime of one analysis run.  It is built
// once from a validated batch and is read-only thereafter, so it can be
// shared freely across the parallel clustering strategies.
type Store struct {
	poses []Pose
}

// NewStore validates the raw batch and builds an immutable Store.  Any
// record with non-finite coordinates, affinity, or RMSD bounds rejects the
// whole batch with a validation error, as does an empty batch.
func NewStore(batch []Pose) (*Store, error) {
	if len(batch) == 0 {
		return nil, errors.Validation("pose batch is empty")
	}
	for i := range batch {
		if err := batch[i].validate(i); err != nil {
			return nil, err
		}
	}

	poses := make([]Pose, len(batch))
	copy(poses, batch)
	return &Store{poses: poses}, nil
}

// Len returns the number of poses.
func (s *Store) Len() int { return len(s.poses) }

// At returns the pose at index i.
func (s *Store) At(i int) Pose { return s.poses[i] }

// Center returns the center coordinate of pose i.
func (s *Store) Center(i int) Coord { return s.poses[i].Center }

// Affinity returns the binding energy of pose i.
func (s *Store) Affinity(i int) float64 { return s.poses[i].Affinity }

// ProbeID returns the chemical species tag of pose i.
func (s *Store) ProbeID(i int) string { return s.poses[i].ProbeID }

// Centers returns a fresh slice of all center coordinates in index order.
func (s *Store) Centers() []Coord {
	out := make([]Coord, len(s.poses))
	for i := range s.poses {
		out[i] = s.poses[i].Center
	}
	return out
}

// BoltzmannWeights returns w_i = exp(−β·E_i) for every pose.  The weights
// bias cluster centroids toward energetically favorable placements; they
// are not normalized here because consumers normalize per cluster.
func (s *Store) BoltzmannWeights(beta float64) []float64 {
	w := make([]float64, len(s.poses))
	for i := range s.poses {
		w[i] = math.Exp(-beta * s.poses[i].Affinity)
	}
	return w
}
