package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

func validBatch() []Pose {
	return []Pose{
		{ProbeID: "ethanol", Center: Coord{0, 0, 0}, Affinity: -4.2},
		{ProbeID: "benzene", Center: Coord{1, 2, 2}, Affinity: -3.1},
		{ProbeID: "water", Center: Coord{-1, 0, 1}, Affinity: -1.0},
	}
}

func TestCoord_Math(t *testing.T) {
	a := Coord{1, 2, 3}
	b := Coord{4, 6, 3}
	assert.Equal(t, Coord{3, 4, 0}, b.Sub(a))
	assert.InDelta(t, 5.0, a.Dist(b), 1e-12)
	assert.InDelta(t, math.Sqrt(14), a.Norm(), 1e-12)
}

func TestNewStore_Valid(t *testing.T) {
	s, err := NewStore(validBatch())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "benzene", s.ProbeID(1))
	assert.Equal(t, -1.0, s.Affinity(2))
	assert.Equal(t, Coord{1, 2, 2}, s.Center(1))
}

func TestNewStore_CopiesBatch(t *testing.T) {
	batch := validBatch()
	s, err := NewStore(batch)
	require.NoError(t, err)

	batch[0].Affinity = 99
	assert.Equal(t, -4.2, s.Affinity(0))
}

func TestNewStore_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Pose) []Pose
	}{
		{"empty_batch", func(b []Pose) []Pose { return nil }},
		{"nan_coordinate", func(b []Pose) []Pose { b[1].Center[0] = math.NaN(); return b }},
		{"inf_coordinate", func(b []Pose) []Pose { b[2].Center[2] = math.Inf(1); return b }},
		{"nan_affinity", func(b []Pose) []Pose { b[0].Affinity = math.NaN(); return b }},
		{"inf_affinity", func(b []Pose) []Pose { b[0].Affinity = math.Inf(-1); return b }},
		{"nan_rmsd", func(b []Pose) []Pose { b[1].RMSDUpperBound = math.NaN(); return b }},
		{"empty_probe_id", func(b []Pose) []Pose { b[0].ProbeID = ""; return b }},
		{"nan_atom_coord", func(b []Pose) []Pose {
			b[2].AtomCoords = []Coord{{0, 0, 0}, {math.NaN(), 1, 1}}
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.mutate(validBatch()))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
		})
	}
}

func TestBoltzmannWeights(t *testing.T) {
	s, err := NewStore(validBatch())
	require.NoError(t, err)

	beta := 1.689
	w := s.BoltzmannWeights(beta)
	require.Len(t, w, 3)
	for i := range w {
		assert.InDelta(t, math.Exp(-beta*s.Affinity(i)), w[i], 1e-12)
	}
	// Lower (more favorable) energy gets a strictly larger weight.
	assert.Greater(t, w[0], w[1])
	assert.Greater(t, w[1], w[2])
}

func TestDistanceMatrix(t *testing.T) {
	s, err := NewStore(validBatch())
	require.NoError(t, err)

	m, err := NewDistanceMatrix(s, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	for i := 0; i < 3; i++ {
		assert.Zero(t, m.Distance(i, i))
		for j := 0; j < 3; j++ {
			assert.InDelta(t, s.Center(i).Dist(s.Center(j)), m.Distance(i, j), 1e-12)
			assert.Equal(t, m.Distance(i, j), m.Distance(j, i))
		}
	}
}

func TestDistanceMatrix_CeilingExceeded(t *testing.T) {
	s, err := NewStore(validBatch())
	require.NoError(t, err)

	_, err = NewDistanceMatrix(s, 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceLimit))
	assert.False(t, errors.IsFatal(errors.GetCode(err)))
}

func TestLazyDistances_MatchesDense(t *testing.T) {
	s, err := NewStore(validBatch())
	require.NoError(t, err)

	dense, err := NewDistanceMatrix(s, 100)
	require.NoError(t, err)
	lazy, err := NewLazyDistances(s, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, dense.Distance(i, j), lazy.Distance(i, j), 1e-12)
		}
	}
	// Cached second read returns the same value.
	assert.Equal(t, lazy.Distance(0, 1), lazy.Distance(1, 0))
}

func TestNewLazyDistances_BadCacheSize(t *testing.T) {
	s, err := NewStore(validBatch())
	require.NoError(t, err)

	_, err = NewLazyDistances(s, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}
