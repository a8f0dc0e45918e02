package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureVectorValidate(t *testing.T) {
	fv := &FeatureVector{}
	fv.Spatial.AspectRatio = 1
	require.NoError(t, fv.Validate())

	fv.Energetic.MeanAffinity = math.NaN()
	assert.Error(t, fv.Validate())

	fv.Energetic.MeanAffinity = -4.2
	fv.Interaction.ElectrostaticPotential = math.Inf(1)
	assert.Error(t, fv.Validate())
}

func TestResultTop(t *testing.T) {
	r := &Result{Clusters: []ClusterRecord{
		{ClusterID: 0, Rank: 1},
		{ClusterID: 2, Rank: 2},
		{ClusterID: 1, Rank: 3},
	}}

	top := r.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 2, top[1].Rank)

	assert.Len(t, r.Top(10), 3)
	assert.Empty(t, r.Top(0))
}
