package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipsoliveira/FTMap/internal/application/analysis"
	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/hotspot"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
)

// writeStumpModel serializes a minimal one-tree model whose prediction is
// constant, so the blended score is easy to verify end to end.
func writeStumpModel(t *testing.T, value float64) string {
	t.Helper()
	model := map[string]interface{}{
		"version":       1,
		"feature_count": hotspot.FeatureCount,
		"base_score":    0.0,
		"trees": []map[string]interface{}{
			{"nodes": []map[string]interface{}{
				{"leaf": true, "value": value},
			}},
		},
	}
	raw, err := json.Marshal(model)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func syntheticBatch() []pose.Pose {
	probes := []string{"ethanol", "benzene", "water", "acetone", "ethane"}
	var poses []pose.Pose
	for g, origin := range []pose.Coord{{0, 0, 0}, {50, 0, 0}, {0, 50, 0}} {
		for i := 0; i < 6; i++ {
			poses = append(poses, pose.Pose{
				ProbeID: probes[(g+i)%len(probes)],
				Center: pose.Coord{
					origin[0] + float64(i%2),
					origin[1] + float64(i/2),
					origin[2],
				},
				Affinity: -4.5 + 0.2*float64(i) + 0.5*float64(g),
			})
		}
	}
	return poses
}

func TestPipelineWithBlendedModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scoring.ModelPath = writeStumpModel(t, 0.4)
	cfg.Scoring.ModelBlend = 0.5
	cfg.Log.Level = "error"

	analyzer, err := analysis.NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.NoError(t, err)

	result, err := analyzer.Run(context.Background(), syntheticBatch())
	require.NoError(t, err)

	assert.True(t, result.ModelUsed)
	require.Len(t, result.Clusters, 3)
	for _, rec := range result.Clusters {
		require.True(t, rec.Scores.HasModel)
		assert.InDelta(t, 0.4, rec.Scores.ModelScore, 1e-12)
		expected := 0.5*rec.Scores.FormulaScore + 0.5*rec.Scores.ModelScore
		assert.InDelta(t, expected, rec.Scores.Score, 1e-12,
			"blend must combine both components for cluster %d", rec.ClusterID)
		assert.GreaterOrEqual(t, rec.Scores.Score, 0.0)
		assert.LessOrEqual(t, rec.Scores.Score, 1.0)
	}
}

func TestPipelineCustomProbeLibrary(t *testing.T) {
	libraryYAML := `probes:
  custom-frag:
    molecular_weight: 92.1
    logp: 0.4
    hbond_donors: 1
    hbond_acceptors: 2
    polar_surface_area: 35.0
    polar: true
`
	path := filepath.Join(t.TempDir(), "probes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(libraryYAML), 0o600))

	cfg := config.DefaultConfig()
	cfg.Analysis.ProbeLibraryPath = path

	analyzer, err := analysis.NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.NoError(t, err)

	var poses []pose.Pose
	for i := 0; i < 5; i++ {
		poses = append(poses, pose.Pose{
			ProbeID:  "custom-frag",
			Center:   pose.Coord{float64(i % 2), float64(i / 2), 0},
			Affinity: -4.0,
		})
	}
	result, err := analyzer.Run(context.Background(), poses)
	require.NoError(t, err)

	require.NotEmpty(t, result.Clusters)
	for _, rec := range result.Clusters {
		assert.InDelta(t, 92.1, rec.Features.Chemical.MolecularWeightMean, 1e-9)
		assert.Equal(t, 1, rec.Features.Consensus.ProbeDiversity)
	}
}

func TestPipelineLargeBatchStaysBounded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping larger synthetic batch in short mode")
	}

	var poses []pose.Pose
	for c := 0; c < 5; c++ {
		origin := pose.Coord{float64(c * 40), 0, 0}
		for i := 0; i < 40; i++ {
			poses = append(poses, pose.Pose{
				ProbeID: fmt.Sprintf("probe-%d", i%3),
				Center: pose.Coord{
					origin[0] + float64(i%5),
					origin[1] + float64((i/5)%4),
					origin[2] + float64(i/20),
				},
				Affinity: -5.0 + 0.05*float64(i),
			})
		}
	}

	analyzer, err := analysis.NewAnalyzer(config.DefaultConfig(), logging.NewNopLogger(), nil)
	require.NoError(t, err)
	result, err := analyzer.Run(context.Background(), poses)
	require.NoError(t, err)

	assert.Equal(t, 200, result.PoseCount)
	assert.NotEmpty(t, result.Clusters)
	total := 0
	for _, rec := range result.Clusters {
		total += len(rec.Members)
	}
	assert.Equal(t, 200, total, "partition covers every pose exactly once")
}
