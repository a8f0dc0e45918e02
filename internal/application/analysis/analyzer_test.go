package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
	promx "github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/prometheus"
	"github.com/felipsoliveira/FTMap/pkg/errors"
	analysistypes "github.com/felipsoliveira/FTMap/pkg/types/analysis"
)

func newAnalyzer(t *testing.T, cfg *config.Config) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	return a
}

// jitteredGroup lays out n poses around origin with small offsets so the
// group is tight but not degenerate.
func jitteredGroup(origin pose.Coord, n int, affinity float64, probes []string) []pose.Pose {
	offsets := []pose.Coord{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {1, 0, 1},
		{0, 1, 1}, {1, 1, 1},
	}
	poses := make([]pose.Pose, n)
	for i := 0; i < n; i++ {
		off := offsets[i%len(offsets)]
		poses[i] = pose.Pose{
			ProbeID: probes[i%len(probes)],
			Center: pose.Coord{
				origin[0] + off[0],
				origin[1] + off[1],
				origin[2] + off[2],
			},
			Affinity: affinity + 0.1*float64(i%3),
		}
	}
	return poses
}

// scenarioAPoses builds two well-separated six-pose groups: a diverse
// ideal-energy group and a single-probe weak group.
func scenarioAPoses() []pose.Pose {
	strong := jitteredGroup(pose.Coord{0, 0, 0}, 6, -4.2,
		[]string{"ethanol", "benzene", "water", "acetone"})
	weak := jitteredGroup(pose.Coord{40, 0, 0}, 6, -1.2, []string{"ethane"})
	return append(strong, weak...)
}

func assertCompletePartition(t *testing.T, result *analysistypes.Result) {
	t.Helper()
	seen := make(map[int]int)
	for _, rec := range result.Clusters {
		for _, m := range rec.Members {
			seen[m]++
		}
	}
	require.Len(t, seen, result.PoseCount, "every pose appears in the output")
	for idx, count := range seen {
		assert.Equal(t, 1, count, "pose %d appears exactly once", idx)
	}
}

func TestRunScenarioTwoGroups(t *testing.T) {
	a := newAnalyzer(t, config.DefaultConfig())
	result, err := a.Run(context.Background(), scenarioAPoses())
	require.NoError(t, err)

	require.Len(t, result.Clusters, 2)
	assertCompletePartition(t, result)
	assert.False(t, result.LowConfidence)
	assert.False(t, result.ModelUsed)

	first, second := result.Clusters[0], result.Clusters[1]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 2, second.Rank)
	assert.Greater(t, first.Scores.Score, second.Scores.Score)

	// The ideal-band, four-probe group must win the ranking.
	assert.Contains(t, first.Members, 0)
	assert.InDelta(t, -4.0, first.Features.Energetic.MeanAffinity, 0.5)
	assert.Equal(t, 4, first.Features.Consensus.ProbeDiversity)
	assert.Equal(t, 1, second.Features.Consensus.ProbeDiversity)

	for _, rec := range result.Clusters {
		assert.GreaterOrEqual(t, rec.Scores.Score, 0.0)
		assert.LessOrEqual(t, rec.Scores.Score, 1.0)
		assert.GreaterOrEqual(t, rec.Scores.Sub.Energy, 0.0)
		assert.LessOrEqual(t, rec.Scores.Sub.Energy, 1.0)
		require.NoError(t, rec.Features.Validate())
	}
}

func TestRunScenarioOutlierBecomesSingleton(t *testing.T) {
	poses := jitteredGroup(pose.Coord{0, 0, 0}, 6, -4.0,
		[]string{"ethanol", "benzene"})
	poses = append(poses, pose.Pose{
		ProbeID:  "water",
		Center:   pose.Coord{120, 120, 120},
		Affinity: -3.5,
	})

	a := newAnalyzer(t, config.DefaultConfig())
	result, err := a.Run(context.Background(), poses)
	require.NoError(t, err)

	assertCompletePartition(t, result)
	var singleton *analysistypes.ClusterRecord
	for i := range result.Clusters {
		if len(result.Clusters[i].Members) == 1 {
			singleton = &result.Clusters[i]
		}
	}
	require.NotNil(t, singleton, "the far outlier survives as a singleton cluster")
	assert.Equal(t, []int{6}, singleton.Members)

	// A singleton is the smallest possible cluster, so its population
	// sub-score is the run minimum.
	for _, rec := range result.Clusters {
		assert.GreaterOrEqual(t, rec.Scores.Sub.Population, singleton.Scores.Sub.Population)
	}
}

func TestRunScenarioNaNCoordinateFailsValidation(t *testing.T) {
	poses := scenarioAPoses()
	poses[3].Center[1] = math.NaN()

	a := newAnalyzer(t, config.DefaultConfig())
	_, err := a.Run(context.Background(), poses)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRunScenarioDisabledStrategy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Consensus.WeightHierarchical = 0.6
	cfg.Consensus.WeightDensity = 0
	cfg.Consensus.WeightAgglomerative = 0.4

	a := newAnalyzer(t, cfg)
	require.Len(t, a.strategies, 2, "zero-weight strategy never runs")

	result, err := a.Run(context.Background(), scenarioAPoses())
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assertCompletePartition(t, result)
	assert.False(t, result.LowConfidence)
}

func TestRunDeterministic(t *testing.T) {
	a := newAnalyzer(t, config.DefaultConfig())
	poses := scenarioAPoses()

	first, err := a.Run(context.Background(), poses)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := a.Run(context.Background(), poses)
		require.NoError(t, err)
		require.Len(t, again.Clusters, len(first.Clusters))
		for j := range first.Clusters {
			assert.Equal(t, first.Clusters[j].Members, again.Clusters[j].Members)
			assert.Equal(t, *first.Clusters[j].Features, *again.Clusters[j].Features)
			assert.Equal(t, first.Clusters[j].Scores.Score, again.Clusters[j].Scores.Score)
		}
	}
}

func TestRunEmptyBatchFails(t *testing.T) {
	a := newAnalyzer(t, config.DefaultConfig())
	_, err := a.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRunPoseCeiling(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pose.MaxPoses = 5

	a := newAnalyzer(t, cfg)
	_, err := a.Run(context.Background(), scenarioAPoses())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceLimit))
}

func TestRunCancellation(t *testing.T) {
	a := newAnalyzer(t, config.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, scenarioAPoses())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCancelled))
}

func TestRunObservesMetrics(t *testing.T) {
	metrics := promx.NewMetrics("ftmap_analyzer_test")
	a, err := NewAnalyzer(config.DefaultConfig(), logging.NewNopLogger(), metrics)
	require.NoError(t, err)

	_, err = a.Run(context.Background(), scenarioAPoses())
	require.NoError(t, err)
	// A second analyzer sharing nothing must not have seen the run; the
	// registry assertion happens through the scrape in the metrics tests.
	assert.NotNil(t, metrics.Registry())
}

func TestNewAnalyzerRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Consensus.WeightHierarchical = 0.9 // weights no longer sum to 1

	_, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}

func TestNewAnalyzerMissingModelFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scoring.ModelPath = "/nonexistent/model.json"

	_, err := NewAnalyzer(cfg, logging.NewNopLogger(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelInvalid))
}
