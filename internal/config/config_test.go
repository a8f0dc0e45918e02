package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultMaxPoses, cfg.Pose.MaxPoses)
	assert.Equal(t, DefaultDensityEps, cfg.Density.Eps)
	assert.Equal(t, CutCriterionSilhouette, cfg.Hierarchical.CutCriterion)
	assert.InDelta(t, 1.0,
		cfg.Consensus.WeightHierarchical+cfg.Consensus.WeightDensity+cfg.Consensus.WeightAgglomerative,
		WeightTolerance)
}

func TestApplyDefaults_DoesNotOverrideExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.Density.Eps = 2.5
	cfg.Consensus.WeightHierarchical = 0.5
	cfg.Consensus.WeightDensity = 0.5
	// Agglomerative weight explicitly zero: strategy disabled.

	ApplyDefaults(cfg)

	assert.Equal(t, 2.5, cfg.Density.Eps)
	assert.Equal(t, 0.5, cfg.Consensus.WeightHierarchical)
	assert.Equal(t, 0.0, cfg.Consensus.WeightAgglomerative)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults_NegativeMarksExplicitZero(t *testing.T) {
	cfg := &Config{}
	cfg.Consensus.MinAgreement = -1
	cfg.Scoring.ModelBlend = -1

	ApplyDefaults(cfg)

	assert.Equal(t, 0.0, cfg.Consensus.MinAgreement)
	assert.Equal(t, 0.0, cfg.Scoring.ModelBlend)
	require.NoError(t, cfg.Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero_max_poses", func(c *Config) { c.Pose.MaxPoses = -1 }},
		{"negative_beta", func(c *Config) { c.Pose.Beta = -0.1 }},
		{"zero_eps", func(c *Config) { c.Density.Eps = 0; c.Density.MinPts = 3 }},
		{"zero_min_pts", func(c *Config) { c.Density.MinPts = -2 }},
		{"bad_cut_criterion", func(c *Config) { c.Hierarchical.CutCriterion = "elbow" }},
		{"negative_weight", func(c *Config) {
			c.Consensus.WeightHierarchical = -0.2
			c.Consensus.WeightDensity = 0.6
			c.Consensus.WeightAgglomerative = 0.6
		}},
		{"weights_not_normalized", func(c *Config) {
			c.Consensus.WeightHierarchical = 0.5
			c.Consensus.WeightDensity = 0.3
			c.Consensus.WeightAgglomerative = 0.3
		}},
		{"cut_threshold_out_of_range", func(c *Config) { c.Consensus.CutThreshold = 1.5 }},
		{"min_agreement_out_of_range", func(c *Config) { c.Consensus.MinAgreement = -0.01 }},
		{"inverted_energy_band", func(c *Config) {
			c.Scoring.IdealEnergyLow = -3.0
			c.Scoring.IdealEnergyHigh = -5.0
		}},
		{"bad_model_blend", func(c *Config) { c.Scoring.ModelBlend = 2.0 }},
		{"zero_concurrency", func(c *Config) { c.Analysis.Concurrency = -3 }},
		{"bad_log_level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
		})
	}
}

func TestValidate_WeightSumWithinTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Consensus.WeightHierarchical = 0.4 + 5e-7
	require.NoError(t, cfg.Validate())

	cfg.Consensus.WeightHierarchical = 0.4 + 5e-6
	require.Error(t, cfg.Validate())
}

func TestStrategyWeights_Order(t *testing.T) {
	cfg := DefaultConfig()
	w := cfg.StrategyWeights()
	assert.Equal(t, [3]float64{0.4, 0.3, 0.3}, w)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ftmap.yaml")
	data := []byte(`
density:
  eps: 3.2
  min_pts: 5
consensus:
  weight_hierarchical: 0.6
  weight_density: 0.2
  weight_agglomerative: 0.2
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.2, cfg.Density.Eps)
	assert.Equal(t, 5, cfg.Density.MinPts)
	assert.Equal(t, 0.6, cfg.Consensus.WeightHierarchical)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults filled for everything unset.
	assert.Equal(t, DefaultMaxPoses, cfg.Pose.MaxPoses)
}

func TestLoad_InvalidFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ftmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("density:\n  eps: -1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FTMAP_DENSITY_EPS", "6.5")
	t.Setenv("FTMAP_LOG_LEVEL", "warn")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 6.5, cfg.Density.Eps)
	assert.Equal(t, "warn", cfg.Log.Level)
}
