// Package config defines all configuration structures for the FTMap hotspot
// engine.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"math"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PoseConfig holds pose-store and distance-builder tunables.
type PoseConfig struct {
	// MaxPoses is the hard ceiling on pose count for O(n²) structures.
	// The distance builder fails fast with a resource-limit error above it.
	MaxPoses int `mapstructure:"max_poses"`

	// Beta is the inverse-temperature constant for Boltzmann weighting,
	// in mol/kcal.  The default corresponds to room temperature.
	Beta float64 `mapstructure:"beta"`

	// DistanceCacheSize bounds the LRU cache used by the lazy pairwise
	// distance provider.  Ignored when a dense matrix is precomputed.
	DistanceCacheSize int `mapstructure:"distance_cache_size"`
}

// DensityConfig holds DBSCAN parameters.
type DensityConfig struct {
	// Eps is the neighbourhood radius in length units (Å).
	Eps float64 `mapstructure:"eps"`

	// MinPts is the minimum neighbourhood size for a core point.
	MinPts int `mapstructure:"min_pts"`
}

// HierarchicalConfig holds Ward-linkage dendrogram parameters.
type HierarchicalConfig struct {
	// CutCriterion selects how the dendrogram is cut:
	// "distance"   — cut at DistanceThreshold.
	// "silhouette" — cut at the cluster count maximising the mean
	//                silhouette between 2 and MaxClusters.
	CutCriterion string `mapstructure:"cut_criterion"`

	// DistanceThreshold is the merge-height cut used by the "distance"
	// criterion.
	DistanceThreshold float64 `mapstructure:"distance_threshold"`

	// MaxClusters bounds the cluster counts examined by the "silhouette"
	// criterion.
	MaxClusters int `mapstructure:"max_clusters"`
}

// AgglomerativeConfig holds connectivity-constrained agglomerative
// parameters.
type AgglomerativeConfig struct {
	// ConnectivityK is the neighbour count for the symmetric k-nearest-
	// neighbour graph that restricts candidate merges.
	ConnectivityK int `mapstructure:"connectivity_k"`

	// TargetClusters is the stopping cluster count.  Zero selects the count
	// automatically via the variance-ratio (Calinski–Harabasz) criterion.
	TargetClusters int `mapstructure:"target_clusters"`

	// MaxClusters bounds the counts examined by the automatic criterion.
	MaxClusters int `mapstructure:"max_clusters"`
}

// ConsensusConfig holds fusion parameters for the consensus engine.
type ConsensusConfig struct {
	// WeightHierarchical, WeightDensity and WeightAgglomerative are the
	// strategy weights applied when accumulating the co-association matrix.
	// They must sum to 1 within WeightTolerance.  A zero weight disables
	// the corresponding strategy entirely.
	WeightHierarchical  float64 `mapstructure:"weight_hierarchical"`
	WeightDensity       float64 `mapstructure:"weight_density"`
	WeightAgglomerative float64 `mapstructure:"weight_agglomerative"`

	// CutThreshold is the 1−coassociation distance at which the final
	// average-linkage cut is made.
	CutThreshold float64 `mapstructure:"cut_threshold"`

	// MinAgreement is the minimum mean co-association a noise/singleton
	// pose needs with a cluster to be merged into it; below it the pose is
	// retained as a singleton cluster.  Zero is treated as unset and
	// replaced by the default; set a negative value to request an
	// effective threshold of 0 (always rescue).
	MinAgreement float64 `mapstructure:"min_agreement"`
}

// ScoringConfig holds druggability-scoring parameters.
type ScoringConfig struct {
	// IdealEnergyLow / IdealEnergyHigh bound the mean-affinity band, in
	// kcal/mol, in which the energy sub-score peaks at 1.  Low is the more
	// negative bound.
	IdealEnergyLow  float64 `mapstructure:"ideal_energy_low"`
	IdealEnergyHigh float64 `mapstructure:"ideal_energy_high"`

	// EnergyFalloff is the width, in kcal/mol, over which the energy
	// sub-score decays linearly to 0 outside the ideal band.
	EnergyFalloff float64 `mapstructure:"energy_falloff"`

	// DiversitySaturation is the distinct-probe count at which the
	// diversity sub-score saturates at 1.
	DiversitySaturation int `mapstructure:"diversity_saturation"`

	// SpreadSaturation is the spatial spread, in length units, at which the
	// compactness sub-score reaches 0.
	SpreadSaturation float64 `mapstructure:"spread_saturation"`

	// ModelPath points at an offline-trained regressor model file.  Empty
	// disables the learned scoring path.
	ModelPath string `mapstructure:"model_path"`

	// ModelBlend is the weight given to the learned model score when a
	// model is attached; the formula score receives 1−ModelBlend.  Both
	// components are always reported separately.  Zero is treated as unset
	// and replaced by the default; set a negative value to request an
	// effective blend of 0 (formula-only even with a model attached).
	ModelBlend float64 `mapstructure:"model_blend"`
}

// AnalysisConfig holds run-level orchestration parameters.
type AnalysisConfig struct {
	// Concurrency is the worker count for per-cluster feature extraction.
	Concurrency int `mapstructure:"concurrency"`

	// ProbeLibraryPath optionally overrides the built-in probe descriptor
	// table with a YAML file.
	ProbeLibraryPath string `mapstructure:"probe_library_path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the engine.  Every
// component reads its settings from the relevant sub-struct.
type Config struct {
	Pose          PoseConfig          `mapstructure:"pose"`
	Density       DensityConfig       `mapstructure:"density"`
	Hierarchical  HierarchicalConfig  `mapstructure:"hierarchical"`
	Agglomerative AgglomerativeConfig `mapstructure:"agglomerative"`
	Consensus     ConsensusConfig     `mapstructure:"consensus"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Log           LogConfig           `mapstructure:"log"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// WeightTolerance is the maximum deviation of the strategy-weight sum
// from 1.0 accepted by Validate.
const WeightTolerance = 1e-6

// Cut criteria accepted by HierarchicalConfig.CutCriterion.
const (
	CutCriterionDistance   = "distance"
	CutCriterionSilhouette = "silhouette"
)

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers must treat any error as
// fatal and refuse to start the run.
func (c *Config) Validate() error {
	// Pose store / distance builder
	if c.Pose.MaxPoses < 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "pose.max_poses must be ≥ 1, got %d", c.Pose.MaxPoses)
	}
	if c.Pose.Beta <= 0 || math.IsInf(c.Pose.Beta, 0) || math.IsNaN(c.Pose.Beta) {
		return errors.Newf(errors.ErrCodeConfiguration, "pose.beta must be a finite positive value, got %v", c.Pose.Beta)
	}
	if c.Pose.DistanceCacheSize < 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "pose.distance_cache_size must be ≥ 1, got %d", c.Pose.DistanceCacheSize)
	}

	// Density strategy
	if c.Density.Eps <= 0 {
		return errors.Newf(errors.ErrCodeConfiguration, "density.eps must be > 0, got %v", c.Density.Eps)
	}
	if c.Density.MinPts < 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "density.min_pts must be ≥ 1, got %d", c.Density.MinPts)
	}

	// Hierarchical strategy
	switch c.Hierarchical.CutCriterion {
	case CutCriterionDistance, CutCriterionSilhouette:
	default:
		return errors.Newf(errors.ErrCodeConfiguration,
			"hierarchical.cut_criterion %q is invalid; expected distance|silhouette", c.Hierarchical.CutCriterion)
	}
	if c.Hierarchical.CutCriterion == CutCriterionDistance && c.Hierarchical.DistanceThreshold <= 0 {
		return errors.Newf(errors.ErrCodeConfiguration,
			"hierarchical.distance_threshold must be > 0 for the distance criterion, got %v", c.Hierarchical.DistanceThreshold)
	}
	if c.Hierarchical.MaxClusters < 2 {
		return errors.Newf(errors.ErrCodeConfiguration, "hierarchical.max_clusters must be ≥ 2, got %d", c.Hierarchical.MaxClusters)
	}

	// Agglomerative strategy
	if c.Agglomerative.ConnectivityK < 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "agglomerative.connectivity_k must be ≥ 1, got %d", c.Agglomerative.ConnectivityK)
	}
	if c.Agglomerative.TargetClusters < 0 {
		return errors.Newf(errors.ErrCodeConfiguration, "agglomerative.target_clusters must be ≥ 0, got %d", c.Agglomerative.TargetClusters)
	}
	if c.Agglomerative.MaxClusters < 2 {
		return errors.Newf(errors.ErrCodeConfiguration, "agglomerative.max_clusters must be ≥ 2, got %d", c.Agglomerative.MaxClusters)
	}

	// Consensus engine
	for name, w := range map[string]float64{
		"consensus.weight_hierarchical":  c.Consensus.WeightHierarchical,
		"consensus.weight_density":       c.Consensus.WeightDensity,
		"consensus.weight_agglomerative": c.Consensus.WeightAgglomerative,
	} {
		if w < 0 || math.IsNaN(w) {
			return errors.Newf(errors.ErrCodeConfiguration, "%s must be ≥ 0, got %v", name, w)
		}
	}
	sum := c.Consensus.WeightHierarchical + c.Consensus.WeightDensity + c.Consensus.WeightAgglomerative
	if math.Abs(sum-1.0) > WeightTolerance {
		return errors.Newf(errors.ErrCodeConfiguration,
			"consensus strategy weights must sum to 1.0 within %v, got %v", WeightTolerance, sum)
	}
	if c.Consensus.CutThreshold <= 0 || c.Consensus.CutThreshold > 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "consensus.cut_threshold must be in (0,1], got %v", c.Consensus.CutThreshold)
	}
	if c.Consensus.MinAgreement < 0 || c.Consensus.MinAgreement > 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "consensus.min_agreement must be in [0,1], got %v", c.Consensus.MinAgreement)
	}

	// Scoring
	if c.Scoring.IdealEnergyLow >= c.Scoring.IdealEnergyHigh {
		return errors.Newf(errors.ErrCodeConfiguration,
			"scoring ideal energy band is inverted: low %v must be < high %v", c.Scoring.IdealEnergyLow, c.Scoring.IdealEnergyHigh)
	}
	if c.Scoring.EnergyFalloff <= 0 {
		return errors.Newf(errors.ErrCodeConfiguration, "scoring.energy_falloff must be > 0, got %v", c.Scoring.EnergyFalloff)
	}
	if c.Scoring.DiversitySaturation < 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "scoring.diversity_saturation must be ≥ 1, got %d", c.Scoring.DiversitySaturation)
	}
	if c.Scoring.SpreadSaturation <= 0 {
		return errors.Newf(errors.ErrCodeConfiguration, "scoring.spread_saturation must be > 0, got %v", c.Scoring.SpreadSaturation)
	}
	if c.Scoring.ModelBlend < 0 || c.Scoring.ModelBlend > 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "scoring.model_blend must be in [0,1], got %v", c.Scoring.ModelBlend)
	}

	// Analysis orchestration
	if c.Analysis.Concurrency < 1 {
		return errors.Newf(errors.ErrCodeConfiguration, "analysis.concurrency must be ≥ 1, got %d", c.Analysis.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ErrCodeConfiguration, "log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Newf(errors.ErrCodeConfiguration, "log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// StrategyWeights returns the configured weights in canonical order:
// hierarchical, density, agglomerative.
func (c *Config) StrategyWeights() [3]float64 {
	return [3]float64{
		c.Consensus.WeightHierarchical,
		c.Consensus.WeightDensity,
		c.Consensus.WeightAgglomerative,
	}
}
