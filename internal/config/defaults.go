package config

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultMaxPoses          = 50000
	DefaultBeta              = 1.689 // 1/(R·298.15K) in mol/kcal
	DefaultDistanceCacheSize = 1 << 20

	DefaultDensityEps    = 4.0
	DefaultDensityMinPts = 3

	DefaultCutCriterion      = CutCriterionSilhouette
	DefaultDistanceThreshold = 8.0
	DefaultMaxClusters       = 10

	DefaultConnectivityK = 10

	DefaultWeightHierarchical  = 0.4
	DefaultWeightDensity       = 0.3
	DefaultWeightAgglomerative = 0.3
	DefaultCutThreshold        = 0.5
	DefaultMinAgreement        = 0.3

	DefaultIdealEnergyLow      = -5.0
	DefaultIdealEnergyHigh     = -3.0
	DefaultEnergyFalloff       = 4.0
	DefaultDiversitySaturation = 8
	DefaultSpreadSaturation    = 10.0
	DefaultModelBlend          = 0.5

	DefaultConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "ftmap"
)

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  It must be called after unmarshalling and
// before Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Pose store / distance builder ────────────────────────────────────────
	if cfg.Pose.MaxPoses == 0 {
		cfg.Pose.MaxPoses = DefaultMaxPoses
	}
	if cfg.Pose.Beta == 0 {
		cfg.Pose.Beta = DefaultBeta
	}
	if cfg.Pose.DistanceCacheSize == 0 {
		cfg.Pose.DistanceCacheSize = DefaultDistanceCacheSize
	}

	// ── Density strategy ─────────────────────────────────────────────────────
	if cfg.Density.Eps == 0 {
		cfg.Density.Eps = DefaultDensityEps
	}
	if cfg.Density.MinPts == 0 {
		cfg.Density.MinPts = DefaultDensityMinPts
	}

	// ── Hierarchical strategy ────────────────────────────────────────────────
	if cfg.Hierarchical.CutCriterion == "" {
		cfg.Hierarchical.CutCriterion = DefaultCutCriterion
	}
	if cfg.Hierarchical.DistanceThreshold == 0 {
		cfg.Hierarchical.DistanceThreshold = DefaultDistanceThreshold
	}
	if cfg.Hierarchical.MaxClusters == 0 {
		cfg.Hierarchical.MaxClusters = DefaultMaxClusters
	}

	// ── Agglomerative strategy ───────────────────────────────────────────────
	if cfg.Agglomerative.ConnectivityK == 0 {
		cfg.Agglomerative.ConnectivityK = DefaultConnectivityK
	}
	if cfg.Agglomerative.MaxClusters == 0 {
		cfg.Agglomerative.MaxClusters = DefaultMaxClusters
	}
	// TargetClusters deliberately keeps its zero value: zero means automatic
	// selection via the variance-ratio criterion.

	// ── Consensus engine ─────────────────────────────────────────────────────
	if cfg.Consensus.WeightHierarchical == 0 &&
		cfg.Consensus.WeightDensity == 0 &&
		cfg.Consensus.WeightAgglomerative == 0 {
		cfg.Consensus.WeightHierarchical = DefaultWeightHierarchical
		cfg.Consensus.WeightDensity = DefaultWeightDensity
		cfg.Consensus.WeightAgglomerative = DefaultWeightAgglomerative
	}
	if cfg.Consensus.CutThreshold == 0 {
		cfg.Consensus.CutThreshold = DefaultCutThreshold
	}
	if cfg.Consensus.MinAgreement == 0 {
		cfg.Consensus.MinAgreement = DefaultMinAgreement
	} else if cfg.Consensus.MinAgreement < 0 {
		// Negative marks an explicit zero, which plain zero cannot express
		// because it reads as unset.
		cfg.Consensus.MinAgreement = 0
	}

	// ── Scoring ──────────────────────────────────────────────────────────────
	if cfg.Scoring.IdealEnergyLow == 0 && cfg.Scoring.IdealEnergyHigh == 0 {
		cfg.Scoring.IdealEnergyLow = DefaultIdealEnergyLow
		cfg.Scoring.IdealEnergyHigh = DefaultIdealEnergyHigh
	}
	if cfg.Scoring.EnergyFalloff == 0 {
		cfg.Scoring.EnergyFalloff = DefaultEnergyFalloff
	}
	if cfg.Scoring.DiversitySaturation == 0 {
		cfg.Scoring.DiversitySaturation = DefaultDiversitySaturation
	}
	if cfg.Scoring.SpreadSaturation == 0 {
		cfg.Scoring.SpreadSaturation = DefaultSpreadSaturation
	}
	if cfg.Scoring.ModelBlend == 0 {
		cfg.Scoring.ModelBlend = DefaultModelBlend
	} else if cfg.Scoring.ModelBlend < 0 {
		// Same unset-vs-zero convention as consensus.min_agreement.
		cfg.Scoring.ModelBlend = 0
	}

	// ── Analysis orchestration ───────────────────────────────────────────────
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = DefaultConcurrency
	}

	// ── Log ──────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ──────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// DefaultConfig returns a fully-populated Config carrying every engine
// default.  It always passes Validate().
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
