// Package analysis defines the outward Data Transfer Objects of a hotspot
// analysis run.  No domain logic lives here — only plain data types that are
// safe for reporting collaborators to import without reaching into internal
// packages.
package analysis

import (
	"fmt"
	"math"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Feature DTOs — flattened view of one hotspot's descriptors
// ─────────────────────────────────────────────────────────────────────────────

// EnergeticFeatures summarizes the binding-energy distribution of a
// hotspot's member poses, in kcal/mol.
type EnergeticFeatures struct {
	MeanAffinity   float64 `json:"mean_affinity"`
	StdDevAffinity float64 `json:"std_affinity"`
	MinAffinity    float64 `json:"min_affinity"`
	MaxAffinity    float64 `json:"max_affinity"`
	EnergyRange    float64 `json:"energy_range"`
}

// SpatialFeatures describes the hotspot's geometry around its
// Boltzmann-weighted center.
type SpatialFeatures struct {
	CentroidX          float64 `json:"center_x"`
	CentroidY          float64 `json:"center_y"`
	CentroidZ          float64 `json:"center_z"`
	Spread             float64 `json:"spatial_spread"`
	HullVolume         float64 `json:"volume"`
	HullSurfaceArea    float64 `json:"surface_area"`
	Compactness        float64 `json:"compactness"`
	GyrationRadius     float64 `json:"gyration_radius"`
	AspectRatio        float64 `json:"aspect_ratio"`
	RadialDistribution float64 `json:"radial_distribution"`
}

// ChemicalFeatures aggregates probe reference-table descriptors over the
// hotspot's members.
type ChemicalFeatures struct {
	MolecularWeightMean   float64 `json:"molecular_weight_mean"`
	MolecularWeightRange  float64 `json:"molecular_weight_range"`
	LogPMean              float64 `json:"logp_mean"`
	HydrophobicPolarRatio float64 `json:"hydrophobic_polar_ratio"`
	AromaticRatio         float64 `json:"aromatic_ratio"`
	HBondDonors           int     `json:"hbond_donors"`
	HBondAcceptors        int     `json:"hbond_acceptors"`
	PolarSurfaceArea      float64 `json:"polar_surface_area"`
}

// InteractionFeatures estimates interaction capacity from probe chemical
// class and local pose density.
type InteractionFeatures struct {
	HBondPotential         float64 `json:"hbond_potential"`
	VdwContactDensity      float64 `json:"vdw_contact_density"`
	ElectrostaticPotential float64 `json:"electrostatic_potential"`
	PiStackingPotential    float64 `json:"pi_stacking_potential"`
	HydrophobicContacts    float64 `json:"hydrophobic_contacts"`
}

// ConsensusFeatures carries cross-strategy agreement statistics.
type ConsensusFeatures struct {
	ConsensusScore    float64 `json:"consensus_score"`
	ProbeDiversity    int     `json:"probe_diversity"`
	StrategyAgreement float64 `json:"strategy_agreement"`
}

// FeatureVector is the complete feature set reported for one hotspot.
type FeatureVector struct {
	Energetic   EnergeticFeatures   `json:"energetic"`
	Spatial     SpatialFeatures     `json:"spatial"`
	Chemical    ChemicalFeatures    `json:"chemical"`
	Interaction InteractionFeatures `json:"interaction"`
	Consensus   ConsensusFeatures   `json:"consensus"`
}

// Validate checks that every reported feature value is finite.
func (f *FeatureVector) Validate() error {
	values := []float64{
		f.Energetic.MeanAffinity, f.Energetic.StdDevAffinity,
		f.Energetic.MinAffinity, f.Energetic.MaxAffinity,
		f.Energetic.EnergyRange,
		f.Spatial.CentroidX, f.Spatial.CentroidY, f.Spatial.CentroidZ,
		f.Spatial.Spread, f.Spatial.HullVolume, f.Spatial.HullSurfaceArea,
		f.Spatial.Compactness, f.Spatial.GyrationRadius,
		f.Spatial.AspectRatio, f.Spatial.RadialDistribution,
		f.Chemical.MolecularWeightMean, f.Chemical.MolecularWeightRange,
		f.Chemical.LogPMean, f.Chemical.HydrophobicPolarRatio,
		f.Chemical.AromaticRatio, f.Chemical.PolarSurfaceArea,
		f.Interaction.HBondPotential, f.Interaction.VdwContactDensity,
		f.Interaction.ElectrostaticPotential,
		f.Interaction.PiStackingPotential, f.Interaction.HydrophobicContacts,
		f.Consensus.ConsensusScore, f.Consensus.StrategyAgreement,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feature vector contains non-finite value %v", v)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Score DTOs
// ─────────────────────────────────────────────────────────────────────────────

// SubScores breaks the druggability formula into its weighted components,
// each in [0,1].
type SubScores struct {
	Energy      float64 `json:"energy"`
	Diversity   float64 `json:"diversity"`
	Population  float64 `json:"population"`
	Compactness float64 `json:"compactness"`
}

// ClusterScore is the scoring outcome for one hotspot.  ModelScore is
// meaningful only when HasModel is true; Score is the blended final value.
type ClusterScore struct {
	Sub          SubScores `json:"sub_scores"`
	FormulaScore float64   `json:"formula_score"`
	ModelScore   float64   `json:"model_score,omitempty"`
	HasModel     bool      `json:"has_model"`
	Score        float64   `json:"score"`
}

// ─────────────────────────────────────────────────────────────────────────────
// ClusterRecord — one ranked hotspot in the final report
// ─────────────────────────────────────────────────────────────────────────────

// ClusterRecord couples a consensus cluster's membership and features with
// its druggability scoring outcome.  Records are ordered by Rank.
type ClusterRecord struct {
	// ClusterID is the consensus cluster identifier, contiguous from 0.
	ClusterID int `json:"cluster_id"`

	// Rank is the 1-based druggability rank within the run.
	Rank int `json:"rank"`

	// Members lists member pose indices into the run's input batch,
	// ascending.
	Members []int `json:"members"`

	// Centroid is the Boltzmann-weighted cluster center (x, y, z), in Å.
	Centroid [3]float64 `json:"centroid"`

	// LowConfidence marks clusters from a degenerate-consensus fallback.
	LowConfidence bool `json:"low_confidence"`

	// Features is the full feature vector behind the scores.
	Features *FeatureVector `json:"features"`

	// Scores carries the formula score, the optional model score, and the
	// blended final value, reported separately for auditability.
	Scores ClusterScore `json:"scores"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Result — complete outcome of one analysis run
// ─────────────────────────────────────────────────────────────────────────────

// StageTimings records the wall-clock duration of each pipeline stage.
type StageTimings struct {
	Load      time.Duration `json:"load"`
	Distances time.Duration `json:"distances"`
	Cluster   time.Duration `json:"cluster"`
	Consensus time.Duration `json:"consensus"`
	Features  time.Duration `json:"features"`
	Scoring   time.Duration `json:"scoring"`
	Total     time.Duration `json:"total"`
}

// Result is the complete, immutable outcome of one analysis run.
type Result struct {
	// RunID uniquely identifies the run in logs and downstream storage.
	RunID string `json:"run_id"`

	// PoseCount is the validated input batch size.
	PoseCount int `json:"pose_count"`

	// Clusters holds the ranked hotspot records, best first.
	Clusters []ClusterRecord `json:"clusters"`

	// LowConfidence is true when the consensus engine fell back to a
	// single strategy for this run.
	LowConfidence bool `json:"low_confidence"`

	// ModelUsed reports whether a learned regressor contributed to the
	// final scores.
	ModelUsed bool `json:"model_used"`

	// Timings breaks down where the run spent its time.
	Timings StageTimings `json:"timings"`

	// StartedAt is the wall-clock start of the run, UTC.
	StartedAt time.Time `json:"started_at"`
}

// Top returns the n best-ranked cluster records (fewer when the run
// produced fewer clusters).
func (r *Result) Top(n int) []ClusterRecord {
	if n > len(r.Clusters) {
		n = len(r.Clusters)
	}
	return r.Clusters[:n]
}
