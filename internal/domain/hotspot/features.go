package hotspot

import (
	"math"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// EnergeticFeatures summarizes the binding-energy distribution of a
// cluster's member poses, in kcal/mol.
type EnergeticFeatures struct {
	MeanAffinity   float64 `json:"mean_affinity"`
	StdDevAffinity float64 `json:"std_affinity"` // 0 for size-1 clusters
	MinAffinity    float64 `json:"min_affinity"`
	MaxAffinity    float64 `json:"max_affinity"`
	EnergyRange    float64 `json:"energy_range"` // max − min; 0 for size-1
}

// SpatialFeatures describes the cluster's geometry.  The centroid is
// Boltzmann-weighted, biasing toward energetically favorable poses.
type SpatialFeatures struct {
	CentroidX float64 `json:"center_x"`
	CentroidY float64 `json:"center_y"`
	CentroidZ float64 `json:"center_z"`

	// Spread is the root-mean-square distance of members to the centroid.
	Spread float64 `json:"spatial_spread"`

	// HullVolume and HullSurfaceArea come from the convex hull of member
	// centers; both are 0 for fewer than 4 non-coplanar points.
	HullVolume      float64 `json:"volume"`
	HullSurfaceArea float64 `json:"surface_area"`

	// Compactness is Spread / HullVolume^(1/3); 0 when the hull volume is
	// degenerate.
	Compactness float64 `json:"compactness"`

	// GyrationRadius is the mass-unweighted radius of gyration about the
	// centroid.
	GyrationRadius float64 `json:"gyration_radius"`

	// AspectRatio is the largest-to-smallest principal-axis extent ratio
	// from a principal-component decomposition; 1 for size-1 clusters.
	AspectRatio float64 `json:"aspect_ratio"`

	// RadialDistribution is the coefficient of variation of member
	// distances to the centroid; 0 for size-1 clusters.
	RadialDistribution float64 `json:"radial_distribution"`
}

// ChemicalFeatures aggregates the reference-table descriptors of the probe
// species present in the cluster.
type ChemicalFeatures struct {
	MolecularWeightMean  float64 `json:"molecular_weight_mean"`
	MolecularWeightRange float64 `json:"molecular_weight_range"`
	LogPMean             float64 `json:"logp_mean"`

	// HydrophobicPolarRatio is hydrophobic pose count over polar pose
	// count; neutral 1 when no polar poses are present.
	HydrophobicPolarRatio float64 `json:"hydrophobic_polar_ratio"`

	// AromaticRatio is the fraction of member poses carrying an aromatic
	// probe.
	AromaticRatio float64 `json:"aromatic_ratio"`

	HBondDonors      int     `json:"hbond_donors"`
	HBondAcceptors   int     `json:"hbond_acceptors"`
	PolarSurfaceArea float64 `json:"polar_surface_area"`
}

// InteractionFeatures estimates interaction capacity from probe chemical
// class and local pose density; these are proxies, not quantum interaction
// terms.
type InteractionFeatures struct {
	HBondPotential         float64 `json:"hbond_potential"`
	VdwContactDensity      float64 `json:"vdw_contact_density"`
	ElectrostaticPotential float64 `json:"electrostatic_potential"`
	PiStackingPotential    float64 `json:"pi_stacking_potential"`
	HydrophobicContacts    float64 `json:"hydrophobic_contacts"`
}

// ConsensusFeatures carries cross-strategy agreement statistics.
type ConsensusFeatures struct {
	// ConsensusScore is the mean intra-cluster co-association from the
	// consensus engine, in [0,1].
	ConsensusScore float64 `json:"consensus_score"`

	// ProbeDiversity is the number of distinct probe identities present.
	ProbeDiversity int `json:"probe_diversity"`

	// StrategyAgreement is the weighted fraction of intermediate strategies
	// whose own partition keeps this cluster's membership together.
	StrategyAgreement float64 `json:"strategy_agreement"`
}

// FeatureVector is the fixed-order, fully-populated feature set of one
// consensus cluster.  Construction through the feature extractor guarantees
// every field is set; degenerate clusters receive documented defaults, never
// NaN.
type FeatureVector struct {
	Energetic   EnergeticFeatures   `json:"energetic"`
	Spatial     SpatialFeatures     `json:"spatial"`
	Chemical    ChemicalFeatures    `json:"chemical"`
	Interaction InteractionFeatures `json:"interaction"`
	Consensus   ConsensusFeatures   `json:"consensus"`
}

// FeatureCount is the flattened width of a FeatureVector.
const FeatureCount = 31

// FeatureNames returns the canonical flattened feature order.  The learned
// regressor is trained against exactly this order.
func FeatureNames() []string {
	return []string{
		"mean_affinity", "std_affinity", "min_affinity", "max_affinity", "energy_range",
		"center_x", "center_y", "center_z", "spatial_spread", "volume",
		"surface_area", "compactness", "gyration_radius", "aspect_ratio", "radial_distribution",
		"molecular_weight_mean", "molecular_weight_range", "logp_mean",
		"hydrophobic_polar_ratio", "aromatic_ratio", "hbond_donors", "hbond_acceptors", "polar_surface_area",
		"hbond_potential", "vdw_contact_density", "electrostatic_potential",
		"pi_stacking_potential", "hydrophobic_contacts",
		"consensus_score", "probe_diversity", "strategy_agreement",
	}
}

// Flatten returns the feature values in the canonical order of
// FeatureNames.
func (f *FeatureVector) Flatten() []float64 {
	return []float64{
		f.Energetic.MeanAffinity,
		f.Energetic.StdDevAffinity,
		f.Energetic.MinAffinity,
		f.Energetic.MaxAffinity,
		f.Energetic.EnergyRange,
		f.Spatial.CentroidX,
		f.Spatial.CentroidY,
		f.Spatial.CentroidZ,
		f.Spatial.Spread,
		f.Spatial.HullVolume,
		f.Spatial.HullSurfaceArea,
		f.Spatial.Compactness,
		f.Spatial.GyrationRadius,
		f.Spatial.AspectRatio,
		f.Spatial.RadialDistribution,
		f.Chemical.MolecularWeightMean,
		f.Chemical.MolecularWeightRange,
		f.Chemical.LogPMean,
		f.Chemical.HydrophobicPolarRatio,
		f.Chemical.AromaticRatio,
		float64(f.Chemical.HBondDonors),
		float64(f.Chemical.HBondAcceptors),
		f.Chemical.PolarSurfaceArea,
		f.Interaction.HBondPotential,
		f.Interaction.VdwContactDensity,
		f.Interaction.ElectrostaticPotential,
		f.Interaction.PiStackingPotential,
		f.Interaction.HydrophobicContacts,
		f.Consensus.ConsensusScore,
		float64(f.Consensus.ProbeDiversity),
		f.Consensus.StrategyAgreement,
	}
}

// Validate checks that every flattened entry is finite.  The feature
// extractor's defaulting policy makes a failure here a logic defect, so
// callers treat the returned error as fatal.
func (f *FeatureVector) Validate() error {
	names := FeatureNames()
	for i, v := range f.Flatten() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.FeatureExtraction("feature vector contains non-finite value").
				WithDetail(names[i])
		}
	}
	return nil
}
