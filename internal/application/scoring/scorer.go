// Package scoring turns cluster feature vectors into druggability scores
// and a final ranking.  The primary path is a deterministic weighted
// formula; an optional learned model can be blended in, with both
// components always reported separately.
package scoring

import (
	"math"
	"sort"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/hotspot"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Formula component weights.  They sum to 1 so the composite stays in [0,1].
const (
	weightEnergy      = 0.25
	weightDiversity   = 0.35
	weightPopulation  = 0.20
	weightCompactness = 0.20
)

// Model produces a druggability estimate from a flattened feature vector in
// the canonical hotspot.FeatureNames order.
type Model interface {
	Score(features []float64) (float64, error)
}

// SubScores breaks the formula score into its four components, each in
// [0,1].
type SubScores struct {
	Energy      float64 `json:"energy"`
	Diversity   float64 `json:"diversity"`
	Population  float64 `json:"population"`
	Compactness float64 `json:"compactness"`
}

// ClusterScore is the scoring outcome for one cluster.  ModelScore is
// meaningful only when HasModel is true; Score is the blended final value
// (equal to FormulaScore when no model is attached).
type ClusterScore struct {
	ClusterID    int       `json:"cluster_id"`
	Sub          SubScores `json:"sub_scores"`
	FormulaScore float64   `json:"formula_score"`
	ModelScore   float64   `json:"model_score,omitempty"`
	HasModel     bool      `json:"has_model"`
	Score        float64   `json:"score"`
	Rank         int       `json:"rank"`
}

// Scorer applies the druggability formula and optional model blending.
type Scorer struct {
	cfg   config.ScoringConfig
	model Model
	log   logging.Logger
}

// NewScorer builds a scorer; model may be nil for formula-only scoring.
func NewScorer(cfg config.ScoringConfig, model Model, log logging.Logger) *Scorer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Scorer{cfg: cfg, model: model, log: log.Named("scoring")}
}

// ScoreAll scores every cluster and returns results ranked best-first.
// Ties break toward the tighter cluster, then toward the larger one.  A
// cluster without a valid feature vector fails the whole call: scoring
// over undefined inputs would silently corrupt the ranking.
func (s *Scorer) ScoreAll(clusters []*hotspot.Cluster) ([]ClusterScore, error) {
	if len(clusters) == 0 {
		return nil, nil
	}

	largest := 0
	for _, c := range clusters {
		if c.Size() > largest {
			largest = c.Size()
		}
	}

	out := make([]ClusterScore, len(clusters))
	for i, c := range clusters {
		if c.Features == nil {
			return nil, errors.FeatureExtraction("cluster has no feature vector").
				WithDetail(c.String())
		}
		if err := c.Features.Validate(); err != nil {
			return nil, err
		}

		sub := s.subScores(c.Features, c.Size(), largest)
		cs := ClusterScore{
			ClusterID: c.ID,
			Sub:       sub,
			FormulaScore: weightEnergy*sub.Energy +
				weightDiversity*sub.Diversity +
				weightPopulation*sub.Population +
				weightCompactness*sub.Compactness,
		}
		cs.Score = cs.FormulaScore

		if s.model != nil {
			ms, err := s.model.Score(c.Features.Flatten())
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeModelInvalid, "model scoring failed").
					WithDetail(c.String())
			}
			cs.ModelScore = clamp01(ms)
			cs.HasModel = true
			cs.Score = (1-s.cfg.ModelBlend)*cs.FormulaScore + s.cfg.ModelBlend*cs.ModelScore
		}
		out[i] = cs
	}

	rank(out, clusters)
	return out, nil
}

// subScores computes the four formula components.
func (s *Scorer) subScores(fv *hotspot.FeatureVector, size, largest int) SubScores {
	return SubScores{
		Energy:      s.energyScore(fv.Energetic.MeanAffinity),
		Diversity:   clamp01(float64(fv.Consensus.ProbeDiversity) / float64(s.cfg.DiversitySaturation)),
		Population:  math.Log1p(float64(size)) / math.Log1p(float64(largest)),
		Compactness: clamp01(1 - fv.Spatial.Spread/s.cfg.SpreadSaturation),
	}
}

// energyScore is 1 inside the ideal mean-affinity band and decays linearly
// to 0 over the falloff width on both sides, penalizing weak binders and
// implausibly deep energies alike.
func (s *Scorer) energyScore(mean float64) float64 {
	low, high := s.cfg.IdealEnergyLow, s.cfg.IdealEnergyHigh
	switch {
	case mean >= low && mean <= high:
		return 1
	case mean < low:
		return clamp01(1 - (low-mean)/s.cfg.EnergyFalloff)
	default:
		return clamp01(1 - (mean-high)/s.cfg.EnergyFalloff)
	}
}

// rank orders results best-first and writes 1-based ranks.  The sort is
// stable over a deterministic input order, so equal-key clusters keep
// their consensus ordering.
func rank(scores []ClusterScore, clusters []*hotspot.Cluster) {
	spread := make(map[int]float64, len(clusters))
	size := make(map[int]int, len(clusters))
	for _, c := range clusters {
		spread[c.ID] = c.Features.Spatial.Spread
		size[c.ID] = c.Size()
	}

	sort.SliceStable(scores, func(a, b int) bool {
		sa, sb := scores[a], scores[b]
		if sa.Score != sb.Score {
			return sa.Score > sb.Score
		}
		if spread[sa.ClusterID] != spread[sb.ClusterID] {
			return spread[sa.ClusterID] < spread[sb.ClusterID]
		}
		return size[sa.ClusterID] > size[sb.ClusterID]
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
