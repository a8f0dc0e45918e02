// Package analysis wires the full hotspot pipeline: pose validation,
// distance construction, parallel strategy clustering, consensus, feature
// extraction, and druggability scoring.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felipsoliveira/FTMap/internal/application/clustering"
	"github.com/felipsoliveira/FTMap/internal/application/features"
	"github.com/felipsoliveira/FTMap/internal/application/scoring"
	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/hotspot"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/internal/domain/probe"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
	promx "github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/prometheus"
	"github.com/felipsoliveira/FTMap/internal/intelligence/regressor"
	"github.com/felipsoliveira/FTMap/pkg/errors"
	analysistypes "github.com/felipsoliveira/FTMap/pkg/types/analysis"
)

// Above this pose count the dense O(n²) distance matrix is replaced by the
// LRU-backed lazy provider to bound memory.
const denseDistanceLimit = 20000

// weightedStrategy pairs a clustering strategy with its consensus weight.
type weightedStrategy struct {
	strategy clustering.Strategy
	weight   float64
}

// Analyzer is the run-level façade over the pipeline.  It is safe for
// concurrent Run calls: all per-run state lives on the stack.
type Analyzer struct {
	cfg        *config.Config
	strategies []weightedStrategy
	engine     *clustering.Engine
	extractor  *features.Extractor
	scorer     *scoring.Scorer
	modelUsed  bool
	log        logging.Logger
	metrics    *promx.Metrics
}

// NewAnalyzer assembles the pipeline from a validated configuration.
// metrics may be nil when the embedding application does not scrape.
func NewAnalyzer(cfg *config.Config, log logging.Logger, metrics *promx.Metrics) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("analysis")

	library := probe.Builtin()
	if cfg.Analysis.ProbeLibraryPath != "" {
		var err error
		library, err = probe.LoadFile(cfg.Analysis.ProbeLibraryPath)
		if err != nil {
			return nil, err
		}
	}

	var model scoring.Model
	if cfg.Scoring.ModelPath != "" {
		r := regressor.New(log)
		if err := r.Load(cfg.Scoring.ModelPath); err != nil {
			return nil, err
		}
		model = r
	}

	weights := cfg.StrategyWeights()
	all := []weightedStrategy{
		{clustering.NewHierarchicalStrategy(cfg.Hierarchical), weights[0]},
		{clustering.NewDensityStrategy(cfg.Density), weights[1]},
		{clustering.NewAgglomerativeStrategy(cfg.Agglomerative), weights[2]},
	}
	active := make([]weightedStrategy, 0, len(all))
	for _, ws := range all {
		if ws.weight > 0 {
			active = append(active, ws)
		} else {
			log.Info("strategy disabled by zero weight",
				logging.String("strategy", ws.strategy.Name()))
		}
	}

	return &Analyzer{
		cfg:        cfg,
		strategies: active,
		engine:     clustering.NewEngine(cfg.Consensus, log),
		extractor:  features.NewExtractor(cfg.Pose.Beta, cfg.Analysis.Concurrency, library, log),
		scorer:     scoring.NewScorer(cfg.Scoring, model, log),
		modelUsed:  model != nil,
		log:        log,
		metrics:    metrics,
	}, nil
}

// Run executes the full pipeline over one pose batch.  Cancellation is
// honored at every stage boundary; on any failure no partial result
// escapes.
func (a *Analyzer) Run(ctx context.Context, poses []pose.Pose) (*analysistypes.Result, error) {
	runID := uuid.NewString()
	log := a.log.With(logging.String("run_id", runID))
	started := time.Now().UTC()

	result, err := a.run(ctx, log, runID, started, poses)
	if err != nil {
		outcome := promx.OutcomeError
		if errors.IsCode(err, errors.ErrCodeCancelled) {
			outcome = promx.OutcomeCancelled
		}
		a.metrics.RunFinished(outcome, len(poses), 0)
		log.Error("analysis run failed",
			logging.Err(err),
			logging.Duration("elapsed", time.Since(started)))
		return nil, err
	}

	a.metrics.RunFinished(promx.OutcomeOK, result.PoseCount, len(result.Clusters))
	log.Info("analysis run finished",
		logging.Int("poses", result.PoseCount),
		logging.Int("clusters", len(result.Clusters)),
		logging.Bool("low_confidence", result.LowConfidence),
		logging.Duration("elapsed", result.Timings.Total))
	return result, nil
}

func (a *Analyzer) run(ctx context.Context, log logging.Logger, runID string, started time.Time, poses []pose.Pose) (*analysistypes.Result, error) {
	var timings analysistypes.StageTimings

	// Stage 1: validate and freeze the pose batch.
	stageStart := time.Now()
	if len(poses) > a.cfg.Pose.MaxPoses {
		return nil, errors.ResourceLimit("pose batch exceeds configured ceiling").
			WithDetail(fmt.Sprintf("poses=%d ceiling=%d", len(poses), a.cfg.Pose.MaxPoses))
	}
	store, err := pose.NewStore(poses)
	if err != nil {
		return nil, err
	}
	timings.Load = time.Since(stageStart)
	a.metrics.ObserveStage(promx.StageLoad, timings.Load)

	// Stage 2: pairwise distances, dense when affordable.
	stageStart = time.Now()
	dist, err := a.buildDistances(store)
	if err != nil {
		return nil, err
	}
	timings.Distances = time.Since(stageStart)
	a.metrics.ObserveStage(promx.StageDistances, timings.Distances)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCancelled, "run cancelled after distance build")
	}

	// Stage 3: all enabled strategies in parallel; the consensus engine
	// is a barrier, so the group is waited out before combining.
	stageStart = time.Now()
	partitions := make([]clustering.Partition, len(a.strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, ws := range a.strategies {
		i, ws := i, ws
		g.Go(func() error {
			labels, err := ws.strategy.Assign(gctx, store, dist)
			if err != nil {
				return err
			}
			partitions[i] = clustering.Partition{
				Strategy: ws.strategy.Name(),
				Weight:   ws.weight,
				Labels:   labels,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timings.Cluster = time.Since(stageStart)
	a.metrics.ObserveStage(promx.StageCluster, timings.Cluster)

	// Stage 4: consensus.
	stageStart = time.Now()
	clusters, err := a.engine.Combine(ctx, store, partitions)
	if err != nil {
		return nil, err
	}
	lowConfidence := len(clusters) > 0 && clusters[0].LowConfidence
	if lowConfidence {
		a.metrics.LowConfidenceRun()
	}
	timings.Consensus = time.Since(stageStart)
	a.metrics.ObserveStage(promx.StageConsensus, timings.Consensus)

	// Stage 5: per-cluster features in parallel.
	stageStart = time.Now()
	if err := a.extractor.ExtractAll(ctx, store, clusters); err != nil {
		return nil, err
	}
	timings.Features = time.Since(stageStart)
	a.metrics.ObserveStage(promx.StageFeatures, timings.Features)

	// Stage 6: scoring and ranking.
	stageStart = time.Now()
	scores, err := a.scorer.ScoreAll(clusters)
	if err != nil {
		return nil, err
	}
	timings.Scoring = time.Since(stageStart)
	a.metrics.ObserveStage(promx.StageScoring, timings.Scoring)

	timings.Total = time.Since(started)
	return assemble(runID, started, store, clusters, scores, lowConfidence, a.modelUsed, timings), nil
}

func (a *Analyzer) buildDistances(store *pose.Store) (pose.PairwiseDistances, error) {
	if store.Len() <= denseDistanceLimit {
		return pose.NewDistanceMatrix(store, a.cfg.Pose.MaxPoses)
	}
	return pose.NewLazyDistances(store, a.cfg.Pose.DistanceCacheSize)
}

// assemble joins clusters and ranked scores into the outward result,
// converting domain types into the self-contained pkg/types DTOs.  Scores
// arrive rank-ordered, so records follow that order directly.
func assemble(runID string, started time.Time, store *pose.Store, clusters []*hotspot.Cluster, scores []scoring.ClusterScore, lowConfidence, modelUsed bool, timings analysistypes.StageTimings) *analysistypes.Result {
	byID := make(map[int]*hotspot.Cluster, len(clusters))
	for _, c := range clusters {
		byID[c.ID] = c
	}

	records := make([]analysistypes.ClusterRecord, len(scores))
	for i, s := range scores {
		c := byID[s.ClusterID]
		records[i] = analysistypes.ClusterRecord{
			ClusterID: c.ID,
			Rank:      s.Rank,
			Members:   c.Members,
			Centroid: [3]float64{
				c.Features.Spatial.CentroidX,
				c.Features.Spatial.CentroidY,
				c.Features.Spatial.CentroidZ,
			},
			LowConfidence: c.LowConfidence,
			Features:      featureRecord(c.Features),
			Scores:        scoreRecord(s),
		}
	}

	return &analysistypes.Result{
		RunID:         runID,
		PoseCount:     store.Len(),
		Clusters:      records,
		LowConfidence: lowConfidence,
		ModelUsed:     modelUsed,
		Timings:       timings,
		StartedAt:     started,
	}
}

// featureRecord maps the domain feature vector onto the outward DTO shape.
func featureRecord(f *hotspot.FeatureVector) *analysistypes.FeatureVector {
	if f == nil {
		return nil
	}
	return &analysistypes.FeatureVector{
		Energetic: analysistypes.EnergeticFeatures{
			MeanAffinity:   f.Energetic.MeanAffinity,
			StdDevAffinity: f.Energetic.StdDevAffinity,
			MinAffinity:    f.Energetic.MinAffinity,
			MaxAffinity:    f.Energetic.MaxAffinity,
			EnergyRange:    f.Energetic.EnergyRange,
		},
		Spatial: analysistypes.SpatialFeatures{
			CentroidX:          f.Spatial.CentroidX,
			CentroidY:          f.Spatial.CentroidY,
			CentroidZ:          f.Spatial.CentroidZ,
			Spread:             f.Spatial.Spread,
			HullVolume:         f.Spatial.HullVolume,
			HullSurfaceArea:    f.Spatial.HullSurfaceArea,
			Compactness:        f.Spatial.Compactness,
			GyrationRadius:     f.Spatial.GyrationRadius,
			AspectRatio:        f.Spatial.AspectRatio,
			RadialDistribution: f.Spatial.RadialDistribution,
		},
		Chemical: analysistypes.ChemicalFeatures{
			MolecularWeightMean:   f.Chemical.MolecularWeightMean,
			MolecularWeightRange:  f.Chemical.MolecularWeightRange,
			LogPMean:              f.Chemical.LogPMean,
			HydrophobicPolarRatio: f.Chemical.HydrophobicPolarRatio,
			AromaticRatio:         f.Chemical.AromaticRatio,
			HBondDonors:           f.Chemical.HBondDonors,
			HBondAcceptors:        f.Chemical.HBondAcceptors,
			PolarSurfaceArea:      f.Chemical.PolarSurfaceArea,
		},
		Interaction: analysistypes.InteractionFeatures{
			HBondPotential:         f.Interaction.HBondPotential,
			VdwContactDensity:      f.Interaction.VdwContactDensity,
			ElectrostaticPotential: f.Interaction.ElectrostaticPotential,
			PiStackingPotential:    f.Interaction.PiStackingPotential,
			HydrophobicContacts:    f.Interaction.HydrophobicContacts,
		},
		Consensus: analysistypes.ConsensusFeatures{
			ConsensusScore:    f.Consensus.ConsensusScore,
			ProbeDiversity:    f.Consensus.ProbeDiversity,
			StrategyAgreement: f.Consensus.StrategyAgreement,
		},
	}
}

// scoreRecord maps the internal scoring outcome onto the outward DTO.
// ClusterID and Rank already live on the enclosing record.
func scoreRecord(s scoring.ClusterScore) analysistypes.ClusterScore {
	return analysistypes.ClusterScore{
		Sub: analysistypes.SubScores{
			Energy:      s.Sub.Energy,
			Diversity:   s.Sub.Diversity,
			Population:  s.Sub.Population,
			Compactness: s.Sub.Compactness,
		},
		FormulaScore: s.FormulaScore,
		ModelScore:   s.ModelScore,
		HasModel:     s.HasModel,
		Score:        s.Score,
	}
}
