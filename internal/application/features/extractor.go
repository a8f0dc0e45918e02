// Package features computes the fixed per-cluster feature vectors that feed
// the druggability scorer and the learned regressor.  Extraction is pure and
// per-cluster independent, so clusters run in parallel on a bounded worker
// pool.
package features

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/hotspot"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/internal/domain/probe"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Extractor populates hotspot.FeatureVector for consensus clusters.
type Extractor struct {
	beta        float64
	concurrency int
	library     *probe.Library
	log         logging.Logger
}

// NewExtractor builds an extractor.  beta is the Boltzmann weighting factor
// in mol/kcal; concurrency bounds the per-cluster worker pool.
func NewExtractor(beta float64, concurrency int, library *probe.Library, log logging.Logger) *Extractor {
	if concurrency < 1 {
		concurrency = config.DefaultConcurrency
	}
	if library == nil {
		library = probe.Builtin()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Extractor{beta: beta, concurrency: concurrency, library: library, log: log.Named("features")}
}

// ExtractAll fills in the Features field of every cluster, in parallel.
// Clusters keep their input order; a failed extraction aborts the whole
// batch since a partially featured cluster set must never reach scoring.
func (e *Extractor) ExtractAll(ctx context.Context, store *pose.Store, clusters []*hotspot.Cluster) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, c := range clusters {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrCodeCancelled, "feature extraction cancelled")
			}
			fv, err := e.Extract(store, c)
			if err != nil {
				return err
			}
			c.Features = fv
			return nil
		})
	}
	return g.Wait()
}

// Extract computes the full feature vector for one cluster.  Every field is
// populated; degenerate clusters get the documented defaults instead of NaN.
func (e *Extractor) Extract(store *pose.Store, c *hotspot.Cluster) (*hotspot.FeatureVector, error) {
	fv := &hotspot.FeatureVector{
		Energetic:   e.energetic(store, c.Members),
		Spatial:     e.spatial(store, c.Members),
		Chemical:    e.chemical(store, c.Members),
		Interaction: e.interaction(store, c.Members),
		Consensus:   e.consensus(store, c),
	}
	if err := fv.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFeatureExtraction, "invalid feature vector").
			WithDetail(c.String())
	}
	return fv, nil
}

func (e *Extractor) energetic(store *pose.Store, members []int) hotspot.EnergeticFeatures {
	min, max := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, i := range members {
		a := store.Affinity(i)
		sum += a
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	mean := sum / float64(len(members))

	var std float64
	if len(members) > 1 {
		var ss float64
		for _, i := range members {
			d := store.Affinity(i) - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(members)))
	}

	return hotspot.EnergeticFeatures{
		MeanAffinity:   mean,
		StdDevAffinity: std,
		MinAffinity:    min,
		MaxAffinity:    max,
		EnergyRange:    max - min,
	}
}

func (e *Extractor) spatial(store *pose.Store, members []int) hotspot.SpatialFeatures {
	centroid := e.boltzmannCentroid(store, members)

	out := hotspot.SpatialFeatures{
		CentroidX:   centroid[0],
		CentroidY:   centroid[1],
		CentroidZ:   centroid[2],
		AspectRatio: 1,
	}
	if len(members) == 1 {
		return out
	}

	points := make([]pose.Coord, len(members))
	radial := make([]float64, len(members))
	var sumSq, sumR float64
	for k, i := range members {
		points[k] = store.Center(i)
		r := points[k].Dist(centroid)
		radial[k] = r
		sumR += r
		sumSq += r * r
	}
	n := float64(len(members))
	out.Spread = math.Sqrt(sumSq / n)

	// Radius of gyration about the arithmetic mean, unlike Spread which is
	// taken about the energy-weighted centroid.
	arith := centroidOf(points, identityIndices(len(points)))
	var gyr float64
	for _, p := range points {
		d := p.Dist(arith)
		gyr += d * d
	}
	out.GyrationRadius = math.Sqrt(gyr / n)

	meanR := sumR / n
	if meanR > 0 {
		var varR float64
		for _, r := range radial {
			d := r - meanR
			varR += d * d
		}
		out.RadialDistribution = math.Sqrt(varR/n) / meanR
	}

	out.HullVolume, out.HullSurfaceArea = convexHull(points)
	if out.HullVolume > 0 {
		out.Compactness = out.Spread / math.Cbrt(out.HullVolume)
	}

	extents := principalExtents(points)
	if extents[2] > 1e-6 {
		out.AspectRatio = extents[0] / extents[2]
	}
	return out
}

func (e *Extractor) boltzmannCentroid(store *pose.Store, members []int) pose.Coord {
	// Shift energies by the cluster minimum before exponentiating so deep
	// affinities cannot overflow the weights.
	minE := math.Inf(1)
	for _, i := range members {
		if a := store.Affinity(i); a < minE {
			minE = a
		}
	}

	var centroid pose.Coord
	var total float64
	for _, i := range members {
		w := math.Exp(-e.beta * (store.Affinity(i) - minE))
		c := store.Center(i)
		centroid[0] += w * c[0]
		centroid[1] += w * c[1]
		centroid[2] += w * c[2]
		total += w
	}
	centroid[0] /= total
	centroid[1] /= total
	centroid[2] /= total
	return centroid
}

func (e *Extractor) chemical(store *pose.Store, members []int) hotspot.ChemicalFeatures {
	var (
		logpSum, psaSum    float64
		donors, acceptors  int
		hydrophobic, polar int
		aromatic           int
	)
	mwSum, mwMin, mwMax := 0.0, math.Inf(1), math.Inf(-1)
	for _, i := range members {
		d, _ := e.library.Lookup(store.ProbeID(i))
		mwSum += d.MolecularWeight
		if d.MolecularWeight < mwMin {
			mwMin = d.MolecularWeight
		}
		if d.MolecularWeight > mwMax {
			mwMax = d.MolecularWeight
		}
		logpSum += d.LogP
		psaSum += d.PolarSurfaceArea
		donors += d.HBondDonors
		acceptors += d.HBondAcceptors
		if d.IsHydrophobic() {
			hydrophobic++
		}
		if d.Polar {
			polar++
		}
		if d.Aromatic {
			aromatic++
		}
	}

	n := float64(len(members))
	ratio := 1.0 // neutral when no polar poses anchor the denominator
	if polar > 0 {
		ratio = float64(hydrophobic) / float64(polar)
	}

	return hotspot.ChemicalFeatures{
		MolecularWeightMean:   mwSum / n,
		MolecularWeightRange:  mwMax - mwMin,
		LogPMean:              logpSum / n,
		HydrophobicPolarRatio: ratio,
		AromaticRatio:         float64(aromatic) / n,
		HBondDonors:           donors,
		HBondAcceptors:        acceptors,
		PolarSurfaceArea:      psaSum / n,
	}
}

func (e *Extractor) interaction(store *pose.Store, members []int) hotspot.InteractionFeatures {
	var out hotspot.InteractionFeatures
	for _, i := range members {
		d, _ := e.library.Lookup(store.ProbeID(i))
		out.HBondPotential += float64(d.HBondDonors + d.HBondAcceptors)
		out.VdwContactDensity += d.MolecularWeight * 0.01
		out.ElectrostaticPotential += d.DipoleMoment
		if d.Aromatic {
			out.PiStackingPotential++
		}
		if d.IsHydrophobic() {
			out.HydrophobicContacts += d.MolecularWeight * 0.1
		}
	}
	n := float64(len(members))
	out.HBondPotential /= n
	out.VdwContactDensity /= n
	out.HydrophobicContacts /= n
	return out
}

func (e *Extractor) consensus(store *pose.Store, c *hotspot.Cluster) hotspot.ConsensusFeatures {
	distinct := make(map[string]struct{}, 4)
	for _, i := range c.Members {
		distinct[store.ProbeID(i)] = struct{}{}
	}
	return hotspot.ConsensusFeatures{
		ConsensusScore:    c.ConsensusScore,
		ProbeDiversity:    len(distinct),
		StrategyAgreement: c.StrategyAgreement,
	}
}

func identityIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
