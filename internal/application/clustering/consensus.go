package clustering

import (
	"context"
	"sort"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/domain/hotspot"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Partition is one strategy's labeling of the pose set, together with the
// weight it carries in the consensus vote.
type Partition struct {
	Strategy string
	Weight   float64
	Labels   []int
}

// Engine combines weighted strategy partitions into consensus clusters via
// a co-association matrix: each pair of poses accumulates the weight of
// every strategy that groups them together, and the resulting agreement
// matrix is cut by average linkage.
type Engine struct {
	cfg config.ConsensusConfig
	log logging.Logger
}

func NewEngine(cfg config.ConsensusConfig, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Engine{cfg: cfg, log: log.Named("consensus")}
}

// Combine merges the given partitions into consensus clusters.  Partitions
// with zero weight or missing labels are excluded from the vote; with
// fewer than two usable partitions the engine falls back to the single
// surviving partition and marks every cluster low-confidence.  Output is
// deterministic: clusters are ordered by their smallest member index.
func (e *Engine) Combine(ctx context.Context, store *pose.Store, partitions []Partition) ([]*hotspot.Cluster, error) {
	n := store.Len()
	active := make([]Partition, 0, len(partitions))
	for _, p := range partitions {
		if p.Weight <= 0 || p.Labels == nil {
			continue
		}
		if len(p.Labels) != n {
			return nil, errors.Newf(errors.ErrCodeInternal,
				"partition %q labels %d poses, store has %d", p.Strategy, len(p.Labels), n)
		}
		if countClusters(p.Labels) == 0 {
			e.log.Warn("strategy produced an all-noise partition, excluding it",
				logging.String("strategy", p.Strategy))
			continue
		}
		active = append(active, p)
	}

	if len(active) == 0 {
		return nil, errors.ConsensusDegenerate("no usable strategy partitions")
	}
	if len(active) == 1 {
		e.log.Warn("single usable partition, consensus degenerates to one strategy",
			logging.String("strategy", active[0].Strategy))
		return e.fallback(store, active[0])
	}

	// Renormalize over the active strategies so excluded weight does not
	// deflate agreement values.
	var total float64
	for _, p := range active {
		total += p.Weight
	}
	for i := range active {
		active[i].Weight /= total
	}

	coassoc := buildCoassociation(n, active)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCancelled, "consensus cancelled")
	}

	labels, err := e.cut(ctx, n, coassoc)
	if err != nil {
		return nil, err
	}
	labels = e.rescueSingletons(labels, coassoc, n)

	return buildClusters(labels, coassoc, n, active, false)
}

// cut clusters the disagreement matrix 1−coassoc with average linkage and
// keeps every merge strictly below 1−CutThreshold, so poses end up grouped
// exactly when their mean agreement exceeds the threshold.
func (e *Engine) cut(ctx context.Context, n int, coassoc []float64) ([]int, error) {
	if n == 1 {
		return []int{0}, nil
	}
	dist := &coassocDistances{n: n, coassoc: coassoc}
	merges, err := agglomerate(ctx, n, dist, linkAverage)
	if err != nil {
		return nil, err
	}
	return labelsBelowHeight(n, merges, 1-e.cfg.CutThreshold), nil
}

// rescueSingletons reattaches a singleton to the neighboring cluster with
// the highest mean co-association, provided that agreement reaches
// MinAgreement.  Singletons below the bar stay as they are; a weak hotspot
// is still reported rather than silently dropped.
func (e *Engine) rescueSingletons(labels []int, coassoc []float64, n int) []int {
	groups := groupByLabel(labels)
	if len(groups) < 2 {
		return labels
	}
	sizes := make(map[int]int, len(groups))
	for l, members := range groups {
		sizes[l] = len(members)
	}

	out := make([]int, n)
	copy(out, labels)
	for i := 0; i < n; i++ {
		if sizes[labels[i]] != 1 {
			continue
		}
		bestLabel, bestMean := -1, 0.0
		for l, members := range groups {
			if l == labels[i] || sizes[l] == 1 {
				continue
			}
			var sum float64
			for _, j := range members {
				sum += coassocAt(coassoc, n, i, j)
			}
			mean := sum / float64(len(members))
			if mean > bestMean || (mean == bestMean && bestLabel >= 0 && l < bestLabel) {
				bestLabel, bestMean = l, mean
			}
		}
		if bestLabel >= 0 && bestMean >= e.cfg.MinAgreement {
			out[i] = bestLabel
		}
	}
	return canonicalize(out)
}

// fallback converts a single partition directly into clusters.  Noise
// poses become singletons; every cluster is flagged low-confidence.
func (e *Engine) fallback(store *pose.Store, p Partition) ([]*hotspot.Cluster, error) {
	n := store.Len()
	labels := make([]int, n)
	copy(labels, p.Labels)
	next := countClusters(labels)
	for i, l := range labels {
		if l == NoiseLabel {
			labels[i] = next
			next++
		}
	}
	clusters, err := buildClusters(canonicalize(labels), nil, n, []Partition{{Strategy: p.Strategy, Weight: 1, Labels: p.Labels}}, true)
	if err != nil {
		return nil, err
	}
	return clusters, nil
}

// buildCoassociation accumulates, for every pose pair, the weight of each
// partition that places both poses in the same non-noise cluster.  Packed
// upper triangle, same layout as the dense distance matrix.
func buildCoassociation(n int, partitions []Partition) []float64 {
	coassoc := make([]float64, n*(n-1)/2)
	for _, p := range partitions {
		for _, members := range groupByLabel(p.Labels) {
			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					i, j := members[a], members[b]
					coassoc[packedIndex(n, i, j)] += p.Weight
				}
			}
		}
	}
	return coassoc
}

func packedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*(2*n-i-1)/2 + (j - i - 1)
}

func coassocAt(coassoc []float64, n, i, j int) float64 {
	if i == j {
		return 1
	}
	return coassoc[packedIndex(n, i, j)]
}

// coassocDistances views the co-association matrix as a disagreement
// metric for the linkage code.
type coassocDistances struct {
	n       int
	coassoc []float64
}

func (d *coassocDistances) Len() int { return d.n }

func (d *coassocDistances) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	return 1 - d.coassoc[packedIndex(d.n, i, j)]
}

// buildClusters materializes hotspot clusters from canonical labels,
// computing the consensus score (mean intra-cluster co-association) and
// the strategy agreement fraction for each.
func buildClusters(labels []int, coassoc []float64, n int, partitions []Partition, lowConfidence bool) ([]*hotspot.Cluster, error) {
	groups := groupByLabel(labels)
	order := make([]int, 0, len(groups))
	for l := range groups {
		order = append(order, l)
	}
	sort.Slice(order, func(a, b int) bool {
		return groups[order[a]][0] < groups[order[b]][0]
	})

	clusters := make([]*hotspot.Cluster, 0, len(order))
	for id, l := range order {
		members := groups[l]
		score := 1.0
		if len(members) > 1 && coassoc != nil {
			var sum float64
			var pairs int
			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					sum += coassocAt(coassoc, n, members[a], members[b])
					pairs++
				}
			}
			score = sum / float64(pairs)
		}

		c, err := hotspot.NewCluster(id, members, score)
		if err != nil {
			return nil, err
		}
		c.LowConfidence = lowConfidence
		c.StrategyAgreement = strategyAgreement(members, partitions)
		clusters = append(clusters, c)
	}
	return clusters, nil
}

// strategyAgreement returns the fraction of total partition weight whose
// labeling keeps all members in one non-noise cluster.
func strategyAgreement(members []int, partitions []Partition) float64 {
	var total, agreeing float64
	for _, p := range partitions {
		total += p.Weight
		label := p.Labels[members[0]]
		if label == NoiseLabel && len(members) > 1 {
			continue
		}
		agrees := true
		for _, m := range members[1:] {
			if p.Labels[m] != label || label == NoiseLabel {
				agrees = false
				break
			}
		}
		if agrees {
			agreeing += p.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return agreeing / total
}
