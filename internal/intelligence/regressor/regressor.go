// Package regressor provides inference for an offline-trained
// gradient-boosted regression-tree ensemble over the canonical flattened
// feature order.  Training happens elsewhere; this package only loads a
// serialized model and evaluates it.
package regressor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/felipsoliveira/FTMap/internal/domain/hotspot"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// node is one split or leaf of a regression tree.  Leaf nodes carry Value
// and have negative child indices.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

// modelFile is the on-disk JSON layout.  Shrinkage is pre-folded into leaf
// values by the training pipeline, so inference is a plain sum.
type modelFile struct {
	Version      int     `json:"version"`
	FeatureCount int     `json:"feature_count"`
	BaseScore    float64 `json:"base_score"`
	Trees        []tree  `json:"trees"`
}

const supportedVersion = 1

// Regressor evaluates a loaded ensemble.  Safe for concurrent Score calls;
// Load replaces the model atomically.
type Regressor struct {
	mu    sync.RWMutex
	model *modelFile
	log   logging.Logger
}

// New returns an empty regressor; Score fails until Load succeeds.
func New(log logging.Logger) *Regressor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Regressor{log: log.Named("regressor")}
}

// Load reads and validates a model file, replacing any previous model on
// success and keeping it untouched on failure.
func (r *Regressor) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeModelInvalid, "cannot read model file")
	}

	var m modelFile
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.Wrap(err, errors.ErrCodeModelInvalid, "cannot parse model file")
	}
	if err := validate(&m); err != nil {
		return err
	}

	r.mu.Lock()
	r.model = &m
	r.mu.Unlock()
	r.log.Info("model loaded",
		logging.String("path", path),
		logging.Int("trees", len(m.Trees)))
	return nil
}

// Loaded reports whether a model is available.
func (r *Regressor) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.model != nil
}

// Unload discards the current model.
func (r *Regressor) Unload() {
	r.mu.Lock()
	r.model = nil
	r.mu.Unlock()
}

// Score evaluates the ensemble on a flattened feature vector.
func (r *Regressor) Score(features []float64) (float64, error) {
	r.mu.RLock()
	m := r.model
	r.mu.RUnlock()

	if m == nil {
		return 0, errors.FromCode(errors.ErrCodeModelNotLoaded)
	}
	if len(features) != m.FeatureCount {
		return 0, errors.Newf(errors.ErrCodeModelInvalid,
			"feature vector has %d values, model expects %d", len(features), m.FeatureCount)
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.FeatureExtraction("non-finite feature value").
				WithDetail(fmt.Sprintf("index %d", i))
		}
	}

	sum := m.BaseScore
	for ti := range m.Trees {
		sum += evalTree(&m.Trees[ti], features)
	}
	return sum, nil
}

func evalTree(t *tree, features []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks structural integrity: version, feature width, node index
// bounds, and that every tree terminates (no cycles reachable from the
// root).
func validate(m *modelFile) error {
	if m.Version != supportedVersion {
		return errors.Newf(errors.ErrCodeModelInvalid,
			"unsupported model version %d", m.Version)
	}
	if m.FeatureCount != hotspot.FeatureCount {
		return errors.Newf(errors.ErrCodeModelInvalid,
			"model trained on %d features, engine produces %d",
			m.FeatureCount, hotspot.FeatureCount)
	}
	if len(m.Trees) == 0 {
		return errors.New(errors.ErrCodeModelInvalid, "model has no trees")
	}

	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return errors.Newf(errors.ErrCodeModelInvalid, "tree %d has no nodes", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
					return errors.Newf(errors.ErrCodeModelInvalid,
						"tree %d node %d has non-finite leaf value", ti, ni)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= m.FeatureCount {
				return errors.Newf(errors.ErrCodeModelInvalid,
					"tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			// internal nodes must point forward, which rules out cycles
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return errors.Newf(errors.ErrCodeModelInvalid,
					"tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}
