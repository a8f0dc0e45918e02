// Package pose holds the normalized in-memory representation of docked
// probe placements and the derived pairwise-distance and Boltzmann-weight
// structures every clustering strategy consumes.
package pose

import (
	"fmt"
	"math"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Coord is a 3-D point in length units (Å).
type Coord [3]float64

// Sub returns the component-wise difference c − o.
func (c Coord) Sub(o Coord) Coord {
	return Coord{c[0] - o[0], c[1] - o[1], c[2] - o[2]}
}

// Norm returns the Euclidean length of c.
func (c Coord) Norm() float64 {
	return math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
}

// Dist returns the Euclidean distance between c and o.
func (c Coord) Dist(o Coord) float64 {
	return c.Sub(o).Norm()
}

// IsFinite reports whether every component is a finite number.
func (c Coord) IsFinite() bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Pose is one docked placement of one probe fragment.  Poses are created by
// the external docking collaborator and are immutable once loaded into a
// Store.
type Pose struct {
	// ProbeID is the chemical species tag, resolved against the probe
	// reference library during feature extraction.
	ProbeID string

	// Center is the 3-D center coordinate of the placement.
	Center Coord

	// Affinity is the binding energy in kcal/mol; lower is more favorable.
	Affinity float64

	// RMSDLowerBound and RMSDUpperBound are optional conformational bounds
	// reported by the docking engine; zero when absent.
	RMSDLowerBound float64
	RMSDUpperBound float64

	// AtomCoords is the optional per-atom coordinate list used for shape-
	// and orientation-derived features; nil when absent.
	AtomCoords []Coord
}

// validate checks the finiteness invariants for a single pose.  idx is the
// batch position, reported in error details.
func (p *Pose) validate(idx int) error {
	if p.ProbeID == "" {
		return errors.Validation("pose has empty probe identity").
			WithDetail(fmt.Sprintf("index=%d", idx))
	}
	if !p.Center.IsFinite() {
		return errors.Validation("pose has non-finite center coordinate").
			WithDetail(fmt.Sprintf("index=%d coord=%v", idx, p.Center))
	}
	if math.IsNaN(p.Affinity) || math.IsInf(p.Affinity, 0) {
		return errors.Validation("pose has non-finite affinity").
			WithDetail(fmt.Sprintf("index=%d affinity=%v", idx, p.Affinity))
	}
	if math.IsNaN(p.RMSDLowerBound) || math.IsInf(p.RMSDLowerBound, 0) ||
		math.IsNaN(p.RMSDUpperBound) || math.IsInf(p.RMSDUpperBound, 0) {
		return errors.Validation("pose has non-finite RMSD bound").
			WithDetail(fmt.Sprintf("index=%d", idx))
	}
	for ai, a := range p.AtomCoords {
		if !a.IsFinite() {
			return errors.Validation("pose has non-finite atom coordinate").
				WithDetail(fmt.Sprintf("index=%d atom=%d", idx, ai))
		}
	}
	return nil
}
