// Package probe holds the static chemical reference table mapping probe
// identities to their descriptors.  The table is an external reference
// supplied by configuration; nothing in it is computed by the engine.
package probe

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// Descriptor carries the per-probe chemical descriptors consumed by the
// feature extractor.  Units: molecular weight g/mol, polar surface area Å²,
// dipole moment debye.
type Descriptor struct {
	MolecularWeight  float64 `yaml:"molecular_weight"`
	LogP             float64 `yaml:"logp"`
	HBondDonors      int     `yaml:"hbond_donors"`
	HBondAcceptors   int     `yaml:"hbond_acceptors"`
	PolarSurfaceArea float64 `yaml:"polar_surface_area"`
	DipoleMoment     float64 `yaml:"dipole_moment"`
	Aromatic         bool    `yaml:"aromatic"`
	Polar            bool    `yaml:"polar"`
	Charged          bool    `yaml:"charged"`
}

// IsHydrophobic reports whether the probe counts toward hydrophobic
// statistics.  A probe is hydrophobic when it is neither polar nor aromatic.
func (d Descriptor) IsHydrophobic() bool {
	return !d.Polar && !d.Aromatic
}

// Default descriptor values applied to probe identities absent from the
// library, so that unknown probes degrade chemistry statistics gracefully
// instead of failing the run.
var unknownDescriptor = Descriptor{
	MolecularWeight:  50.0,
	LogP:             0.0,
	PolarSurfaceArea: 20.0,
	Polar:            true,
}

// Library is an immutable mapping from probe identity to Descriptor.
type Library struct {
	entries map[string]Descriptor
}

// NewLibrary constructs a Library from the given entries.  The map is
// copied; later mutation of the argument does not affect the Library.
func NewLibrary(entries map[string]Descriptor) *Library {
	m := make(map[string]Descriptor, len(entries))
	for id, d := range entries {
		m[id] = d
	}
	return &Library{entries: m}
}

// Lookup returns the Descriptor for id.  Unknown identities yield the
// neutral default descriptor and ok=false.
func (l *Library) Lookup(id string) (Descriptor, bool) {
	if d, ok := l.entries[id]; ok {
		return d, true
	}
	return unknownDescriptor, false
}

// Len returns the number of known probe identities.
func (l *Library) Len() int { return len(l.entries) }

// IDs returns the known probe identities in unspecified order.
func (l *Library) IDs() []string {
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	return ids
}

// Builtin returns the library of the eighteen standard probe fragments used
// by the docking collaborator.  Values follow the reference table shipped
// with the docking pipeline.
func Builtin() *Library {
	return NewLibrary(map[string]Descriptor{
		"ethanol":       {MolecularWeight: 46.07, LogP: -0.31, HBondDonors: 1, HBondAcceptors: 1, PolarSurfaceArea: 20.23, DipoleMoment: 1.69, Polar: true},
		"isopropanol":   {MolecularWeight: 60.10, LogP: 0.05, HBondDonors: 1, HBondAcceptors: 1, PolarSurfaceArea: 20.23, DipoleMoment: 1.66, Polar: true},
		"acetone":       {MolecularWeight: 58.08, LogP: -0.24, HBondAcceptors: 1, PolarSurfaceArea: 17.07, DipoleMoment: 2.88, Polar: true},
		"benzene":       {MolecularWeight: 78.11, LogP: 2.13, Aromatic: true},
		"phenol":        {MolecularWeight: 94.11, LogP: 1.46, HBondDonors: 1, HBondAcceptors: 1, PolarSurfaceArea: 20.23, DipoleMoment: 1.45, Aromatic: true, Polar: true},
		"imidazole":     {MolecularWeight: 68.08, LogP: -0.76, HBondDonors: 1, HBondAcceptors: 2, PolarSurfaceArea: 28.68, DipoleMoment: 3.61, Aromatic: true, Polar: true, Charged: true},
		"indole":        {MolecularWeight: 117.15, LogP: 2.14, HBondDonors: 1, HBondAcceptors: 1, PolarSurfaceArea: 15.79, DipoleMoment: 2.11, Aromatic: true, Polar: true},
		"urea":          {MolecularWeight: 60.06, LogP: -2.11, HBondDonors: 2, HBondAcceptors: 1, PolarSurfaceArea: 69.11, DipoleMoment: 4.56, Polar: true},
		"acetamide":     {MolecularWeight: 59.07, LogP: -1.26, HBondDonors: 1, HBondAcceptors: 1, PolarSurfaceArea: 43.09, DipoleMoment: 3.76, Polar: true},
		"water":         {MolecularWeight: 18.02, LogP: -1.38, HBondDonors: 2, HBondAcceptors: 1, DipoleMoment: 1.85, Polar: true},
		"methylamine":   {MolecularWeight: 31.06, LogP: -0.57, HBondDonors: 2, HBondAcceptors: 1, PolarSurfaceArea: 26.02, DipoleMoment: 1.31, Polar: true, Charged: true},
		"cyclohexane":   {MolecularWeight: 84.16, LogP: 3.44},
		"ethane":        {MolecularWeight: 30.07, LogP: 1.81},
		"acetaldehyde":  {MolecularWeight: 44.05, LogP: 0.45, HBondAcceptors: 1, PolarSurfaceArea: 17.07, DipoleMoment: 2.75, Polar: true},
		"dmf":           {MolecularWeight: 73.09, LogP: -1.01, HBondAcceptors: 1, PolarSurfaceArea: 20.31, DipoleMoment: 3.82, Polar: true},
		"dimethylether": {MolecularWeight: 46.07, LogP: 0.10, HBondAcceptors: 1, PolarSurfaceArea: 9.23, DipoleMoment: 1.30, Polar: true},
		"acetonitrile":  {MolecularWeight: 41.05, LogP: -0.34, HBondAcceptors: 1, PolarSurfaceArea: 23.79, DipoleMoment: 3.92, Polar: true},
		"benzaldehyde":  {MolecularWeight: 106.12, LogP: 1.48, HBondAcceptors: 1, PolarSurfaceArea: 17.07, DipoleMoment: 3.0, Aromatic: true, Polar: true},
	})
}

// LoadFile reads a YAML probe-descriptor table and merges it over the
// builtin library, so user tables can add probes or override individual
// descriptors without restating all eighteen.
//
// File format:
//
//	probes:
//	  my_fragment:
//	    molecular_weight: 92.1
//	    logp: 0.4
//	    hbond_donors: 1
//	    polar: true
func LoadFile(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to read probe library file")
	}

	var doc struct {
		Probes map[string]Descriptor `yaml:"probes"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to parse probe library file")
	}
	if len(doc.Probes) == 0 {
		return nil, errors.Configuration("probe library file defines no probes").WithDetail("path=" + path)
	}

	merged := Builtin().entries
	for id, d := range doc.Probes {
		merged[id] = d
	}
	return NewLibrary(merged), nil
}
