package probe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipsoliveira/FTMap/pkg/errors"
)

func TestBuiltin_Coverage(t *testing.T) {
	lib := Builtin()
	assert.Equal(t, 18, lib.Len())

	benzene, ok := lib.Lookup("benzene")
	require.True(t, ok)
	assert.True(t, benzene.Aromatic)
	assert.False(t, benzene.Polar)
	assert.False(t, benzene.IsHydrophobic()) // aromatic, not hydrophobic

	cyclohexane, ok := lib.Lookup("cyclohexane")
	require.True(t, ok)
	assert.True(t, cyclohexane.IsHydrophobic())

	urea, ok := lib.Lookup("urea")
	require.True(t, ok)
	assert.Equal(t, 2, urea.HBondDonors)
	assert.Equal(t, 1, urea.HBondAcceptors)
	assert.InDelta(t, 69.11, urea.PolarSurfaceArea, 1e-9)
}

func TestLookup_UnknownFallsBackToNeutral(t *testing.T) {
	lib := Builtin()
	d, ok := lib.Lookup("mystery_fragment")
	assert.False(t, ok)
	assert.Equal(t, 50.0, d.MolecularWeight)
	assert.Equal(t, 0.0, d.LogP)
	assert.Equal(t, 20.0, d.PolarSurfaceArea)
	assert.True(t, d.Polar)
}

func TestNewLibrary_CopiesEntries(t *testing.T) {
	src := map[string]Descriptor{"x": {MolecularWeight: 10}}
	lib := NewLibrary(src)
	src["x"] = Descriptor{MolecularWeight: 99}

	d, ok := lib.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 10.0, d.MolecularWeight)
}

func TestLoadFile_MergesOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probes.yaml")
	data := []byte(`
probes:
  toluene:
    molecular_weight: 92.14
    logp: 2.73
    aromatic: true
  benzene:
    molecular_weight: 78.11
    logp: 9.99
    aromatic: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	lib, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 19, lib.Len())

	toluene, ok := lib.Lookup("toluene")
	require.True(t, ok)
	assert.InDelta(t, 92.14, toluene.MolecularWeight, 1e-9)

	// Override wins over the builtin entry.
	benzene, _ := lib.Lookup("benzene")
	assert.Equal(t, 9.99, benzene.LogP)

	// Untouched builtin entries survive the merge.
	_, ok = lib.Lookup("ethanol")
	assert.True(t, ok)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("probes: {}\n"), 0o600))
	_, err = LoadFile(empty)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}
