package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipsoliveira/FTMap/internal/config"
	analysistypes "github.com/felipsoliveira/FTMap/pkg/types/analysis"
)

const samplePosesYAML = `poses:
  - probe: ethanol
    center: [0, 0, 0]
    affinity: -4.2
  - probe: benzene
    center: [1, 0, 0]
    affinity: -4.0
  - probe: water
    center: [0, 1, 0]
    affinity: -4.1
  - probe: acetone
    center: [1, 1, 0]
    affinity: -4.3
  - probe: ethanol
    center: [30, 0, 0]
    affinity: -1.1
  - probe: ethanol
    center: [31, 0, 0]
    affinity: -1.2
  - probe: ethanol
    center: [30, 1, 0]
    affinity: -1.0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewLoggerFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "console"

	log, err := newLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Debug("logger built from CLI config")
}

func TestReadPoseFileYAML(t *testing.T) {
	poses, err := readPoseFile(writeFile(t, "poses.yaml", samplePosesYAML))
	require.NoError(t, err)
	require.Len(t, poses, 7)
	assert.Equal(t, "ethanol", poses[0].ProbeID)
	assert.Equal(t, -4.2, poses[0].Affinity)
	assert.Equal(t, 30.0, poses[4].Center[0])
}

func TestReadPoseFileJSON(t *testing.T) {
	content := `{"poses":[{"probe":"water","center":[1,2,3],"affinity":-3.5}]}`
	poses, err := readPoseFile(writeFile(t, "poses.json", content))
	require.NoError(t, err)
	require.Len(t, poses, 1)
	assert.Equal(t, "water", poses[0].ProbeID)
	assert.Equal(t, 3.0, poses[0].Center[2])
}

func TestReadPoseFileRejectsEmptyAndMissing(t *testing.T) {
	_, err := readPoseFile(writeFile(t, "empty.yaml", "poses: []"))
	require.Error(t, err)

	_, err = readPoseFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestAnalyzeCommandEndToEnd(t *testing.T) {
	input := writeFile(t, "poses.yaml", samplePosesYAML)
	output := filepath.Join(t.TempDir(), "result.json")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"analyze", "-i", input, "-o", output, "--log-level", "error"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)

	var result analysistypes.Result
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, 7, result.PoseCount)
	assert.NotEmpty(t, result.RunID)
	require.NotEmpty(t, result.Clusters)
	assert.Equal(t, 1, result.Clusters[0].Rank)
}

func TestAnalyzeCommandTopN(t *testing.T) {
	input := writeFile(t, "poses.yaml", samplePosesYAML)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"analyze", "-i", input, "--top", "1", "--log-level", "error"})
	cmd.SetOut(&out)
	cmd.SetErr(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	var result analysistypes.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Len(t, result.Clusters, 1)
}

func TestAnalyzeCommandRequiresInput(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"analyze"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	require.Error(t, cmd.Execute())
}

func TestProbesCommandListsTable(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"probes"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "ethanol")
	assert.Contains(t, out.String(), "benzene")
	assert.Contains(t, out.String(), "water")
}
