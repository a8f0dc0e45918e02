package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felipsoliveira/FTMap/internal/application/analysis"
	"github.com/felipsoliveira/FTMap/internal/domain/pose"
	"github.com/felipsoliveira/FTMap/internal/domain/probe"
	promx "github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/prometheus"
	"github.com/felipsoliveira/FTMap/pkg/errors"
)

// poseEntry is one pose record in an input file.
type poseEntry struct {
	Probe    string     `yaml:"probe" json:"probe"`
	Center   [3]float64 `yaml:"center" json:"center"`
	Affinity float64    `yaml:"affinity" json:"affinity"`
	RMSDLB   float64    `yaml:"rmsd_lb,omitempty" json:"rmsd_lb,omitempty"`
	RMSDUB   float64    `yaml:"rmsd_ub,omitempty" json:"rmsd_ub,omitempty"`
}

// poseFile is the on-disk input layout.  YAML is a superset of JSON, so a
// single decoder serves both formats.
type poseFile struct {
	Poses []poseEntry `yaml:"poses" json:"poses"`
}

type analyzeOptions struct {
	inputPath  string
	outputPath string
	topN       int
}

func newAnalyzeCommand(root *RootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run consensus hotspot analysis over a pose batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", "pose batch file (YAML or JSON)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "result file (default: stdout)")
	cmd.Flags().IntVar(&opts.topN, "top", 0, "emit only the N best-ranked hotspots (0 = all)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *RootOptions, opts *analyzeOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	poses, err := readPoseFile(opts.inputPath)
	if err != nil {
		return err
	}

	var metrics *promx.Metrics
	if cfg.Metrics.Enabled {
		metrics = promx.NewMetrics(cfg.Metrics.Namespace)
	}

	analyzer, err := analysis.NewAnalyzer(cfg, log, metrics)
	if err != nil {
		return err
	}
	result, err := analyzer.Run(cmd.Context(), poses)
	if err != nil {
		return err
	}

	if opts.topN > 0 {
		result.Clusters = result.Top(opts.topN)
	}

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode result")
	}
	raw = append(raw, '\n')

	if opts.outputPath == "" {
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	}
	return os.WriteFile(opts.outputPath, raw, 0o644)
}

// readPoseFile decodes a pose batch from a YAML or JSON file.
func readPoseFile(path string) ([]pose.Pose, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "cannot read pose file")
	}

	var file poseFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cannot parse pose file")
	}
	if len(file.Poses) == 0 {
		return nil, errors.Validation("pose file contains no poses")
	}

	poses := make([]pose.Pose, len(file.Poses))
	for i, e := range file.Poses {
		poses[i] = pose.Pose{
			ProbeID:        e.Probe,
			Center:         pose.Coord(e.Center),
			Affinity:       e.Affinity,
			RMSDLowerBound: e.RMSDLB,
			RMSDUpperBound: e.RMSDUB,
		}
	}
	return poses, nil
}

// newProbesCommand lists the active probe descriptor table.
func newProbesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probes",
		Short: "List the built-in probe descriptor table",
		RunE: func(cmd *cobra.Command, args []string) error {
			library := probe.Builtin()
			ids := library.IDs()
			sort.Strings(ids)
			for _, id := range ids {
				d, _ := library.Lookup(id)
				fmt.Fprintf(cmd.OutOrStdout(),
					"%-14s MW %7.2f  logP %6.2f  HBD %d  HBA %d  PSA %6.2f\n",
					id, d.MolecularWeight, d.LogP, d.HBondDonors, d.HBondAcceptors, d.PolarSurfaceArea)
			}
			return nil
		},
	}
}
