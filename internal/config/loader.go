package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all engine settings.
const envPrefix = "FTMAP"

// configKeys lists every known configuration key.  Each key is explicitly
// bound to its environment variable because viper's AutomaticEnv does not
// surface env-only keys to Unmarshal.
var configKeys = []string{
	"pose.max_poses",
	"pose.beta",
	"pose.distance_cache_size",
	"density.eps",
	"density.min_pts",
	"hierarchical.cut_criterion",
	"hierarchical.distance_threshold",
	"hierarchical.max_clusters",
	"agglomerative.connectivity_k",
	"agglomerative.target_clusters",
	"agglomerative.max_clusters",
	"consensus.weight_hierarchical",
	"consensus.weight_density",
	"consensus.weight_agglomerative",
	"consensus.cut_threshold",
	"consensus.min_agreement",
	"scoring.ideal_energy_low",
	"scoring.ideal_energy_high",
	"scoring.energy_falloff",
	"scoring.diversity_saturation",
	"scoring.spread_saturation",
	"scoring.model_path",
	"scoring.model_blend",
	"analysis.concurrency",
	"analysis.probe_library_path",
	"log.level",
	"log.format",
	"metrics.enabled",
	"metrics.namespace",
}

// newViper builds a pre-configured Viper instance with the engine's standard
// settings: YAML file type, FTMAP_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "density.eps"
// resolve to "FTMAP_DENSITY_EPS".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any FTMAP_* environment
// variable overrides, applies engine defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from FTMAP_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	FTMAP_<SECTION>_<FIELD>   e.g.  FTMAP_DENSITY_EPS, FTMAP_POSE_MAX_POSES
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as the log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here, callers should Load first.
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// The changed file is invalid; skip the callback so the engine
			// never runs with a broken configuration.
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always
// fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
