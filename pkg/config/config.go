// Package config loads pipeline settings from defaults, an optional file and
// HOUSEPRICE_* environment variables.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/preprocessing"
	"github.com/YuminosukeSato/houseprice/selection"
)

// EnvPrefix is prepended to every environment override, e.g.
// HOUSEPRICE_TRAINING_SEED overrides training.seed.
const EnvPrefix = "HOUSEPRICE"

// Data holds the CSV locations of each stage.
type Data struct {
	RawPath        string `mapstructure:"raw_path"`
	CleanedPath    string `mapstructure:"cleaned_path"`
	EngineeredPath string `mapstructure:"engineered_path"`
}

// Cleaning configures the Cleaner.
type Cleaning struct {
	MissingThreshold float64 `mapstructure:"missing_threshold"`
}

// Training configures the Selector.
type Training struct {
	Features     []string `mapstructure:"features"`
	Target       string   `mapstructure:"target"`
	Seed         int64    `mapstructure:"seed"`
	TestSize     float64  `mapstructure:"test_size"`
	Parallel     bool     `mapstructure:"parallel"`
	ArtifactPath string   `mapstructure:"artifact_path"`
	PlotPath     string   `mapstructure:"plot_path"`
}

// Serve configures the HTTP server.
type Serve struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full set of settings.
type Config struct {
	LogLevel string   `mapstructure:"log_level"`
	Data     Data     `mapstructure:"data"`
	Cleaning Cleaning `mapstructure:"cleaning"`
	Training Training `mapstructure:"training"`
	Serve    Serve    `mapstructure:"serve"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("data.raw_path", "data/AmesHousing.csv")
	v.SetDefault("data.cleaned_path", "data/cleaned_ameshousing.csv")
	v.SetDefault("data.engineered_path", "data/engineered_ameshousing.csv")
	v.SetDefault("cleaning.missing_threshold", preprocessing.DefaultMissingThreshold)
	v.SetDefault("training.features", selection.DefaultFeatures)
	v.SetDefault("training.target", selection.DefaultTarget)
	v.SetDefault("training.seed", selection.DefaultSeed)
	v.SetDefault("training.test_size", selection.DefaultTestSize)
	v.SetDefault("training.parallel", false)
	v.SetDefault("training.artifact_path", selection.DefaultArtifactPath)
	v.SetDefault("training.plot_path", "")
	v.SetDefault("serve.addr", ":8000")
}

// New returns a viper instance with defaults and environment binding in place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) on top of the defaults and environment and
// returns the validated result.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if t := c.Cleaning.MissingThreshold; t < 0 || t > 1 {
		return errors.NewValidationError("cleaning.missing_threshold", "must be in [0, 1]", t)
	}
	if s := c.Training.TestSize; s <= 0 || s >= 1 {
		return errors.NewValidationError("training.test_size", "must be in (0, 1)", s)
	}
	if len(c.Training.Features) == 0 {
		return errors.NewValidationError("training.features", "must not be empty", c.Training.Features)
	}
	seen := make(map[string]bool, len(c.Training.Features))
	for _, f := range c.Training.Features {
		if seen[f] {
			return errors.NewValidationError("training.features", "duplicate feature", f)
		}
		seen[f] = true
	}
	if c.Training.Target == "" {
		return errors.NewValidationError("training.target", "must not be empty", c.Training.Target)
	}
	return nil
}

// Level returns the parsed log level. Validate guarantees it parses.
func (c *Config) Level() log.Level {
	lvl, _ := log.ParseLevel(c.LogLevel)
	return lvl
}
