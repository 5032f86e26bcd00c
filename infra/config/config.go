package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/drakos74/free-cluster/internal/math/ml"
	"github.com/drakos74/free-cluster/internal/model"
	"github.com/drakos74/free-cluster/internal/storage/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all the settings of a clustering run.
type Config struct {
	Input     string `json:"input" toml:"input" yaml:"input"`
	Output    string `json:"output" toml:"output" yaml:"output"`
	Metrics   string `json:"metrics" toml:"metrics" yaml:"metrics"`
	Snapshot  string `json:"snapshot" toml:"snapshot" yaml:"snapshot"`
	Header    bool   `json:"header" toml:"header" yaml:"header"`
	Delimiter string `json:"delimiter" toml:"delimiter" yaml:"delimiter"`
	Normalize bool   `json:"normalize" toml:"normalize" yaml:"normalize"`

	// Clusters runs a single k, From and To run a sweep. Only one of them can be set.
	Clusters int `json:"clusters" toml:"clusters" yaml:"clusters"`
	From     int `json:"from" toml:"from" yaml:"from"`
	To       int `json:"to" toml:"to" yaml:"to"`

	Seed          int64  `json:"seed" toml:"seed" yaml:"seed"`
	MaxIterations int    `json:"max_iterations" toml:"max_iterations" yaml:"max_iterations"`
	Init          string `json:"init" toml:"init" yaml:"init"`
	Workers       int    `json:"workers" toml:"workers" yaml:"workers"`

	LogLevel    string `json:"log_level" toml:"log_level" yaml:"log_level"`
	MetricsAddr string `json:"metrics_addr" toml:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the config with all defaults set.
func Default() Config {
	return Config{
		Delimiter:     file.Auto,
		Seed:          42,
		MaxIterations: ml.DefaultMaxIterations,
		Init:          ml.PlusPlus.String(),
		Workers:       runtime.NumCPU(),
		LogLevel:      zerolog.InfoLevel.String(),
	}
}

// Load reads the config file on top of the defaults.
// The format is picked from the extension: .json, .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not load config from '%s': %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		_, err = toml.Decode(string(b), &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config format '%s': %w", ext, model.ParameterErr)
	}
	if err != nil {
		return cfg, fmt.Errorf("could not decode config from '%s': %w", path, err)
	}

	log.Info().Str("file", path).Msg("loaded config")
	return cfg, nil
}

// Sweep is true if the config asks for a range of k.
func (c Config) Sweep() bool {
	return c.Clusters == 0
}

// Range returns the k range of the run, a single k is a range of one.
func (c Config) Range() (int, int) {
	if c.Sweep() {
		return c.From, c.To
	}
	return c.Clusters, c.Clusters
}

// Validate checks the config for consistency.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("no input file given: %w", model.ParameterErr)
	}
	ranged := c.From != 0 || c.To != 0
	switch {
	case c.Clusters != 0 && ranged:
		return fmt.Errorf("either clusters or a from/to range can be given, not both: %w", model.ParameterErr)
	case c.Clusters == 0 && !ranged:
		return fmt.Errorf("either clusters or a from/to range must be given: %w", model.ParameterErr)
	case c.Clusters < 0:
		return fmt.Errorf("clusters must be positive but was %d: %w", c.Clusters, model.ParameterErr)
	case ranged && (c.From < 1 || c.To < 1):
		return fmt.Errorf("range [%d,%d] must be positive: %w", c.From, c.To, model.ParameterErr)
	case ranged && c.From > c.To:
		return fmt.Errorf("range start %d is after range end %d: %w", c.From, c.To, model.ParameterErr)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive but was %d: %w", c.MaxIterations, model.ParameterErr)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive but was %d: %w", c.Workers, model.ParameterErr)
	}
	if _, err := ml.ParseInit(c.Init); err != nil {
		return err
	}
	if _, err := file.Delimiter(c.Input, c.Delimiter); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), model.ParameterErr)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", c.LogLevel, model.ParameterErr)
	}
	return nil
}
