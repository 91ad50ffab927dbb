// Package config holds the externally supplied tuning surface: feature
// schema, pattern catalogue, severity constants, decode and size caps, and
// scorer location. Everything the engine needs is injected from here at
// startup — nothing is hardcoded inline, so retraining or retuning never
// means a code change.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/engine/patterns"
	"github.com/crimson-sun/warden/internal/engine/severity"
)

// ScorerKind selects the classifier implementation.
type ScorerKind string

const (
	ScorerONNX   ScorerKind = "onnx"
	ScorerStatic ScorerKind = "static"
)

// Config is the full warden configuration.
type Config struct {
	Schema   SchemaConfig    `yaml:"schema"`
	Patterns []patterns.Spec `yaml:"patterns"`
	Decode   DecodeConfig    `yaml:"decode"`
	Severity severity.Config `yaml:"severity"`
	Scorer   ScorerConfig    `yaml:"scorer"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// SchemaConfig pins the feature layout the scorer was trained against.
type SchemaConfig struct {
	Version  string   `yaml:"version"`
	Features []string `yaml:"features"`
}

// DecodeConfig bounds the decoder and extractor.
type DecodeConfig struct {
	MaxLayers int `yaml:"max_layers"`
	SizeCap   int `yaml:"size_cap"` // bytes per field before truncation
}

// ScorerConfig locates the trained classifier.
type ScorerConfig struct {
	Kind      ScorerKind `yaml:"kind"`
	ModelPath string     `yaml:"model_path"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the shipped configuration: built-in schema and catalogue,
// static scorer, default severity constants.
func Default() Config {
	return Config{
		Schema: SchemaConfig{
			Version:  features.SchemaVersion,
			Features: features.DefaultNames(),
		},
		Patterns: patterns.DefaultSpecs(),
		Decode: DecodeConfig{
			MaxLayers: 5,
			SizeCap:   features.DefaultSizeCap,
		},
		Severity: severity.DefaultConfig(),
		Scorer:   ScorerConfig{Kind: ScorerStatic},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ValidationError collects every configuration problem found, so the operator
// sees the whole picture instead of fixing one field at a time.
type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d configuration problem(s)", len(v.Problems))
}

// Validate checks the configuration by actually compiling its pieces: the
// schema, the catalogue, and the severity constants. Runtime never sees an
// inconsistent config because startup refuses it here.
func (c *Config) Validate() error {
	v := &ValidationError{}

	schema, err := features.NewSchema(c.Schema.Features)
	if err != nil {
		v.Add("schema: %v", err)
	}
	if c.Schema.Version == "" {
		v.Add("schema: version is required")
	}

	cat, err := patterns.Compile(c.Patterns)
	if err != nil {
		v.Add("patterns: %v", err)
	}

	if c.Decode.MaxLayers < 0 {
		v.Add("decode: max_layers must not be negative")
	}
	if c.Decode.SizeCap < 0 {
		v.Add("decode: size_cap must not be negative")
	}

	if schema != nil {
		if _, err := severity.New(c.Severity, schema); err != nil {
			v.Add("severity: %v", err)
		}
		if cat != nil {
			if _, err := features.NewExtractor(schema, cat, c.Decode.MaxLayers, c.Decode.SizeCap); err != nil {
				v.Add("%v", err)
			}
		}
	}

	switch c.Scorer.Kind {
	case ScorerStatic:
	case ScorerONNX:
		if c.Scorer.ModelPath == "" {
			v.Add("scorer: model_path is required for the onnx scorer")
		}
	default:
		v.Add("scorer: unknown kind %q", c.Scorer.Kind)
	}

	if len(v.Problems) > 0 {
		return v
	}
	return nil
}
