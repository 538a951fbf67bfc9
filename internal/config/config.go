// Package config holds all externally tunable settings for the diagnostics
// engine. Every numeric cut point used by the classifiers and severity
// scoring lives here; analysis code never hard-codes a threshold.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Sampling    SamplingConfig    `yaml:"sampling" json:"sampling"`
	Filter      FilterConfig      `yaml:"filter" json:"filter"`
	Evaluator   EvaluatorConfig   `yaml:"evaluator" json:"evaluator"`
	Classifier  ClassifierConfig  `yaml:"classifier" json:"classifier"`
	Analyzer    AnalyzerConfig    `yaml:"analyzer" json:"analyzer"`
	Feasibility FeasibilityConfig `yaml:"feasibility" json:"feasibility"`
	Severity    SeverityConfig    `yaml:"severity" json:"severity"`
	Report      ReportConfig      `yaml:"report" json:"report"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console
}

// SamplingConfig describes the numeric domains sampled contexts live in.
// Emotions and sexual states are fixed to [0,1]; mood axes span a wider,
// tunable range.
type SamplingConfig struct {
	MoodAxisMin float64 `yaml:"mood_axis_min" json:"mood_axis_min"`
	MoodAxisMax float64 `yaml:"mood_axis_max" json:"mood_axis_max"`
}

// ReportConfig configures the run archive.
type ReportConfig struct {
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// DefaultConfig returns the shipped defaults. The RARE/OK feasibility
// boundary and the strict ceiling/floor inequality are carried from the
// observed behavior of the original tuning; treat them as constants to tune,
// not to silently fix.
func DefaultConfig() *Config {
	return &Config{
		Name:    "exprdiag",
		Version: "1.0.0",

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},

		Sampling: SamplingConfig{
			MoodAxisMin: -1.0,
			MoodAxisMax: 1.0,
		},

		Filter: FilterConfig{
			MinActiveWeight:      0.05,
			MinActiveAxisOverlap: 0.34,
			MinSignAgreement:     0.5,
			MinWeightCosine:      0.55,
		},

		Evaluator: EvaluatorConfig{
			SampleCountPerPair:    5000,
			StrongIntensity:       0.6,
			MinExpressedIntensity: 0.001,
			MaxDivergenceExamples: 3,
		},

		Classifier: ClassifierConfig{
			MergeMinGateAgreement:     0.9,
			MergeMinIntensityCorr:     0.95,
			NestedMinIntensityCorr:    0.6,
			SeparationMinCoactivation: 0.35,
			SeparationMinMeanAbsDiff:  0.1,
			NegligibleGateAgreement:   0.05,
		},

		Analyzer: AnalyzerConfig{
			MaxCandidatePairs:   500,
			Workers:             1,
			ConfidenceFullCount: 1000,
		},

		Feasibility: FeasibilityConfig{
			RareMaxPassRate: 0.0005,
		},

		Severity: SeverityConfig{
			HighLostIntensityRatio:   0.3,
			MediumLostIntensityRatio: 0.15,
			HighImpact:               0.5,
			MediumImpact:             0.2,
		},

		Report: ReportConfig{
			DatabasePath: "data/exprdiag.db",
		},
	}
}

// Load reads configuration from a YAML file, overlaying the defaults.
// A missing file is not an error; defaults plus env overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("EXPRDIAG_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("EXPRDIAG_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if dbPath := os.Getenv("EXPRDIAG_DB_PATH"); dbPath != "" {
		c.Report.DatabasePath = dbPath
	}
	if workers := os.Getenv("EXPRDIAG_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			c.Analyzer.Workers = n
		}
	}
}

// Validate checks that every threshold is inside its legal range.
func (c *Config) Validate() error {
	if c.Sampling.MoodAxisMin >= c.Sampling.MoodAxisMax {
		return fmt.Errorf("sampling: mood_axis_min must be < mood_axis_max")
	}
	if err := c.Filter.validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := c.Evaluator.validate(); err != nil {
		return fmt.Errorf("evaluator: %w", err)
	}
	if err := c.Classifier.validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Analyzer.validate(); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if err := c.Feasibility.validate(); err != nil {
		return fmt.Errorf("feasibility: %w", err)
	}
	if err := c.Severity.validate(); err != nil {
		return fmt.Errorf("severity: %w", err)
	}
	return nil
}

func rateInRange(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0,1], got %v", name, v)
	}
	return nil
}
