// Package config loads the job-level configuration for a beosim run:
// the job root layout, worker pool sizing, and calibration limits.
// Archetype lookups, overrides, and scenario plans are data, not
// configuration, and stay JSON (see spec.md §6).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Job         JobConfig         `yaml:"job"`
	Logging     LoggingConfig     `yaml:"logging"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// JobConfig describes the output layout under the job root (spec.md §6).
type JobConfig struct {
	Root              string `yaml:"root"`
	OutputIDFsDir     string `yaml:"output_idfs_dir"`
	ModifiedIDFsDir   string `yaml:"modified_idfs_dir"`
	SimResultsDir     string `yaml:"sim_results_dir"`
	ModSimResultsDir  string `yaml:"modified_sim_results_dir"`
	ParsedDataDir     string `yaml:"parsed_data_dir"`
	ParsedModifiedDir string `yaml:"parsed_modified_results_dir"`
	SensitivityDir    string `yaml:"sensitivity_results_dir"`
	SurrogateDir      string `yaml:"surrogate_models_dir"`
	ValidationDir     string `yaml:"validation_results_dir"`
	CalibrationDir    string `yaml:"calibration_results_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SimulationConfig struct {
	EnginePath  string `yaml:"engine_path"`
	WorkerCount int    `yaml:"worker_count"`
	RunTimeout  string `yaml:"run_timeout"`
	RunStoreDir string `yaml:"run_store_dir"`
}

type AggregationConfig struct {
	SkipExisting bool `yaml:"skip_existing"`
}

type CalibrationConfig struct {
	MaxIterations      int     `yaml:"max_iterations"`
	MaxBuildings       int     `yaml:"max_buildings"`
	MinImprovement     float64 `yaml:"min_improvement"`
	Patience           int     `yaml:"patience"`
	ConvergenceMetric  string  `yaml:"convergence_metric"`
	ConvergenceThresh  float64 `yaml:"convergence_threshold"`
	MinCoveragePct     float64 `yaml:"min_coverage_pct"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration a fresh job directory is set up
// with, following jhkimqd-chaos-utils/pkg/config's DefaultConfig shape.
func Default() *Config {
	return &Config{
		Job: JobConfig{
			Root:              ".",
			OutputIDFsDir:     "output_IDFs",
			ModifiedIDFsDir:   "modified_idfs",
			SimResultsDir:     "Sim_Results",
			ModSimResultsDir:  "Modified_Sim_Results",
			ParsedDataDir:     "parsed_data",
			ParsedModifiedDir: "parsed_modified_results",
			SensitivityDir:    "sensitivity_results",
			SurrogateDir:      "surrogate_models",
			ValidationDir:     "validation_results",
			CalibrationDir:    "calibration_results",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Simulation: SimulationConfig{
			WorkerCount: 4,
			RunTimeout:  "1h",
			RunStoreDir: "run_store",
		},
		Aggregation: AggregationConfig{SkipExisting: true},
		Calibration: CalibrationConfig{
			MaxIterations:     10,
			MaxBuildings:      50,
			MinImprovement:    0.01,
			Patience:          2,
			ConvergenceMetric: "mean_cvrmse",
			ConvergenceThresh: 0.15,
			MinCoveragePct:    80.0,
		},
		Metrics: MetricsConfig{Enabled: false, Addr: ":9108"},
	}
}

// Load reads a YAML config file, overlaying it onto Default() so that
// unset fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
