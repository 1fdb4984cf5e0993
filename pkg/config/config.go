// Package config handles analysis configuration loading.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/estimate"
	"github.com/ratekit/ratekit/pkg/rates"
	"github.com/ratekit/ratekit/pkg/trajectory"
)

// Config is the root configuration structure.
type Config struct {
	// Directory holds one subfolder per run.
	Directory string `yaml:"directory"`

	// Runs is the ordered list of replica identifiers.
	Runs []string `yaml:"runs"`

	// ColvarName and LogName name the trajectory table and transition
	// log inside each run folder. InconNames prefixes both with the run
	// identifier for setups that name files per run.
	ColvarName string `yaml:"colvar_name"`
	LogName    string `yaml:"log_name"`
	InconNames bool   `yaml:"incon_names"`

	// PlogLen is the log line count above which a run counts as
	// transitioned.
	PlogLen int `yaml:"plog_len"`

	// Beta is the inverse temperature converting bias to dimensionless
	// energy.
	Beta float64 `yaml:"beta"`

	// BiasShift is added to every bias value before exponentiation.
	BiasShift float64 `yaml:"bias_shift"`

	Columns  ColumnsConfig   `yaml:"columns"`
	Analyses map[string]bool `yaml:"analyses"`

	// GammaBounds is the closed gamma search interval.
	GammaBounds [2]float64 `yaml:"gamma_bounds"`

	// RateConv converts reported rates to the caller's time unit.
	RateConv float64 `yaml:"rate_conv"`

	// KSRanges and Boots enable the confidence machinery.
	KSRanges  bool  `yaml:"ks_ranges"`
	Boots     bool  `yaml:"boots"`
	NumBoots  int   `yaml:"num_boots"`
	KeepStats bool  `yaml:"keep_stats"`
	Seed      int64 `yaml:"seed"`

	// LogTrick selects log-domain cumulative-hazard integration.
	LogTrick bool `yaml:"log_trick"`

	// LambdaKTR and LambdaEATR weigh the fit regularization.
	LambdaKTR  float64 `yaml:"lambda_ktr"`
	LambdaEATR float64 `yaml:"lambda_eatr"`

	// IMDInitGuess seeds the KTR/EATR CDF fits with the iMetaD CDF
	// rate.
	IMDInitGuess bool `yaml:"imd_init_guess"`

	// EnforcedRate pins the CDF-fit base rate when set.
	EnforcedRate *float64 `yaml:"enforced_rate"`

	// Cores sizes the worker pool.
	Cores int `yaml:"cores"`

	// ProbeSearch swaps the golden-section gamma search for the global
	// probe search.
	ProbeSearch bool `yaml:"probe_search"`

	Export ExportConfig `yaml:"export"`
}

// ColumnsConfig maps semantic fields to column indices. Acc and MaxBias
// are pointers so "column absent" is distinguishable from column 0.
type ColumnsConfig struct {
	Time    int  `yaml:"time"`
	Bias    int  `yaml:"bias"`
	Acc     *int `yaml:"acc"`
	MaxBias *int `yaml:"max_bias"`
}

// ExportConfig holds result export settings.
type ExportConfig struct {
	AutoExport bool   `yaml:"auto_export"`
	Path       string `yaml:"path"`
	Dialect    string `yaml:"dialect"`
	Precision  int    `yaml:"precision"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Directory:  ".",
		ColvarName: "COLVAR",
		LogName:    "plumed.log",
		PlogLen:    100,
		Beta:       1.0,
		Columns:    ColumnsConfig{Time: 0, Bias: 1},
		Analyses: map[string]bool{
			rates.AnalysisIMetaDMLE: true,
			rates.AnalysisIMetaDCDF: true,
			rates.AnalysisKTRMLE:    false,
			rates.AnalysisKTRCDF:    false,
			rates.AnalysisEATRMLE:   false,
			rates.AnalysisEATRCDF:   false,
		},
		GammaBounds: [2]float64{0, 1},
		RateConv:    1.0,
		NumBoots:    100,
		Cores:       4,
		Export: ExportConfig{
			AutoExport: true,
			Path:       "./results.csv",
			Dialect:    "standard",
			Precision:  6,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigWrap(err, errors.ErrConfigNotFound,
			"failed to read config")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigWrap(err, errors.ErrConfigParseFailed,
			"failed to parse config")
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default if the
// path is empty or missing.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the option set for contradictions before any data is
// loaded.
func (c *Config) Validate() error {
	if len(c.Runs) == 0 {
		return errors.Config(errors.ErrConfigInvalid, "no runs configured")
	}
	if c.Beta <= 0 {
		return errors.Configf(errors.ErrConfigInvalid,
			"beta must be positive, got %g", c.Beta)
	}
	if c.GammaBounds[1] < c.GammaBounds[0] {
		return errors.Configf(errors.ErrConfigBadBounds,
			"gamma bounds [%g, %g] are infeasible", c.GammaBounds[0], c.GammaBounds[1])
	}
	for name := range c.Analyses {
		known := false
		for _, n := range rates.AnalysisNames {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			return errors.Configf(errors.ErrConfigUnknownAnalysis,
				"unknown analysis %q", name)
		}
	}
	if c.EnforcedRate != nil && *c.EnforcedRate <= 0 {
		return errors.Configf(errors.ErrConfigBadBounds,
			"enforced rate must be positive, got %g", *c.EnforcedRate)
	}
	if c.Columns.Time < 0 || c.Columns.Bias < 0 {
		return errors.Config(errors.ErrConfigInvalid,
			"time and bias column indices must be non-negative")
	}
	return nil
}

// Schema returns the trajectory column schema.
func (c *Config) Schema() trajectory.Schema {
	return trajectory.Schema{
		Time:    c.Columns.Time,
		Bias:    c.Columns.Bias,
		Acc:     c.Columns.Acc,
		MaxBias: c.Columns.MaxBias,
	}
}

// LoaderOptions returns the file naming options for ensemble loading.
func (c *Config) LoaderOptions() trajectory.LoaderOptions {
	return trajectory.LoaderOptions{
		ColvarName: c.ColvarName,
		LogName:    c.LogName,
		PlogLen:    c.PlogLen,
		InconNames: c.InconNames,
	}
}

// RateOptions returns the orchestrator option set.
func (c *Config) RateOptions() rates.Options {
	var strategy estimate.SearchStrategy
	if c.ProbeSearch {
		strategy = estimate.ProbeSearch{}
	}
	return rates.Options{
		Analyses:     c.Analyses,
		GammaBounds:  c.GammaBounds,
		RateConv:     c.RateConv,
		KSRanges:     c.KSRanges,
		Boots:        c.Boots,
		NumBoots:     c.NumBoots,
		KeepStats:    c.KeepStats,
		LogTrick:     c.LogTrick,
		BiasShift:    c.BiasShift,
		LambdaKTR:    c.LambdaKTR,
		LambdaEATR:   c.LambdaEATR,
		IMDInitGuess: c.IMDInitGuess,
		EnforcedRate: c.EnforcedRate,
		Cores:        c.Cores,
		Seed:         c.Seed,
		Strategy:     strategy,
	}
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed,
			"failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigParseFailed,
			"failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed,
			"failed to write config file")
	}
	return nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("ratekit.yaml"); err == nil {
		return "ratekit.yaml"
	}
	if _, err := os.Stat("config/ratekit.yaml"); err == nil {
		return "config/ratekit.yaml"
	}
	return "ratekit.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // Already exists
	}
	return Default().Save(path)
}
