/*
 * config.go, part of goFF.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 */

// Package config reads the pipeline description used by the goff command:
// which molecules to parametrize, with which force fields, how many copies
// of each go into the system and where the results are written.
//
// A minimal file:
//
//	name: phenol-in-water
//	subsystems:
//	  - name: phenol
//	    input: phenol.sdf
//	    forcefield: openff.yaml
//	    impurity: true
//	  - name: water
//	    input: water.sdf
//	    forcefield: openff.yaml
//	mixture:
//	  total: 500
//	output:
//	  dir: out
//	  targets: [gromacs, potential]
//
// Every key can be overridden from the environment with the GOFF_ prefix,
// for instance GOFF_OUTPUT_DIR or GOFF_LOG_LEVEL.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmera/goff/export"
	"github.com/rmera/goff/internal/logging"
	"github.com/spf13/viper"
)

const envPrefix = "GOFF"

// Kinds of force field a subsystem can be parametrized with.
const (
	KindSMIRNOFF  = "smirnoff"
	KindAtomTyped = "atomtyped"
)

// Defaults.
const (
	DefaultName      = "system"
	DefaultSpacing   = 1.0 //nm
	DefaultOutputDir = "."
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultTimeout   = 10 * time.Minute
)

var DefaultTargets = []string{string(export.Gromacs)}

// Subsystem is one molecule to parametrize. Without a mixture, Copies copies
// of it are placed in the system. With a mixture, either Fraction or Impurity
// decide the amount.
type Subsystem struct {
	Name       string   `mapstructure:"name"`
	Input      string   `mapstructure:"input"`
	Kind       string   `mapstructure:"kind"`
	ForceField string   `mapstructure:"forcefield"`
	Copies     int      `mapstructure:"copies"`
	Fraction   *float64 `mapstructure:"fraction"`
	Impurity   bool     `mapstructure:"impurity"`
}

// Mixture sets the total number of molecules. Zero means no mixture.
type Mixture struct {
	Total int `mapstructure:"total"`
}

// Output sets where, and in which formats, the system is written.
type Output struct {
	Dir      string   `mapstructure:"dir"`
	BaseName string   `mapstructure:"basename"`
	Targets  []string `mapstructure:"targets"`
	Compress bool     `mapstructure:"compress"`
}

// Report asks for a parameter usage report, as text in the output directory
// and, if PNG is set, as a bar chart.
type Report struct {
	Enabled bool   `mapstructure:"enabled"`
	PNG     string `mapstructure:"png"`
}

// Config is a complete pipeline description.
type Config struct {
	Name       string         `mapstructure:"name"`
	Log        logging.Config `mapstructure:"log"`
	Subsystems []Subsystem    `mapstructure:"subsystems"`
	Mixture    Mixture        `mapstructure:"mixture"`
	Spacing    float64        `mapstructure:"spacing"`
	Output     Output         `mapstructure:"output"`
	Report     Report         `mapstructure:"report"`
	Timeout    time.Duration  `mapstructure:"timeout"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	//environment variables are only looked up for known keys
	v.SetDefault("name", DefaultName)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("mixture.total", 0)
	v.SetDefault("spacing", DefaultSpacing)
	v.SetDefault("output.dir", DefaultOutputDir)
	v.SetDefault("output.basename", "")
	v.SetDefault("output.targets", DefaultTargets)
	v.SetDefault("output.compress", false)
	v.SetDefault("report.enabled", false)
	v.SetDefault("report.png", "")
	v.SetDefault("timeout", DefaultTimeout)
	return v
}

// Load reads the pipeline file at path, applies the environment overrides
// and the defaults, and validates the result. Relative paths in the file are
// taken as relative to the directory that contains it.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	ApplyDefaults(cfg)
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyDefaults fills the unset fields of cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Spacing == 0 {
		cfg.Spacing = DefaultSpacing
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if len(cfg.Output.Targets) == 0 {
		cfg.Output.Targets = append([]string(nil), DefaultTargets...)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	for i := range cfg.Subsystems {
		s := &cfg.Subsystems[i]
		if s.Kind == "" {
			s.Kind = KindSMIRNOFF
		}
		if cfg.Mixture.Total == 0 && s.Copies == 0 {
			s.Copies = 1
		}
	}
}

func (cfg *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range cfg.Subsystems {
		cfg.Subsystems[i].Input = abs(cfg.Subsystems[i].Input)
		cfg.Subsystems[i].ForceField = abs(cfg.Subsystems[i].ForceField)
	}
	cfg.Output.Dir = abs(cfg.Output.Dir)
	cfg.Report.PNG = abs(cfg.Report.PNG)
}

// Validate checks that cfg describes a pipeline that can run.
func (cfg *Config) Validate() error {
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format %q is invalid, expected console|json", cfg.Log.Format)
	}
	if len(cfg.Subsystems) == 0 {
		return fmt.Errorf("at least one subsystem is required")
	}
	if cfg.Mixture.Total < 0 {
		return fmt.Errorf("mixture.total must be >= 0, got %d", cfg.Mixture.Total)
	}
	seen := make(map[string]bool)
	for i, s := range cfg.Subsystems {
		if s.Name == "" {
			return fmt.Errorf("subsystems[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("subsystems[%d]: repeated name %q", i, s.Name)
		}
		seen[s.Name] = true
		if s.Input == "" {
			return fmt.Errorf("subsystem %s: input is required", s.Name)
		}
		if s.ForceField == "" {
			return fmt.Errorf("subsystem %s: forcefield is required", s.Name)
		}
		switch s.Kind {
		case KindSMIRNOFF, KindAtomTyped:
		default:
			return fmt.Errorf("subsystem %s: kind %q is invalid, expected %s|%s", s.Name, s.Kind, KindSMIRNOFF, KindAtomTyped)
		}
		if cfg.Mixture.Total > 0 {
			if s.Copies != 0 {
				return fmt.Errorf("subsystem %s: copies can't be combined with mixture.total", s.Name)
			}
			continue
		}
		if s.Fraction != nil || s.Impurity {
			return fmt.Errorf("subsystem %s: fraction and impurity require mixture.total", s.Name)
		}
		if s.Copies < 0 {
			return fmt.Errorf("subsystem %s: copies must be >= 0, got %d", s.Name, s.Copies)
		}
	}
	if cfg.Spacing <= 0 {
		return fmt.Errorf("spacing must be > 0, got %g", cfg.Spacing)
	}
	for _, t := range cfg.Output.Targets {
		if _, err := export.ParseTarget(t); err != nil {
			return err
		}
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %s", cfg.Timeout)
	}
	return nil
}
