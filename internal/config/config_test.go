/*
 * config_test.go, part of goFF.
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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixtureYAML = `
name: phenol-in-water
log:
  level: debug
subsystems:
  - name: phenol
    input: phenol.sdf
    forcefield: ff/openff.yaml
    impurity: true
  - name: water
    input: /data/water.sdf
    forcefield: ff/openff.yaml
    fraction: 1.0
mixture:
  total: 500
output:
  dir: out
  targets: [gromacs, potential]
  compress: true
report:
  enabled: true
  png: out/usage.png
timeout: 30s
`

func write(Te *testing.T, content string) string {
	Te.Helper()
	path := filepath.Join(Te.TempDir(), "pipeline.yaml")
	require.NoError(Te, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(Te *testing.T) {
	path := write(Te, mixtureYAML)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	require.NoError(Te, err)
	assert.Equal(Te, "phenol-in-water", cfg.Name)
	assert.Equal(Te, "debug", cfg.Log.Level)
	assert.Equal(Te, DefaultLogFormat, cfg.Log.Format)
	require.Len(Te, cfg.Subsystems, 2)
	phenol, water := cfg.Subsystems[0], cfg.Subsystems[1]
	assert.Equal(Te, filepath.Join(dir, "phenol.sdf"), phenol.Input)
	assert.Equal(Te, filepath.Join(dir, "ff", "openff.yaml"), phenol.ForceField)
	assert.Equal(Te, KindSMIRNOFF, phenol.Kind)
	assert.True(Te, phenol.Impurity)
	assert.Nil(Te, phenol.Fraction)
	assert.Zero(Te, phenol.Copies, "copies are not used with a mixture")
	assert.Equal(Te, "/data/water.sdf", water.Input)
	require.NotNil(Te, water.Fraction)
	assert.Equal(Te, 1.0, *water.Fraction)
	assert.Equal(Te, 500, cfg.Mixture.Total)
	assert.Equal(Te, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.Equal(Te, []string{"gromacs", "potential"}, cfg.Output.Targets)
	assert.True(Te, cfg.Output.Compress)
	assert.Equal(Te, filepath.Join(dir, "out", "usage.png"), cfg.Report.PNG)
	assert.Equal(Te, 30*time.Second, cfg.Timeout)
	assert.Equal(Te, DefaultSpacing, cfg.Spacing)
}

func TestLoadDefaults(Te *testing.T) {
	path := write(Te, `
subsystems:
  - name: protein
    input: capped.pdb
    kind: atomtyped
    forcefield: amber.ff
`)
	cfg, err := Load(path)
	require.NoError(Te, err)
	assert.Equal(Te, DefaultName, cfg.Name)
	assert.Equal(Te, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(Te, DefaultTargets, cfg.Output.Targets)
	assert.Equal(Te, filepath.Dir(path), cfg.Output.Dir)
	assert.Equal(Te, DefaultTimeout, cfg.Timeout)
	assert.Equal(Te, 1, cfg.Subsystems[0].Copies)
	assert.Equal(Te, KindAtomTyped, cfg.Subsystems[0].Kind)
	assert.False(Te, cfg.Report.Enabled)
}

func TestEnvOverrides(Te *testing.T) {
	Te.Setenv("GOFF_LOG_LEVEL", "warn")
	Te.Setenv("GOFF_OUTPUT_COMPRESS", "true")
	Te.Setenv("GOFF_OUTPUT_TARGETS", "pqr,gromacs")
	Te.Setenv("GOFF_TIMEOUT", "1m")
	cfg, err := Load(write(Te, mixtureYAML))
	require.NoError(Te, err)
	assert.Equal(Te, "warn", cfg.Log.Level)
	assert.True(Te, cfg.Output.Compress)
	assert.Equal(Te, []string{"pqr", "gromacs"}, cfg.Output.Targets)
	assert.Equal(Te, time.Minute, cfg.Timeout)
}

func valid() *Config {
	cfg := &Config{Subsystems: []Subsystem{{Name: "water", Input: "water.sdf", ForceField: "ff.yaml"}}}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate(Te *testing.T) {
	require.NoError(Te, valid().Validate())
	half := 0.5
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no subsystems", func(c *Config) { c.Subsystems = nil }},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"no name", func(c *Config) { c.Subsystems[0].Name = "" }},
		{"repeated name", func(c *Config) { c.Subsystems = append(c.Subsystems, c.Subsystems[0]) }},
		{"no input", func(c *Config) { c.Subsystems[0].Input = "" }},
		{"no forcefield", func(c *Config) { c.Subsystems[0].ForceField = "" }},
		{"kind", func(c *Config) { c.Subsystems[0].Kind = "amber" }},
		{"negative copies", func(c *Config) { c.Subsystems[0].Copies = -1 }},
		{"fraction without mixture", func(c *Config) { c.Subsystems[0].Fraction = &half }},
		{"copies with mixture", func(c *Config) { c.Mixture.Total = 100 }},
		{"negative total", func(c *Config) { c.Mixture.Total = -1 }},
		{"spacing", func(c *Config) { c.Spacing = -1 }},
		{"target", func(c *Config) { c.Output.Targets = []string{"gromacs", "lammps"} }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
	}
	for _, t := range tests {
		cfg := valid()
		t.modify(cfg)
		assert.Error(Te, cfg.Validate(), t.name)
	}
}

func TestLoadErrors(Te *testing.T) {
	_, err := Load(filepath.Join(Te.TempDir(), "missing.yaml"))
	assert.Error(Te, err)
	_, err = Load(write(Te, "subsystems: [}"))
	assert.Error(Te, err)
	_, err = Load(write(Te, "name: empty\n"))
	assert.ErrorContains(Te, err, "at least one subsystem")
}
