/*
 * pipeline_test.go, part of goFF.
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

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rmera/goff/export"
	"github.com/rmera/goff/internal/config"
	"github.com/rmera/goff/internal/logging"
	"github.com/rmera/goff/molio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func abs(Te *testing.T, path string) string {
	Te.Helper()
	p, err := filepath.Abs(path)
	require.NoError(Te, err)
	return p
}

// benzeneInWater is one benzene at infinite dilution in 10 waters.
func benzeneInWater(Te *testing.T) *config.Config {
	Te.Helper()
	ff := abs(Te, "../../forcefield/testdata/minimal.yaml")
	out := Te.TempDir()
	cfg := &config.Config{
		Name: "benzene in water",
		Subsystems: []config.Subsystem{
			{Name: "benzene", Input: abs(Te, "testdata/benzene.sdf"), ForceField: ff, Impurity: true},
			{Name: "water", Input: abs(Te, "testdata/water.sdf"), ForceField: ff},
		},
		Mixture: config.Mixture{Total: 11},
		Output:  config.Output{Dir: out, Targets: []string{"gromacs", "potential"}, Compress: true},
		Report:  config.Report{Enabled: true, PNG: filepath.Join(out, "plots", "usage.png")},
	}
	config.ApplyDefaults(cfg)
	require.NoError(Te, cfg.Validate())
	return cfg
}

func TestRunMixture(Te *testing.T) {
	cfg := benzeneInWater(Te)
	core, logs := observer.New(zapcore.InfoLevel)
	res, err := New(cfg, logging.FromCore(core)).Run(context.Background())
	require.NoError(Te, err)
	assert.Equal(Te, []int{1, 10}, res.Counts)
	sys := res.System
	assert.Equal(Te, "benzene in water", sys.Name)
	assert.Equal(Te, 12+10*3, sys.Len())
	require.Len(Te, sys.Names, 11)
	assert.Equal(Te, "benzene", sys.Names[0])
	assert.Equal(Te, "water", sys.Names[10])
	assert.Equal(Te, 12+10*2, len(sys.Bonds))

	//copies don't overlap
	assert.Zero(Te, res.Subsystems[1].Structure.Atoms[0].Pos, "the original is not moved")
	assert.NotEqual(Te, sys.Atoms[12].Pos, sys.Atoms[15].Pos)

	base := filepath.Join(cfg.Output.Dir, "benzene_in_water")
	want := []string{base + ".top", base + ".gro", base + ".json.zst", base + "-usage.txt", cfg.Report.PNG}
	assert.Equal(Te, want, res.Files)
	for _, f := range want {
		assert.FileExists(Te, f)
	}
	data, err := os.ReadFile(base + ".json.zst")
	require.NoError(Te, err)
	back, err := export.ImportPotential(data)
	require.NoError(Te, err)
	assert.Equal(Te, sys.Len(), back.Len())
	assert.Equal(Te, sys.Offsets, back.Offsets)

	usage, err := os.ReadFile(base + "-usage.txt")
	require.NoError(Te, err)
	assert.True(Te, strings.HasPrefix(string(usage), "benzene\n"))
	assert.Contains(Te, string(usage), "water\n")
	img, err := os.ReadFile(cfg.Report.PNG)
	require.NoError(Te, err)
	assert.True(Te, bytes.HasPrefix(img, []byte("\x89PNG")))

	assert.Len(Te, logs.FilterMessage("parametrized").All(), 2)
	mix := logs.FilterMessage("mixture").All()
	require.Len(Te, mix, 1)
	assert.Equal(Te, "benzene{0.0}|water{1.0}", mix[0].ContextMap()["tag"])
}

func TestRunCopies(Te *testing.T) {
	cfg := benzeneInWater(Te)
	cfg.Mixture.Total = 0
	cfg.Subsystems[0].Impurity = false
	cfg.Subsystems[0].Copies = 2
	cfg.Subsystems[1].Copies = 0
	cfg.Report.Enabled = false
	cfg.Output.Targets = []string{"potential"}
	cfg.Output.Compress = false
	cfg.Output.BaseName = "dimer"
	require.NoError(Te, cfg.Validate())
	res, err := New(cfg, nil).Run(context.Background())
	require.NoError(Te, err)
	assert.Equal(Te, []int{2, 0}, res.Counts)
	assert.Equal(Te, 24, res.System.Len())
	assert.Equal(Te, []string{filepath.Join(cfg.Output.Dir, "dimer.json")}, res.Files)
	//two benzenes 1 nm apart
	d := res.System.Atoms[12].Pos.X - res.System.Atoms[0].Pos.X
	assert.InDelta(Te, cfg.Spacing, d, 1e-9)
}

func TestComposeTooClose(Te *testing.T) {
	cfg := benzeneInWater(Te)
	cfg.Spacing = 0.2
	core, logs := observer.New(zapcore.WarnLevel)
	P := New(cfg, logging.FromCore(core))
	typed, err := P.Parametrize(context.Background())
	require.NoError(Te, err)
	_, err = P.Compose(typed, []int{1, 10})
	require.NoError(Te, err)
	warn := logs.FilterMessageSnippet("too close").All()
	require.Len(Te, warn, 1)
	assert.Less(Te, warn[0].ContextMap()["distance"], minContact)

	logs.TakeAll()
	P.cfg.Spacing = 1
	_, err = P.Compose(typed, []int{1, 10})
	require.NoError(Te, err)
	assert.Zero(Te, logs.Len())
}

func TestRunAtomTyped(Te *testing.T) {
	cfg := &config.Config{
		Name: "capped",
		Subsystems: []config.Subsystem{{
			Name: "capped", Kind: config.KindAtomTyped,
			Input:      abs(Te, "testdata/capped.pdb"),
			ForceField: abs(Te, "../../atomtype/testdata/capped.ff"),
		}},
		Output: config.Output{Dir: Te.TempDir(), Targets: []string{"gromacs"}},
		Report: config.Report{Enabled: true},
	}
	config.ApplyDefaults(cfg)
	require.NoError(Te, cfg.Validate())
	res, err := New(cfg, nil).Run(context.Background())
	require.NoError(Te, err)
	assert.Equal(Te, 12, res.System.Len())
	assert.Len(Te, res.System.Bonds, 11)
	assert.Equal(Te, "AtomTypes", res.Subsystems[0].Summary.Classes[0].Class)
	assert.Len(Te, res.Files, 3)
	top, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "capped.top"))
	require.NoError(Te, err)
	assert.Contains(Te, string(top), "[ dihedrals ]")
}

func TestRunMixedOrigin(Te *testing.T) {
	cfg := &config.Config{
		Name: "ligand and peptide",
		Subsystems: []config.Subsystem{
			{Name: "benzene", Input: abs(Te, "testdata/benzene.sdf"), ForceField: abs(Te, "../../forcefield/testdata/minimal.yaml")},
			{
				Name: "capped", Kind: config.KindAtomTyped,
				Input:      abs(Te, "testdata/capped.pdb"),
				ForceField: abs(Te, "../../atomtype/testdata/capped.ff"),
			},
		},
		Spacing: 2,
		Output:  config.Output{Dir: Te.TempDir(), Targets: []string{"gromacs", "potential"}},
	}
	config.ApplyDefaults(cfg)
	require.NoError(Te, cfg.Validate())
	core, logs := observer.New(zapcore.WarnLevel)
	res, err := New(cfg, logging.FromCore(core)).Run(context.Background())
	require.NoError(Te, err)
	sys := res.System
	assert.Equal(Te, []string{"benzene", "capped"}, sys.Names)
	assert.Equal(Te, 24, sys.Len())
	assert.Len(Te, sys.Bonds, 12+11)
	assert.Equal(Te, []int{0, 12}, sys.Offsets)
	assert.InDelta(Te, 0.9, sys.Nonbonded.Cutoff, 1e-9, "the first subsystem sets the cutoff")
	require.Len(Te, sys.Overridden, 1)
	assert.Contains(Te, sys.Overridden[0], "capped: cutoff 1 nm")
	warn := logs.FilterMessageSnippet("overridden").All()
	require.Len(Te, warn, 1)
	assert.Equal(Te, "PME", warn[0].ContextMap()["method"])

	top, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "ligand_and_peptide.top"))
	require.NoError(Te, err)
	assert.Contains(Te, string(top), "[ dihedrals ]")
	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "ligand_and_peptide.json"))
	require.NoError(Te, err)
	back, err := export.ImportPotential(data)
	require.NoError(Te, err)
	assert.Equal(Te, sys.Names, back.Names)
}

func TestRunErrors(Te *testing.T) {
	//an unreadable input names its subsystem
	cfg := benzeneInWater(Te)
	cfg.Subsystems[1].Input = filepath.Join(Te.TempDir(), "missing.sdf")
	_, err := New(cfg, nil).Run(context.Background())
	require.Error(Te, err)
	assert.Contains(Te, err.Error(), "subsystem water")

	//PQR can't represent angles
	cfg = benzeneInWater(Te)
	cfg.Output.Targets = []string{"pqr"}
	_, err = New(cfg, nil).Run(context.Background())
	var uerr *export.UnsupportedTermError
	require.True(Te, errors.As(err, &uerr))
	assert.Equal(Te, "angle", uerr.Term)
	assert.NoFileExists(Te, filepath.Join(cfg.Output.Dir, "benzene_in_water.pqr"))

	//malformed input keeps its error type
	bad := filepath.Join(Te.TempDir(), "bad.sdf")
	require.NoError(Te, os.WriteFile(bad, []byte("bad\n\n\n  1  0  0  0  0  0  0  0  0  0999 V3000\nM  END\n"), 0o644))
	cfg = benzeneInWater(Te)
	cfg.Subsystems[0].Input = bad
	_, err = New(cfg, nil).Run(context.Background())
	var ferr *molio.FormatError
	require.True(Te, errors.As(err, &ferr))
	assert.Contains(Te, ferr.Decorate(""), "benzene")

	//nothing to compose
	cfg = benzeneInWater(Te)
	cfg.Mixture.Total = 0
	cfg.Subsystems[0].Impurity = false
	_, err = New(cfg, nil).Run(context.Background())
	assert.ErrorContains(Te, err, "no molecules")
}

func TestRunCanceled(Te *testing.T) {
	cfg := benzeneInWater(Te)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(cfg, nil).Run(ctx)
	assert.True(Te, errors.Is(err, context.Canceled))

	cfg.Timeout = time.Nanosecond
	_, err = New(cfg, nil).Run(context.Background())
	assert.Error(Te, err)
}
