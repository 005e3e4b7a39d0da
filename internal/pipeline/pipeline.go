/*
 * pipeline.go, part of goFF.
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

// Package pipeline runs a complete parametrization: it reads and types every
// subsystem concurrently, decides how many copies of each go into the system,
// composes them and writes the requested outputs.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	chem "github.com/rmera/goff"
	"github.com/rmera/goff/atomtype"
	"github.com/rmera/goff/export"
	"github.com/rmera/goff/forcefield"
	"github.com/rmera/goff/internal/config"
	"github.com/rmera/goff/internal/logging"
	"github.com/rmera/goff/mixture"
	"github.com/rmera/goff/molio"
	"github.com/rmera/goff/report"
	"github.com/rmera/goff/structure"
	"golang.org/x/sync/errgroup"
)

// minContact is the shortest distance, in nm, between atoms of different
// molecules that Compose accepts without a warning.
const minContact = 0.12

// Typed is a parametrized subsystem.
type Typed struct {
	Name      string
	Structure *structure.Structure
	Summary   *report.Summary
}

// Result is what a run produced.
type Result struct {
	Subsystems []Typed
	Counts     []int
	System     *structure.Composed
	Files      []string
}

// Pipeline runs the parametrization described by a configuration.
type Pipeline struct {
	cfg *config.Config
	log logging.Logger
}

// New returns a pipeline for cfg, which must have been validated. A nil
// logger discards everything.
func New(cfg *config.Config, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, log: log.Named("pipeline")}
}

// decorate adds the name to the decorations of err, when err supports them.
func decorate(err error, name string) error {
	if e, ok := err.(chem.Error); ok {
		e.Decorate(name)
	}
	return err
}

// Run types every subsystem, composes the system and writes the outputs.
// The configured timeout applies to the whole run.
func (P *Pipeline) Run(ctx context.Context) (*Result, error) {
	if P.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, P.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	typed, err := P.Parametrize(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := P.Counts()
	if err != nil {
		return nil, err
	}
	sys, err := P.Compose(typed, counts)
	if err != nil {
		return nil, err
	}
	files, err := P.Export(ctx, sys)
	if err != nil {
		return nil, err
	}
	if P.cfg.Report.Enabled {
		rfiles, err := P.Report(typed)
		if err != nil {
			return nil, err
		}
		files = append(files, rfiles...)
	}
	P.log.Info("done", logging.Int("atoms", sys.Len()), logging.Int("files", len(files)), logging.Duration("elapsed", time.Since(start)))
	return &Result{Subsystems: typed, Counts: counts, System: sys, Files: files}, nil
}

// forceField is a loaded force field of either kind.
type forceField struct {
	engine    *forcefield.Engine
	atomtyped *atomtype.FF
}

// loadForceFields reads each distinct force field file once.
func (P *Pipeline) loadForceFields() (map[string]*forceField, error) {
	ffs := make(map[string]*forceField)
	for _, s := range P.cfg.Subsystems {
		key := s.Kind + ":" + s.ForceField
		if _, ok := ffs[key]; ok {
			continue
		}
		ff := new(forceField)
		switch s.Kind {
		case config.KindSMIRNOFF:
			rules, err := forcefield.LoadFile(s.ForceField)
			if err != nil {
				return nil, err
			}
			if ff.engine, err = rules.Engine(); err != nil {
				return nil, decorate(err, s.ForceField)
			}
			P.log.Debug("force field loaded", logging.String("file", s.ForceField), logging.String("name", rules.Name), logging.Int("rules", len(rules.Rules)))
		case config.KindAtomTyped:
			var err error
			if ff.atomtyped, err = atomtype.ReadFile(s.ForceField); err != nil {
				return nil, err
			}
			P.log.Debug("force field loaded", logging.String("file", s.ForceField), logging.Int("templates", len(ff.atomtyped.Templates)))
		default:
			return nil, fmt.Errorf("pipeline: subsystem %s: unknown kind %q", s.Name, s.Kind)
		}
		ffs[key] = ff
	}
	return ffs, nil
}

// Parametrize reads and types all the subsystems, concurrently. The first
// error stops the run.
func (P *Pipeline) Parametrize(ctx context.Context) ([]Typed, error) {
	ffs, err := P.loadForceFields()
	if err != nil {
		return nil, err
	}
	typed := make([]Typed, len(P.cfg.Subsystems))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range P.cfg.Subsystems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := P.parametrize(s, ffs[s.Kind+":"+s.ForceField])
			if err != nil {
				return fmt.Errorf("subsystem %s: %w", s.Name, decorate(err, s.Name))
			}
			typed[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return typed, nil
}

func (P *Pipeline) parametrize(s config.Subsystem, ff *forceField) (Typed, error) {
	start := time.Now()
	t := Typed{Name: s.Name}
	mol, err := molio.ReadMolecule(s.Input)
	if err != nil {
		return t, err
	}
	switch s.Kind {
	case config.KindSMIRNOFF:
		res, err := ff.engine.Assign(mol)
		if err != nil {
			return t, err
		}
		if t.Structure, err = structure.FromTyped(mol, res, s.Name); err != nil {
			return t, err
		}
		t.Summary = report.Summarize(s.Name, res)
	case config.KindAtomTyped:
		if t.Structure, err = ff.atomtyped.Apply(mol, s.Name); err != nil {
			return t, err
		}
		t.Summary = report.SummarizeStructure(s.Name, t.Structure)
	}
	P.log.Info("parametrized",
		logging.String("subsystem", s.Name),
		logging.String("kind", s.Kind),
		logging.Int("atoms", t.Structure.Len()),
		logging.Int("bonds", len(t.Structure.Bonds)),
		logging.Duration("elapsed", time.Since(start)))
	return t, nil
}

// Counts returns the number of copies of each subsystem, in configuration
// order: the configured copies or, with a mixture, the copies the mole
// fractions give for the total number of molecules.
func (P *Pipeline) Counts() ([]int, error) {
	counts := make([]int, len(P.cfg.Subsystems))
	if P.cfg.Mixture.Total == 0 {
		for i, s := range P.cfg.Subsystems {
			counts[i] = s.Copies
		}
		return counts, nil
	}
	M := new(mixture.Mixture)
	for _, s := range P.cfg.Subsystems {
		if err := M.Add(s.Name, s.Fraction, s.Impurity); err != nil {
			return nil, err
		}
	}
	counts, err := M.Counts(P.cfg.Mixture.Total)
	if err != nil {
		return nil, err
	}
	P.log.Info("mixture", logging.String("tag", M.Tag()), logging.Any("counts", counts))
	return counts, nil
}

// Compose places the copies of every subsystem on a common cubic lattice and
// merges them, in configuration order. The system takes the configured name.
func (P *Pipeline) Compose(typed []Typed, counts []int) (*structure.Composed, error) {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil, fmt.Errorf("pipeline: the system has no molecules")
	}
	points := structure.Lattice(total, P.cfg.Spacing)
	parts := make([]*structure.Structure, 0, total)
	for i, t := range typed {
		parts = append(parts, structure.Place(t.Structure, points[:counts[i]])...)
		points = points[counts[i]:]
	}
	sys, err := structure.Compose(parts...)
	if err != nil {
		return nil, err
	}
	sys.Name = P.cfg.Name
	for _, o := range sys.Overridden {
		P.log.Warn("nonbonded settings overridden by the first subsystem",
			logging.String("detail", o),
			logging.String("method", sys.Nonbonded.Method),
			logging.Float64("cutoff", sys.Nonbonded.Cutoff))
	}
	if d, atoms := sys.Closest(); d < minContact {
		P.log.Warn("molecules too close, consider a larger spacing",
			logging.Float64("distance", d),
			logging.Int("atom1", atoms[0]+1),
			logging.Int("atom2", atoms[1]+1),
			logging.Float64("spacing", P.cfg.Spacing))
	}
	P.log.Info("composed", logging.String("system", sys.Name), logging.Int("molecules", total), logging.Int("atoms", sys.Len()))
	return sys, nil
}

func (P *Pipeline) baseName() string {
	if P.cfg.Output.BaseName != "" {
		return export.BaseName(P.cfg.Output.BaseName)
	}
	return export.BaseName(P.cfg.Name)
}

// Export writes the system in every configured target and returns the paths
// of the files written.
func (P *Pipeline) Export(ctx context.Context, sys *structure.Composed) ([]string, error) {
	var files []string
	for _, tag := range P.cfg.Output.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target, err := export.ParseTarget(tag)
		if err != nil {
			return nil, err
		}
		out, err := export.Export(sys, target, export.WithBaseName(P.baseName()), export.Compressed(P.cfg.Output.Compress))
		if err != nil {
			return nil, decorate(err, "Export")
		}
		written, err := out.Save(P.cfg.Output.Dir)
		if err != nil {
			return nil, err
		}
		P.log.Info("exported", logging.String("target", string(target)), logging.Strings("files", written))
		files = append(files, written...)
	}
	return files, nil
}

// Report writes the parameter usage summary of every subsystem as text in
// the output directory and, if configured, as a PNG chart.
func (P *Pipeline) Report(typed []Typed) ([]string, error) {
	sums := make([]*report.Summary, 0, len(typed))
	for _, t := range typed {
		sums = append(sums, t.Summary)
	}
	var b bytes.Buffer
	if err := report.WriteText(&b, sums...); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(P.cfg.Output.Dir, 0o755); err != nil {
		return nil, err
	}
	txt := filepath.Join(P.cfg.Output.Dir, P.baseName()+"-usage.txt")
	if err := os.WriteFile(txt, b.Bytes(), 0o644); err != nil {
		return nil, err
	}
	files := []string{txt}
	if P.cfg.Report.PNG != "" {
		img, err := report.PNG("Parameter usage: "+P.cfg.Name, sums...)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(P.cfg.Report.PNG), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(P.cfg.Report.PNG, img, 0o644); err != nil {
			return nil, err
		}
		files = append(files, P.cfg.Report.PNG)
	}
	P.log.Info("report written", logging.Strings("files", files))
	return files, nil
}
