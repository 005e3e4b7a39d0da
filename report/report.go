/*
 * report.go, part of goFF.
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

// Package report summarizes which parameters were used to type each
// subsystem, as text and as a bar chart.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"slices"
	"strings"

	"github.com/rmera/goff/forcefield"
	"github.com/rmera/goff/structure"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// RuleUsage is the number of terms a rule, or an atom type, was used for.
type RuleUsage struct {
	ID    string
	Count int
}

// ClassUsage collects the usage of the rules of one term class.
type ClassUsage struct {
	Class string
	Terms int
	Rules []RuleUsage //sorted by decreasing count, then by ID
}

// Summary is the usage report of one subsystem.
type Summary struct {
	Subsystem string
	Classes   []ClassUsage
}

func usage(class string, counts map[string]int) ClassUsage {
	cu := ClassUsage{Class: class}
	for id, n := range counts {
		cu.Rules = append(cu.Rules, RuleUsage{ID: id, Count: n})
		cu.Terms += n
	}
	slices.SortFunc(cu.Rules, func(a, b RuleUsage) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.ID, b.ID)
	})
	return cu
}

// Summarize returns the rule usage of a typing result, per class, in the
// order the classes are typed. Classes without terms are skipped.
func Summarize(name string, res *forcefield.Result) *Summary {
	S := &Summary{Subsystem: name}
	for _, c := range forcefield.Classes() {
		terms := res.Terms[c]
		if len(terms) == 0 {
			continue
		}
		counts := make(map[string]int)
		for _, t := range terms {
			counts[t.RuleID]++
		}
		S.Classes = append(S.Classes, usage(c.String(), counts))
	}
	return S
}

// SummarizeStructure reports the atom types of a structure parametrized
// with an atom-typed force field, and the number of terms of each kind.
func SummarizeStructure(name string, st *structure.Structure) *Summary {
	S := &Summary{Subsystem: name}
	types := make(map[string]int)
	for _, a := range st.Atoms {
		types[a.Type]++
	}
	S.Classes = append(S.Classes, usage("AtomTypes", types))
	terms := make(map[string]int)
	var order []string
	st.Terms(func(term string, atoms []int) bool {
		if terms[term] == 0 {
			order = append(order, term)
		}
		terms[term]++
		return true
	})
	for _, t := range order {
		S.Classes = append(S.Classes, ClassUsage{Class: t, Terms: terms[t]})
	}
	return S
}

// WriteText writes the summaries as plain text.
func WriteText(w io.Writer, sums ...*Summary) error {
	var b strings.Builder
	for _, s := range sums {
		b.WriteString(fmt.Sprintf("%s\n", s.Subsystem))
		for _, c := range s.Classes {
			b.WriteString(fmt.Sprintf("  %-18s %6d\n", c.Class, c.Terms))
			for _, r := range c.Rules {
				b.WriteString(fmt.Sprintf("    %-16s %6d\n", r.ID, r.Count))
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Chart returns a bar chart with the number of terms each rule was used for.
// There is one group of bars per subsystem, and one bar per rule, labeled
// class:rule.
func Chart(title string, sums ...*Summary) (*plot.Plot, error) {
	p, _, err := chart(title, sums)
	return p, err
}

func chart(title string, sums []*Summary) (*plot.Plot, int, error) {
	var labels []string
	index := make(map[string]int)
	for _, s := range sums {
		for _, c := range s.Classes {
			for _, r := range c.Rules {
				l := c.Class + ":" + r.ID
				if _, ok := index[l]; !ok {
					index[l] = len(labels)
					labels = append(labels, l)
				}
			}
		}
	}
	if len(labels) == 0 {
		return nil, 0, fmt.Errorf("report: nothing to plot")
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.Y.Label.Text = "Terms"
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	width := vg.Points(float64(20) / float64(len(sums)))
	for k, s := range sums {
		vals := make(plotter.Values, len(labels))
		for _, c := range s.Classes {
			for _, r := range c.Rules {
				vals[index[c.Class+":"+r.ID]] = float64(r.Count)
			}
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return nil, 0, err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(k)
		bars.Offset = width * vg.Length(float64(k)-float64(len(sums)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.Subsystem, bars)
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -1 //right-aligned
	p.X.Tick.Label.Color = color.Black
	return p, len(labels), nil
}

// PNG renders the chart of the summaries as a PNG image.
func PNG(title string, sums ...*Summary) ([]byte, error) {
	p, n, err := chart(title, sums)
	if err != nil {
		return nil, err
	}
	w := 4*vg.Inch + vg.Length(n)*vg.Points(12)
	wt, err := p.WriterTo(w, 4*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if _, err := wt.WriteTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
