/*
 * potential.go, part of goFF.
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

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/rmera/goff/structure"
	"gonum.org/v1/gonum/spatial/r3"
)

// PotentialFormat identifies the serialized potential specification.
const PotentialFormat = "goff-potential"

// PotentialVersion is the version of the format written by this package.
const PotentialVersion = 1

// zstd frame magic number.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// PotentialSpec is a lossless, engine-independent description of the
// potential energy function of a composed system. Units are those of the
// structure package: nm, kJ/mol, degrees, e, amu.
type PotentialSpec struct {
	Format       string            `json:"format"`
	Version      int               `json:"version"`
	Name         string            `json:"name"`
	Subsystems   []SubsystemSpec   `json:"subsystems"`
	Nonbonded    NonbondedSpec     `json:"nonbonded"`
	Atoms        []AtomSpec        `json:"atoms"`
	Bonds        []BondSpec        `json:"bonds,omitempty"`
	Angles       []AngleSpec       `json:"angles,omitempty"`
	Propers      []TorsionSpec     `json:"propers,omitempty"`
	Impropers    []TorsionSpec     `json:"impropers,omitempty"`
	Exceptions   []ExceptionSpec   `json:"exceptions,omitempty"`
	VirtualSites []VirtualSiteSpec `json:"virtual_sites,omitempty"`
}

type SubsystemSpec struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Len    int    `json:"len"`
}

type NonbondedSpec struct {
	Coulomb14 float64 `json:"coulomb14"`
	LJ14      float64 `json:"lj14"`
	Combining string  `json:"combining"`
	Method    string  `json:"method"`
	Cutoff    float64 `json:"cutoff"`
}

type AtomSpec struct {
	Name       string     `json:"name"`
	Element    string     `json:"element"`
	Type       string     `json:"type"`
	Residue    string     `json:"residue"`
	ResID      int        `json:"resid"`
	Chain      string     `json:"chain,omitempty"`
	Pos        [3]float64 `json:"pos"`
	Mass       float64    `json:"mass"`
	Charge     float64    `json:"charge"`
	Sigma      float64    `json:"sigma"`
	Epsilon    float64    `json:"epsilon"`
	Provenance uuid.UUID  `json:"provenance"`
}

type BondSpec struct {
	Atoms  [2]int  `json:"atoms"`
	K      float64 `json:"k"`
	Length float64 `json:"length"`
}

type AngleSpec struct {
	Atoms [3]int  `json:"atoms"`
	K     float64 `json:"k"`
	Angle float64 `json:"angle"`
}

type TorsionSpec struct {
	Atoms       [4]int  `json:"atoms"`
	Periodicity int     `json:"periodicity"`
	Phase       float64 `json:"phase"`
	K           float64 `json:"k"`
}

type ExceptionSpec struct {
	Atoms      [2]int  `json:"atoms"`
	ChargeProd float64 `json:"charge_prod"`
	Sigma      float64 `json:"sigma"`
	Epsilon    float64 `json:"epsilon"`
}

type VirtualSiteSpec struct {
	Site    int       `json:"site"`
	Parents []int     `json:"parents"`
	Weights []float64 `json:"weights"`
}

// NewPotentialSpec returns the potential specification for sys.
func NewPotentialSpec(sys *structure.Composed) *PotentialSpec {
	nb := sys.Nonbonded
	P := &PotentialSpec{
		Format:    PotentialFormat,
		Version:   PotentialVersion,
		Name:      sys.Name,
		Nonbonded: NonbondedSpec{Coulomb14: nb.Coulomb14, LJ14: nb.LJ14, Combining: nb.Combining, Method: nb.Method, Cutoff: nb.Cutoff},
		Atoms:     make([]AtomSpec, 0, sys.Len()),
	}
	for s, name := range sys.Names {
		P.Subsystems = append(P.Subsystems, SubsystemSpec{Name: name, Offset: sys.Offsets[s], Len: len(sys.Remaps[s])})
	}
	for _, a := range sys.Atoms {
		P.Atoms = append(P.Atoms, AtomSpec{
			Name: a.Name, Element: a.Element, Type: a.Type, Residue: a.Residue, ResID: a.ResID, Chain: a.Chain,
			Pos:  [3]float64{a.Pos.X, a.Pos.Y, a.Pos.Z},
			Mass: a.Mass, Charge: a.Charge, Sigma: a.Sigma, Epsilon: a.Epsilon, Provenance: a.Provenance,
		})
	}
	for _, b := range sys.Bonds {
		P.Bonds = append(P.Bonds, BondSpec(b))
	}
	for _, a := range sys.Angles {
		P.Angles = append(P.Angles, AngleSpec(a))
	}
	for _, t := range sys.Propers {
		P.Propers = append(P.Propers, TorsionSpec(t))
	}
	for _, t := range sys.Impropers {
		P.Impropers = append(P.Impropers, TorsionSpec(t))
	}
	for _, e := range sys.Exceptions {
		P.Exceptions = append(P.Exceptions, ExceptionSpec(e))
	}
	for _, v := range sys.VirtualSites {
		P.VirtualSites = append(P.VirtualSites, VirtualSiteSpec{Site: v.Site, Parents: slices.Clone(v.Parents), Weights: slices.Clone(v.Weights)})
	}
	return P
}

// Encode returns the JSON form of the specification, zstd-compressed if compress is true.
func (P *PotentialSpec) Encode(compress bool) ([]byte, error) {
	data, err := json.MarshalIndent(P, "", " ")
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

// Composed rebuilds the composed system described by the specification.
func (P *PotentialSpec) Composed() (*structure.Composed, error) {
	if P.Format != PotentialFormat {
		return nil, fmt.Errorf("export: not a potential specification (format %q)", P.Format)
	}
	if P.Version > PotentialVersion {
		return nil, fmt.Errorf("export: potential specification version %d is newer than the supported %d", P.Version, PotentialVersion)
	}
	nb := P.Nonbonded
	S := &structure.Structure{
		Name:      P.Name,
		Nonbonded: structure.Nonbonded{Coulomb14: nb.Coulomb14, LJ14: nb.LJ14, Combining: nb.Combining, Method: nb.Method, Cutoff: nb.Cutoff},
		Atoms:     make([]structure.Atom, 0, len(P.Atoms)),
	}
	for _, a := range P.Atoms {
		S.Atoms = append(S.Atoms, structure.Atom{
			Name: a.Name, Element: a.Element, Type: a.Type, Residue: a.Residue, ResID: a.ResID, Chain: a.Chain,
			Pos:  r3.Vec{X: a.Pos[0], Y: a.Pos[1], Z: a.Pos[2]},
			Mass: a.Mass, Charge: a.Charge, Sigma: a.Sigma, Epsilon: a.Epsilon, Provenance: a.Provenance,
		})
	}
	for _, b := range P.Bonds {
		S.Bonds = append(S.Bonds, structure.Bond(b))
	}
	for _, a := range P.Angles {
		S.Angles = append(S.Angles, structure.Angle(a))
	}
	for _, t := range P.Propers {
		S.Propers = append(S.Propers, structure.Torsion(t))
	}
	for _, t := range P.Impropers {
		S.Impropers = append(S.Impropers, structure.Torsion(t))
	}
	for _, e := range P.Exceptions {
		S.Exceptions = append(S.Exceptions, structure.Exception(e))
	}
	for _, v := range P.VirtualSites {
		S.VirtualSites = append(S.VirtualSites, structure.VirtualSite{Site: v.Site, Parents: slices.Clone(v.Parents), Weights: slices.Clone(v.Weights)})
	}
	if err := S.Validate(); err != nil {
		return nil, err
	}
	C := &structure.Composed{Structure: S}
	next := 0
	for _, s := range P.Subsystems {
		if s.Offset != next || s.Len < 0 || s.Offset+s.Len > len(S.Atoms) {
			return nil, fmt.Errorf("export: subsystem %s has inconsistent offset %d and length %d", s.Name, s.Offset, s.Len)
		}
		remap := make([]int, s.Len)
		for i := range remap {
			remap[i] = s.Offset + i
		}
		C.Names = append(C.Names, s.Name)
		C.Offsets = append(C.Offsets, s.Offset)
		C.Remaps = append(C.Remaps, remap)
		next += s.Len
	}
	if next != len(S.Atoms) {
		return nil, fmt.Errorf("export: subsystems cover %d atoms, the system has %d", next, len(S.Atoms))
	}
	return C, nil
}

// DecodePotential reads a specification written by Encode, compressed or not.
func DecodePotential(data []byte) (*PotentialSpec, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("export: decompressing potential specification: %w", err)
		}
	}
	P := new(PotentialSpec)
	if err := json.Unmarshal(data, P); err != nil {
		return nil, fmt.Errorf("export: decoding potential specification: %w", err)
	}
	return P, nil
}

// ImportPotential rebuilds a composed system from the output of the potential target.
func ImportPotential(data []byte) (*structure.Composed, error) {
	P, err := DecodePotential(data)
	if err != nil {
		return nil, err
	}
	return P.Composed()
}
