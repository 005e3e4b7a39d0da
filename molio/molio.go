/*
 * molio.go, part of goFF.
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

// Package molio reads molecular graphs from MDL molfiles, SD files and PDB
// files. Coordinates are converted from Angstrom to nm. Aromaticity is
// perceived on every molecule read.
//
// Files ending in .zst are decompressed on the fly, so "ligands.sdf.zst" is
// read as an SD file.
package molio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/goff"
)

// Record is one molecule read from a file, with its title and, for SD files,
// its data items.
type Record struct {
	Name string
	Mol  *chem.Molecule
	Data map[string]string
}

// FormatError is returned for malformed input. Line is 1-based, 0 if the
// problem has no place in the file.
type FormatError struct {
	Format string
	File   string
	Line   int
	Msg    string
	deco   []string
}

func (err *FormatError) Error() string {
	s := "molio: " + err.Format
	if err.File != "" {
		s += " " + err.File
	}
	if err.Line > 0 {
		s += fmt.Sprintf(":%d", err.Line)
	}
	return s + ": " + err.Msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *FormatError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// lines wraps a scanner and counts the lines read.
type lines struct {
	sc     *bufio.Scanner
	n      int
	format string
}

func newLines(r io.Reader, format string) *lines {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lines{sc: sc, format: format}
}

func (L *lines) next() (string, bool) {
	if !L.sc.Scan() {
		return "", false
	}
	L.n++
	return strings.TrimRight(L.sc.Text(), "\r"), true
}

func (L *lines) errorf(format string, a ...any) *FormatError {
	return &FormatError{Format: L.format, Line: L.n, Msg: fmt.Sprintf(format, a...), deco: []string{L.format}}
}

// field returns the trimmed columns [a,b) of line, or the part of them the line
// has.
func field(line string, a, b int) string {
	if a >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[a:min(b, len(line))])
}

// ReadFile reads all the molecules in the file at path. The format is chosen by
// extension: .mol, .sdf and .sd are MDL files, .pdb and .ent are PDB files.
// A further .zst extension means the file is zstd-compressed.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
		name = strings.TrimSuffix(name, ".zst")
	}
	var recs []Record
	switch filepath.Ext(name) {
	case ".mol", ".sdf", ".sd":
		recs, err = ReadSDF(r)
	case ".pdb", ".ent":
		var rec Record
		rec, err = ReadPDB(r)
		recs = []Record{rec}
	default:
		return nil, &FormatError{File: path, Msg: "unknown file format", deco: []string{"ReadFile"}}
	}
	if err != nil {
		if ferr, ok := err.(*FormatError); ok {
			ferr.File = path
			ferr.Decorate("ReadFile")
		}
		return nil, err
	}
	return recs, nil
}

// ReadMolecule reads the first molecule in the file at path.
func ReadMolecule(path string) (*chem.Molecule, error) {
	recs, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &FormatError{File: path, Msg: "no molecules in file", deco: []string{"ReadMolecule"}}
	}
	return recs[0].Mol, nil
}
