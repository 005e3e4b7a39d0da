/*
 * pqr.go, part of goFF.
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
	"math"
	"strings"

	"github.com/rmera/goff/structure"
)

// rmin/2 = 2^(1/6)*sigma/2
var sigmaToRadius = math.Pow(2, 1.0/6) / 2

// pqr writes atoms and CONECT records. Coordinates and radii are in Angstrom.
// The system must contain only bonds.
func pqr(S *structure.Composed) []byte {
	var r strings.Builder
	r.WriteString(sf("REMARK   1 %s\nREMARK   1 written by goFF. Charges in e, radii (Rmin/2) in Angstrom\n", S.Name))
	chainprev := ""
	for i, a := range S.Atoms {
		if i > 0 && a.Chain != chainprev {
			r.WriteString("TER\n")
		}
		chainprev = a.Chain
		chain := " "
		if a.Chain != "" {
			chain = a.Chain[:1]
		}
		name := a.Name
		if len(name) < 4 {
			name = " " + name //PDB alignment for names shorter than 4 characters
		}
		c := [3]float64{a.Pos.X * 10, a.Pos.Y * 10, a.Pos.Z * 10}
		r.WriteString(sf("ATOM  %5d %-4s %3s %1s%4d    %8.3f%8.3f%8.3f %8.4f %7.4f\n",
			(i+1)%100000, trunc(name, 4), trunc(a.Residue, 3), chain, a.ResID%10000, c[0], c[1], c[2], a.Charge, a.Sigma*sigmaToRadius*10))
	}
	neigh := make([][]int, len(S.Atoms))
	for _, b := range S.Bonds {
		neigh[b.Atoms[0]] = append(neigh[b.Atoms[0]], b.Atoms[1])
		neigh[b.Atoms[1]] = append(neigh[b.Atoms[1]], b.Atoms[0])
	}
	for i, n := range neigh {
		//at most 4 bonded atoms per CONECT record
		for len(n) > 0 {
			k := min(4, len(n))
			r.WriteString(sf("CONECT%5d", i+1))
			for _, j := range n[:k] {
				r.WriteString(sf("%5d", j+1))
			}
			r.WriteString("\n")
			n = n[k:]
		}
	}
	r.WriteString("END\n")
	return []byte(r.String())
}
