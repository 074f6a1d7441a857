// Package xyz reads and writes plain XYZ geometry files: an atom
// count line, a comment line, then one "Symbol x y z" line per atom.
// Coordinates are in Angstrom.
package xyz

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Geometry holds element symbols and a flat 3N coordinate slice.
type Geometry struct {
	Atoms   []string
	Coords  []float64
	Comment string
}

func Read(path string) (Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Geometry{}, fmt.Errorf("xyz read (%s): %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return Geometry{}, fmt.Errorf("xyz read (%s): missing atom count line", path)
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || natoms <= 0 {
		return Geometry{}, fmt.Errorf("xyz read (%s): bad atom count %q", path, strings.TrimSpace(sc.Text()))
	}
	if !sc.Scan() {
		return Geometry{}, fmt.Errorf("xyz read (%s): missing comment line", path)
	}
	g := Geometry{
		Atoms:   make([]string, 0, natoms),
		Coords:  make([]float64, 0, natoms*3),
		Comment: strings.TrimSpace(sc.Text()),
	}
	for i := 0; i < natoms; i++ {
		if !sc.Scan() {
			return Geometry{}, fmt.Errorf("xyz read (%s): %d atom lines, want %d", path, i, natoms)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			return Geometry{}, fmt.Errorf("xyz read (%s): atom line %d ill formed", path, i+1)
		}
		g.Atoms = append(g.Atoms, fields[0])
		for j := 1; j <= 3; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return Geometry{}, fmt.Errorf("xyz read (%s): atom line %d: %w", path, i+1, err)
			}
			g.Coords = append(g.Coords, v)
		}
	}
	if err := sc.Err(); err != nil {
		return Geometry{}, fmt.Errorf("xyz read (%s): %w", path, err)
	}
	return g, nil
}

func Write(path string, g Geometry) error {
	if len(g.Coords) != 3*len(g.Atoms) {
		return fmt.Errorf("xyz write (%s): %d atoms but %d coordinates", path, len(g.Atoms), len(g.Coords))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("xyz write (%s): %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d\n%s\n", len(g.Atoms), g.Comment)
	for i, sym := range g.Atoms {
		c := g.Coords[i*3 : i*3+3]
		fmt.Fprintf(w, "%-2s  %12.8f %12.8f %12.8f\n", sym, c[0], c[1], c[2])
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("xyz write (%s): %w", path, err)
	}
	return nil
}
