package tcpb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
)

// Spin selects an orbital spin channel.
type Spin int

const (
	SpinAlpha Spin = iota
	SpinBeta
)

// CASLabel identifies one CAS state in the energy list.
type CASLabel struct {
	State        int32
	Multiplicity int32
}

// OrbitalFiles names the orbital files a finished job wrote. For
// restricted systems only Alpha is meaningful.
type OrbitalFiles struct {
	Alpha      string
	Beta       string
	Restricted bool
}

// Result is an immutable, typed view over a received job output. All
// accessors return copies or fresh projections; none mutate the
// underlying payload.
type Result struct {
	out protocol.JobOutput
}

func newResult(out protocol.JobOutput) *Result {
	return &Result{out: out}
}

// Handle reports the job directories and id echoed in the output.
func (r *Result) Handle() JobHandle {
	return JobHandle{
		ServerJobID:   r.out.ServerJobID,
		JobDir:        r.out.JobDir,
		JobScratchDir: r.out.JobScratchDir,
	}
}

// Mol returns a copy of the molecule echo.
func (r *Result) Mol() protocol.Mol {
	m := r.out.Mol
	m.Atoms = append([]string(nil), m.Atoms...)
	m.XYZ = append([]float64(nil), m.XYZ...)
	return m
}

// Energy is the scalar energy view for single-state run types: the
// first (ground-state) entry of the energy list.
func (r *Result) Energy() (float64, bool) {
	if len(r.out.Energy) == 0 {
		return 0, false
	}
	return r.out.Energy[0], true
}

// Energies is the ordered multi-state energy view. For CAS runs the
// entries pair with CASEnergyLabels by index.
func (r *Result) Energies() []float64 {
	return append([]float64(nil), r.out.Energy...)
}

// Gradient returns the flat 3N energy gradient, if the run produced
// one.
func (r *Result) Gradient() []float64 {
	return append([]float64(nil), r.out.Gradient...)
}

// Forces is the element-wise negation of the gradient: same length,
// sign-flipped, freshly allocated.
func (r *Result) Forces() []float64 {
	if len(r.out.Gradient) == 0 {
		return nil
	}
	f := append([]float64(nil), r.out.Gradient...)
	floats.Scale(-1, f)
	return f
}

func (r *Result) Charges() []float64 {
	return append([]float64(nil), r.out.Charges...)
}

func (r *Result) Spins() []float64 {
	return append([]float64(nil), r.out.Spins...)
}

// DipoleVector is the x,y,z dipole; DipoleMoment its magnitude as
// reported by the server (the trailing element of the dipole block).
func (r *Result) DipoleVector() ([]float64, bool) {
	if len(r.out.Dipoles) < 4 {
		return nil, false
	}
	return append([]float64(nil), r.out.Dipoles[:3]...), true
}

func (r *Result) DipoleMoment() (float64, bool) {
	if len(r.out.Dipoles) < 4 {
		return 0, false
	}
	return r.out.Dipoles[3], true
}

// OrbitalFiles reports the orbital files for the next warm start,
// honoring restricted vs unrestricted naming.
func (r *Result) OrbitalFiles() OrbitalFiles {
	return OrbitalFiles{
		Alpha:      r.out.Orb1AFile,
		Beta:       r.out.Orb1BFile,
		Restricted: r.out.Mol.Restricted,
	}
}

// Orbitals returns the orbital energies and occupations for one spin
// channel. The beta channel is empty for restricted systems.
func (r *Result) Orbitals(spin Spin) (energies, occupations []float64) {
	if spin == SpinBeta {
		return append([]float64(nil), r.out.OrbBEnergies...),
			append([]float64(nil), r.out.OrbBOccupations...)
	}
	return append([]float64(nil), r.out.OrbAEnergies...),
		append([]float64(nil), r.out.OrbAOccupations...)
}

// BondOrders reshapes the flattened bond-order block into an N-by-N
// matrix, N being the atom count of the molecule echo.
func (r *Result) BondOrders() (*mat.Dense, bool) {
	n := len(r.out.Mol.Atoms)
	if n == 0 || len(r.out.BondOrder) != n*n {
		return nil, false
	}
	return mat.NewDense(n, n, append([]float64(nil), r.out.BondOrder...)), true
}

// Coupling is the flat 3N nonadiabatic coupling vector of a coupling
// run.
func (r *Result) Coupling() []float64 {
	return append([]float64(nil), r.out.Nacme...)
}

// CIOverlap reshapes the CI overlap block into the square matrix the
// server declared.
func (r *Result) CIOverlap() (*mat.Dense, bool) {
	s := int(r.out.CIOverlapSize)
	if s <= 0 || len(r.out.CIOverlaps) != s*s {
		return nil, false
	}
	return mat.NewDense(s, s, append([]float64(nil), r.out.CIOverlaps...)), true
}

// CASEnergyLabels pairs each multi-state energy with its state and
// multiplicity.
func (r *Result) CASEnergyLabels() []CASLabel {
	labels := make([]CASLabel, 0, len(r.out.CASStates))
	for i := range r.out.CASStates {
		labels = append(labels, CASLabel{
			State:        r.out.CASStates[i],
			Multiplicity: r.out.CASMults[i],
		})
	}
	return labels
}

func (r *Result) CASTransitionDipoles() []float64 {
	return append([]float64(nil), r.out.CASTransDipoles...)
}

func (r *Result) CISStates() int32 {
	return r.out.CISStates
}

func (r *Result) CISTransitionDipoles() []float64 {
	return append([]float64(nil), r.out.CISTransDipoles...)
}

func (r *Result) ImdMMAtomGradient() []float64 {
	return append([]float64(nil), r.out.ImdMMGradient...)
}

// Molden decompresses the gzip interactive-MD molden buffer into its
// text form. ErrNoMoldenData is returned when the run produced none.
func (r *Result) Molden() (string, error) {
	if len(r.out.ImdMolden) == 0 {
		return "", ErrNoMoldenData
	}
	zr, err := gzip.NewReader(bytes.NewReader(r.out.ImdMolden))
	if err != nil {
		return "", fmt.Errorf("tcpb: molden buffer: %w", err)
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("tcpb: molden buffer: %w", err)
	}
	return string(text), nil
}
