package tcpb

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
)

func TestResultEnergyViews(t *testing.T) {
	res := newResult(protocol.JobOutput{Energy: []float64{-76.3, -76.1, -75.9}})

	e, ok := res.Energy()
	require.True(t, ok)
	assert.Equal(t, -76.3, e)
	assert.Equal(t, []float64{-76.3, -76.1, -75.9}, res.Energies())

	empty := newResult(protocol.JobOutput{})
	_, ok = empty.Energy()
	assert.False(t, ok)
	assert.Empty(t, empty.Energies())
}

func TestResultForcesNegation(t *testing.T) {
	grad := []float64{0.5, -0.25, 0, 1e-9, -1e-9, 2}
	res := newResult(protocol.JobOutput{Gradient: grad})

	forces := res.Forces()
	require.Len(t, forces, len(grad))
	for i := range grad {
		assert.Equal(t, -grad[i], forces[i], "component %d", i)
	}
	// The gradient view is untouched by the negation.
	assert.Equal(t, grad, res.Gradient())

	assert.Nil(t, newResult(protocol.JobOutput{}).Forces())
}

func TestResultViewsAreCopies(t *testing.T) {
	out := protocol.JobOutput{
		Gradient: []float64{1, 2, 3},
		Charges:  []float64{-0.5, 0.5},
	}
	res := newResult(out)

	g := res.Gradient()
	g[0] = 99
	assert.Equal(t, []float64{1, 2, 3}, res.Gradient())

	c := res.Charges()
	c[0] = 99
	assert.Equal(t, []float64{-0.5, 0.5}, res.Charges())
}

func TestResultDipole(t *testing.T) {
	res := newResult(protocol.JobOutput{Dipoles: []float64{0, 1.6, 0, 1.6}})

	vec, ok := res.DipoleVector()
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1.6, 0}, vec)

	mag, ok := res.DipoleMoment()
	require.True(t, ok)
	assert.Equal(t, 1.6, mag)

	_, ok = newResult(protocol.JobOutput{}).DipoleVector()
	assert.False(t, ok)
}

func TestResultBondOrderMatrix(t *testing.T) {
	out := protocol.JobOutput{
		Mol: protocol.Mol{Atoms: []string{"O", "H", "H"}},
		BondOrder: []float64{
			0, 0.9, 0.9,
			0.9, 0, 0.1,
			0.9, 0.1, 0,
		},
	}
	m, ok := newResult(out).BondOrders()
	require.True(t, ok)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.9, m.At(0, 1))
	assert.Equal(t, 0.1, m.At(2, 1))

	// Wrong length does not panic, it reports absence.
	out.BondOrder = out.BondOrder[:5]
	_, ok = newResult(out).BondOrders()
	assert.False(t, ok)
}

func TestResultCIOverlapMatrix(t *testing.T) {
	out := protocol.JobOutput{
		CIOverlaps:    []float64{1, 0.2, 0.2, 1},
		CIOverlapSize: 2,
	}
	m, ok := newResult(out).CIOverlap()
	require.True(t, ok)
	assert.Equal(t, 0.2, m.At(0, 1))

	out.CIOverlapSize = 3
	_, ok = newResult(out).CIOverlap()
	assert.False(t, ok)
}

func TestResultCASLabels(t *testing.T) {
	out := protocol.JobOutput{
		Energy:    []float64{-76.3, -76.0},
		CASStates: []int32{0, 1},
		CASMults:  []int32{1, 3},
	}
	labels := newResult(out).CASEnergyLabels()
	require.Len(t, labels, 2)
	assert.Equal(t, CASLabel{State: 1, Multiplicity: 3}, labels[1])
}

func TestResultOrbitals(t *testing.T) {
	out := protocol.JobOutput{
		Mol:             protocol.Mol{Restricted: true},
		Orb1AFile:       "scr/c0",
		OrbAEnergies:    []float64{-20.5, -1.3},
		OrbAOccupations: []float64{2, 2},
	}
	res := newResult(out)

	files := res.OrbitalFiles()
	assert.Equal(t, "scr/c0", files.Alpha)
	assert.Empty(t, files.Beta)
	assert.True(t, files.Restricted)

	energies, occs := res.Orbitals(SpinAlpha)
	assert.Equal(t, []float64{-20.5, -1.3}, energies)
	assert.Equal(t, []float64{2, 2}, occs)

	energies, occs = res.Orbitals(SpinBeta)
	assert.Empty(t, energies)
	assert.Empty(t, occs)
}

func TestResultMolden(t *testing.T) {
	const moldenText = "[Molden Format]\n[Atoms] AU\nO 1 8 0.0 0.0 0.0\n"
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(moldenText))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	res := newResult(protocol.JobOutput{ImdMolden: buf.Bytes()})
	text, err := res.Molden()
	require.NoError(t, err)
	assert.Equal(t, moldenText, text)

	_, err = newResult(protocol.JobOutput{}).Molden()
	assert.ErrorIs(t, err, ErrNoMoldenData)

	_, err = newResult(protocol.JobOutput{ImdMolden: []byte("not gzip")}).Molden()
	assert.Error(t, err)
}

func TestResultHandleAndMolCopy(t *testing.T) {
	out := protocol.JobOutput{
		Mol:           protocol.Mol{Atoms: []string{"He"}, XYZ: []float64{0, 0, 0}},
		JobDir:        "/scratch/job_5",
		JobScratchDir: "/scratch/job_5/scr",
		ServerJobID:   5,
	}
	res := newResult(out)

	h := res.Handle()
	assert.Equal(t, int32(5), h.ServerJobID)
	assert.Equal(t, "/scratch/job_5", h.JobDir)

	m := res.Mol()
	m.Atoms[0] = "Xe"
	assert.Equal(t, "He", res.Mol().Atoms[0])
}
