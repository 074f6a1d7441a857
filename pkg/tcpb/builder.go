package tcpb

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
)

// fieldMask tracks which required job fields have been provided since
// construction or the last invalidating change.
type fieldMask uint8

const (
	fieldAtoms fieldMask = 1 << iota
	fieldCharge
	fieldSpinMult
	fieldClosed
	fieldRestricted
	fieldMethod
	fieldBasis

	requiredFields = fieldAtoms | fieldCharge | fieldSpinMult |
		fieldClosed | fieldRestricted | fieldMethod | fieldBasis
)

var fieldNames = []struct {
	mask fieldMask
	name string
}{
	{fieldAtoms, "atoms"},
	{fieldCharge, "charge"},
	{fieldSpinMult, "spin multiplicity"},
	{fieldClosed, "closed shell flag"},
	{fieldRestricted, "restricted flag"},
	{fieldMethod, "method"},
	{fieldBasis, "basis"},
}

// UserOption is one raw key/value pair forwarded to the server.
type UserOption struct {
	Key   string
	Value string
}

// JobBuilder accumulates a job configuration. Setters that change the
// electronic-structure problem (atoms, charge, spin multiplicity,
// shell flags) clear any cached orbital guess, since a guess computed
// for a different system is chemically invalid as a warm start.
type JobBuilder struct {
	set   fieldMask
	epoch uint64

	atoms      []string
	charge     int32
	spinMult   int32
	closed     bool
	restricted bool
	method     protocol.Method
	basis      string

	guessA string
	guessB string

	userOpts        []UserOption
	returnBondOrder bool
	casStates       []int32
	casMults        []int32

	xyz2      []float64
	cvec1File string
	cvec2File string
	orb2AFile string
	orb2BFile string

	imd *protocol.ImdBlock

	log zerolog.Logger
}

func NewJobBuilder() *JobBuilder {
	return &JobBuilder{log: zerolog.Nop()}
}

// WithLogger sets an optional event logger; it never affects what
// Build produces.
func (b *JobBuilder) WithLogger(log zerolog.Logger) *JobBuilder {
	b.log = log
	return b
}

// invalidate marks an electronic-structure change: any cached orbital
// guess is dropped and the epoch advances so late guess adoption is
// refused.
func (b *JobBuilder) invalidate() {
	b.epoch++
	if b.guessA != "" || b.guessB != "" {
		b.log.Debug().Msg("molecule changed, clearing cached orbital guess")
	}
	b.guessA = ""
	b.guessB = ""
}

func (b *JobBuilder) SetAtoms(atoms []string) {
	b.atoms = append([]string(nil), atoms...)
	b.set |= fieldAtoms
	b.invalidate()
}

func (b *JobBuilder) SetCharge(charge int) {
	b.charge = int32(charge)
	b.set |= fieldCharge
	b.invalidate()
}

// SetSpinMultiplicity records the spin multiplicity. A multiplicity
// above 1 cannot be closed-shell or restricted; previously set flags
// are coerced open/unrestricted with a warning, matching server rules.
func (b *JobBuilder) SetSpinMultiplicity(mult int) {
	b.spinMult = int32(mult)
	b.set |= fieldSpinMult
	if mult > 1 {
		if b.set&fieldClosed != 0 && b.closed {
			b.log.Warn().Int("multiplicity", mult).Msg("open-shell multiplicity, forcing closed=false")
			b.closed = false
		}
		if b.set&fieldRestricted != 0 && b.restricted {
			b.log.Warn().Int("multiplicity", mult).Msg("open-shell multiplicity, forcing restricted=false")
			b.restricted = false
		}
	}
	b.invalidate()
}

func (b *JobBuilder) SetClosedShell(closed bool) {
	if closed && b.set&fieldSpinMult != 0 && b.spinMult > 1 {
		b.log.Warn().Msg("multiplicity above 1 cannot be closed-shell, forcing closed=false")
		closed = false
	}
	if closed && b.set&fieldRestricted != 0 && !b.restricted {
		b.log.Warn().Msg("closed unrestricted system is invalid, forcing closed=false")
		closed = false
	}
	b.closed = closed
	b.set |= fieldClosed
	b.invalidate()
}

func (b *JobBuilder) SetRestricted(restricted bool) {
	if restricted && b.set&fieldSpinMult != 0 && b.spinMult > 1 {
		b.log.Warn().Msg("multiplicity above 1 cannot be restricted, forcing restricted=false")
		restricted = false
	}
	b.restricted = restricted
	b.set |= fieldRestricted
	if !restricted && b.set&fieldClosed != 0 && b.closed {
		b.log.Warn().Msg("closed unrestricted system is invalid, forcing closed=false")
		b.closed = false
	}
	b.invalidate()
}

// SetMethod parses the method name case-insensitively against the
// closed method table. Aliased spellings are accepted. Changing only
// the method does not clear a cached orbital guess.
func (b *JobBuilder) SetMethod(name string) error {
	m, err := protocol.ParseMethod(name)
	if err != nil {
		return &ConfigurationError{Field: "method", Err: err}
	}
	b.method = m
	b.set |= fieldMethod
	return nil
}

func (b *JobBuilder) SetBasis(basis string) {
	b.basis = basis
	b.set |= fieldBasis
}

// SetGuessFiles supplies warm-start orbital files explicitly. Beta may
// be empty for restricted systems.
func (b *JobBuilder) SetGuessFiles(alpha, beta string) {
	b.guessA = alpha
	b.guessB = beta
}

// GuessFiles reports the currently cached warm-start orbital files.
func (b *JobBuilder) GuessFiles() (alpha, beta string) {
	return b.guessA, b.guessB
}

// SetUserOption sets or overwrites one raw key/value option, preserving
// first-set order.
func (b *JobBuilder) SetUserOption(key, value string) {
	for i := range b.userOpts {
		if b.userOpts[i].Key == key {
			b.userOpts[i].Value = value
			return
		}
	}
	b.userOpts = append(b.userOpts, UserOption{Key: key, Value: value})
}

func (b *JobBuilder) DeleteUserOption(key string) {
	for i := range b.userOpts {
		if b.userOpts[i].Key == key {
			b.userOpts = append(b.userOpts[:i], b.userOpts[i+1:]...)
			return
		}
	}
}

func (b *JobBuilder) SetReturnBondOrder(v bool) {
	b.returnBondOrder = v
}

// SetCASEnergyLabels requests specific CAS states; states and mults
// are paired by index.
func (b *JobBuilder) SetCASEnergyLabels(states, mults []int) error {
	if len(states) != len(mults) {
		return &ConfigurationError{Field: "cas energy labels", Err: errors.New("state and multiplicity lists differ in length")}
	}
	b.casStates = make([]int32, len(states))
	b.casMults = make([]int32, len(mults))
	for i := range states {
		b.casStates[i] = int32(states[i])
		b.casMults[i] = int32(mults[i])
	}
	return nil
}

// SetSecondGeometry supplies the second geometry for overlap-type runs.
func (b *JobBuilder) SetSecondGeometry(xyz2 []float64) {
	b.xyz2 = append([]float64(nil), xyz2...)
}

// SetCIVectorFiles names the binary CI vector files for the two
// geometries of an overlap run.
func (b *JobBuilder) SetCIVectorFiles(cvec1, cvec2 string) {
	b.cvec1File = cvec1
	b.cvec2File = cvec2
}

// SetSecondGuessFiles names the orbital files belonging to the second
// geometry of an overlap run.
func (b *JobBuilder) SetSecondGuessFiles(alpha, beta string) {
	b.orb2AFile = alpha
	b.orb2BFile = beta
}

func (b *JobBuilder) SetImd(block protocol.ImdBlock) error {
	if !block.Type.Valid() {
		return &ConfigurationError{Field: "imd type", Err: fmt.Errorf("%w: %d", protocol.ErrUnknownValue, block.Type)}
	}
	if !block.OrbitalType.Valid() {
		return &ConfigurationError{Field: "imd orbital type", Err: fmt.Errorf("%w: %d", protocol.ErrUnknownValue, block.OrbitalType)}
	}
	for _, o := range block.Options {
		if !o.Valid() {
			return &ConfigurationError{Field: "imd option", Err: fmt.Errorf("%w: %d", protocol.ErrUnknownValue, o)}
		}
	}
	cp := block
	cp.Options = append([]protocol.ImdOption(nil), block.Options...)
	b.imd = &cp
	return nil
}

func (b *JobBuilder) ClearImd() { b.imd = nil }

// Missing lists the required fields not yet provided, in a fixed order.
func (b *JobBuilder) Missing() []string {
	var missing []string
	for _, fn := range fieldNames {
		if b.set&fn.mask == 0 {
			missing = append(missing, fn.name)
		}
	}
	return missing
}

// Build assembles a submit-eligible JobRequest for one run. It fails
// with a ConfigurationError naming every unset required field, and
// never returns a partially valid request. The geometry is per-build:
// successive jobs can move atoms without touching the builder.
func (b *JobBuilder) Build(run protocol.RunType, geom []float64, unit protocol.Unit) (*JobRequest, error) {
	if missing := b.Missing(); len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}
	if !run.Valid() {
		return nil, &ConfigurationError{Field: "run type", Err: fmt.Errorf("%w: %d", protocol.ErrUnknownValue, run)}
	}
	if !unit.Valid() {
		return nil, &ConfigurationError{Field: "unit", Err: fmt.Errorf("%w: %d", protocol.ErrUnknownValue, unit)}
	}
	if len(geom) != 3*len(b.atoms) {
		return nil, &ConfigurationError{
			Field: "geometry",
			Err:   fmt.Errorf("got %d coordinates for %d atoms, want %d", len(geom), len(b.atoms), 3*len(b.atoms)),
		}
	}
	if len(b.xyz2) > 0 && len(b.xyz2) != 3*len(b.atoms) {
		return nil, &ConfigurationError{
			Field: "second geometry",
			Err:   fmt.Errorf("got %d coordinates for %d atoms, want %d", len(b.xyz2), len(b.atoms), 3*len(b.atoms)),
		}
	}

	input := protocol.JobInput{
		Mol: protocol.Mol{
			Atoms:        append([]string(nil), b.atoms...),
			XYZ:          append([]float64(nil), geom...),
			Units:        unit,
			Charge:       b.charge,
			Multiplicity: b.spinMult,
			Closed:       b.closed,
			Restricted:   b.restricted,
		},
		Run:             run,
		Method:          b.method,
		Basis:           b.basis,
		Orb1AFile:       b.guessA,
		Orb1BFile:       b.guessB,
		XYZ2:            append([]float64(nil), b.xyz2...),
		CVec1File:       b.cvec1File,
		CVec2File:       b.cvec2File,
		Orb2AFile:       b.orb2AFile,
		Orb2BFile:       b.orb2BFile,
		ReturnBondOrder: b.returnBondOrder,
		CASStates:       append([]int32(nil), b.casStates...),
		CASMults:        append([]int32(nil), b.casMults...),
	}
	for _, opt := range b.userOpts {
		input.UserOptions = append(input.UserOptions, opt.Key, opt.Value)
	}
	if b.imd != nil {
		cp := *b.imd
		cp.Options = append([]protocol.ImdOption(nil), b.imd.Options...)
		input.Imd = &cp
	}
	return &JobRequest{input: input, builder: b, epoch: b.epoch}, nil
}

// adoptGuess caches orbital files from a finished job as the next
// warm-start guess, unless the molecule changed since the request was
// built.
func (b *JobBuilder) adoptGuess(alpha, beta string, epoch uint64) {
	if epoch != b.epoch || alpha == "" {
		return
	}
	b.guessA = alpha
	b.guessB = beta
	b.log.Debug().Str("alpha", alpha).Str("beta", beta).Msg("cached orbital guess for next job")
}

// JobRequest is one built, immutable job submission. Ownership passes
// to the Client on submit.
type JobRequest struct {
	input   protocol.JobInput
	builder *JobBuilder
	epoch   uint64
}

// Input exposes the wire-level job input, mainly for inspection and
// tests.
func (r *JobRequest) Input() protocol.JobInput { return r.input }
