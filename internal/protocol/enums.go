package protocol

import (
	"fmt"
	"strings"
)

// The enum tables below are closed sets. Names are matched
// case-insensitively; aliases map to the same wire value, and the
// reverse tables carry exactly one canonical display name per value.

// RunType selects the computed property for a job.
type RunType int32

const (
	RunEnergy       RunType = 0
	RunGradient     RunType = 1
	RunCoupling     RunType = 2
	RunCIVecOverlap RunType = 3
	RunIMD          RunType = 4
)

var runTypeNames = map[string]RunType{
	"energy":         RunEnergy,
	"gradient":       RunGradient,
	"coupling":       RunCoupling,
	"ci_vec_overlap": RunCIVecOverlap,
	"imd":            RunIMD,
}

var runTypeDisplay = map[RunType]string{
	RunEnergy:       "energy",
	RunGradient:     "gradient",
	RunCoupling:     "coupling",
	RunCIVecOverlap: "ci_vec_overlap",
	RunIMD:          "imd",
}

func ParseRunType(s string) (RunType, error) {
	if v, ok := runTypeNames[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: run type %q", ErrUnknownName, s)
}

func (r RunType) String() string {
	if s, ok := runTypeDisplay[r]; ok {
		return s
	}
	return fmt.Sprintf("RunType(%d)", int32(r))
}

func (r RunType) Valid() bool {
	_, ok := runTypeDisplay[r]
	return ok
}

// Method is the electronic-structure method requested from the server.
type Method int32

const (
	MethodHF       Method = 0
	MethodBLYP     Method = 1
	MethodB3LYP    Method = 2
	MethodPBE      Method = 3
	MethodPBE0     Method = 4
	MethodREVPBE   Method = 5
	MethodCAMB3LYP Method = 6
	MethodWPBEH    Method = 7
	MethodCASSCF   Method = 8
	MethodCASCI    Method = 9
)

// methodNames includes the accepted alias spellings. Both spellings of
// a functional encode to the same wire value.
var methodNames = map[string]Method{
	"hf":        MethodHF,
	"blyp":      MethodBLYP,
	"b3lyp":     MethodB3LYP,
	"pbe":       MethodPBE,
	"pbe0":      MethodPBE0,
	"pbe1pbe":   MethodPBE0,
	"revpbe":    MethodREVPBE,
	"camb3lyp":  MethodCAMB3LYP,
	"cam-b3lyp": MethodCAMB3LYP,
	"wpbeh":     MethodWPBEH,
	"casscf":    MethodCASSCF,
	"casci":     MethodCASCI,
}

var methodDisplay = map[Method]string{
	MethodHF:       "hf",
	MethodBLYP:     "blyp",
	MethodB3LYP:    "b3lyp",
	MethodPBE:      "pbe",
	MethodPBE0:     "pbe0",
	MethodREVPBE:   "revpbe",
	MethodCAMB3LYP: "camb3lyp",
	MethodWPBEH:    "wpbeh",
	MethodCASSCF:   "casscf",
	MethodCASCI:    "casci",
}

func ParseMethod(s string) (Method, error) {
	if v, ok := methodNames[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: method %q", ErrUnknownName, s)
}

func (m Method) String() string {
	if s, ok := methodDisplay[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int32(m))
}

func (m Method) Valid() bool {
	_, ok := methodDisplay[m]
	return ok
}

// Unit is the geometry length unit.
type Unit int32

const (
	UnitAngstrom Unit = 0
	UnitBohr     Unit = 1
)

var unitNames = map[string]Unit{
	"angstrom": UnitAngstrom,
	"bohr":     UnitBohr,
}

var unitDisplay = map[Unit]string{
	UnitAngstrom: "angstrom",
	UnitBohr:     "bohr",
}

func ParseUnit(s string) (Unit, error) {
	if v, ok := unitNames[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: unit %q", ErrUnknownName, s)
}

func (u Unit) String() string {
	if s, ok := unitDisplay[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", int32(u))
}

func (u Unit) Valid() bool {
	_, ok := unitDisplay[u]
	return ok
}

// ImdType selects the interactive-MD export produced per frame.
type ImdType int32

const (
	ImdMolden       ImdType = 0
	ImdOrbitalSlice ImdType = 1
)

var imdTypeNames = map[string]ImdType{
	"molden":        ImdMolden,
	"orbital_slice": ImdOrbitalSlice,
}

var imdTypeDisplay = map[ImdType]string{
	ImdMolden:       "molden",
	ImdOrbitalSlice: "orbital_slice",
}

func ParseImdType(s string) (ImdType, error) {
	if v, ok := imdTypeNames[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: imd type %q", ErrUnknownName, s)
}

func (t ImdType) String() string {
	if s, ok := imdTypeDisplay[t]; ok {
		return s
	}
	return fmt.Sprintf("ImdType(%d)", int32(t))
}

func (t ImdType) Valid() bool {
	_, ok := imdTypeDisplay[t]
	return ok
}

// ImdOrbitalType selects which orbital an interactive-MD export renders.
type ImdOrbitalType int32

const (
	ImdNoOrbital ImdOrbitalType = 0
	ImdWholeC    ImdOrbitalType = 1
	ImdHOMO      ImdOrbitalType = 2
	ImdLUMO      ImdOrbitalType = 3
)

var imdOrbitalNames = map[string]ImdOrbitalType{
	"no_orbital": ImdNoOrbital,
	"whole_c":    ImdWholeC,
	"homo":       ImdHOMO,
	"lumo":       ImdLUMO,
}

var imdOrbitalDisplay = map[ImdOrbitalType]string{
	ImdNoOrbital: "no_orbital",
	ImdWholeC:    "whole_c",
	ImdHOMO:      "homo",
	ImdLUMO:      "lumo",
}

func ParseImdOrbitalType(s string) (ImdOrbitalType, error) {
	if v, ok := imdOrbitalNames[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: imd orbital type %q", ErrUnknownName, s)
}

func (t ImdOrbitalType) String() string {
	if s, ok := imdOrbitalDisplay[t]; ok {
		return s
	}
	return fmt.Sprintf("ImdOrbitalType(%d)", int32(t))
}

func (t ImdOrbitalType) Valid() bool {
	_, ok := imdOrbitalDisplay[t]
	return ok
}

// ImdOption is an additional per-frame interactive-MD request.
type ImdOption int32

const (
	ImdOptMMGradient ImdOption = 0
	ImdOptVelocities ImdOption = 1
)

var imdOptionNames = map[string]ImdOption{
	"mm_gradient": ImdOptMMGradient,
	"velocities":  ImdOptVelocities,
}

var imdOptionDisplay = map[ImdOption]string{
	ImdOptMMGradient: "mm_gradient",
	ImdOptVelocities: "velocities",
}

func ParseImdOption(s string) (ImdOption, error) {
	if v, ok := imdOptionNames[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: imd option %q", ErrUnknownName, s)
}

func (o ImdOption) String() string {
	if s, ok := imdOptionDisplay[o]; ok {
		return s
	}
	return fmt.Sprintf("ImdOption(%d)", int32(o))
}

func (o ImdOption) Valid() bool {
	_, ok := imdOptionDisplay[o]
	return ok
}
