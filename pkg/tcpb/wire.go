package tcpb

import "github.com/mtzgroup/tcpb-client/internal/protocol"

// Aliases re-export the wire-level types that appear in this package's
// API, so callers never need to import the protocol internals.
type (
	MessageKind = protocol.MessageKind
	RunType     = protocol.RunType
	Method      = protocol.Method
	Unit        = protocol.Unit
	Mol         = protocol.Mol
	JobInput    = protocol.JobInput
	ImdBlock    = protocol.ImdBlock
	ImdType     = protocol.ImdType
	ImdOrbital  = protocol.ImdOrbitalType
	ImdOption   = protocol.ImdOption
)

const (
	KindStatus    = protocol.KindStatus
	KindMol       = protocol.KindMol
	KindJobInput  = protocol.KindJobInput
	KindJobOutput = protocol.KindJobOutput
)

const (
	RunEnergy       = protocol.RunEnergy
	RunGradient     = protocol.RunGradient
	RunCoupling     = protocol.RunCoupling
	RunCIVecOverlap = protocol.RunCIVecOverlap
	RunIMD          = protocol.RunIMD
)

const (
	UnitAngstrom = protocol.UnitAngstrom
	UnitBohr     = protocol.UnitBohr
)

const (
	ImdMolden       = protocol.ImdMolden
	ImdOrbitalSlice = protocol.ImdOrbitalSlice

	ImdNoOrbital = protocol.ImdNoOrbital
	ImdWholeC    = protocol.ImdWholeC
	ImdHOMO      = protocol.ImdHOMO
	ImdLUMO      = protocol.ImdLUMO

	ImdOptMMGradient = protocol.ImdOptMMGradient
	ImdOptVelocities = protocol.ImdOptVelocities
)

func ParseRunType(s string) (RunType, error) { return protocol.ParseRunType(s) }

func ParseMethod(s string) (Method, error) { return protocol.ParseMethod(s) }

func ParseUnit(s string) (Unit, error) { return protocol.ParseUnit(s) }
