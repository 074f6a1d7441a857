package protocol

import (
	"fmt"

	"github.com/mtzgroup/tcpb-client/internal/protocol/tlv"
)

// JobInput field IDs.
const (
	jobInFieldMol           uint16 = 1
	jobInFieldRun           uint16 = 2
	jobInFieldMethod        uint16 = 3
	jobInFieldBasis         uint16 = 4
	jobInFieldUserOptions   uint16 = 5
	jobInFieldOrb1AFile     uint16 = 6
	jobInFieldOrb1BFile     uint16 = 7
	jobInFieldXYZ2          uint16 = 8
	jobInFieldCVec1File     uint16 = 9
	jobInFieldCVec2File     uint16 = 10
	jobInFieldOrb2AFile     uint16 = 11
	jobInFieldOrb2BFile     uint16 = 12
	jobInFieldBondOrder     uint16 = 13
	jobInFieldCASStates     uint16 = 14
	jobInFieldCASMults      uint16 = 15
	jobInFieldImdType       uint16 = 16
	jobInFieldImdOrbital    uint16 = 17
	jobInFieldImdOptions    uint16 = 18
)

// ImdBlock carries the interactive-MD request fields of a JobInput.
type ImdBlock struct {
	Type        ImdType
	OrbitalType ImdOrbitalType
	Options     []ImdOption
}

// JobInput is the full job submission payload. UserOptions is a flat
// ordered sequence of key,value pairs, exactly as transmitted.
type JobInput struct {
	Mol         Mol
	Run         RunType
	Method      Method
	Basis       string
	UserOptions []string

	// Warm-start guess orbitals from a previous job on this connection.
	Orb1AFile string
	Orb1BFile string

	// Overlap-run extras: second geometry and its CI vector / orbital
	// files.
	XYZ2      []float64
	CVec1File string
	CVec2File string
	Orb2AFile string
	Orb2BFile string

	ReturnBondOrder bool
	CASStates       []int32
	CASMults        []int32

	Imd *ImdBlock
}

func (j JobInput) Kind() MessageKind { return KindJobInput }

func (j JobInput) MarshalPayload() ([]byte, error) {
	if !j.Run.Valid() {
		return nil, fmt.Errorf("%w: run type %d", ErrUnknownValue, j.Run)
	}
	if !j.Method.Valid() {
		return nil, fmt.Errorf("%w: method %d", ErrUnknownValue, j.Method)
	}
	molPayload, err := j.Mol.MarshalPayload()
	if err != nil {
		return nil, err
	}

	fields := []tlv.Field{
		tlv.Bytes(jobInFieldMol, molPayload),
		tlv.I32(jobInFieldRun, int32(j.Run)),
		tlv.I32(jobInFieldMethod, int32(j.Method)),
		tlv.String(jobInFieldBasis, j.Basis),
	}
	if len(j.UserOptions) > 0 {
		fields = append(fields, tlv.StrVec(jobInFieldUserOptions, j.UserOptions))
	}
	if j.Orb1AFile != "" {
		fields = append(fields, tlv.String(jobInFieldOrb1AFile, j.Orb1AFile))
	}
	if j.Orb1BFile != "" {
		fields = append(fields, tlv.String(jobInFieldOrb1BFile, j.Orb1BFile))
	}
	if len(j.XYZ2) > 0 {
		fields = append(fields, tlv.F64Vec(jobInFieldXYZ2, j.XYZ2))
	}
	if j.CVec1File != "" {
		fields = append(fields, tlv.String(jobInFieldCVec1File, j.CVec1File))
	}
	if j.CVec2File != "" {
		fields = append(fields, tlv.String(jobInFieldCVec2File, j.CVec2File))
	}
	if j.Orb2AFile != "" {
		fields = append(fields, tlv.String(jobInFieldOrb2AFile, j.Orb2AFile))
	}
	if j.Orb2BFile != "" {
		fields = append(fields, tlv.String(jobInFieldOrb2BFile, j.Orb2BFile))
	}
	if j.ReturnBondOrder {
		fields = append(fields, tlv.Bool(jobInFieldBondOrder, true))
	}
	if len(j.CASStates) > 0 {
		fields = append(fields,
			tlv.I32Vec(jobInFieldCASStates, j.CASStates),
			tlv.I32Vec(jobInFieldCASMults, j.CASMults),
		)
	}
	if j.Imd != nil {
		if !j.Imd.Type.Valid() {
			return nil, fmt.Errorf("%w: imd type %d", ErrUnknownValue, j.Imd.Type)
		}
		if !j.Imd.OrbitalType.Valid() {
			return nil, fmt.Errorf("%w: imd orbital type %d", ErrUnknownValue, j.Imd.OrbitalType)
		}
		opts := make([]int32, len(j.Imd.Options))
		for i, o := range j.Imd.Options {
			if !o.Valid() {
				return nil, fmt.Errorf("%w: imd option %d", ErrUnknownValue, o)
			}
			opts[i] = int32(o)
		}
		fields = append(fields,
			tlv.I32(jobInFieldImdType, int32(j.Imd.Type)),
			tlv.I32(jobInFieldImdOrbital, int32(j.Imd.OrbitalType)),
		)
		if len(opts) > 0 {
			fields = append(fields, tlv.I32Vec(jobInFieldImdOptions, opts))
		}
	}
	return tlv.EncodeFields(fields), nil
}

func DecodeJobInput(payload []byte) (JobInput, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return JobInput{}, fmt.Errorf("%w: job input: %v", ErrBadPayload, err)
	}
	var (
		j      JobInput
		imd    ImdBlock
		hasImd bool
	)
	for _, f := range fields {
		switch f.ID {
		case jobInFieldMol:
			var raw []byte
			if raw, err = f.AsBytes(); err == nil {
				j.Mol, err = DecodeMol(raw)
			}
		case jobInFieldRun:
			var v int32
			if v, err = f.AsI32(); err == nil {
				j.Run = RunType(v)
				if !j.Run.Valid() {
					return JobInput{}, fmt.Errorf("%w: run type %d", ErrUnknownValue, v)
				}
			}
		case jobInFieldMethod:
			var v int32
			if v, err = f.AsI32(); err == nil {
				j.Method = Method(v)
				if !j.Method.Valid() {
					return JobInput{}, fmt.Errorf("%w: method %d", ErrUnknownValue, v)
				}
			}
		case jobInFieldBasis:
			j.Basis, err = f.AsString()
		case jobInFieldUserOptions:
			j.UserOptions, err = f.AsStrVec()
		case jobInFieldOrb1AFile:
			j.Orb1AFile, err = f.AsString()
		case jobInFieldOrb1BFile:
			j.Orb1BFile, err = f.AsString()
		case jobInFieldXYZ2:
			j.XYZ2, err = f.AsF64Vec()
		case jobInFieldCVec1File:
			j.CVec1File, err = f.AsString()
		case jobInFieldCVec2File:
			j.CVec2File, err = f.AsString()
		case jobInFieldOrb2AFile:
			j.Orb2AFile, err = f.AsString()
		case jobInFieldOrb2BFile:
			j.Orb2BFile, err = f.AsString()
		case jobInFieldBondOrder:
			j.ReturnBondOrder, err = f.AsBool()
		case jobInFieldCASStates:
			j.CASStates, err = f.AsI32Vec()
		case jobInFieldCASMults:
			j.CASMults, err = f.AsI32Vec()
		case jobInFieldImdType:
			var v int32
			if v, err = f.AsI32(); err == nil {
				imd.Type = ImdType(v)
				hasImd = true
				if !imd.Type.Valid() {
					return JobInput{}, fmt.Errorf("%w: imd type %d", ErrUnknownValue, v)
				}
			}
		case jobInFieldImdOrbital:
			var v int32
			if v, err = f.AsI32(); err == nil {
				imd.OrbitalType = ImdOrbitalType(v)
				hasImd = true
				if !imd.OrbitalType.Valid() {
					return JobInput{}, fmt.Errorf("%w: imd orbital type %d", ErrUnknownValue, v)
				}
			}
		case jobInFieldImdOptions:
			var vs []int32
			if vs, err = f.AsI32Vec(); err == nil {
				hasImd = true
				for _, v := range vs {
					o := ImdOption(v)
					if !o.Valid() {
						return JobInput{}, fmt.Errorf("%w: imd option %d", ErrUnknownValue, v)
					}
					imd.Options = append(imd.Options, o)
				}
			}
		}
		if err != nil {
			return JobInput{}, fmt.Errorf("%w: job input: %v", ErrBadPayload, err)
		}
	}
	if len(j.CASStates) != len(j.CASMults) {
		return JobInput{}, fmt.Errorf("%w: job input: cas state/mult length mismatch", ErrBadPayload)
	}
	if hasImd {
		j.Imd = &imd
	}
	return j, nil
}
