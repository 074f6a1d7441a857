package protocol

import (
	"fmt"

	"github.com/mtzgroup/tcpb-client/internal/protocol/tlv"
)

// JobOutput field IDs.
const (
	jobOutFieldMol              uint16 = 1
	jobOutFieldEnergy           uint16 = 2
	jobOutFieldGradient         uint16 = 3
	jobOutFieldCharges          uint16 = 4
	jobOutFieldSpins            uint16 = 5
	jobOutFieldDipoles          uint16 = 6
	jobOutFieldJobDir           uint16 = 7
	jobOutFieldScratchDir       uint16 = 8
	jobOutFieldServerJobID      uint16 = 9
	jobOutFieldOrb1AFile        uint16 = 10
	jobOutFieldOrb1BFile        uint16 = 11
	jobOutFieldOrb1ASize        uint16 = 12
	jobOutFieldOrb1BSize        uint16 = 13
	jobOutFieldOrbAEnergies     uint16 = 14
	jobOutFieldOrbAOccupations  uint16 = 15
	jobOutFieldOrbBEnergies     uint16 = 16
	jobOutFieldOrbBOccupations  uint16 = 17
	jobOutFieldBondOrder        uint16 = 18
	jobOutFieldNacme            uint16 = 19
	jobOutFieldCIOverlaps       uint16 = 20
	jobOutFieldCIOverlapSize    uint16 = 21
	jobOutFieldCASStates        uint16 = 22
	jobOutFieldCASMults         uint16 = 23
	jobOutFieldCASTransDipoles  uint16 = 24
	jobOutFieldCISStates        uint16 = 25
	jobOutFieldCISTransDipoles  uint16 = 26
	jobOutFieldImdMolden        uint16 = 27
	jobOutFieldImdMMGradient    uint16 = 28
)

// JobOutput is the completed-job result payload. Every field beyond the
// molecule echo and the job directories is run-type dependent and may
// be absent.
type JobOutput struct {
	Mol           Mol
	Energy        []float64
	Gradient      []float64
	Charges       []float64
	Spins         []float64
	Dipoles       []float64
	JobDir        string
	JobScratchDir string
	ServerJobID   int32

	Orb1AFile string
	Orb1BFile string
	Orb1ASize int32
	Orb1BSize int32

	OrbAEnergies    []float64
	OrbAOccupations []float64
	OrbBEnergies    []float64
	OrbBOccupations []float64

	BondOrder []float64

	Nacme []float64

	CIOverlaps    []float64
	CIOverlapSize int32

	CASStates       []int32
	CASMults        []int32
	CASTransDipoles []float64

	CISStates       int32
	CISTransDipoles []float64

	// Gzip-compressed molden text produced by interactive-MD runs.
	ImdMolden     []byte
	ImdMMGradient []float64
}

func (j JobOutput) Kind() MessageKind { return KindJobOutput }

func (j JobOutput) MarshalPayload() ([]byte, error) {
	molPayload, err := j.Mol.MarshalPayload()
	if err != nil {
		return nil, err
	}
	fields := []tlv.Field{
		tlv.Bytes(jobOutFieldMol, molPayload),
		tlv.String(jobOutFieldJobDir, j.JobDir),
		tlv.String(jobOutFieldScratchDir, j.JobScratchDir),
		tlv.I32(jobOutFieldServerJobID, j.ServerJobID),
	}
	appendF64 := func(id uint16, v []float64) {
		if len(v) > 0 {
			fields = append(fields, tlv.F64Vec(id, v))
		}
	}
	appendStr := func(id uint16, v string) {
		if v != "" {
			fields = append(fields, tlv.String(id, v))
		}
	}
	appendF64(jobOutFieldEnergy, j.Energy)
	appendF64(jobOutFieldGradient, j.Gradient)
	appendF64(jobOutFieldCharges, j.Charges)
	appendF64(jobOutFieldSpins, j.Spins)
	appendF64(jobOutFieldDipoles, j.Dipoles)
	appendStr(jobOutFieldOrb1AFile, j.Orb1AFile)
	appendStr(jobOutFieldOrb1BFile, j.Orb1BFile)
	if j.Orb1ASize != 0 {
		fields = append(fields, tlv.I32(jobOutFieldOrb1ASize, j.Orb1ASize))
	}
	if j.Orb1BSize != 0 {
		fields = append(fields, tlv.I32(jobOutFieldOrb1BSize, j.Orb1BSize))
	}
	appendF64(jobOutFieldOrbAEnergies, j.OrbAEnergies)
	appendF64(jobOutFieldOrbAOccupations, j.OrbAOccupations)
	appendF64(jobOutFieldOrbBEnergies, j.OrbBEnergies)
	appendF64(jobOutFieldOrbBOccupations, j.OrbBOccupations)
	appendF64(jobOutFieldBondOrder, j.BondOrder)
	appendF64(jobOutFieldNacme, j.Nacme)
	appendF64(jobOutFieldCIOverlaps, j.CIOverlaps)
	if j.CIOverlapSize != 0 {
		fields = append(fields, tlv.I32(jobOutFieldCIOverlapSize, j.CIOverlapSize))
	}
	if len(j.CASStates) > 0 {
		fields = append(fields,
			tlv.I32Vec(jobOutFieldCASStates, j.CASStates),
			tlv.I32Vec(jobOutFieldCASMults, j.CASMults),
		)
	}
	appendF64(jobOutFieldCASTransDipoles, j.CASTransDipoles)
	if j.CISStates != 0 {
		fields = append(fields, tlv.I32(jobOutFieldCISStates, j.CISStates))
	}
	appendF64(jobOutFieldCISTransDipoles, j.CISTransDipoles)
	if len(j.ImdMolden) > 0 {
		fields = append(fields, tlv.Bytes(jobOutFieldImdMolden, j.ImdMolden))
	}
	appendF64(jobOutFieldImdMMGradient, j.ImdMMGradient)
	return tlv.EncodeFields(fields), nil
}

func DecodeJobOutput(payload []byte) (JobOutput, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return JobOutput{}, fmt.Errorf("%w: job output: %v", ErrBadPayload, err)
	}
	var j JobOutput
	for _, f := range fields {
		switch f.ID {
		case jobOutFieldMol:
			var raw []byte
			if raw, err = f.AsBytes(); err == nil {
				j.Mol, err = DecodeMol(raw)
			}
		case jobOutFieldEnergy:
			j.Energy, err = f.AsF64Vec()
		case jobOutFieldGradient:
			j.Gradient, err = f.AsF64Vec()
		case jobOutFieldCharges:
			j.Charges, err = f.AsF64Vec()
		case jobOutFieldSpins:
			j.Spins, err = f.AsF64Vec()
		case jobOutFieldDipoles:
			j.Dipoles, err = f.AsF64Vec()
		case jobOutFieldJobDir:
			j.JobDir, err = f.AsString()
		case jobOutFieldScratchDir:
			j.JobScratchDir, err = f.AsString()
		case jobOutFieldServerJobID:
			j.ServerJobID, err = f.AsI32()
		case jobOutFieldOrb1AFile:
			j.Orb1AFile, err = f.AsString()
		case jobOutFieldOrb1BFile:
			j.Orb1BFile, err = f.AsString()
		case jobOutFieldOrb1ASize:
			j.Orb1ASize, err = f.AsI32()
		case jobOutFieldOrb1BSize:
			j.Orb1BSize, err = f.AsI32()
		case jobOutFieldOrbAEnergies:
			j.OrbAEnergies, err = f.AsF64Vec()
		case jobOutFieldOrbAOccupations:
			j.OrbAOccupations, err = f.AsF64Vec()
		case jobOutFieldOrbBEnergies:
			j.OrbBEnergies, err = f.AsF64Vec()
		case jobOutFieldOrbBOccupations:
			j.OrbBOccupations, err = f.AsF64Vec()
		case jobOutFieldBondOrder:
			j.BondOrder, err = f.AsF64Vec()
		case jobOutFieldNacme:
			j.Nacme, err = f.AsF64Vec()
		case jobOutFieldCIOverlaps:
			j.CIOverlaps, err = f.AsF64Vec()
		case jobOutFieldCIOverlapSize:
			j.CIOverlapSize, err = f.AsI32()
		case jobOutFieldCASStates:
			j.CASStates, err = f.AsI32Vec()
		case jobOutFieldCASMults:
			j.CASMults, err = f.AsI32Vec()
		case jobOutFieldCASTransDipoles:
			j.CASTransDipoles, err = f.AsF64Vec()
		case jobOutFieldCISStates:
			j.CISStates, err = f.AsI32()
		case jobOutFieldCISTransDipoles:
			j.CISTransDipoles, err = f.AsF64Vec()
		case jobOutFieldImdMolden:
			j.ImdMolden, err = f.AsBytes()
		case jobOutFieldImdMMGradient:
			j.ImdMMGradient, err = f.AsF64Vec()
		}
		if err != nil {
			return JobOutput{}, fmt.Errorf("%w: job output: %v", ErrBadPayload, err)
		}
	}
	if len(j.CASStates) != len(j.CASMults) {
		return JobOutput{}, fmt.Errorf("%w: job output: cas state/mult length mismatch", ErrBadPayload)
	}
	return j, nil
}
