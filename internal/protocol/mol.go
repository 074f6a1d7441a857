package protocol

import (
	"fmt"

	"github.com/mtzgroup/tcpb-client/internal/protocol/tlv"
)

// Mol field IDs.
const (
	molFieldAtoms        uint16 = 1
	molFieldXYZ          uint16 = 2
	molFieldUnits        uint16 = 3
	molFieldCharge       uint16 = 4
	molFieldMultiplicity uint16 = 5
	molFieldClosed       uint16 = 6
	molFieldRestricted   uint16 = 7
)

// Mol describes the molecular system of a job: atom symbols, a flat
// 3N coordinate array, and the electronic-structure flags.
type Mol struct {
	Atoms        []string
	XYZ          []float64
	Units        Unit
	Charge       int32
	Multiplicity int32
	Closed       bool
	Restricted   bool
}

func (m Mol) Kind() MessageKind { return KindMol }

func (m Mol) MarshalPayload() ([]byte, error) {
	if !m.Units.Valid() {
		return nil, fmt.Errorf("%w: unit %d", ErrUnknownValue, m.Units)
	}
	fields := []tlv.Field{
		tlv.StrVec(molFieldAtoms, m.Atoms),
		tlv.F64Vec(molFieldXYZ, m.XYZ),
		tlv.I32(molFieldUnits, int32(m.Units)),
		tlv.I32(molFieldCharge, m.Charge),
		tlv.I32(molFieldMultiplicity, m.Multiplicity),
		tlv.Bool(molFieldClosed, m.Closed),
		tlv.Bool(molFieldRestricted, m.Restricted),
	}
	return tlv.EncodeFields(fields), nil
}

func DecodeMol(payload []byte) (Mol, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return Mol{}, fmt.Errorf("%w: mol: %v", ErrBadPayload, err)
	}
	var m Mol
	for _, f := range fields {
		switch f.ID {
		case molFieldAtoms:
			m.Atoms, err = f.AsStrVec()
		case molFieldXYZ:
			m.XYZ, err = f.AsF64Vec()
		case molFieldUnits:
			var v int32
			if v, err = f.AsI32(); err == nil {
				m.Units = Unit(v)
				if !m.Units.Valid() {
					return Mol{}, fmt.Errorf("%w: unit %d", ErrUnknownValue, v)
				}
			}
		case molFieldCharge:
			m.Charge, err = f.AsI32()
		case molFieldMultiplicity:
			m.Multiplicity, err = f.AsI32()
		case molFieldClosed:
			m.Closed, err = f.AsBool()
		case molFieldRestricted:
			m.Restricted, err = f.AsBool()
		}
		if err != nil {
			return Mol{}, fmt.Errorf("%w: mol: %v", ErrBadPayload, err)
		}
	}
	return m, nil
}
