package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// HeaderLen is the per-field header size: uint16 field ID, uint8 type
// tag, uint32 value length.
const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrDuplicateField   = errors.New("tlv: duplicate field id")
	ErrTypeMismatch     = errors.New("tlv: field type mismatch")
	ErrInvalidValue     = errors.New("tlv: invalid field value")
)

// Type IDs for field values. Vector types are packed big-endian with no
// per-element headers; string vectors carry a uint32 length per element.
const (
	TypeBool    uint8 = 1
	TypeI32     uint8 = 2
	TypeI64     uint8 = 3
	TypeF64     uint8 = 4
	TypeString  uint8 = 5
	TypeBytes   uint8 = 6
	TypeF64Vec  uint8 = 7
	TypeI32Vec  uint8 = 8
	TypeStrVec  uint8 = 9
)

// Field is one encoded or decoded TLV field.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func Bool(id uint16, v bool) Field {
	b := []byte{0}
	if v {
		b[0] = 1
	}
	return Field{ID: id, Type: TypeBool, Value: b}
}

func I32(id uint16, v int32) Field {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return Field{ID: id, Type: TypeI32, Value: b}
}

func I64(id uint16, v int64) Field {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return Field{ID: id, Type: TypeI64, Value: b}
}

func F64(id uint16, v float64) Field {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return Field{ID: id, Type: TypeF64, Value: b}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

func Bytes(id uint16, v []byte) Field {
	return Field{ID: id, Type: TypeBytes, Value: v}
}

func F64Vec(id uint16, v []float64) Field {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return Field{ID: id, Type: TypeF64Vec, Value: b}
}

func I32Vec(id uint16, v []int32) Field {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(b[4*i:], uint32(x))
	}
	return Field{ID: id, Type: TypeI32Vec, Value: b}
}

func StrVec(id uint16, v []string) Field {
	n := 0
	for _, s := range v {
		n += 4 + len(s)
	}
	b := make([]byte, 0, n)
	for _, s := range v {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(s)))
		b = append(b, l[:]...)
		b = append(b, s...)
	}
	return Field{ID: id, Type: TypeStrVec, Value: b}
}

func (f Field) AsBool() (bool, error) {
	if err := f.expect(TypeBool, 1); err != nil {
		return false, err
	}
	return f.Value[0] != 0, nil
}

func (f Field) AsI32() (int32, error) {
	if err := f.expect(TypeI32, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(f.Value)), nil
}

func (f Field) AsI64() (int64, error) {
	if err := f.expect(TypeI64, 8); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(f.Value)), nil
}

func (f Field) AsF64() (float64, error) {
	if err := f.expect(TypeF64, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(f.Value)), nil
}

func (f Field) AsString() (string, error) {
	if f.Type != TypeString {
		return "", typeErr(f, TypeString)
	}
	return string(f.Value), nil
}

func (f Field) AsBytes() ([]byte, error) {
	if f.Type != TypeBytes {
		return nil, typeErr(f, TypeBytes)
	}
	out := make([]byte, len(f.Value))
	copy(out, f.Value)
	return out, nil
}

func (f Field) AsF64Vec() ([]float64, error) {
	if f.Type != TypeF64Vec {
		return nil, typeErr(f, TypeF64Vec)
	}
	if len(f.Value)%8 != 0 {
		return nil, fmt.Errorf("%w: field %d f64 vector length %d", ErrInvalidValue, f.ID, len(f.Value))
	}
	out := make([]float64, len(f.Value)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(f.Value[8*i:]))
	}
	return out, nil
}

func (f Field) AsI32Vec() ([]int32, error) {
	if f.Type != TypeI32Vec {
		return nil, typeErr(f, TypeI32Vec)
	}
	if len(f.Value)%4 != 0 {
		return nil, fmt.Errorf("%w: field %d i32 vector length %d", ErrInvalidValue, f.ID, len(f.Value))
	}
	out := make([]int32, len(f.Value)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(f.Value[4*i:]))
	}
	return out, nil
}

func (f Field) AsStrVec() ([]string, error) {
	if f.Type != TypeStrVec {
		return nil, typeErr(f, TypeStrVec)
	}
	out := make([]string, 0, 4)
	for i := 0; i < len(f.Value); {
		if len(f.Value)-i < 4 {
			return nil, fmt.Errorf("%w: field %d string vector element header", ErrInvalidValue, f.ID)
		}
		l := int(binary.BigEndian.Uint32(f.Value[i : i+4]))
		i += 4
		if len(f.Value)-i < l {
			return nil, fmt.Errorf("%w: field %d string vector element value", ErrInvalidValue, f.ID)
		}
		out = append(out, string(f.Value[i:i+l]))
		i += l
	}
	return out, nil
}

func (f Field) expect(typeID uint8, size int) error {
	if f.Type != typeID {
		return typeErr(f, typeID)
	}
	if len(f.Value) != size {
		return fmt.Errorf("%w: field %d value length %d, want %d", ErrInvalidValue, f.ID, len(f.Value), size)
	}
	return nil
}

func typeErr(f Field, want uint8) error {
	return fmt.Errorf("%w: field %d got type %d, want %d", ErrTypeMismatch, f.ID, f.Type, want)
}

// EncodeFields serializes fields in order into one payload buffer.
func EncodeFields(fields []Field) []byte {
	n := 0
	for _, f := range fields {
		n += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, n)
	for _, f := range fields {
		var head [HeaderLen]byte
		binary.BigEndian.PutUint16(head[0:2], f.ID)
		head[2] = f.Type
		binary.BigEndian.PutUint32(head[3:7], uint32(len(f.Value)))
		out = append(out, head[:]...)
		out = append(out, f.Value...)
	}
	return out
}

// DecodeFields parses a payload into its fields, preserving order.
// Truncated headers or values fail the whole payload, as does a
// repeated field ID.
func DecodeFields(payload []byte) ([]Field, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	fields := make([]Field, 0, 8)
	seen := make(map[uint16]struct{}, 8)
	for i := 0; i < len(payload); {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateField, id)
		}
		seen[id] = struct{}{}
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}
