package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderLen is the fixed envelope header size: uint32 message kind
// followed by uint32 payload length, both big-endian.
const HeaderLen = 8

var (
	ErrShortHeader     = errors.New("frame: short envelope header")
	ErrShortPayload    = errors.New("frame: short envelope payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Envelope is one complete wire message: a kind tag and its raw payload.
// The framing layer carries no knowledge of what the payload means.
type Envelope struct {
	Kind    uint32
	Payload []byte
}

// Limits constrains envelope decode/encode memory use. A declared payload
// length above MaxPayloadBytes is rejected before any allocation.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 32 * 1024 * 1024,
	}
}

// ReadEnvelope reads exactly one envelope from r. It first reads the
// 8-byte header, then exactly the declared number of payload bytes.
// Fewer bytes than declared is a short-read failure, never a partial
// success. A zero-length payload is valid and reads nothing further.
func ReadEnvelope(r io.Reader, limits Limits) (Envelope, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Envelope{}, ErrShortHeader
		}
		return Envelope{}, err
	}

	kind := binary.BigEndian.Uint32(fixed[0:4])
	length := binary.BigEndian.Uint32(fixed[4:8])

	if length > limits.MaxPayloadBytes {
		return Envelope{}, ErrPayloadTooLarge
	}
	if length == 0 {
		return Envelope{Kind: kind}, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Envelope{}, ErrShortPayload
		}
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Payload: payload}, nil
}

// WriteEnvelope writes the header and payload as a single buffer so the
// transport sees one write per envelope. The length field always equals
// the exact payload size, including a length of 0 for empty payloads.
func WriteEnvelope(w io.Writer, e Envelope, limits Limits) error {
	if uint64(len(e.Payload)) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	buf := make([]byte, HeaderLen+len(e.Payload))
	binary.BigEndian.PutUint32(buf[0:4], e.Kind)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(e.Payload)))
	copy(buf[HeaderLen:], e.Payload)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	return nil
}
