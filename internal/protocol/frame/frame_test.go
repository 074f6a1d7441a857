package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []Envelope{
		{Kind: 0, Payload: nil},
		{Kind: 2, Payload: []byte{0xde, 0xad, 0xbe, 0xef}},
		{Kind: 3, Payload: bytes.Repeat([]byte{0x42}, 4096)},
	}
	limits := DefaultLimits()
	for _, want := range cases {
		var buf bytes.Buffer
		if err := WriteEnvelope(&buf, want, limits); err != nil {
			t.Fatalf("write kind %d: %v", want.Kind, err)
		}
		got, err := ReadEnvelope(&buf, limits)
		if err != nil {
			t.Fatalf("read kind %d: %v", want.Kind, err)
		}
		if got.Kind != want.Kind {
			t.Fatalf("kind = %d, want %d", got.Kind, want.Kind)
		}
		if !bytes.Equal(got.Payload, want.Payload) {
			t.Fatalf("payload mismatch for kind %d", want.Kind)
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	env := Envelope{Kind: 2, Payload: []byte{0x01, 0x02, 0x03}}
	if err := WriteEnvelope(&buf, env, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x03,
		0x01, 0x02, 0x03,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("wire bytes = %x, want %x", buf.Bytes(), want)
	}
}

func TestZeroLengthPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEnvelope(&buf, Envelope{Kind: 0}, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != HeaderLen {
		t.Fatalf("wire length = %d, want %d", buf.Len(), HeaderLen)
	}
	got, err := ReadEnvelope(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Payload) != 0 {
		t.Fatalf("payload length = %d, want 0", len(got.Payload))
	}
}

func TestShortHeader(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		r := bytes.NewReader(make([]byte, n))
		if _, err := ReadEnvelope(r, DefaultLimits()); !errors.Is(err, ErrShortHeader) {
			t.Fatalf("%d header bytes: err = %v, want ErrShortHeader", n, err)
		}
	}
}

func TestShortPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEnvelope(&buf, Envelope{Kind: 1, Payload: make([]byte, 32)}, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:HeaderLen+10])
	if _, err := ReadEnvelope(truncated, DefaultLimits()); !errors.Is(err, ErrShortPayload) {
		t.Fatalf("err = %v, want ErrShortPayload", err)
	}
}

func TestPayloadBound(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 16}

	if err := WriteEnvelope(&bytes.Buffer{}, Envelope{Kind: 1, Payload: make([]byte, 17)}, limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("write err = %v, want ErrPayloadTooLarge", err)
	}

	// An oversized declared length must be rejected from the header
	// alone, before any payload allocation.
	hdr := []byte{0x00, 0x00, 0x00, 0x01, 0xff, 0xff, 0xff, 0xff}
	if _, err := ReadEnvelope(bytes.NewReader(hdr), limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("read err = %v, want ErrPayloadTooLarge", err)
	}

	var buf bytes.Buffer
	if err := WriteEnvelope(&buf, Envelope{Kind: 1, Payload: make([]byte, 16)}, limits); err != nil {
		t.Fatalf("write at bound: %v", err)
	}
	if _, err := ReadEnvelope(&buf, limits); err != nil {
		t.Fatalf("read at bound: %v", err)
	}
}
