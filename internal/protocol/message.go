package protocol

import "fmt"

// MessageKind tags the envelope payload. Values are fixed by the wire
// contract and transmitted as the first header word.
type MessageKind uint32

const (
	KindStatus    MessageKind = 0
	KindMol       MessageKind = 1
	KindJobInput  MessageKind = 2
	KindJobOutput MessageKind = 3
)

func (k MessageKind) String() string {
	switch k {
	case KindStatus:
		return "STATUS"
	case KindMol:
		return "MOL"
	case KindJobInput:
		return "JOB_INPUT"
	case KindJobOutput:
		return "JOB_OUTPUT"
	}
	return fmt.Sprintf("MessageKind(%d)", uint32(k))
}

func (k MessageKind) Valid() bool {
	return k <= KindJobOutput
}

// Message is one typed payload that knows its own envelope kind.
type Message interface {
	Kind() MessageKind
	MarshalPayload() ([]byte, error)
}
