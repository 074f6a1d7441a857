package protocol

import (
	"fmt"

	"github.com/mtzgroup/tcpb-client/internal/protocol/tlv"
)

// JobPhase is the server-reported job status. The wire carries it as
// three mutually exclusive flags; decoding collapses them into this
// tagged value so an illegal combination cannot be represented.
type JobPhase uint8

const (
	PhaseNone JobPhase = iota
	PhaseAccepted
	PhaseWorking
	PhaseCompleted
)

func (p JobPhase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseAccepted:
		return "accepted"
	case PhaseWorking:
		return "working"
	case PhaseCompleted:
		return "completed"
	}
	return fmt.Sprintf("JobPhase(%d)", uint8(p))
}

// Status field IDs.
const (
	statusFieldBusy        uint16 = 1
	statusFieldAccepted    uint16 = 2
	statusFieldWorking     uint16 = 3
	statusFieldCompleted   uint16 = 4
	statusFieldJobDir      uint16 = 5
	statusFieldScratchDir  uint16 = 6
	statusFieldServerJobID uint16 = 7
)

// Status is the server availability and job-progress response. The
// client sends it with an empty payload as an availability or poll
// request.
type Status struct {
	Busy          bool
	Phase         JobPhase
	JobDir        string
	JobScratchDir string
	ServerJobID   int32
}

func (s Status) Kind() MessageKind { return KindStatus }

// MarshalPayload omits fields at their zero value, so the zero Status
// encodes to an empty payload. That is the request form: availability
// checks and polls go out as a bare STATUS envelope with length 0.
func (s Status) MarshalPayload() ([]byte, error) {
	var fields []tlv.Field
	if s.Busy {
		fields = append(fields, tlv.Bool(statusFieldBusy, true))
	}
	switch s.Phase {
	case PhaseNone:
	case PhaseAccepted:
		fields = append(fields, tlv.Bool(statusFieldAccepted, true))
	case PhaseWorking:
		fields = append(fields, tlv.Bool(statusFieldWorking, true))
	case PhaseCompleted:
		fields = append(fields, tlv.Bool(statusFieldCompleted, true))
	default:
		return nil, fmt.Errorf("%w: job phase %d", ErrUnknownValue, s.Phase)
	}
	if s.JobDir != "" {
		fields = append(fields, tlv.String(statusFieldJobDir, s.JobDir))
	}
	if s.JobScratchDir != "" {
		fields = append(fields, tlv.String(statusFieldScratchDir, s.JobScratchDir))
	}
	if s.ServerJobID != 0 {
		fields = append(fields, tlv.I32(statusFieldServerJobID, s.ServerJobID))
	}
	return tlv.EncodeFields(fields), nil
}

// DecodeStatus parses a STATUS payload. An empty payload is a valid
// request-form status with no flags set.
func DecodeStatus(payload []byte) (Status, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return Status{}, fmt.Errorf("%w: status: %v", ErrBadPayload, err)
	}

	var s Status
	phases := 0
	setPhase := func(p JobPhase, on bool) {
		if on {
			s.Phase = p
			phases++
		}
	}
	for _, f := range fields {
		switch f.ID {
		case statusFieldBusy:
			if s.Busy, err = f.AsBool(); err != nil {
				return Status{}, fmt.Errorf("%w: status: %v", ErrBadPayload, err)
			}
		case statusFieldAccepted, statusFieldWorking, statusFieldCompleted:
			on, err := f.AsBool()
			if err != nil {
				return Status{}, fmt.Errorf("%w: status: %v", ErrBadPayload, err)
			}
			switch f.ID {
			case statusFieldAccepted:
				setPhase(PhaseAccepted, on)
			case statusFieldWorking:
				setPhase(PhaseWorking, on)
			case statusFieldCompleted:
				setPhase(PhaseCompleted, on)
			}
		case statusFieldJobDir:
			if s.JobDir, err = f.AsString(); err != nil {
				return Status{}, fmt.Errorf("%w: status: %v", ErrBadPayload, err)
			}
		case statusFieldScratchDir:
			if s.JobScratchDir, err = f.AsString(); err != nil {
				return Status{}, fmt.Errorf("%w: status: %v", ErrBadPayload, err)
			}
		case statusFieldServerJobID:
			if s.ServerJobID, err = f.AsI32(); err != nil {
				return Status{}, fmt.Errorf("%w: status: %v", ErrBadPayload, err)
			}
		}
	}
	if phases > 1 {
		return Status{}, ErrPhaseConflict
	}
	return s, nil
}
