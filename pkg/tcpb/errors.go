package tcpb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
)

// Caller-usage sentinels. These are local errors: no network I/O has
// happened when they are returned.
var (
	ErrNotConnected     = errors.New("tcpb: not connected")
	ErrAlreadyConnected = errors.New("tcpb: already connected")
	ErrJobInFlight      = errors.New("tcpb: a job is already in flight")
	ErrNoJobInFlight    = errors.New("tcpb: no job in flight")
	ErrJobNotComplete   = errors.New("tcpb: job output not ready")
	ErrNoMoldenData     = errors.New("tcpb: no interactive-MD molden data in result")
)

// ConnectionError reports a transport failure: resolution or connect
// failure, a short transfer after one retry, or unexpected stream
// closure. The connection has already been torn down when one is
// returned; the caller must reconnect before further protocol activity.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tcpb: connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a server sequencing violation: an envelope whose
// kind does not match what the current state expects, or a payload that
// cannot be decoded. Fatal for the current connection.
type ProtocolError struct {
	Want protocol.MessageKind
	Got  protocol.MessageKind
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tcpb: protocol: expected %s: %v", e.Want, e.Err)
	}
	return fmt.Sprintf("tcpb: protocol: expected %s, got %s", e.Want, e.Got)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigurationError reports an incomplete job input or an unrecognized
// enum name. Fully local and recoverable: fix the configuration and
// build again.
type ConfigurationError struct {
	// Missing lists every required field not yet set, for Build
	// failures.
	Missing []string
	// Field names the offending setter input otherwise.
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("tcpb: job input incomplete, missing: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("tcpb: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
