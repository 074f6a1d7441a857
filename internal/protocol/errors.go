package protocol

import "errors"

var (
	ErrUnknownKind   = errors.New("protocol: unknown message kind")
	ErrUnknownName   = errors.New("protocol: unknown enum name")
	ErrUnknownValue  = errors.New("protocol: unknown enum value")
	ErrPhaseConflict = errors.New("protocol: status sets more than one job phase")
	ErrBadPayload    = errors.New("protocol: malformed payload")
)
