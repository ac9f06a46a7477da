package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformed is the root of the protocol-violation family. Every decode
// failure wraps it, so callers can classify with a single errors.Is check.
var ErrMalformed = errors.New("protocol: malformed message")

var (
	ErrInvalidMagic        = fmt.Errorf("%w: invalid magic", ErrMalformed)
	ErrUnsupportedVersion  = fmt.Errorf("%w: unsupported version", ErrMalformed)
	ErrInvalidHeaderLen    = fmt.Errorf("%w: invalid header length", ErrMalformed)
	ErrTruncated           = fmt.Errorf("%w: truncated data", ErrMalformed)
	ErrInvalidLength       = fmt.Errorf("%w: invalid length", ErrMalformed)
	ErrFieldTypeMismatch   = fmt.Errorf("%w: field type mismatch", ErrMalformed)
	ErrMessageTypeMismatch = fmt.Errorf("%w: message type mismatch", ErrMalformed)
)

// MissingFieldError indicates a required field was not present.
type MissingFieldError struct {
	MessageType MessageType
	FieldID     uint16
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("protocol: message_type=%d missing required field %d", e.MessageType, e.FieldID)
}

func (e MissingFieldError) Unwrap() error { return ErrMalformed }

// RejectReason is a server registration reject code.
type RejectReason uint8

const (
	RejectAlreadyConnected        RejectReason = 1
	RejectModuleNotSupported      RejectReason = 2
	RejectDeviceNotSupported      RejectReason = 3
	RejectHigherPriorityConnected RejectReason = 4
)

func (r RejectReason) String() string {
	switch r {
	case RejectAlreadyConnected:
		return "already connected"
	case RejectModuleNotSupported:
		return "module not supported"
	case RejectDeviceNotSupported:
		return "device not supported"
	case RejectHigherPriorityConnected:
		return "higher priority device already connected"
	default:
		return fmt.Sprintf("unknown reject reason %d", uint8(r))
	}
}

func (r RejectReason) valid() bool {
	return r >= RejectAlreadyConnected && r <= RejectHigherPriorityConnected
}

// RejectError reports that the server explicitly declined a registration.
// Retrying with the same identity is expected to fail again.
type RejectError struct {
	Reason  RejectReason
	Message string
}

func (e *RejectError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("protocol: registration rejected: %s", e.Reason)
	}
	return fmt.Sprintf("protocol: registration rejected: %s: %s", e.Reason, e.Message)
}

// IsReject reports whether err belongs to the protocol-rejection family.
func IsReject(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}
