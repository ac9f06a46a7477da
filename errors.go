package internalclient

import (
	"errors"

	"github.com/bringauto/internal-client-go/internal/protocol"
	"github.com/bringauto/internal-client-go/internal/session"
	"github.com/bringauto/internal-client-go/internal/transport"
)

// TransportError is a classified stream-level failure. Retriable in
// principle: build a fresh client and try again later.
type TransportError = transport.Error

// RejectError is an explicit registration refusal from the gateway.
// Retrying with the same identity is expected to fail again.
type RejectError = protocol.RejectError

// RejectReason enumerates the gateway's registration reject codes.
type RejectReason = protocol.RejectReason

const (
	RejectAlreadyConnected        = protocol.RejectAlreadyConnected
	RejectModuleNotSupported      = protocol.RejectModuleNotSupported
	RejectDeviceNotSupported      = protocol.RejectDeviceNotSupported
	RejectHigherPriorityConnected = protocol.RejectHigherPriorityConnected
)

var (
	// Transport family kinds.
	ErrConnectionRefused = transport.ErrConnectionRefused
	ErrTimeout           = transport.ErrTimeout
	ErrConnectionClosed  = transport.ErrClosed

	// ErrMalformedMessage is the root of the protocol-violation family:
	// a frame arrived but did not decode to a valid message.
	ErrMalformedMessage = protocol.ErrMalformed

	// Lifecycle conditions.
	ErrClientDestroyed  = session.ErrDestroyed
	ErrNotConnected     = session.ErrNotConnected
	ErrAlreadyConnected = session.ErrAlreadyOpen
	ErrNoCommand        = session.ErrNoCommand
	ErrNegativeTimeout  = session.ErrNegativeTimeout
)

// IsTransportError reports whether err is a transport-layer failure.
func IsTransportError(err error) bool { return transport.IsTransport(err) }

// IsRejectError reports whether err is a registration rejection.
func IsRejectError(err error) bool { return protocol.IsReject(err) }

// IsProtocolViolation reports whether err is a malformed-frame failure.
func IsProtocolViolation(err error) bool { return errors.Is(err, protocol.ErrMalformed) }
