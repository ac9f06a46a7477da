// Package transport owns the byte-stream handle between a device and its
// module gateway.
//
// Ownership boundary:
// - TCP dial/send/receive/close with deadline-based timeouts
// - classification of stream failures into the transport error family
//
// Frame-level violations (oversize or empty frames) pass through
// unclassified so the session can treat them as protocol violations.
package transport

import (
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/bringauto/internal-client-go/internal/protocol/frame"
)

var (
	// ErrConnectionRefused: the gateway did not accept the TCP connection.
	ErrConnectionRefused = errors.New("transport: connection refused")
	// ErrTimeout: the gateway did not complete the operation in time.
	ErrTimeout = errors.New("transport: operation timed out")
	// ErrClosed: the stream was closed or reset mid-operation.
	ErrClosed = errors.New("transport: connection closed")
)

// Error is one classified transport-layer failure. Kind is always one of the
// package sentinels, so errors.Is(err, ErrTimeout) and
// errors.As(err, **Error) both work at call sites.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "transport: " + e.Op + ": " + e.Kind.Error()
	}
	return "transport: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// IsTransport reports whether err belongs to the transport error family.
func IsTransport(err error) bool {
	var te *Error
	return errors.As(err, &te)
}

// Conn is a connected byte-stream handle exchanging framed payloads.
type Conn struct {
	c      net.Conn
	limits frame.Limits
}

// Dial connects to the gateway address within timeout.
func Dial(addr string, timeout time.Duration, limits frame.Limits) (*Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	c, err := dialer.Dial("tcp", addr)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Op: "dial", Kind: ErrTimeout, Err: err}
		}
		return nil, &Error{Op: "dial", Kind: ErrConnectionRefused, Err: err}
	}
	return &Conn{c: c, limits: limits}, nil
}

// Send writes one framed payload within timeout.
func (c *Conn) Send(payload []byte, timeout time.Duration) error {
	if err := c.c.SetWriteDeadline(deadline(timeout)); err != nil {
		return classify("send", err)
	}
	if err := frame.Write(c.c, payload, c.limits); err != nil {
		return classify("send", err)
	}
	return nil
}

// Receive reads one framed payload within timeout.
func (c *Conn) Receive(timeout time.Duration) ([]byte, error) {
	if err := c.c.SetReadDeadline(deadline(timeout)); err != nil {
		return nil, classify("receive", err)
	}
	payload, err := frame.Read(c.c, c.limits)
	if err != nil {
		return nil, classify("receive", err)
	}
	return payload, nil
}

// Close releases the stream. Safe to call more than once.
func (c *Conn) Close() error {
	if c == nil || c.c == nil {
		return nil
	}
	err := c.c.Close()
	c.c = nil
	return err
}

func deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

// classify maps stream-level failures onto the transport family. Frame
// violations are not stream failures and pass through untouched.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, frame.ErrPayloadTooLarge), errors.Is(err, frame.ErrEmptyPayload):
		return err
	case isTimeout(err):
		return &Error{Op: op, Kind: ErrTimeout, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{Op: op, Kind: ErrConnectionRefused, Err: err}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return &Error{Op: op, Kind: ErrClosed, Err: err}
	default:
		return &Error{Op: op, Kind: ErrClosed, Err: err}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
