// Package frame delimits fleet protocol messages on a byte stream with a
// 4-byte big-endian length prefix.
package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

const PrefixLen = 4

var (
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrEmptyPayload    = errors.New("frame: empty payload")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 4 * 1024 * 1024}
}

// Write frames payload onto w.
func Write(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if uint32(len(payload)) > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, PrefixLen+len(payload))
	binary.BigEndian.PutUint32(buf[:PrefixLen], uint32(len(payload)))
	copy(buf[PrefixLen:], payload)
	_, err := w.Write(buf)
	return err
}

// Read consumes one framed payload from r. Stream-level failures (timeouts,
// resets, EOF mid-prefix) surface as the underlying error; a frame that
// violates limits surfaces as a frame sentinel.
func Read(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size == 0 {
		return nil, ErrEmptyPayload
	}
	if size > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
