package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	payload := []byte("one framed message")
	var buf bytes.Buffer
	if err := Write(&buf, payload, DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestReadShortPrefix(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x00, 0x01}), DefaultLimits())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestReadTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, []byte("truncated"), DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	short := buf.Bytes()[:buf.Len()-4]
	_, err := Read(bytes.NewReader(short), DefaultLimits())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestReadOversizeFrame(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 8}
	var buf bytes.Buffer
	if err := Write(&buf, []byte("12345678"), limits); err != nil {
		t.Fatalf("write at limit: %v", err)
	}
	if _, err := Read(&buf, limits); err != nil {
		t.Fatalf("read at limit: %v", err)
	}

	var big bytes.Buffer
	if err := Write(&big, []byte("123456789"), DefaultLimits()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(&big, limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestWriteEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, DefaultLimits()); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestWriteOversizePayload(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 4}
	var buf bytes.Buffer
	if err := Write(&buf, []byte("12345"), limits); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on failure, got %d bytes", buf.Len())
	}
}
