package protocol

import (
	"bytes"
	"encoding/binary"
)

const fieldHeaderSize = 2 + 1 + 4

// Marshal serializes msg into the protocol wire format. The header magic,
// version, and length fields are filled in here; callers only set MessageID
// and MessageType.
func Marshal(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrInvalidLength
	}
	payloadLen, err := payloadLength(msg.Fields)
	if err != nil {
		return nil, err
	}

	head := msg.Header
	head.Magic = Magic
	head.Version = Version
	head.HeaderLen = HeaderSize
	head.PayloadLen = payloadLen

	var buf bytes.Buffer
	buf.Grow(int(HeaderSize) + int(payloadLen))
	buf.Write(encodeHeader(head))
	for _, field := range msg.Fields {
		writeField(&buf, field)
	}
	return buf.Bytes(), nil
}

func payloadLength(fields []Field) (uint32, error) {
	var total uint64
	for _, field := range fields {
		if uint64(len(field.Value)) > uint64(^uint32(0))-total {
			return 0, ErrInvalidLength
		}
		total += uint64(fieldHeaderSize + len(field.Value))
	}
	if total > uint64(^uint32(0)) {
		return 0, ErrInvalidLength
	}
	return uint32(total), nil
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.HeaderLen)
	binary.BigEndian.PutUint64(buf[8:16], h.MessageID)
	binary.BigEndian.PutUint32(buf[16:20], uint32(h.MessageType))
	binary.BigEndian.PutUint32(buf[20:24], h.PayloadLen)
	return buf
}

func writeField(buf *bytes.Buffer, field Field) {
	head := make([]byte, fieldHeaderSize)
	binary.BigEndian.PutUint16(head[0:2], field.ID)
	head[2] = byte(field.Type)
	binary.BigEndian.PutUint32(head[3:7], uint32(len(field.Value)))
	buf.Write(head)
	buf.Write(field.Value)
}
