package protocol

import "encoding/binary"

// Unmarshal parses a single message from buf. buf must hold exactly one
// framed message payload.
func Unmarshal(buf []byte) (*Message, error) {
	if len(buf) < int(HeaderSize) {
		return nil, ErrTruncated
	}

	head, err := parseHeader(buf[:HeaderSize])
	if err != nil {
		return nil, err
	}

	payload := buf[HeaderSize:]
	if uint64(len(payload)) != uint64(head.PayloadLen) {
		return nil, ErrInvalidLength
	}

	msg := &Message{Header: head}
	if len(payload) == 0 {
		return msg, nil
	}

	fields, err := parseFields(payload)
	if err != nil {
		return nil, err
	}
	msg.Fields = fields
	return msg, nil
}

func parseHeader(buf []byte) (Header, error) {
	h := Header{
		Magic:       binary.BigEndian.Uint32(buf[0:4]),
		Version:     binary.BigEndian.Uint16(buf[4:6]),
		HeaderLen:   binary.BigEndian.Uint16(buf[6:8]),
		MessageID:   binary.BigEndian.Uint64(buf[8:16]),
		MessageType: MessageType(binary.BigEndian.Uint32(buf[16:20])),
		PayloadLen:  binary.BigEndian.Uint32(buf[20:24]),
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, ErrUnsupportedVersion
	}
	if h.HeaderLen != HeaderSize {
		return Header{}, ErrInvalidHeaderLen
	}
	return h, nil
}

func parseFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0, 4)
	for offset := 0; offset < len(payload); {
		remaining := len(payload) - offset
		if remaining < fieldHeaderSize {
			return nil, ErrTruncated
		}
		id := binary.BigEndian.Uint16(payload[offset : offset+2])
		ft := FieldType(payload[offset+2])
		length := binary.BigEndian.Uint32(payload[offset+3 : offset+7])
		offset += fieldHeaderSize
		if length > uint32(len(payload)-offset) {
			return nil, ErrInvalidLength
		}
		value := make([]byte, length)
		copy(value, payload[offset:offset+int(length)])
		fields = append(fields, Field{ID: id, Type: ft, Value: value})
		offset += int(length)
	}
	return fields, nil
}
