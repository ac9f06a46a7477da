package protocol

// Wire constants for the fleet protocol envelope.
const (
	Magic      uint32 = 0xFA1E0001
	Version    uint16 = 1
	HeaderSize uint16 = 24
)

// MessageType identifies one fleet protocol message kind.
type MessageType uint32

const (
	MessageRegister    MessageType = 1
	MessageRegisterAck MessageType = 2
	MessageStatus      MessageType = 3
	MessageCommand     MessageType = 4
)

// FieldType identifies the value encoding of one TLV field.
type FieldType uint8

const (
	FieldUint8  FieldType = 1
	FieldUint32 FieldType = 2
	FieldString FieldType = 3
	FieldBytes  FieldType = 4
)

// Field IDs from the fleet protocol contract.
const (
	FieldModuleID       uint16 = 1
	FieldDeviceName     uint16 = 2
	FieldDeviceType     uint16 = 3
	FieldDeviceRole     uint16 = 4
	FieldDevicePriority uint16 = 5

	FieldAckStatus  uint16 = 100
	FieldAckMessage uint16 = 101

	FieldStatusData  uint16 = 200
	FieldCommandData uint16 = 300
)

// Header is the fixed envelope header.
type Header struct {
	Magic       uint32
	Version     uint16
	HeaderLen   uint16
	MessageID   uint64
	MessageType MessageType
	PayloadLen  uint32
}

// Field is one TLV field within a message payload.
type Field struct {
	ID    uint16
	Type  FieldType
	Value []byte
}

// Message is one decoded fleet protocol message.
type Message struct {
	Header Header
	Fields []Field
}
