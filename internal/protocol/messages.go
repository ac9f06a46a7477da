package protocol

import (
	"fmt"
	"strings"
)

// Register ack status codes. Non-zero codes map one-to-one onto
// RejectReason values.
const AckOK uint8 = 0

// Device is the identity presented at registration. It is immutable for the
// lifetime of a session and repeated unchanged on every (re)registration.
type Device struct {
	ModuleID uint32
	Name     string
	Type     uint32
	Role     string
	Priority uint32
}

func (d Device) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("protocol: device missing name")
	}
	if strings.TrimSpace(d.Role) == "" {
		return fmt.Errorf("protocol: device missing role")
	}
	return nil
}

func (d Device) String() string {
	return fmt.Sprintf("Device(module=%d name=%s type=%d role=%s priority=%d)",
		d.ModuleID, d.Name, d.Type, d.Role, d.Priority)
}

// RegisterAck is the server's answer to a registration request.
type RegisterAck struct {
	Status  uint8
	Message string
}

// Err maps the ack onto the error taxonomy: nil when accepted, a
// *RejectError for a known reject code, ErrMalformed-wrapped for anything
// the contract does not define.
func (a RegisterAck) Err() error {
	if a.Status == AckOK {
		return nil
	}
	reason := RejectReason(a.Status)
	if !reason.valid() {
		return fmt.Errorf("%w: unknown register ack status %d", ErrMalformed, a.Status)
	}
	return &RejectError{Reason: reason, Message: a.Message}
}

func deviceFields(d Device) []Field {
	return []Field{
		NewFieldUint32(FieldModuleID, d.ModuleID),
		NewFieldString(FieldDeviceName, d.Name),
		NewFieldUint32(FieldDeviceType, d.Type),
		NewFieldString(FieldDeviceRole, d.Role),
		NewFieldUint32(FieldDevicePriority, d.Priority),
	}
}

// EncodeRegister builds the registration request for one device.
func EncodeRegister(msgID uint64, d Device) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return Marshal(&Message{
		Header: Header{MessageID: msgID, MessageType: MessageRegister},
		Fields: deviceFields(d),
	})
}

// EncodeStatus builds one status report carrying opaque device telemetry.
func EncodeStatus(msgID uint64, d Device, data []byte) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	fields := append(deviceFields(d), NewFieldBytes(FieldStatusData, data))
	return Marshal(&Message{
		Header: Header{MessageID: msgID, MessageType: MessageStatus},
		Fields: fields,
	})
}

// DecodeRegisterAck parses a framed registration response payload.
func DecodeRegisterAck(buf []byte) (RegisterAck, error) {
	msg, err := Unmarshal(buf)
	if err != nil {
		return RegisterAck{}, err
	}
	if msg.Header.MessageType != MessageRegisterAck {
		return RegisterAck{}, ErrMessageTypeMismatch
	}
	statusField, ok := GetField(msg.Fields, FieldAckStatus)
	if !ok {
		return RegisterAck{}, MissingFieldError{MessageType: MessageRegisterAck, FieldID: FieldAckStatus}
	}
	status, err := statusField.Uint8()
	if err != nil {
		return RegisterAck{}, err
	}
	ack := RegisterAck{Status: status}
	if msgField, ok := GetField(msg.Fields, FieldAckMessage); ok {
		text, err := msgField.String()
		if err != nil {
			return RegisterAck{}, err
		}
		ack.Message = text
	}
	return ack, nil
}

// DecodeCommand parses a framed command payload and returns the opaque
// command data.
func DecodeCommand(buf []byte) ([]byte, error) {
	msg, err := Unmarshal(buf)
	if err != nil {
		return nil, err
	}
	if msg.Header.MessageType != MessageCommand {
		return nil, ErrMessageTypeMismatch
	}
	dataField, ok := GetField(msg.Fields, FieldCommandData)
	if !ok {
		return nil, MissingFieldError{MessageType: MessageCommand, FieldID: FieldCommandData}
	}
	return dataField.Bytes()
}

// EncodeRegisterAck builds a registration response. Used by in-process test
// servers; real servers live outside this module.
func EncodeRegisterAck(msgID uint64, ack RegisterAck) ([]byte, error) {
	fields := []Field{NewFieldUint8(FieldAckStatus, ack.Status)}
	if ack.Message != "" {
		fields = append(fields, NewFieldString(FieldAckMessage, ack.Message))
	}
	return Marshal(&Message{
		Header: Header{MessageID: msgID, MessageType: MessageRegisterAck},
		Fields: fields,
	})
}

// EncodeCommand builds a command message carrying opaque command data.
func EncodeCommand(msgID uint64, data []byte) ([]byte, error) {
	return Marshal(&Message{
		Header: Header{MessageID: msgID, MessageType: MessageCommand},
		Fields: []Field{NewFieldBytes(FieldCommandData, data)},
	})
}

// DecodeStatus parses a framed status payload into the sending device and
// its telemetry. Counterpart of EncodeStatus for test servers.
func DecodeStatus(buf []byte) (Device, []byte, error) {
	msg, err := Unmarshal(buf)
	if err != nil {
		return Device{}, nil, err
	}
	if msg.Header.MessageType != MessageStatus {
		return Device{}, nil, ErrMessageTypeMismatch
	}
	dev, err := deviceFromFields(msg)
	if err != nil {
		return Device{}, nil, err
	}
	dataField, ok := GetField(msg.Fields, FieldStatusData)
	if !ok {
		return Device{}, nil, MissingFieldError{MessageType: MessageStatus, FieldID: FieldStatusData}
	}
	data, err := dataField.Bytes()
	if err != nil {
		return Device{}, nil, err
	}
	return dev, data, nil
}

// DecodeRegister parses a framed registration request into the registering
// device. Counterpart of EncodeRegister for test servers.
func DecodeRegister(buf []byte) (Device, error) {
	msg, err := Unmarshal(buf)
	if err != nil {
		return Device{}, err
	}
	if msg.Header.MessageType != MessageRegister {
		return Device{}, ErrMessageTypeMismatch
	}
	return deviceFromFields(msg)
}

func deviceFromFields(msg *Message) (Device, error) {
	var dev Device
	required := []struct {
		id   uint16
		load func(Field) error
	}{
		{FieldModuleID, func(f Field) error { v, err := f.Uint32(); dev.ModuleID = v; return err }},
		{FieldDeviceName, func(f Field) error { v, err := f.String(); dev.Name = v; return err }},
		{FieldDeviceType, func(f Field) error { v, err := f.Uint32(); dev.Type = v; return err }},
		{FieldDeviceRole, func(f Field) error { v, err := f.String(); dev.Role = v; return err }},
		{FieldDevicePriority, func(f Field) error { v, err := f.Uint32(); dev.Priority = v; return err }},
	}
	for _, req := range required {
		field, ok := GetField(msg.Fields, req.id)
		if !ok {
			return Device{}, MissingFieldError{MessageType: msg.Header.MessageType, FieldID: req.id}
		}
		if err := req.load(field); err != nil {
			return Device{}, err
		}
	}
	return dev, nil
}
