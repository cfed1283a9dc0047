// Package msg defines the message frame exchanged over the LWB bus
// and the BOLT link.
//
// A frame is an 8-byte little-endian header followed by up to
// MaxPayloadLen bytes of payload:
//
//	device_id(2) type(1) payload_len(1) seqnr(2) crc16(2) payload(n)
package msg

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame size limits.
const (
	HeaderLen     = 8
	MaxLen        = 48
	MaxPayloadLen = MaxLen - HeaderLen
)

// Type is the message type carried in the header.
type Type uint8

// Known message types.
const (
	TypeStatus    Type = 1
	TypeTimestamp Type = 2
	TypeControl   Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeStatus:
		return "status"
	case TypeTimestamp:
		return "timestamp"
	case TypeControl:
		return "control"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Errors
var (
	ErrShortFrame     = errors.New("frame shorter than header")
	ErrPayloadTooLong = errors.New("payload too long")
	ErrTruncated      = errors.New("frame truncated")
	ErrChecksum       = errors.New("checksum mismatch")
)

// Header is the fixed message header.
type Header struct {
	DeviceID   uint16
	Type       Type
	PayloadLen uint8
	Seq        uint16
	CRC        uint16
}

// Message is a decoded frame.
type Message struct {
	Header
	Payload []byte
}

// New builds a message and fills in payload length and checksum.
func New(deviceID uint16, typ Type, seq uint16, payload []byte) (*Message, error) {
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	return &Message{
		Header: Header{
			DeviceID:   deviceID,
			Type:       typ,
			PayloadLen: uint8(len(payload)),
			Seq:        seq,
			CRC:        CRC16(payload, 0),
		},
		Payload: payload,
	}, nil
}

// Len returns the on-wire length.
func (m *Message) Len() int {
	return HeaderLen + len(m.Payload)
}

// Verify checks the payload against the header checksum.
func (m *Message) Verify() error {
	if CRC16(m.Payload, 0) != m.CRC {
		return ErrChecksum
	}
	return nil
}

// Encode serializes the message. PayloadLen is taken from Payload.
func Encode(m *Message) ([]byte, error) {
	if len(m.Payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	buf := make([]byte, HeaderLen+len(m.Payload))
	putHeader(buf, &m.Header, uint8(len(m.Payload)))
	copy(buf[HeaderLen:], m.Payload)
	return buf, nil
}

func putHeader(buf []byte, h *Header, payloadLen uint8) {
	binary.LittleEndian.PutUint16(buf[0:], h.DeviceID)
	buf[2] = byte(h.Type)
	buf[3] = payloadLen
	binary.LittleEndian.PutUint16(buf[4:], h.Seq)
	binary.LittleEndian.PutUint16(buf[6:], h.CRC)
}

// DecodeHeader parses the header of a frame.
func DecodeHeader(frame []byte) (h Header, err error) {
	if len(frame) < HeaderLen {
		return h, ErrShortFrame
	}
	h.DeviceID = binary.LittleEndian.Uint16(frame[0:])
	h.Type = Type(frame[2])
	h.PayloadLen = frame[3]
	h.Seq = binary.LittleEndian.Uint16(frame[4:])
	h.CRC = binary.LittleEndian.Uint16(frame[6:])
	if int(h.PayloadLen) > MaxPayloadLen {
		return h, ErrPayloadTooLong
	}
	return h, nil
}

// Frame validates the header and returns exactly the header and
// payload bytes of frame, dropping any trailing padding.
func Frame(frame []byte) ([]byte, error) {
	h, err := DecodeHeader(frame)
	if err != nil {
		return nil, err
	}
	n := HeaderLen + int(h.PayloadLen)
	if len(frame) < n {
		return nil, ErrTruncated
	}
	return frame[:n], nil
}

// Decode parses a frame. The payload is copied.
func Decode(frame []byte) (*Message, error) {
	h, err := DecodeHeader(frame)
	if err != nil {
		return nil, err
	}
	n := HeaderLen + int(h.PayloadLen)
	if len(frame) < n {
		return nil, ErrTruncated
	}
	m := &Message{Header: h, Payload: make([]byte, h.PayloadLen)}
	copy(m.Payload, frame[HeaderLen:n])
	return m, nil
}

func (m *Message) String() string {
	return fmt.Sprintf("node=%d type=%s seq=%d len=%d crc=0x%04x",
		m.DeviceID, m.Type, m.Seq, m.PayloadLen, m.CRC)
}
