package msg

import (
	"encoding/binary"
	"fmt"
)

// CommandKind identifies a bus-control command.
type CommandKind uint16

// Bus-control commands.
const (
	CmdSetRoundPeriod  CommandKind = 1
	CmdSetStatusPeriod CommandKind = 2
	CmdPause           CommandKind = 3
	CmdResume          CommandKind = 4
)

var commandNames = map[CommandKind]string{
	CmdSetRoundPeriod:  "set-round-period",
	CmdSetStatusPeriod: "set-status-period",
	CmdPause:           "pause",
	CmdResume:          "resume",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return fmt.Sprintf("cmd(%d)", uint16(k))
}

// CommandLen is the encoded size of a Command.
const CommandLen = 6

// TimestampLen is the encoded size of a timestamp payload.
const TimestampLen = 8

// Command is the payload of a TypeControl message.
type Command struct {
	Kind     CommandKind
	TargetID uint16
	Value    uint16
}

// EncodeCommand serializes a command payload.
func EncodeCommand(c Command) []byte {
	buf := make([]byte, CommandLen)
	binary.LittleEndian.PutUint16(buf[0:], uint16(c.Kind))
	binary.LittleEndian.PutUint16(buf[2:], c.TargetID)
	binary.LittleEndian.PutUint16(buf[4:], c.Value)
	return buf
}

// DecodeCommand parses a command payload.
func DecodeCommand(payload []byte) (c Command, err error) {
	if len(payload) < CommandLen {
		return c, ErrTruncated
	}
	c.Kind = CommandKind(binary.LittleEndian.Uint16(payload[0:]))
	c.TargetID = binary.LittleEndian.Uint16(payload[2:])
	c.Value = binary.LittleEndian.Uint16(payload[4:])
	return c, nil
}

// CommandFrom extracts the command of a control message.
func CommandFrom(m *Message) (Command, bool) {
	if m.Type != TypeControl {
		return Command{}, false
	}
	c, err := DecodeCommand(m.Payload)
	return c, err == nil
}

// EncodeTimestamp serializes a microsecond timestamp payload.
func EncodeTimestamp(us uint64) []byte {
	buf := make([]byte, TimestampLen)
	binary.LittleEndian.PutUint64(buf, us)
	return buf
}

// DecodeTimestamp parses a timestamp payload.
func DecodeTimestamp(payload []byte) (uint64, error) {
	if len(payload) < TimestampLen {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint64(payload), nil
}
