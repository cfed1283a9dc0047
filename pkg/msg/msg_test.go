package msg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	m, err := New(0x0102, TypeStatus, 0x0304, []byte{0xaa, 0xbb})
	require.NoError(t, err)
	frame, err := Encode(m)
	require.NoError(t, err)
	crc := CRC16([]byte{0xaa, 0xbb}, 0)
	require.Equal(t, []byte{
		0x02, 0x01, byte(TypeStatus), 2, 0x04, 0x03, byte(crc), byte(crc >> 8),
		0xaa, 0xbb,
	}, frame)
	require.Equal(t, len(frame), m.Len())
}

func TestNewRejectsLongPayload(t *testing.T) {
	_, err := New(1, TypeStatus, 0, make([]byte, MaxPayloadLen+1))
	require.Equal(t, ErrPayloadTooLong, err)
	m, err := New(1, TypeStatus, 0, make([]byte, MaxPayloadLen))
	require.NoError(t, err)
	frame, err := Encode(m)
	require.NoError(t, err)
	require.Len(t, frame, MaxLen)
}

func TestDecode(t *testing.T) {
	valid, err := New(7, TypeControl, 9, EncodeCommand(Command{Kind: CmdPause}))
	require.NoError(t, err)
	frame, err := Encode(valid)
	require.NoError(t, err)

	tooLong := append([]byte(nil), frame...)
	tooLong[3] = MaxPayloadLen + 1

	testCases := []struct {
		name  string
		frame []byte
		err   error
	}{
		{"valid", frame, nil},
		{"padded", append(append([]byte(nil), frame...), 0, 0, 0), nil},
		{"empty", nil, ErrShortFrame},
		{"short header", frame[:HeaderLen-1], ErrShortFrame},
		{"truncated payload", frame[:len(frame)-1], ErrTruncated},
		{"length beyond max", tooLong, ErrPayloadTooLong},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Decode(tc.frame)
			if tc.err != nil {
				require.Equal(t, tc.err, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, valid.Header, m.Header)
			require.Equal(t, valid.Payload, m.Payload)
			require.NoError(t, m.Verify())
		})
	}
}

func TestFrameStripsPadding(t *testing.T) {
	m, err := New(3, TypeStatus, 1, []byte("abc"))
	require.NoError(t, err)
	frame, err := Encode(m)
	require.NoError(t, err)
	padded := make([]byte, MaxLen)
	copy(padded, frame)
	out, err := Frame(padded)
	require.NoError(t, err)
	require.True(t, bytes.Equal(frame, out))
}

func TestVerifyDetectsCorruption(t *testing.T) {
	m, err := New(3, TypeStatus, 1, []byte("abc"))
	require.NoError(t, err)
	m.Payload[0] ^= 0xff
	require.Equal(t, ErrChecksum, m.Verify())
}

func TestCommand(t *testing.T) {
	cmd := Command{Kind: CmdSetStatusPeriod, TargetID: 0x1234, Value: 60}
	payload := EncodeCommand(cmd)
	require.Equal(t, []byte{2, 0, 0x34, 0x12, 60, 0}, payload)
	decoded, err := DecodeCommand(payload)
	require.NoError(t, err)
	require.Equal(t, cmd, decoded)

	_, err = DecodeCommand(payload[:CommandLen-1])
	require.Equal(t, ErrTruncated, err)

	m, err := New(1, TypeStatus, 0, payload)
	require.NoError(t, err)
	_, ok := CommandFrom(m)
	require.False(t, ok)
	m.Type = TypeControl
	c, ok := CommandFrom(m)
	require.True(t, ok)
	require.Equal(t, cmd, c)
	require.Equal(t, "set-status-period", c.Kind.String())
	require.Equal(t, "cmd(99)", CommandKind(99).String())
}

func TestTimestamp(t *testing.T) {
	payload := EncodeTimestamp(0x0102030405060708)
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, payload)
	us, err := DecodeTimestamp(payload)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), us)
}
