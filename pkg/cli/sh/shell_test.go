package sh

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lwbhost/pkg/msg"
)

func TestCommandFrame(t *testing.T) {
	cmd := msg.Command{Kind: msg.CmdSetStatusPeriod, TargetID: 4, Value: 30}
	frame, err := CommandFrame(3, cmd)
	require.NoError(t, err)
	m, err := msg.Decode(frame)
	require.NoError(t, err)
	require.NoError(t, m.Verify())
	require.Equal(t, uint16(3), m.Seq)
	got, ok := msg.CommandFrom(m)
	require.True(t, ok)
	require.Equal(t, cmd, got)
}

func TestDescribe(t *testing.T) {
	frame := func(typ msg.Type, payload []byte) []byte {
		m, err := msg.New(9, typ, 1, payload)
		require.NoError(t, err)
		out, err := msg.Encode(m)
		require.NoError(t, err)
		return out
	}
	testCases := []struct {
		name   string
		frame  []byte
		expect string
	}{
		{"timestamp", frame(msg.TypeTimestamp, msg.EncodeTimestamp(1500)), "time=1500us"},
		{"control", frame(msg.TypeControl, msg.EncodeCommand(msg.Command{Kind: msg.CmdPause})), "cmd=pause"},
		{"status", frame(msg.TypeStatus, []byte{0xab}), "payload=ab"},
		{"bad", []byte{1}, "bad frame"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			desc := Describe(tc.frame)
			require.True(t, strings.Contains(desc, tc.expect), desc)
		})
	}
}

func TestDialUnsupported(t *testing.T) {
	_, err := Dial("udp://localhost:1")
	require.Error(t, err)
}
