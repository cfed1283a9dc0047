package lwb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTicksToMicros(t *testing.T) {
	testCases := []struct {
		name   string
		ticks  uint64
		hz     uint64
		offset uint64
		expect uint64
	}{
		{"one second", ClockHz, ClockHz, 0, 1000000},
		{"single tick floors", 1, ClockHz, 0, 30},
		{"offset added", ClockHz, ClockHz, 1500, 1001500},
		{"large tick count", 1 << 40, ClockHz, 0, (1 << 40) / ClockHz * 1000000},
		{"beyond 64-bit product", 1 << 55, ClockHz, 0, (1 << 55) / ClockHz * 1000000},
		{"saturates", 1 << 62, ClockHz, 0, ^uint64(0)},
		{"zero hz", 100, 0, 7, 7},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, TicksToMicros(tc.ticks, tc.hz, tc.offset))
		})
	}
}

func TestTicks(t *testing.T) {
	require.Equal(t, uint64(ClockHz), Ticks(time.Second))
	require.Equal(t, uint64(ClockHz/2), Ticks(500*time.Millisecond))
	require.Equal(t, uint64(0), Ticks(0))
}

func TestQueue(t *testing.T) {
	q := NewQueue(2)
	data := []byte{1}
	require.True(t, q.Push(Packet{Recipient: 1, Data: data}))
	data[0] = 9
	require.True(t, q.Push(Packet{Recipient: 2}))
	require.False(t, q.Push(Packet{Recipient: 3}))
	require.Equal(t, 2, q.Len())

	pkts := q.PopAll()
	require.Len(t, pkts, 2)
	require.Equal(t, NodeID(1), pkts[0].Recipient)
	require.Equal(t, []byte{1}, pkts[0].Data)
	require.Equal(t, 0, q.Len())
	require.True(t, q.Push(Packet{Recipient: 3}))
}
