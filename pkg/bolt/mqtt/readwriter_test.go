package mqtt

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lwbhost/pkg/mqtt"
)

func newTestQueue(t *testing.T) *mqtt.Queue {
	q, err := mqtt.NewQueueFromURL("mqtt://127.0.0.1:1/lwb/")
	require.NoError(t, err)
	return q
}

func TestTopicDirections(t *testing.T) {
	q := newTestQueue(t)
	host := ForHost(q)
	observer := ForObserver(q)

	require.Equal(t, TopicIn, host.SubTopic)
	require.Equal(t, TopicOut, host.PubTopic)
	require.Equal(t, TopicOut, observer.SubTopic)
	require.Equal(t, TopicIn, observer.PubTopic)
	require.Equal(t, "bolt/in", TopicIn)
	require.Equal(t, "bolt/out", TopicOut)

	host.Close()
	observer.Close()
}

func TestReadPacket(t *testing.T) {
	p := ForHost(newTestQueue(t))
	p.handleMsg(TopicIn, []byte{1, 2})
	p.handleMsg(TopicIn, []byte{3})

	pkt, err := p.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, pkt)
	pkt, err = p.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{3}, pkt)

	p.Close()
	_, err = p.ReadPacket()
	require.Equal(t, io.EOF, err)
	// delivery after close must not block
	p.handleMsg(TopicIn, []byte{4})
	p.handleMsg(TopicIn, []byte{5})
}

func TestWritePacketNotConnected(t *testing.T) {
	p := ForObserver(newTestQueue(t))
	defer p.Close()
	require.Error(t, p.WritePacket([]byte{1}))
}
