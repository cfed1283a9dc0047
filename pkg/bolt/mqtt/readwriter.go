// Package mqtt carries BOLT messages over MQTT topics bolt/in
// (observer to host) and bolt/out (host to observer).
package mqtt

import (
	"context"
	"io"
	"sync"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/mqtt"
)

// Topics, relative to the queue prefix.
const (
	TopicIn  = "bolt/in"
	TopicOut = "bolt/out"
)

// ReadWriter implements bolt.PacketReadWriter.
type ReadWriter struct {
	Queue    *mqtt.Queue
	SubTopic string
	PubTopic string

	sub       *mqtt.Subscription
	packetCh  chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
}

// ForHost creates the host side ReadWriter.
func ForHost(q *mqtt.Queue) *ReadWriter {
	return newReadWriter(q, TopicIn, TopicOut)
}

// ForObserver creates the observer side ReadWriter.
func ForObserver(q *mqtt.Queue) *ReadWriter {
	return newReadWriter(q, TopicOut, TopicIn)
}

func newReadWriter(q *mqtt.Queue, sub, pub string) *ReadWriter {
	p := &ReadWriter{
		Queue:    q,
		SubTopic: sub,
		PubTopic: pub,
		packetCh: make(chan []byte, bolt.DefaultQueueLen),
		closeCh:  make(chan struct{}),
	}
	p.sub = q.Sub(sub, p.handleMsg)
	return p
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closeCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closeCh)
		err = p.sub.Close()
	})
	return err
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.closeCh:
	}
}

// Connector connects the queue and yields the host side ReadWriter.
// The queue stays connected across reconnects of the pipe.
func Connector(q *mqtt.Queue) bolt.Connector {
	var connected bool
	return func(ctx context.Context) (bolt.PacketReadWriter, error) {
		if !connected {
			if err := q.Connect(); err != nil {
				return nil, err
			}
			connected = true
		}
		return ForHost(q), nil
	}
}
