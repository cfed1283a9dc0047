package host

import (
	"errors"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// ErrQueueFull indicates the bus transmit queue rejected a message.
var ErrQueueFull = errors.New("queue full")

// Sender frames messages from the host node and queues them on the bus.
type Sender struct {
	Self    lwb.NodeID
	Stack   lwb.Stack
	Metrics *Metrics

	lock sync.Mutex
	seq  uint16
}

// NewSender creates a Sender.
func NewSender(self lwb.NodeID, stack lwb.Stack, metrics *Metrics) *Sender {
	return &Sender{Self: self, Stack: stack, Metrics: metrics}
}

// NextSeq returns the sequence number of the next message.
func (s *Sender) NextSeq() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.seq
}

// Send queues data of type typ for recipient on the status stream.
// Every encoded message consumes a sequence number, even when the
// queue is full.
func (s *Sender) Send(recipient lwb.NodeID, data []byte, typ msg.Type) error {
	if len(data) > msg.MaxPayloadLen {
		glog.Warningf("message for node %d rejected: %v", recipient, msg.ErrPayloadTooLong)
		return msg.ErrPayloadTooLong
	}
	s.lock.Lock()
	seq := s.seq
	s.seq++
	s.lock.Unlock()

	m, err := msg.New(uint16(s.Self), typ, seq, data)
	if err != nil {
		return err
	}
	frame, err := msg.Encode(m)
	if err != nil {
		return err
	}
	if !s.Stack.Send(recipient, lwb.StreamStatusMsg, frame) {
		s.Metrics.SendDropped.Inc()
		glog.Warningf("message dropped (queue full)")
		return ErrQueueFull
	}
	s.Metrics.Sent.Inc()
	glog.Infof("message for node %d added to TX queue", recipient)
	return nil
}
