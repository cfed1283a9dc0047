// Package host implements the LWB host node: it relays bus packets to
// BOLT, answers time requests and executes commands from BOLT.
package host

import (
	"github.com/robotalks/lwbhost/pkg/bolt"
	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Options configures a Node.
type Options struct {
	NodeID      lwb.NodeID
	ClockHz     uint64
	ClockOffset uint64
}

// Node is the host node application.
type Node struct {
	Sender      *Sender
	Relay       *Relay
	Timestamper *Timestamper
	Dispatcher  *Dispatcher
	Power       *PowerController
	Metrics     *Metrics
}

// NewNode wires the components of a host node. metrics may be nil.
func NewNode(opts Options, stack lwb.Stack, link bolt.Link, metrics *Metrics) *Node {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	n := &Node{Metrics: metrics}
	n.Sender = NewSender(opts.NodeID, stack, metrics)
	n.Relay = &Relay{Stack: stack, Link: link, Metrics: metrics}
	n.Timestamper = &Timestamper{
		Self:    opts.NodeID,
		Stack:   stack,
		Link:    link,
		ClockHz: opts.ClockHz,
		Offset:  opts.ClockOffset,
		Metrics: metrics,
	}
	n.Power = NewPowerController(link, stack, metrics)
	n.Dispatcher = &Dispatcher{
		Link:    link,
		Stack:   stack,
		Sender:  n.Sender,
		Power:   n.Power,
		Metrics: metrics,
	}
	return n
}

// Init prints and returns the checksum self-test value.
func (n *Node) Init() uint16 {
	crc := msg.CRC16([]byte("hello world!"), 0)
	printNow("crc: 0x%04x", crc)
	return crc
}

// Control runs relay, timestamp and command dispatch once, in order.
func (n *Node) Control(cc fx.ControlContext) error {
	for _, ctl := range []fx.Controller{n.Relay, n.Timestamper, n.Dispatcher} {
		if err := ctl.Control(cc); err != nil {
			return err
		}
	}
	return nil
}

// AddToLoop implements fx.LoopAdder.
func (n *Node) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, n.Relay)
	l.AddController(fx.PrLvSense+1, n.Timestamper)
	l.AddController(fx.PrLvControl, n.Dispatcher)
	l.AddRunnable(n.Power)
}
