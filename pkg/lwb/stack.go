// Package lwb abstracts the Low-power Wireless Bus stack used by the host node.
package lwb

// NodeID identifies a node on the bus.
type NodeID uint16

// StreamID identifies a data stream of a node.
type StreamID uint8

// Well-known identifiers.
const (
	Broadcast       NodeID   = 0xffff
	StreamStatusMsg StreamID = 1
)

// Stack is the bus stack as seen by the host application.
type Stack interface {
	// Send queues a packet for transmission. It returns false if
	// the transmit queue is full.
	Send(recipient NodeID, stream StreamID, pkt []byte) bool
	// Receive pops the next received packet without blocking.
	Receive() ([]byte, bool)
	// SetRoundPeriod sets the round period in seconds.
	SetRoundPeriod(seconds uint16)
	// Pause stops bus operation.
	Pause()
	// Resume restarts bus operation after Pause.
	Resume()
	// TimeRequest returns and clears the tick count of the last
	// pending time request, 0 if there is none.
	TimeRequest() uint64
}

// Packet is a queued outgoing packet.
type Packet struct {
	Recipient NodeID
	Stream    StreamID
	Data      []byte
}
