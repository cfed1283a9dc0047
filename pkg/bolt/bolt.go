// Package bolt models the BOLT processor interconnect between the host
// node and its application processor (the observer).
package bolt

import "errors"

// Link is the host side of BOLT.
type Link interface {
	// DataAvailable reports whether a message can be read.
	DataAvailable() bool
	// Read pops the next message without blocking. An empty frame is
	// returned when nothing is queued.
	Read() ([]byte, error)
	// Write sends a message to the observer.
	Write(frame []byte) error
	// Indication fires on the rising edge of the data indication,
	// when inbound data becomes available.
	Indication() <-chan struct{}
}

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// Errors
var (
	ErrNotConnected = errors.New("observer not connected")
	ErrFrameTooLong = errors.New("frame too long")
)
