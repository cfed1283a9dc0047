// Package stream carries BOLT messages over a byte stream (TCP, serial
// line). Each message is prefixed by its length as a 4-byte
// little-endian integer.
package stream

import (
	"context"
	"encoding/binary"
	"io"
	"net"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// ReadWriter implements bolt.PacketReadWriter.
type ReadWriter struct {
	io.ReadWriter
	// MaxLen limits the size of a packet, msg.MaxLen if zero.
	MaxLen int
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

func (p *ReadWriter) maxLen() int {
	if p.MaxLen > 0 {
		return p.MaxLen
	}
	return msg.MaxLen
}

// ReadPacket implements PacketReader. A length beyond MaxLen is a
// framing error as the stream can not be resynchronized.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(p, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size > uint32(p.maxLen()) {
		return nil, bolt.ErrFrameTooLong
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > p.maxLen() {
		return bolt.ErrFrameTooLong
	}
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.Write(buf)
	return err
}

// Close closes the underlying stream if possible.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Accept returns a bolt.Connector accepting one observer connection
// at a time from l.
func Accept(l net.Listener) bolt.Connector {
	return func(ctx context.Context) (bolt.PacketReadWriter, error) {
		type result struct {
			conn net.Conn
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			conn, err := l.Accept()
			ch <- result{conn, err}
		}()
		select {
		case <-ctx.Done():
			l.Close()
			return nil, ctx.Err()
		case r := <-ch:
			if r.err != nil {
				return nil, r.err
			}
			return New(r.conn), nil
		}
	}
}

// Dial connects to addr over TCP.
func Dial(addr string) (*ReadWriter, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}
