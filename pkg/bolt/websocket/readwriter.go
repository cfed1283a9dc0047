// Package websocket carries BOLT messages as binary websocket messages.
package websocket

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// ReadWriter implements bolt.PacketReadWriter.
type ReadWriter struct {
	Conn *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	return &ReadWriter{Conn: conn, done: make(chan struct{})}
}

// Dial connects to a websocket endpoint like ws://host:port/bolt.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn, &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > msg.MaxLen {
		return bolt.ErrFrameTooLong
	}
	return websocket.Message.Send(p.Conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	err := p.Conn.Close()
	p.closeOnce.Do(func() { close(p.done) })
	return err
}

// Server accepts observers over websocket, one at a time.
type Server struct {
	connCh chan *ReadWriter
}

// NewServer creates a Server.
func NewServer() *Server {
	return &Server{connCh: make(chan *ReadWriter)}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.handle).ServeHTTP(w, r)
}

func (s *Server) handle(conn *websocket.Conn) {
	rw := New(conn)
	select {
	case s.connCh <- rw:
	case <-conn.Request().Context().Done():
		return
	}
	// the connection is closed once the handler returns
	<-rw.done
}

// Connector returns the bolt.Connector yielding accepted observers.
func (s *Server) Connector() bolt.Connector {
	return func(ctx context.Context) (bolt.PacketReadWriter, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case rw := <-s.connCh:
			return rw, nil
		}
	}
}
