// Package sh provides the interactive observer shell attached to the
// BOLT endpoint of a host node.
package sh

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"sync"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/lwbhost/pkg/bolt"
	boltmqtt "github.com/robotalks/lwbhost/pkg/bolt/mqtt"
	"github.com/robotalks/lwbhost/pkg/bolt/stream"
	"github.com/robotalks/lwbhost/pkg/bolt/websocket"
	"github.com/robotalks/lwbhost/pkg/mqtt"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	URL         string
	Shell       *ishell.Shell

	lock sync.Mutex
	conn bolt.PacketReadWriter
	seq  uint16
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly bool
	boltURL  = "tcp://localhost:7000"

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	if val := os.Getenv("LWB_BOLT_URL"); val != "" {
		boltURL = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.StringVar(&boltURL, "bolt", boltURL, "BOLT endpoint of the host node.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(url string) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		URL:         url,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Dial connects to a BOLT endpoint.
func Dial(endpoint string) (bolt.PacketReadWriter, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return stream.Dial(u.Host)
	case "ws":
		return websocket.Dial(endpoint)
	case "mqtt":
		q, err := mqtt.NewQueueFromURL(endpoint)
		if err != nil {
			return nil, err
		}
		if err := q.Connect(); err != nil {
			return nil, err
		}
		return boltmqtt.ForObserver(q), nil
	}
	return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
}

// Connect attaches to the host node and prints messages it relays.
func (s *Shell) Connect(endpoint string) error {
	conn, err := Dial(endpoint)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.lock.Lock()
	s.conn, s.URL = conn, endpoint
	s.lock.Unlock()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", endpoint))
	go s.receive(conn)
	return nil
}

func (s *Shell) receive(conn bolt.PacketReadWriter) {
	for {
		frame, err := conn.ReadPacket()
		if err != nil {
			if err != io.EOF {
				s.Shell.Printf("receive error: %v\n", err)
			}
			return
		}
		s.Shell.Println(Describe(frame))
	}
}

// Disconnect closes the current connection.
func (s *Shell) Disconnect() {
	s.lock.Lock()
	conn := s.conn
	s.conn = nil
	s.lock.Unlock()
	if closer, ok := conn.(io.Closer); ok {
		closer.Close()
	}
	s.Shell.SetPrompt(unconnectedPrompt)
}

// SendCommand writes a control message to the host node.
func (s *Shell) SendCommand(cmd msg.Command) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	frame, err := CommandFrame(s.seq, cmd)
	if err != nil {
		return err
	}
	s.seq++
	return s.conn.WritePacket(frame)
}

// CommandFrame encodes a control message from the observer.
func CommandFrame(seq uint16, cmd msg.Command) ([]byte, error) {
	m, err := msg.New(0, msg.TypeControl, seq, msg.EncodeCommand(cmd))
	if err != nil {
		return nil, err
	}
	return msg.Encode(m)
}

// Describe formats a frame received from the host node.
func Describe(frame []byte) string {
	m, err := msg.Decode(frame)
	if err != nil {
		return fmt.Sprintf("bad frame (%d bytes): %v", len(frame), err)
	}
	desc := m.String()
	if err := m.Verify(); err != nil {
		desc += " " + err.Error()
	}
	switch m.Type {
	case msg.TypeTimestamp:
		if us, err := msg.DecodeTimestamp(m.Payload); err == nil {
			desc += fmt.Sprintf(" time=%dus", us)
		}
	case msg.TypeControl:
		if cmd, err := msg.DecodeCommand(m.Payload); err == nil {
			desc += fmt.Sprintf(" cmd=%s target=%d value=%d", cmd.Kind, cmd.TargetID, cmd.Value)
		}
	default:
		desc += fmt.Sprintf(" payload=% x", m.Payload)
	}
	return desc
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		s.lock.Lock()
		connected := s.conn != nil
		s.lock.Unlock()
		if !connected {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.URL != "" {
		if err := s.Connect(s.URL); err != nil {
			log.Fatalf("connect %q failed: %v", s.URL, err)
		}
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a host node.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			endpoint := s.URL
			if len(c.Args) > 0 {
				endpoint = c.Args[0]
			}
			if err := s.Connect(endpoint); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the host node.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(boltURL).Run(flag.Args()...)
}
