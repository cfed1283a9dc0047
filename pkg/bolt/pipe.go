package bolt

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Connector waits for a transport to the observer. It should block
// until a transport is available or ctx is done.
type Connector func(ctx context.Context) (PacketReadWriter, error)

// DefaultRetryInterval is the delay before reconnecting after a
// failed Connector.
const DefaultRetryInterval = time.Second

// Pipe is a Link backed by a PacketReadWriter. Inbound packets are
// buffered in a Queue.
type Pipe struct {
	Connect       Connector
	RetryInterval time.Duration

	in *Queue

	lock sync.Mutex
	rw   PacketReadWriter
}

// NewPipe creates a Pipe buffering up to queueLen inbound messages.
func NewPipe(connect Connector, queueLen int) *Pipe {
	return &Pipe{
		Connect:       connect,
		RetryInterval: DefaultRetryInterval,
		in:            NewQueue(queueLen),
	}
}

// DataAvailable implements Link.
func (p *Pipe) DataAvailable() bool {
	return p.in.DataAvailable()
}

// Read implements Link.
func (p *Pipe) Read() ([]byte, error) {
	return p.in.Read()
}

// Indication implements Link.
func (p *Pipe) Indication() <-chan struct{} {
	return p.in.Indication()
}

// Connected tells whether an observer is attached.
func (p *Pipe) Connected() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.rw != nil
}

// Write implements Link. The lock also serializes writers.
func (p *Pipe) Write(frame []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.rw == nil {
		return ErrNotConnected
	}
	return p.rw.WritePacket(frame)
}

// Name implements Named.
func (p *Pipe) Name() string {
	return "bolt"
}

// Run implements Runnable.
func (p *Pipe) Run(ctx context.Context) error {
	for {
		rw, err := p.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Errorf("BOLT connect error: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.RetryInterval):
			}
			continue
		}
		err = p.serve(ctx, rw)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("BOLT observer disconnected: %v", err)
	}
}

func (p *Pipe) serve(ctx context.Context, rw PacketReadWriter) error {
	p.lock.Lock()
	p.rw = rw
	p.lock.Unlock()
	glog.Info("BOLT observer connected")

	defer func() {
		p.lock.Lock()
		p.rw = nil
		p.lock.Unlock()
	}()

	var closeOnce sync.Once
	closeRW := func() {
		closeOnce.Do(func() {
			if closer, ok := rw.(io.Closer); ok {
				closer.Close()
			}
		})
	}
	return fx.RunWithContextCancel(ctx, closeRW, func() error {
		defer closeRW()
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				return err
			}
			if len(pkt) > msg.MaxLen {
				glog.Warningf("BOLT message of %d bytes dropped (too long)", len(pkt))
				continue
			}
			if !p.in.Inject(pkt) {
				glog.Warningf("BOLT message dropped (queue full)")
			}
		}
	})
}

// Once returns a Connector which yields rw on the first call and then
// blocks until ctx is done.
func Once(rw PacketReadWriter) Connector {
	var used bool
	return func(ctx context.Context) (PacketReadWriter, error) {
		if !used {
			used = true
			return rw, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
}
