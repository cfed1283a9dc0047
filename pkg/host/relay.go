package host

import (
	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/bolt"
	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Relay forwards packets received on the bus to BOLT.
type Relay struct {
	Stack   lwb.Stack
	Link    bolt.Link
	Metrics *Metrics
}

// Run drains all packets currently received and returns the number
// written to BOLT. Only header and payload bytes are forwarded.
func (r *Relay) Run() int {
	var forwarded int
	for {
		pkt, ok := r.Stack.Receive()
		if !ok {
			return forwarded
		}
		frame, err := msg.Frame(pkt)
		if err != nil {
			r.Metrics.RelayInvalid.Inc()
			glog.Warningf("bus packet of %d bytes dropped: %v", len(pkt), err)
			continue
		}
		h, _ := msg.DecodeHeader(frame)
		printNow("data packet received from node %d", h.DeviceID)
		if err := r.Link.Write(frame); err != nil {
			r.Metrics.BoltWriteErrors.Inc()
			glog.Warningf("BOLT write error: %v", err)
			continue
		}
		r.Metrics.Relayed.Inc()
		forwarded++
	}
}

// Control implements fx.Controller.
func (r *Relay) Control(fx.ControlContext) error {
	r.Run()
	return nil
}
