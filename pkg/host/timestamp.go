package host

import (
	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/bolt"
	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Timestamper answers time requests of the bus with a timestamp
// message on BOLT.
type Timestamper struct {
	Self  lwb.NodeID
	Stack lwb.Stack
	Link  bolt.Link
	// ClockHz is the frequency of the tick counter.
	ClockHz uint64
	// Offset in microseconds is added to every timestamp.
	Offset  uint64
	Metrics *Metrics
}

// Run writes a timestamp if a request is pending. It returns the
// timestamp in microseconds and whether one was written.
func (t *Timestamper) Run() (uint64, bool) {
	ticks := t.Stack.TimeRequest()
	if ticks == 0 {
		return 0, false
	}
	hz := t.ClockHz
	if hz == 0 {
		hz = lwb.ClockHz
	}
	us := lwb.TicksToMicros(ticks, hz, t.Offset)
	m, err := msg.New(uint16(t.Self), msg.TypeTimestamp, 0, msg.EncodeTimestamp(us))
	if err != nil {
		glog.Errorf("timestamp: %v", err)
		return us, false
	}
	frame, _ := msg.Encode(m)
	if err := t.Link.Write(frame); err != nil {
		t.Metrics.BoltWriteErrors.Inc()
		glog.Warningf("BOLT write error: %v", err)
		return us, false
	}
	t.Metrics.Timestamps.Inc()
	return us, true
}

// Control implements fx.Controller.
func (t *Timestamper) Control(fx.ControlContext) error {
	t.Run()
	return nil
}
