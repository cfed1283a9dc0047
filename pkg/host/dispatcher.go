package host

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/bolt"
	fx "github.com/robotalks/lwbhost/pkg/framework"
	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Dispatcher executes commands read from BOLT.
type Dispatcher struct {
	Link    bolt.Link
	Stack   lwb.Stack
	Sender  *Sender
	Power   *PowerController
	Metrics *Metrics
}

// Run reads BOLT until no data is available and dispatches control
// messages. It stops early after a completed pause and resume cycle,
// reporting woke as true. read counts the non-empty messages.
func (d *Dispatcher) Run(ctx context.Context) (read int, woke bool, err error) {
	defer func() {
		if read > 0 {
			printNow("%d messages read from BOLT", read)
		}
	}()
	for d.Link.DataAvailable() {
		frame, err := d.Link.Read()
		if err != nil {
			return read, false, err
		}
		if len(frame) == 0 {
			continue
		}
		read++
		d.Metrics.BoltRead.Inc()

		m, err := msg.Decode(frame)
		if err != nil {
			glog.Warningf("invalid BOLT message: %v", err)
			continue
		}
		cmd, ok := msg.CommandFrom(m)
		if !ok {
			glog.V(2).Infof("BOLT message ignored: %s", m)
			continue
		}
		switch cmd.Kind {
		case msg.CmdSetRoundPeriod:
			d.Stack.SetRoundPeriod(cmd.Value)
			glog.Infof("LWB period set to %ds", cmd.Value)
		case msg.CmdSetStatusPeriod:
			d.Sender.Send(lwb.NodeID(cmd.TargetID), m.Payload[:msg.CommandLen], msg.TypeControl)
		case msg.CmdPause:
			slept, err := d.Power.Suspend(ctx)
			if err != nil {
				return read, false, err
			}
			if slept {
				return read, true, nil
			}
		default:
			glog.V(2).Infof("command %s ignored", cmd.Kind)
		}
	}
	return read, false, nil
}

// Control implements fx.Controller. After waking up the next
// iteration is triggered right away.
func (d *Dispatcher) Control(cc fx.ControlContext) error {
	_, woke, err := d.Run(cc.Context())
	if woke {
		cc.TriggerNext()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
