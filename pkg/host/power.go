package host

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// PowerState is the state of the PowerController.
type PowerState int32

// Power states.
const (
	StateActive PowerState = iota
	StateFlushing
	StateArmed
)

func (s PowerState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFlushing:
		return "flushing"
	case StateArmed:
		return "armed"
	}
	return "unknown"
}

// PowerController pauses the bus and sleeps until a resume command
// arrives on BOLT.
//
// irq stands for the global interrupt enable: holding it keeps the
// wake handler from running. wakeEnabled is the IND pin interrupt
// enable and is only accessed with irq held.
type PowerController struct {
	Link    bolt.Link
	Stack   lwb.Stack
	Metrics *Metrics

	irq         sync.Mutex
	wakeEnabled bool
	wakeCh      chan struct{}
	state       atomic.Int32

	// onArmed runs with interrupts disabled right after the wake
	// interrupt is enabled.
	onArmed func()
}

// NewPowerController creates a PowerController.
func NewPowerController(link bolt.Link, stack lwb.Stack, metrics *Metrics) *PowerController {
	return &PowerController{
		Link:    link,
		Stack:   stack,
		Metrics: metrics,
		wakeCh:  make(chan struct{}, 1),
	}
}

// State returns the current state.
func (p *PowerController) State() PowerState {
	return PowerState(p.state.Load())
}

func (p *PowerController) setState(s PowerState) {
	p.state.Store(int32(s))
	p.Metrics.PowerState.Set(float64(s))
}

// Suspend flushes BOLT input, pauses the bus and blocks until the wake
// handler sees a resume command. It returns false without sleeping if
// a resume command was among the flushed input or BOLT data arrived
// while arming. If ctx is done during the sleep the bus is resumed and
// ctx.Err() is returned.
func (p *PowerController) Suspend(ctx context.Context) (bool, error) {
	p.setState(StateFlushing)
	for p.Link.DataAvailable() {
		frame, err := p.Link.Read()
		if err != nil {
			p.setState(StateActive)
			return false, err
		}
		if isResume(frame) {
			p.abort()
			return false, nil
		}
	}

	p.irq.Lock()
	drain(p.Link.Indication())
	drain(p.wakeCh)
	p.wakeEnabled = true
	if p.onArmed != nil {
		p.onArmed()
	}
	if p.Link.DataAvailable() {
		p.wakeEnabled = false
		p.irq.Unlock()
		p.abort()
		return false, nil
	}
	p.Stack.Pause()
	p.setState(StateArmed)
	printNow("LWB paused")
	p.irq.Unlock()

	select {
	case <-p.wakeCh:
	case <-ctx.Done():
		p.irq.Lock()
		p.wakeEnabled = false
		p.irq.Unlock()
		p.Stack.Resume()
		p.setState(StateActive)
		return false, ctx.Err()
	}

	printNow("LWB resumed")
	p.Stack.Resume()
	p.setState(StateActive)
	p.Metrics.Sleeps.Inc()
	return true, nil
}

func (p *PowerController) abort() {
	p.setState(StateActive)
	p.Metrics.SleepAborts.Inc()
	printNow("failed to stop LWB")
}

// Name implements fx.Named.
func (p *PowerController) Name() string {
	return "wake-handler"
}

// Run is the wake interrupt handler, serving data indications from
// BOLT until ctx is done.
func (p *PowerController) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.Link.Indication():
			p.handleIndication()
		}
	}
}

// handleIndication discards BOLT messages until a resume command,
// which disables the wake interrupt and wakes the sleeper.
func (p *PowerController) handleIndication() {
	p.irq.Lock()
	defer p.irq.Unlock()
	if !p.wakeEnabled {
		return
	}
	for p.Link.DataAvailable() {
		frame, err := p.Link.Read()
		if err != nil {
			glog.Errorf("BOLT read error: %v", err)
			return
		}
		if len(frame) == 0 {
			continue
		}
		if isResume(frame) {
			p.wakeEnabled = false
			select {
			case p.wakeCh <- struct{}{}:
			default:
			}
			return
		}
	}
}

func isResume(frame []byte) bool {
	m, err := msg.Decode(frame)
	if err != nil {
		return false
	}
	cmd, ok := msg.CommandFrom(m)
	return ok && cmd.Kind == msg.CmdResume
}

func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
