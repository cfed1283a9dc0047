package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/msg"
)

func startWakeHandler(t *testing.T, p *PowerController) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

type suspendResult struct {
	slept bool
	err   error
}

func suspendAsync(ctx context.Context, p *PowerController) <-chan suspendResult {
	ch := make(chan suspendResult, 1)
	go func() {
		slept, err := p.Suspend(ctx)
		ch <- suspendResult{slept, err}
	}()
	return ch
}

func waitArmed(t *testing.T, p *PowerController) {
	require.Eventually(t, func() bool { return p.State() == StateArmed }, time.Second, time.Millisecond)
}

func TestSuspendSleepsUntilResume(t *testing.T) {
	e := newTestEnv(4)
	p := e.node.Power
	startWakeHandler(t, p)

	// pending input is flushed before arming
	e.link.Inject(command(t, msg.CmdPause, 0, 0))
	e.link.Inject(command(t, msg.CmdSetRoundPeriod, 0, 9))

	resCh := suspendAsync(context.Background(), p)
	waitArmed(t, p)
	require.True(t, e.stack.Paused())

	e.link.Inject(encode(t, 3, msg.TypeStatus, 0, []byte{1}))
	e.link.Inject(command(t, msg.CmdSetRoundPeriod, 0, 5))
	select {
	case <-resCh:
		t.Fatal("woke without resume")
	case <-time.After(20 * time.Millisecond):
	}

	e.link.Inject(command(t, msg.CmdResume, 0, 0))
	select {
	case res := <-resCh:
		require.NoError(t, res.err)
		require.True(t, res.slept)
	case <-time.After(time.Second):
		t.Fatal("not woken")
	}

	require.Equal(t, StateActive, p.State())
	require.False(t, e.stack.Paused())
	pauses, resumes := e.stack.PauseCount()
	require.Equal(t, 1, pauses)
	require.Equal(t, 1, resumes)
	require.False(t, e.link.DataAvailable())
	require.Equal(t, uint16(1), e.stack.RoundPeriod())
	require.Equal(t, 1.0, testutil.ToFloat64(e.node.Metrics.Sleeps))
}

func TestSuspendAbortsOnFlushedResume(t *testing.T) {
	e := newTestEnv(4)
	p := e.node.Power
	startWakeHandler(t, p)

	e.link.Inject(command(t, msg.CmdSetRoundPeriod, 0, 9))
	e.link.Inject(command(t, msg.CmdResume, 0, 0))
	e.link.Inject(command(t, msg.CmdSetRoundPeriod, 0, 5))

	slept, err := p.Suspend(context.Background())
	require.NoError(t, err)
	require.False(t, slept)
	require.Equal(t, StateActive, p.State())
	pauses, _ := e.stack.PauseCount()
	require.Zero(t, pauses)
	require.Equal(t, 1.0, testutil.ToFloat64(e.node.Metrics.SleepAborts))
	require.Zero(t, testutil.ToFloat64(e.node.Metrics.Sleeps))

	// input before the resume is discarded, input after it is kept
	require.Equal(t, 1, e.link.Len())
	require.Equal(t, uint16(1), e.stack.RoundPeriod())
	p.irq.Lock()
	require.False(t, p.wakeEnabled)
	p.irq.Unlock()
}

// lateLink makes a message arrive right after the flush observed an
// empty channel.
type lateLink struct {
	*bolt.Queue
	late []byte

	lock sync.Mutex
	sent bool
}

func (l *lateLink) DataAvailable() bool {
	avail := l.Queue.DataAvailable()
	l.lock.Lock()
	defer l.lock.Unlock()
	if !avail && !l.sent {
		l.sent = true
		l.Queue.Inject(l.late)
	}
	return avail
}

func TestSuspendAbortsOnLateData(t *testing.T) {
	e := newTestEnv(4)
	link := &lateLink{Queue: e.link, late: command(t, msg.CmdResume, 0, 0)}
	p := NewPowerController(link, e.stack, e.node.Metrics)
	startWakeHandler(t, p)

	slept, err := p.Suspend(context.Background())
	require.NoError(t, err)
	require.False(t, slept)
	require.Equal(t, StateActive, p.State())
	pauses, _ := e.stack.PauseCount()
	require.Zero(t, pauses)
	require.Equal(t, 1.0, testutil.ToFloat64(e.node.Metrics.SleepAborts))

	// the message is left for the dispatcher
	require.Equal(t, 1, e.link.Len())
	p.irq.Lock()
	require.False(t, p.wakeEnabled)
	p.irq.Unlock()
}

func TestSuspendAbortsOnDataWhileArming(t *testing.T) {
	e := newTestEnv(4)
	p := e.node.Power
	startWakeHandler(t, p)
	p.onArmed = func() {
		e.link.Inject(command(t, msg.CmdSetRoundPeriod, 0, 7))
	}

	slept, err := p.Suspend(context.Background())
	require.NoError(t, err)
	require.False(t, slept)
	require.False(t, e.stack.Paused())

	// the wake handler must leave the message alone once disarmed
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, 1, e.link.Len())
}

func TestSuspendCanceled(t *testing.T) {
	e := newTestEnv(4)
	p := e.node.Power
	startWakeHandler(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	resCh := suspendAsync(ctx, p)
	waitArmed(t, p)
	cancel()
	res := <-resCh
	require.Equal(t, context.Canceled, res.err)
	require.False(t, res.slept)
	require.Equal(t, StateActive, p.State())
	require.False(t, e.stack.Paused())
}

func TestWakeHandlerIgnoredWhenDisarmed(t *testing.T) {
	e := newTestEnv(4)
	p := e.node.Power
	e.link.Inject(command(t, msg.CmdResume, 0, 0))
	p.handleIndication()
	require.Equal(t, 1, e.link.Len())
	select {
	case <-p.wakeCh:
		t.Fatal("unexpected wake")
	default:
	}
}

func TestPowerStateString(t *testing.T) {
	require.Equal(t, "active", StateActive.String())
	require.Equal(t, "flushing", StateFlushing.String())
	require.Equal(t, "armed", StateArmed.String())
	require.Equal(t, "unknown", PowerState(9).String())
}
