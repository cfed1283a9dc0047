package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/lwbhost/pkg/bolt"
	"github.com/robotalks/lwbhost/pkg/lwb/sim"
	"github.com/robotalks/lwbhost/pkg/msg"
)

const testNodeID = 1

type testCtlCtx struct {
	ctx       context.Context
	triggered int
}

func (c *testCtlCtx) Context() context.Context  { return c.ctx }
func (c *testCtlCtx) Time() time.Time           { return time.Now() }
func (c *testCtlCtx) Iteration() uint64         { return 1 }
func (c *testCtlCtx) PriorityLevel() int        { return 0 }
func (c *testCtlCtx) TriggerNext()              { c.triggered++ }
func (c *testCtlCtx) SetInterval(time.Duration) {}

type testEnv struct {
	stack *sim.Stack
	link  *bolt.Queue
	node  *Node
}

func newTestEnv(txQueueLen int) *testEnv {
	e := &testEnv{stack: sim.New(txQueueLen), link: bolt.NewQueue(16)}
	e.node = NewNode(Options{NodeID: testNodeID}, e.stack, e.link, nil)
	return e
}

func encode(t *testing.T, deviceID uint16, typ msg.Type, seq uint16, payload []byte) []byte {
	m, err := msg.New(deviceID, typ, seq, payload)
	require.NoError(t, err)
	frame, err := msg.Encode(m)
	require.NoError(t, err)
	return frame
}

func command(t *testing.T, kind msg.CommandKind, target, value uint16) []byte {
	return encode(t, 0, msg.TypeControl, 0, msg.EncodeCommand(msg.Command{
		Kind: kind, TargetID: target, Value: value,
	}))
}

func decode(t *testing.T, frame []byte) *msg.Message {
	m, err := msg.Decode(frame)
	require.NoError(t, err)
	require.NoError(t, m.Verify())
	return m
}
