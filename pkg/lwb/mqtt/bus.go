// Package mqtt bridges the LWB stack over an MQTT broker. Source nodes
// publish on up/<node>, the host publishes on down/<node> (down/all
// for broadcast), time requests arrive on timereq and the schedule is
// retained on sched.
package mqtt

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/mqtt"
)

// Topics, relative to the queue prefix.
const (
	TopicUp      = "up/"
	TopicDown    = "down/"
	TopicDownAll = "down/all"
	TopicTimeReq = "timereq"
	TopicSched   = "sched"
)

// DefaultRxQueueLen is the default capacity of received packets.
const DefaultRxQueueLen = 32

// Schedule is the retained schedule state.
type Schedule struct {
	Period uint16 `json:"period"`
	Paused bool   `json:"paused"`
}

// UpTopic returns the uplink topic of a node.
func UpTopic(id lwb.NodeID) string {
	return TopicUp + strconv.Itoa(int(id))
}

// DownTopic returns the downlink topic of a recipient.
func DownTopic(id lwb.NodeID) string {
	if id == lwb.Broadcast {
		return TopicDownAll
	}
	return TopicDown + strconv.Itoa(int(id))
}

// Bus implements lwb.Stack for the host over MQTT.
type Bus struct {
	Queue *mqtt.Queue
	// RoundUnit is the duration of one period second.
	RoundUnit  time.Duration
	OnRoundEnd func()
	RxQueueLen int

	tx *lwb.Queue

	lock    sync.Mutex
	rx      [][]byte
	sched   Schedule
	timeReq uint64
	start   time.Time

	periodCh chan struct{}
}

// NewBus creates a Bus.
func NewBus(q *mqtt.Queue, txQueueLen int) *Bus {
	b := &Bus{
		Queue:      q,
		RoundUnit:  time.Second,
		RxQueueLen: DefaultRxQueueLen,
		tx:         lwb.NewQueue(txQueueLen),
		sched:      Schedule{Period: 1},
		start:      time.Now(),
		periodCh:   make(chan struct{}, 1),
	}
	q.OnConnect = func(*mqtt.Queue) { b.publishSchedule() }
	return b
}

// Send implements lwb.Stack.
func (b *Bus) Send(recipient lwb.NodeID, stream lwb.StreamID, pkt []byte) bool {
	return b.tx.Push(lwb.Packet{Recipient: recipient, Stream: stream, Data: pkt})
}

// Receive implements lwb.Stack.
func (b *Bus) Receive() ([]byte, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.rx) == 0 {
		return nil, false
	}
	pkt := b.rx[0]
	b.rx = b.rx[1:]
	return pkt, true
}

// SetRoundPeriod implements lwb.Stack.
func (b *Bus) SetRoundPeriod(seconds uint16) {
	b.lock.Lock()
	b.sched.Period = seconds
	b.lock.Unlock()
	b.publishSchedule()
	select {
	case b.periodCh <- struct{}{}:
	default:
	}
}

// Pause implements lwb.Stack.
func (b *Bus) Pause() {
	b.setPaused(true)
}

// Resume implements lwb.Stack.
func (b *Bus) Resume() {
	b.setPaused(false)
}

func (b *Bus) setPaused(paused bool) {
	b.lock.Lock()
	b.sched.Paused = paused
	b.lock.Unlock()
	b.publishSchedule()
}

// TimeRequest implements lwb.Stack.
func (b *Bus) TimeRequest() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	ticks := b.timeReq
	b.timeReq = 0
	return ticks
}

// Schedule returns the current schedule.
func (b *Bus) Schedule() Schedule {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.sched
}

func (b *Bus) publishSchedule() {
	sched := b.Schedule()
	data, err := json.Marshal(&sched)
	if err != nil {
		glog.Errorf("encode schedule: %v", err)
		return
	}
	b.Queue.PubWith(TopicSched, data, 1, true)
}

func (b *Bus) handleUp(topic string, payload []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.sched.Paused {
		return
	}
	if len(b.rx) >= b.RxQueueLen {
		glog.Warningf("packet on %s dropped (rx queue full)", topic)
		return
	}
	b.rx = append(b.rx, append([]byte(nil), payload...))
}

func (b *Bus) handleTimeReq(string, []byte) {
	ticks := lwb.Ticks(time.Since(b.start))
	if ticks == 0 {
		ticks = 1
	}
	b.lock.Lock()
	b.timeReq = ticks
	b.lock.Unlock()
}

func (b *Bus) endRound() {
	if b.Schedule().Paused {
		return
	}
	for _, pkt := range b.tx.PopAll() {
		b.Queue.Pub(DownTopic(pkt.Recipient), pkt.Data)
	}
	if fn := b.OnRoundEnd; fn != nil {
		fn()
	}
}

// Run implements Runnable.
func (b *Bus) Run(ctx context.Context) error {
	if err := b.Queue.Connect(); err != nil {
		return err
	}
	defer b.Queue.Close()
	up := b.Queue.Sub(TopicUp+"+", b.handleUp)
	defer up.Close()
	timeReq := b.Queue.Sub(TopicTimeReq, b.handleTimeReq)
	defer timeReq.Close()
	return lwb.RunRounds(ctx, func() time.Duration {
		return lwb.RoundDuration(b.Schedule().Period, b.RoundUnit)
	}, b.periodCh, b.endRound)
}
