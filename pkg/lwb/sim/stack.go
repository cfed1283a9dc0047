// Package sim provides an in-memory LWB stack.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// Defaults
const (
	DefaultTxQueueLen  = 8
	DefaultRoundPeriod = 1
)

// Stack simulates the bus stack of the host node.
type Stack struct {
	// RoundUnit is the duration of one period second, used to speed up
	// simulations.
	RoundUnit time.Duration
	// Sources lists simulated source nodes emitting a status message
	// every round.
	Sources []lwb.NodeID
	// Sink receives transmitted packets at the end of every round.
	Sink func(lwb.Packet)
	// OnRoundEnd is invoked after every round which is not paused.
	OnRoundEnd func()
	// Now returns the current time, time.Now if nil.
	Now func() time.Time

	tx *lwb.Queue

	lock    sync.Mutex
	rx      [][]byte
	period  uint16
	paused  bool
	timeReq uint64
	start   time.Time
	round   uint64
	seq     map[lwb.NodeID]uint16

	pauses, resumes int
	periodCh        chan struct{}
}

// New creates a Stack with a transmit queue of txQueueLen packets.
func New(txQueueLen int) *Stack {
	if txQueueLen <= 0 {
		txQueueLen = DefaultTxQueueLen
	}
	return &Stack{
		RoundUnit: time.Second,
		tx:        lwb.NewQueue(txQueueLen),
		period:    DefaultRoundPeriod,
		start:     time.Now(),
		seq:       make(map[lwb.NodeID]uint16),
		periodCh:  make(chan struct{}, 1),
	}
}

// Send implements lwb.Stack.
func (s *Stack) Send(recipient lwb.NodeID, stream lwb.StreamID, pkt []byte) bool {
	return s.tx.Push(lwb.Packet{Recipient: recipient, Stream: stream, Data: pkt})
}

// Receive implements lwb.Stack.
func (s *Stack) Receive() ([]byte, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.rx) == 0 {
		return nil, false
	}
	pkt := s.rx[0]
	s.rx = s.rx[1:]
	return pkt, true
}

// SetRoundPeriod implements lwb.Stack.
func (s *Stack) SetRoundPeriod(seconds uint16) {
	s.lock.Lock()
	s.period = seconds
	s.lock.Unlock()
	select {
	case s.periodCh <- struct{}{}:
	default:
	}
}

// RoundPeriod returns the current round period in seconds.
func (s *Stack) RoundPeriod() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.period
}

// Pause implements lwb.Stack.
func (s *Stack) Pause() {
	s.lock.Lock()
	s.paused = true
	s.pauses++
	s.lock.Unlock()
}

// Resume implements lwb.Stack.
func (s *Stack) Resume() {
	s.lock.Lock()
	s.paused = false
	s.resumes++
	s.lock.Unlock()
}

// Paused tells whether the bus is paused.
func (s *Stack) Paused() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.paused
}

// PauseCount returns how many times Pause and Resume were called.
func (s *Stack) PauseCount() (pauses, resumes int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pauses, s.resumes
}

// TimeRequest implements lwb.Stack.
func (s *Stack) TimeRequest() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	ticks := s.timeReq
	s.timeReq = 0
	return ticks
}

// Deliver injects a received packet.
func (s *Stack) Deliver(pkt []byte) {
	s.lock.Lock()
	s.rx = append(s.rx, append([]byte(nil), pkt...))
	s.lock.Unlock()
}

// RequestTime records a time request at the current tick count.
func (s *Stack) RequestTime() {
	ticks := lwb.Ticks(s.now().Sub(s.start))
	if ticks == 0 {
		ticks = 1
	}
	s.RequestTimeAt(ticks)
}

// RequestTimeAt records a time request at the specified tick count.
func (s *Stack) RequestTimeAt(ticks uint64) {
	s.lock.Lock()
	s.timeReq = ticks
	s.lock.Unlock()
}

// Pending returns the number of packets in the transmit queue.
func (s *Stack) Pending() int {
	return s.tx.Len()
}

// Flush removes all packets from the transmit queue.
func (s *Stack) Flush() []lwb.Packet {
	return s.tx.PopAll()
}

func (s *Stack) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EndRound completes a round: the transmit queue is handed to Sink,
// status messages of sources are received and OnRoundEnd is called.
// A paused bus does nothing.
func (s *Stack) EndRound() {
	s.lock.Lock()
	if s.paused {
		s.lock.Unlock()
		return
	}
	s.round++
	sources := s.Sources
	s.lock.Unlock()

	for _, pkt := range s.tx.PopAll() {
		if sink := s.Sink; sink != nil {
			sink(pkt)
		}
	}
	for _, src := range sources {
		s.emitStatus(src)
	}
	if fn := s.OnRoundEnd; fn != nil {
		fn()
	}
}

func (s *Stack) emitStatus(src lwb.NodeID) {
	s.lock.Lock()
	seq := s.seq[src]
	s.seq[src] = seq + 1
	round := s.round
	s.lock.Unlock()
	m, err := msg.New(uint16(src), msg.TypeStatus, seq, msg.EncodeTimestamp(round))
	if err != nil {
		glog.Errorf("sim status of node %d: %v", src, err)
		return
	}
	frame, _ := msg.Encode(m)
	s.Deliver(frame)
}

// Run drives rounds until ctx is done.
func (s *Stack) Run(ctx context.Context) error {
	return lwb.RunRounds(ctx, func() time.Duration {
		return lwb.RoundDuration(s.RoundPeriod(), s.RoundUnit)
	}, s.periodCh, s.EndRound)
}
