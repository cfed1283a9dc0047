package mqtt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lwbhost/pkg/lwb"
	"github.com/robotalks/lwbhost/pkg/mqtt"
	"github.com/robotalks/lwbhost/pkg/msg"
)

// StatusLen is the size of the status payload of a simulated source:
// uptime in seconds (u32) and number of status messages sent (u16).
const StatusLen = 6

// Source simulates a source node publishing status messages.
type Source struct {
	ID    lwb.NodeID
	Queue *mqtt.Queue
	// Unit is the duration of one period second.
	Unit time.Duration

	lock   sync.Mutex
	period uint16
	paused bool
	seq    uint16
	start  time.Time

	periodCh chan struct{}
}

// NewSource creates a Source with a status period in seconds.
func NewSource(id lwb.NodeID, q *mqtt.Queue, period uint16) *Source {
	return &Source{
		ID:       id,
		Queue:    q,
		Unit:     time.Second,
		period:   period,
		start:    time.Now(),
		periodCh: make(chan struct{}, 1),
	}
}

// StatusPeriod returns the current status period in seconds.
func (s *Source) StatusPeriod() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.period
}

// HandleDownlink processes a frame addressed to this node.
func (s *Source) HandleDownlink(frame []byte) {
	m, err := msg.Decode(frame)
	if err != nil {
		glog.Warningf("node %d: bad downlink frame: %v", s.ID, err)
		return
	}
	cmd, ok := msg.CommandFrom(m)
	if !ok {
		glog.V(2).Infof("node %d: ignored %s", s.ID, m)
		return
	}
	if cmd.Kind != msg.CmdSetStatusPeriod {
		return
	}
	if target := lwb.NodeID(cmd.TargetID); target != s.ID && target != lwb.Broadcast {
		return
	}
	s.lock.Lock()
	s.period = cmd.Value
	s.lock.Unlock()
	glog.Infof("node %d: status period set to %ds", s.ID, cmd.Value)
	select {
	case s.periodCh <- struct{}{}:
	default:
	}
}

func (s *Source) handleSchedule(_ string, payload []byte) {
	var sched Schedule
	if err := json.Unmarshal(payload, &sched); err != nil {
		glog.Warningf("node %d: bad schedule: %v", s.ID, err)
		return
	}
	s.lock.Lock()
	s.paused = sched.Paused
	s.lock.Unlock()
}

// Status builds the next status frame.
func (s *Source) Status() []byte {
	s.lock.Lock()
	seq := s.seq
	s.seq++
	s.lock.Unlock()
	payload := make([]byte, StatusLen)
	binary.LittleEndian.PutUint32(payload, uint32(time.Since(s.start)/time.Second))
	binary.LittleEndian.PutUint16(payload[4:], seq+1)
	m, _ := msg.New(uint16(s.ID), msg.TypeStatus, seq, payload)
	frame, _ := msg.Encode(m)
	return frame
}

func (s *Source) publishStatus() {
	s.lock.Lock()
	paused := s.paused
	s.lock.Unlock()
	if paused {
		return
	}
	s.Queue.Pub(UpTopic(s.ID), s.Status())
}

// Run implements Runnable.
func (s *Source) Run(ctx context.Context) error {
	handler := func(_ string, payload []byte) { s.HandleDownlink(payload) }
	own := s.Queue.Sub(DownTopic(s.ID), handler)
	defer own.Close()
	all := s.Queue.Sub(TopicDownAll, handler)
	defer all.Close()
	sched := s.Queue.Sub(TopicSched, s.handleSchedule)
	defer sched.Close()
	return lwb.RunRounds(ctx, func() time.Duration {
		return lwb.RoundDuration(s.StatusPeriod(), s.Unit)
	}, s.periodCh, s.publishStatus)
}
