package bolt

import "sync"

// DefaultQueueLen is the default number of inbound messages buffered.
const DefaultQueueLen = 16

// Queue is an in-memory Link. Inbound messages are injected by the
// observer side; outbound messages are captured unless OnWrite is set.
type Queue struct {
	// OnWrite receives outbound messages instead of capturing them.
	OnWrite func(frame []byte) error

	lock sync.Mutex
	in   [][]byte
	cap  int
	out  [][]byte
	ind  chan struct{}
}

// NewQueue creates a Queue buffering up to capacity inbound messages.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueLen
	}
	return &Queue{cap: capacity, ind: make(chan struct{}, 1)}
}

// Inject queues an inbound message. It returns false when the queue
// is full and the message is dropped.
func (q *Queue) Inject(frame []byte) bool {
	q.lock.Lock()
	if len(q.in) >= q.cap {
		q.lock.Unlock()
		return false
	}
	rising := len(q.in) == 0
	q.in = append(q.in, append([]byte{}, frame...))
	q.lock.Unlock()
	if rising {
		select {
		case q.ind <- struct{}{}:
		default:
		}
	}
	return true
}

// Len returns the number of inbound messages.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.in)
}

// DataAvailable implements Link.
func (q *Queue) DataAvailable() bool {
	return q.Len() > 0
}

// Read implements Link.
func (q *Queue) Read() ([]byte, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.in) == 0 {
		return []byte{}, nil
	}
	frame := q.in[0]
	q.in[0] = nil
	q.in = q.in[1:]
	return frame, nil
}

// Write implements Link.
func (q *Queue) Write(frame []byte) error {
	if fn := q.OnWrite; fn != nil {
		return fn(frame)
	}
	q.lock.Lock()
	q.out = append(q.out, append([]byte(nil), frame...))
	q.lock.Unlock()
	return nil
}

// Written removes and returns captured outbound messages.
func (q *Queue) Written() [][]byte {
	q.lock.Lock()
	defer q.lock.Unlock()
	out := q.out
	q.out = nil
	return out
}

// Indication implements Link.
func (q *Queue) Indication() <-chan struct{} {
	return q.ind
}
