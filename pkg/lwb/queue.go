package lwb

import "sync"

// Queue is a bounded FIFO of outgoing packets.
type Queue struct {
	mu    sync.Mutex
	items []Packet
	cap   int
}

// NewQueue creates a queue holding at most capacity packets.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{items: make([]Packet, 0, capacity), cap: capacity}
}

// Push appends a packet and returns false when the queue is full.
// The data is copied.
func (q *Queue) Push(pkt Packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.cap {
		return false
	}
	pkt.Data = append([]byte(nil), pkt.Data...)
	q.items = append(q.items, pkt)
	return true
}

// PopAll removes and returns all queued packets.
func (q *Queue) PopAll() []Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = make([]Packet, 0, q.cap)
	return items
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return q.cap
}
