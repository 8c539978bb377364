package timing

import (
	"container/heap"
	"sync"
)

// EventQueue hands out events in firing order: earlier time first, primary
// before secondary at equal time, then scheduling order.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Peek() Event
	Len() int
}

// HeapEventQueue is an EventQueue on a binary heap. It is safe for
// concurrent use so that the monitor can read its length.
type HeapEventQueue struct {
	mu      sync.Mutex
	entries pending
	seq     uint64
}

// NewEventQueue returns an empty HeapEventQueue.
func NewEventQueue() *HeapEventQueue {
	return &HeapEventQueue{}
}

func (q *HeapEventQueue) Push(evt Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.entries, entry{
		evt:       evt,
		at:        evt.Time(),
		secondary: evt.IsSecondary(),
		seq:       q.seq,
	})
	q.seq++
}

// Pop removes the next event. It panics on an empty queue.
func (q *HeapEventQueue) Pop() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	return heap.Pop(&q.entries).(entry).evt
}

// Peek returns the next event without removing it. It panics on an empty
// queue.
func (q *HeapEventQueue) Peek() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.entries[0].evt
}

func (q *HeapEventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// entry caches the ordering key so that it is read once per push.
type entry struct {
	evt       Event
	at        VTimeInSec
	secondary bool
	seq       uint64
}

func (a entry) before(b entry) bool {
	switch {
	case a.at != b.at:
		return a.at < b.at
	case a.secondary != b.secondary:
		return !a.secondary
	default:
		return a.seq < b.seq
	}
}

type pending []entry

func (p pending) Len() int           { return len(p) }
func (p pending) Less(i, j int) bool { return p[i].before(p[j]) }
func (p pending) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

func (p *pending) Push(x interface{}) {
	*p = append(*p, x.(entry))
}

func (p *pending) Pop() interface{} {
	old := *p
	last := old[len(old)-1]
	*p = old[:len(old)-1]

	return last
}
