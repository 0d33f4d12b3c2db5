package transport

import (
	"sync/atomic"

	"github.com/calvinmclean/hackablelamp"
)

// Handler receives one write from the remote
type Handler func(ch hackablelamp.Channel, payload []byte)

// Transport delivers commands to a Handler and carries diagnostic notifications back. Poll is called
// from the control loop on every iteration and must not block
type Transport interface {
	Poll() error
	Notify(payload []byte) error
}

type event struct {
	channel hackablelamp.Channel
	payload []byte
}

// Queue hands events from a producer context (BLE callbacks, a reader goroutine) to the control
// loop. It has one producer and one consumer. Push never blocks: events are dropped when the queue
// is full.
type Queue struct {
	events  chan event
	dropped atomic.Uint32
}

// DefaultQueueSize is enough for a burst of writes from a phone slider between two loop iterations
const DefaultQueueSize = 16

// NewQueue creates a Queue holding up to size events
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{events: make(chan event, size)}
}

// Push copies payload onto the queue. It returns false if the event was dropped
func (q *Queue) Push(ch hackablelamp.Channel, payload []byte) bool {
	p := make([]byte, len(payload))
	copy(p, payload)

	select {
	case q.events <- event{ch, p}:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Drain delivers every queued event to h and returns how many were delivered
func (q *Queue) Drain(h Handler) int {
	n := 0
	for {
		select {
		case e := <-q.events:
			h(e.channel, e.payload)
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued events
func (q *Queue) Len() int {
	return len(q.events)
}

// Dropped returns how many events were dropped because the queue was full
func (q *Queue) Dropped() uint32 {
	return q.dropped.Load()
}
