package keyboard

import "sync"

// Event is a single key transition from any input device.
type Event struct {
	ID   string
	Down bool
}

// Source produces events. Subscribe returns a channel of events and a cancel
// function that must be called to release the subscription; after cancel
// no further events are delivered on the channel.
type Source interface {
	Subscribe(buffer int) (events <-chan Event, cancel func())
}

// Queue is an in-memory Source. Push may be called from any goroutine.
type Queue struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewQueue() *Queue {
	return &Queue{subs: make(map[int]chan Event)}
}

func (q *Queue) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	q.mu.Lock()
	id := q.next
	q.next++
	q.subs[id] = ch
	q.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.subs, id)
			q.mu.Unlock()
		})
	}
}

// Push delivers ev to every subscriber. Subscribers with a full buffer drop
// the event.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, ch := range q.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (q *Queue) Subscribers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}
