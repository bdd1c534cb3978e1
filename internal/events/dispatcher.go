package events

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize bounds how many unread events a subscriber channel
// holds before the dispatcher evicts it rather than blocking the
// indexing pipeline on a slow client.
const subscriberBufferSize = 100

type subscriber struct {
	types map[Type]struct{} // empty means every type
	ch    chan Event
}

// Dispatcher fans out events to every registered subscriber whose
// requested types include the event's type.
type Dispatcher struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*subscriber
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: map[uuid.UUID]*subscriber{}}
}

// Subscribe registers a new subscriber interested in types (nil or empty
// means every type) and returns its id and receive-only event channel.
func (d *Dispatcher) Subscribe(types []Type) (uuid.UUID, <-chan Event) {
	set := make(map[Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	sub := &subscriber{types: set, ch: make(chan Event, subscriberBufferSize)}

	id := uuid.New()
	d.mu.Lock()
	d.subs[id] = sub
	d.mu.Unlock()
	return id, sub.ch
}

// Unsubscribe removes id's subscription, closing its channel. Safe to
// call even if the dispatcher already evicted id for a full or closed
// channel.
func (d *Dispatcher) Unsubscribe(id uuid.UUID) {
	d.mu.Lock()
	sub, ok := d.subs[id]
	delete(d.subs, id)
	d.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Dispatch delivers e to every interested subscriber, never blocking: a
// subscriber whose channel is full is evicted instead.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.RLock()
	var evict []uuid.UUID
	for id, sub := range d.subs {
		if len(sub.types) > 0 {
			if _, want := sub.types[e.Type]; !want {
				continue
			}
		}
		select {
		case sub.ch <- e:
		default:
			evict = append(evict, id)
		}
	}
	d.mu.RUnlock()

	if len(evict) == 0 {
		return
	}
	d.mu.Lock()
	for _, id := range evict {
		if sub, ok := d.subs[id]; ok {
			close(sub.ch)
			delete(d.subs, id)
		}
	}
	d.mu.Unlock()
}

// SubscriberCount reports how many subscribers are currently registered,
// for metrics.
func (d *Dispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}
