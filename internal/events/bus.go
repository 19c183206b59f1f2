// Package events is the invalidation contract between the mutation
// path and anything that renders cached views of the ledger. The
// service layer publishes a DataChanged signal after each committed
// mutation; subscribers (the websocket hub, tests) attach and detach
// explicitly, each with a lifetime they manage themselves.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates what happened to the entity.
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Entity names what changed.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityCategory    Entity = "category"
	EntityProfile     Entity = "profile"
)

// DataChanged is the invalidation signal. It carries identity only;
// subscribers refetch whatever views they own.
type DataChanged struct {
	Entity Entity    `json:"entity"`
	Kind   Kind      `json:"kind"`
	ID     uuid.UUID `json:"id"`
	At     time.Time `json:"at"`
}

// Bus fans DataChanged signals out to subscribers. Publishing never
// blocks: a subscriber that cannot keep up loses signals rather than
// stalling the mutation path, which is safe because the signal is a
// refetch hint, not data.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan DataChanged
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan DataChanged)}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. Cancel is idempotent and closes the channel.
func (b *Bus) Subscribe() (<-chan DataChanged, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan DataChanged, 16)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the signal to every current subscriber.
func (b *Bus) Publish(e DataChanged) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber is behind; drop the hint
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
