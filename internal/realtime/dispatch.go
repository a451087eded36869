package realtime

import "sync"

type subscriber struct {
	table   string
	filter  Filter
	onEvent func(Change)
}

// Bridge fans remote change events out to registered subscriptions.
// Callbacks are expected to do nothing heavier than marking cache keys
// stale; they run on the consumer's goroutine.
type Bridge struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]subscriber
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{subs: map[uint64]subscriber{}}
}

// Subscribe registers onEvent for changes to table matching the filter.
func (b *Bridge) Subscribe(table string, f Filter, onEvent func(Change)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = subscriber{table: table, filter: f, onEvent: onEvent}
	return &Subscription{id: id, bridge: b}
}

// Dispatch delivers one change to every matching subscription.
func (b *Bridge) Dispatch(ch Change) {
	b.mu.Lock()
	matched := make([]func(Change), 0, len(b.subs))
	for _, s := range b.subs {
		if s.table == ch.Table && s.filter.matches(ch) {
			matched = append(matched, s.onEvent)
		}
	}
	b.mu.Unlock()

	for _, fn := range matched {
		fn(ch)
	}
}

func (b *Bridge) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
