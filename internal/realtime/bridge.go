package realtime

// Event is the remote change type a subscription listens for.
type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
)

// Change is one remote write reported by the change feed.
type Change struct {
	Table string `json:"table"`
	Event Event  `json:"event"`
	ID    string `json:"id"`
}

// Filter narrows a subscription to an event type and, optionally, one
// row id. An empty ID matches every row of the table.
type Filter struct {
	Event Event
	ID    string
}

func (f Filter) matches(ch Change) bool {
	if f.Event != ch.Event {
		return false
	}
	if f.ID != "" && f.ID != ch.ID {
		return false
	}
	return true
}

// Subscription is a handle for one registered listener. Unsubscribe is
// idempotent and must be called when the owning component is torn down.
type Subscription struct {
	id     uint64
	bridge *Bridge
}

// Unsubscribe releases the subscription. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.bridge.remove(s.id)
}
