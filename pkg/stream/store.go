package stream

import "github.com/agentstation/learnstream/pkg/events"

// Snapshot is the connection state published to observers. A *Snapshot is
// never modified after it is published, so comparing pointers detects change.
type Snapshot struct {
	IsConnected bool
	LastEvent   *events.Event
}

// Store is the observer side of the client: a pull-based current value plus
// a change notification.
type Store interface {
	GetSnapshot() *Snapshot
	SubscribeToStore(callback func()) (unsubscribe func())
}

var emptySnapshot = &Snapshot{}

// store holds the current snapshot and the subscriber set. The client's
// mutex guards it.
type store struct {
	current *Snapshot
	nextID  uint64
	subs    map[uint64]func()
}

func newStore() *store {
	return &store{current: emptySnapshot, subs: make(map[uint64]func())}
}

// set replaces the snapshot when a field differs. It reports whether a new
// snapshot was allocated.
func (s *store) set(connected bool, last *events.Event) bool {
	if s.current.IsConnected == connected && s.current.LastEvent == last {
		return false
	}
	s.current = &Snapshot{IsConnected: connected, LastEvent: last}
	return true
}

func (s *store) subscribe(cb func()) uint64 {
	s.nextID++
	s.subs[s.nextID] = cb
	return s.nextID
}

func (s *store) unsubscribe(id uint64) {
	delete(s.subs, id)
}

// subscribers copies the callbacks so they can run unlocked.
func (s *store) subscribers() []func() {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(), 0, len(s.subs))
	for _, cb := range s.subs {
		out = append(out, cb)
	}
	return out
}
