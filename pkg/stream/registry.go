package stream

import "github.com/agentstation/learnstream/pkg/events"

// Handler receives events of the type it was registered for.
type Handler func(e *events.Event)

// registry maps event types to handler registrations. Each registration has
// its own id so the same func can be registered twice and revoked separately.
// The client's mutex guards it.
type registry struct {
	nextID   uint64
	handlers map[string]map[uint64]Handler
}

func newRegistry() *registry {
	return &registry{handlers: make(map[string]map[uint64]Handler)}
}

func (r *registry) add(eventType string, h Handler) uint64 {
	r.nextID++
	set, ok := r.handlers[eventType]
	if !ok {
		set = make(map[uint64]Handler)
		r.handlers[eventType] = set
	}
	set[r.nextID] = h
	return r.nextID
}

func (r *registry) remove(eventType string, id uint64) {
	set, ok := r.handlers[eventType]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.handlers, eventType)
	}
}

// lookup copies the handlers of eventType so they can run unlocked.
func (r *registry) lookup(eventType string) []Handler {
	set := r.handlers[eventType]
	if len(set) == 0 {
		return nil
	}
	out := make([]Handler, 0, len(set))
	for _, h := range set {
		out = append(out, h)
	}
	return out
}

// types returns the number of event types with at least one handler.
func (r *registry) types() int {
	return len(r.handlers)
}
