// Package event provides the priority-ordered dispatch bus that lets role and
// ability modules react to game-wide events without knowing about each other.
//
// A Bus is bound to one event kind. Each dispatch walks the event's priorities in
// order and runs every matching listener once per priority, threading a single
// mutable fold value through all of them.
package event

// Event is implemented by every payload dispatched through a Bus. Priorities
// returns the fixed, ordered sequence of levels a dispatch walks through.
type Event[P comparable] interface {
	Priorities() []P
}

// Unit is the priority type of unordered events.
type Unit struct{}

// UnitPriorities is the single-level priority sequence used by unordered events.
var UnitPriorities = []Unit{{}}

// None is the fold type of events that carry no accumulator.
type None struct{}

// Handler is the call shape every listener reduces to.
type Handler[G, E, F any, P comparable] func(g G, ev E, fold *F, p P)

// Listener handles one event kind, optionally filtered to one priority and
// optionally bound to state that is re-derived from the game on each dispatch.
type Listener[G, E, F any, P comparable] struct {
	filter  *P
	resolve func(g G) (Handler[G, E, F, P], bool)
}

// On creates an unbound listener that runs at every priority.
func On[G, E, F any, P comparable](fn func(g G, ev E, fold *F, p P)) Listener[G, E, F, P] {
	h := Handler[G, E, F, P](fn)
	return Listener[G, E, F, P]{
		resolve: func(G) (Handler[G, E, F, P], bool) { return h, true },
	}
}

// Bind creates a listener bound to state derived from the game. When lookup
// reports no value the listener is skipped for that dispatch and removed from
// the bus once the dispatch completes.
func Bind[G, E, F any, P comparable, S any](
	lookup func(g G) (S, bool),
	fn func(state S, g G, ev E, fold *F, p P),
) Listener[G, E, F, P] {
	return Listener[G, E, F, P]{
		resolve: func(g G) (Handler[G, E, F, P], bool) {
			state, ok := lookup(g)
			if !ok {
				return nil, false
			}
			return func(g G, ev E, fold *F, p P) { fn(state, g, ev, fold, p) }, true
		},
	}
}

// At restricts the listener to a single priority.
func (l Listener[G, E, F, P]) At(p P) Listener[G, E, F, P] {
	l.filter = &p
	return l
}

type entry[G, E, F any, P comparable] struct {
	listener Listener[G, E, F, P]
}

type resolution[G, E, F any, P comparable] struct {
	handler Handler[G, E, F, P]
	ok      bool
}

// Bus holds the registered listeners of one event kind. It is owned by a single
// simulation goroutine and performs no locking.
type Bus[G any, E Event[P], F any, P comparable] struct {
	entries []*entry[G, E, F, P]
}

// NewBus constructs an empty bus.
func NewBus[G any, E Event[P], F any, P comparable]() *Bus[G, E, F, P] {
	return &Bus[G, E, F, P]{}
}

// Register adds a listener. Listeners registered while a dispatch is running
// take part starting at that dispatch's next priority.
func (b *Bus[G, E, F, P]) Register(l Listener[G, E, F, P]) {
	if l.resolve == nil {
		return
	}
	b.entries = append(b.entries, &entry[G, E, F, P]{listener: l})
}

// Len returns the number of registered listeners.
func (b *Bus[G, E, F, P]) Len() int {
	return len(b.entries)
}

// Invoke dispatches ev through every priority it declares, passing fold to
// each listener call. Listeners whose state lookup failed are pruned after the
// full dispatch, never during it.
func (b *Bus[G, E, F, P]) Invoke(g G, ev E, fold *F) {
	resolved := make(map[*entry[G, E, F, P]]resolution[G, E, F, P], len(b.entries))
	for _, e := range b.entries {
		h, ok := e.listener.resolve(g)
		resolved[e] = resolution[G, E, F, P]{handler: h, ok: ok}
	}

	for _, p := range ev.Priorities() {
		current := b.entries[:len(b.entries):len(b.entries)]
		for _, e := range current {
			if e.listener.filter != nil && *e.listener.filter != p {
				continue
			}
			r, seen := resolved[e]
			if !seen {
				// registered during this dispatch
				h, ok := e.listener.resolve(g)
				r = resolution[G, E, F, P]{handler: h, ok: ok}
				resolved[e] = r
			}
			if !r.ok {
				continue
			}
			r.handler(g, ev, fold, p)
		}
	}

	b.prune(resolved)
}

func (b *Bus[G, E, F, P]) prune(resolved map[*entry[G, E, F, P]]resolution[G, E, F, P]) {
	// a fresh slice keeps outer dispatches of a re-entrant Invoke iterating
	// over an untouched snapshot
	kept := make([]*entry[G, E, F, P], 0, len(b.entries))
	for _, e := range b.entries {
		if r, seen := resolved[e]; seen && !r.ok {
			continue
		}
		kept = append(kept, e)
	}
	b.entries = kept
}
