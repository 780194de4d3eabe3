package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stage int

const (
	stageFirst stage = iota
	stageSecond
	stageThird
)

type ordered struct{}

func (ordered) Priorities() []stage { return []stage{stageFirst, stageSecond, stageThird} }

type world struct {
	alive map[string]bool
}

type trace struct {
	calls []string
}

func newWorld(owners ...string) *world {
	w := &world{alive: make(map[string]bool)}
	for _, o := range owners {
		w.alive[o] = true
	}
	return w
}

func owned(name string) func(w *world) (string, bool) {
	return func(w *world) (string, bool) {
		if !w.alive[name] {
			return "", false
		}
		return name, true
	}
}

func record(label string) func(*world, ordered, *trace, stage) {
	return func(_ *world, _ ordered, t *trace, p stage) {
		t.calls = append(t.calls, label+":"+string(rune('0'+int(p))))
	}
}

func TestBusPriorityOrder(t *testing.T) {
	bus := NewBus[*world, ordered, trace, stage]()
	bus.Register(On(record("a")).At(stageThird))
	bus.Register(On(record("b")).At(stageFirst))
	bus.Register(On(record("c")))

	var tr trace
	bus.Invoke(newWorld(), ordered{}, &tr)

	assert.Equal(t, []string{"b:0", "c:0", "c:1", "a:2", "c:2"}, tr.calls)
	assert.Equal(t, 3, bus.Len())
}

func TestBusPrunesStaleListenersAfterDispatch(t *testing.T) {
	bus := NewBus[*world, ordered, trace, stage]()
	w := newWorld("p1", "p2", "p3")

	for _, name := range []string{"p1", "p2", "p3"} {
		bus.Register(Bind(owned(name), func(owner string, _ *world, _ ordered, tr *trace, p stage) {
			tr.calls = append(tr.calls, owner)
		}).At(stageSecond))
	}
	require.Equal(t, 3, bus.Len())

	delete(w.alive, "p2")

	var tr trace
	bus.Invoke(w, ordered{}, &tr)

	assert.Equal(t, []string{"p1", "p3"}, tr.calls)
	assert.Equal(t, 2, bus.Len())
}

func TestBusOwnerDestroyedMidDispatchStillRuns(t *testing.T) {
	bus := NewBus[*world, ordered, trace, stage]()
	w := newWorld("victim")

	bus.Register(On(func(w *world, _ ordered, _ *trace, _ stage) {
		delete(w.alive, "victim")
	}).At(stageFirst))
	bus.Register(Bind(owned("victim"), func(owner string, _ *world, _ ordered, tr *trace, _ stage) {
		tr.calls = append(tr.calls, owner)
	}).At(stageThird))

	var tr trace
	bus.Invoke(w, ordered{}, &tr)
	assert.Equal(t, []string{"victim"}, tr.calls)
	assert.Equal(t, 2, bus.Len(), "teardown waits for the next dispatch")

	tr = trace{}
	bus.Invoke(w, ordered{}, &tr)
	assert.Empty(t, tr.calls)
	assert.Equal(t, 1, bus.Len())
}

func TestBusListenerRegisteredDuringDispatch(t *testing.T) {
	bus := NewBus[*world, ordered, trace, stage]()
	registered := false

	bus.Register(On(func(_ *world, _ ordered, _ *trace, _ stage) {
		if registered {
			return
		}
		registered = true
		bus.Register(On(record("late")))
	}).At(stageFirst))

	var tr trace
	bus.Invoke(newWorld(), ordered{}, &tr)

	assert.Equal(t, []string{"late:1", "late:2"}, tr.calls)
	assert.Equal(t, 2, bus.Len())
}

type unordered struct{ n int }

func (unordered) Priorities() []Unit { return UnitPriorities }

func TestBusUnitPriority(t *testing.T) {
	bus := NewBus[*world, unordered, None, Unit]()
	total := 0
	bus.Register(On(func(_ *world, ev unordered, _ *None, _ Unit) { total += ev.n }))
	bus.Register(On(func(_ *world, ev unordered, _ *None, _ Unit) { total += ev.n * 10 }))

	bus.Invoke(newWorld(), unordered{n: 2}, &None{})
	assert.Equal(t, 22, total)
}

func TestBusReentrantInvoke(t *testing.T) {
	bus := NewBus[*world, unordered, None, Unit]()
	w := newWorld("keep")
	depth := 0
	calls := 0

	bus.Register(On(func(w *world, ev unordered, fold *None, _ Unit) {
		calls++
		if depth == 0 {
			depth++
			bus.Invoke(w, ev, fold)
		}
	}))
	bus.Register(Bind(owned("gone"), func(string, *world, unordered, *None, Unit) {
		t.Fatal("stale listener must not run")
	}))
	bus.Register(Bind(owned("keep"), func(string, *world, unordered, *None, Unit) { calls++ }))

	bus.Invoke(w, unordered{}, &None{})

	assert.Equal(t, 4, calls)
	assert.Equal(t, 2, bus.Len())
}
