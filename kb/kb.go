package kb

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/signalsfoundry/starsystem-viewer/core"
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventGraphSwapped EventType = iota
	EventSelectionChanged
)

// Event is emitted to subscribers. Body is empty for graph swaps and
// when a selection is cleared.
type Event struct {
	ID   string // unique per emission
	Type EventType
	Body string
}

// SystemStore holds the current indexed body graph and the viewer's
// selection. The graph is replaced wholesale via an atomic pointer
// swap, so per-frame readers always observe either the old or the new
// complete graph, never a mix, without taking locks on the read path.
type SystemStore struct {
	graph atomic.Pointer[core.SystemGraph]

	mu       sync.Mutex
	selected string
	subs     []func(Event)
}

// NewSystemStore constructs a store holding the empty system.
func NewSystemStore() *SystemStore {
	s := &SystemStore{}
	s.graph.Store(core.EmptySystem())
	return s
}

// Swap atomically replaces the current graph, dropping any selection
// that no longer resolves. The old graph stays valid for readers still
// holding it.
func (s *SystemStore) Swap(g *core.SystemGraph) {
	if g == nil {
		g = core.EmptySystem()
	}
	s.graph.Store(g)

	s.mu.Lock()
	if s.selected != "" && g.Body(s.selected) == nil {
		s.selected = ""
	}
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	emit(subs, Event{ID: uuid.NewString(), Type: EventGraphSwapped})
}

// Graph returns the current graph. The result is complete and
// immutable; callers may keep iterating it while a Swap happens.
func (s *SystemStore) Graph() *core.SystemGraph {
	return s.graph.Load()
}

// Select marks a body as the viewer's selection. It fails when the
// name does not resolve in the current graph.
func (s *SystemStore) Select(name string) error {
	if s.Graph().Body(name) == nil {
		return fmt.Errorf("select: unknown body %q", name)
	}

	s.mu.Lock()
	s.selected = name
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	emit(subs, Event{ID: uuid.NewString(), Type: EventSelectionChanged, Body: name})
	return nil
}

// ClearSelection drops the current selection.
func (s *SystemStore) ClearSelection() {
	s.mu.Lock()
	changed := s.selected != ""
	s.selected = ""
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	if changed {
		emit(subs, Event{ID: uuid.NewString(), Type: EventSelectionChanged})
	}
}

// Selection returns the selected body name, or "" when nothing is
// selected.
func (s *SystemStore) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// BodyNames returns every body name in document order, for quick-select
// UI surfaces.
func (s *SystemStore) BodyNames() []string {
	names := s.Graph().Names()
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *SystemStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}

// Notify subscribers outside the lock to avoid deadlocks.
func emit(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
