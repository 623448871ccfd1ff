// Package measurement holds the polygon engine: an ordered, mutable list of
// placed vertices that can be undone, reset and closed into a measured polygon.
//
// A Measure is not safe for concurrent use. All calls must come from one
// goroutine (the interaction loop); background work should only ever see a
// Record copied out with Snapshot.
package measurement

import (
	"github.com/philipparndt/armeasure/pkg/geometry"
)

// MinVertices is the smallest polygon that can be closed
const MinVertices = 3

// Result is the geometry of a closed polygon
type Result struct {
	Vertices  int
	Perimeter float64 // meters
	Area      float64 // square meters
	Normal    geometry.Vector3
}

// EventKind identifies what changed in a Measure
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
	EventReset
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventReset:
		return "reset"
	case EventClosed:
		return "closed"
	}
	return "unknown"
}

// Event is delivered to observers after every successful mutation
type Event struct {
	Kind   EventKind
	Count  int
	Closed bool
}

// Observer is notified synchronously on the mutating goroutine
type Observer func(Event)

type subscription struct {
	id int
	fn Observer
}

// Measure is the polygon engine. The zero value is not usable; call New.
type Measure struct {
	nodes      []Node
	closed     bool
	result     Result
	mode       Mode
	projection Projection

	observers []subscription
	nextID    int
}

// Option configures a Measure
type Option func(*Measure)

// WithMode sets how hit-test points are accepted
func WithMode(mode Mode) Option {
	return func(m *Measure) { m.mode = mode }
}

// WithProjection sets how the area is measured
func WithProjection(p Projection) Option {
	return func(m *Measure) { m.projection = p }
}

// WithObserver registers an observer at construction time
func WithObserver(fn Observer) Option {
	return func(m *Measure) { m.Subscribe(fn) }
}

// New creates an empty, open Measure
func New(opts ...Option) *Measure {
	m := &Measure{nodes: make([]Node, 0, 8)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers fn for change notifications and returns a function
// that removes it again.
func (m *Measure) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := m.nextID
	m.nextID++
	m.observers = append(m.observers, subscription{id: id, fn: fn})
	return func() {
		// a fresh slice leaves a notify loop in progress untouched
		kept := make([]subscription, 0, len(m.observers))
		for _, s := range m.observers {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		m.observers = kept
	}
}

func (m *Measure) notify(kind EventKind) {
	ev := Event{Kind: kind, Count: len(m.nodes), Closed: m.closed}
	for _, s := range m.observers {
		s.fn(ev)
	}
}

// Mode returns the vertex acceptance mode
func (m *Measure) Mode() Mode { return m.mode }

// Projection returns the area projection policy
func (m *Measure) Projection() Projection { return m.projection }

// Add appends a vertex. It is rejected with an InvalidStateError while the
// polygon is closed; the caller must Reset first.
func (m *Measure) Add(p geometry.Vector3) error {
	if m.closed {
		return &InvalidStateError{Op: "add", Count: len(m.nodes), Closed: true}
	}
	var first *Node
	if len(m.nodes) > 0 {
		first = &m.nodes[0]
	}
	m.nodes = append(m.nodes, Node{
		Index:    len(m.nodes),
		Position: m.mode.constrain(first, p),
	})
	m.notify(EventAdded)
	return nil
}

// Undo removes the most recently added vertex. It reports false and does
// nothing when there is no vertex to remove or the polygon is closed.
func (m *Measure) Undo() bool {
	if len(m.nodes) == 0 || m.closed {
		return false
	}
	m.nodes = m.nodes[:len(m.nodes)-1]
	m.notify(EventRemoved)
	return true
}

// Reset returns the engine to the empty, open state
func (m *Measure) Reset() {
	if len(m.nodes) == 0 && !m.closed {
		return
	}
	m.nodes = m.nodes[:0]
	m.closed = false
	m.result = Result{}
	m.notify(EventReset)
}

// IsEmpty reports whether no vertex has been placed
func (m *Measure) IsEmpty() bool { return len(m.nodes) == 0 }

// Len returns the number of vertices
func (m *Measure) Len() int { return len(m.nodes) }

// IsClosed reports whether the polygon has been closed
func (m *Measure) IsClosed() bool { return m.closed }

// IsClosable reports whether a close gesture should be honored
func (m *Measure) IsClosable() bool {
	return !m.closed && len(m.nodes) >= MinVertices
}

// First returns the initial vertex, used for close detection
func (m *Measure) First() (Node, bool) {
	if len(m.nodes) == 0 {
		return Node{}, false
	}
	return m.nodes[0], true
}

// Last returns the most recently added vertex
func (m *Measure) Last() (Node, bool) {
	if len(m.nodes) == 0 {
		return Node{}, false
	}
	return m.nodes[len(m.nodes)-1], true
}

// Nodes returns a copy of the vertices in insertion order
func (m *Measure) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// Positions returns a copy of the vertex positions in insertion order
func (m *Measure) Positions() []geometry.Vector3 {
	out := make([]geometry.Vector3, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = n.Position
	}
	return out
}

// ComputeArea returns the perimeter and area of the loop through the current
// vertices, closing edge included. It does not mutate the engine.
func (m *Measure) ComputeArea() (Result, error) {
	if len(m.nodes) < MinVertices {
		return Result{}, &InvalidStateError{Op: "compute area", Count: len(m.nodes), Need: MinVertices}
	}
	points := m.Positions()
	return Result{
		Vertices:  len(points),
		Perimeter: geometry.Perimeter(points),
		Area:      m.projection.area(points),
		Normal:    geometry.Normal(points),
	}, nil
}

// Close computes the polygon geometry and marks the engine closed.
// It fails without side effects unless IsClosable.
func (m *Measure) Close() (Result, error) {
	if m.closed {
		return Result{}, &InvalidStateError{Op: "close", Count: len(m.nodes), Need: MinVertices, Closed: true}
	}
	res, err := m.ComputeArea()
	if err != nil {
		return Result{}, &InvalidStateError{Op: "close", Count: len(m.nodes), Need: MinVertices}
	}
	m.closed = true
	m.result = res
	m.notify(EventClosed)
	return res, nil
}

// Result returns the geometry computed when the polygon was closed
func (m *Measure) Result() (Result, bool) {
	return m.result, m.closed
}
