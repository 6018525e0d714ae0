package graph

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// EventKind identifies what changed.
type EventKind int

const (
	NodeAdded EventKind = iota
	NodeRemoved
	PortConnected
	PortsDisconnected
	ValueChanged
	DirtyChanged
	NameChanged
	PositionChanged
	EnabledChanged
	NodeEvaluated
	NodeTicked
	PortExecuted
)

var eventKindNames = [...]string{
	NodeAdded:         "node_added",
	NodeRemoved:       "node_removed",
	PortConnected:     "port_connected",
	PortsDisconnected: "ports_disconnected",
	ValueChanged:      "value_changed",
	DirtyChanged:      "dirty_changed",
	NameChanged:       "name_changed",
	PositionChanged:   "position_changed",
	EnabledChanged:    "enabled_changed",
	NodeEvaluated:     "node_evaluated",
	NodeTicked:        "node_ticked",
	PortExecuted:      "port_executed",
}

func (k EventKind) String() string {
	if int(k) >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is a notification emitted by a graph. Node is always set; Port is
// set for port-level events, Peers for connection events and Value for
// value changes.
type Event struct {
	Kind  EventKind
	Node  *Node
	Port  *Port
	Peers []*Port
	Value cty.Value
	// Delta carries the tick interval for NodeTicked.
	Delta float64
}

// Listener receives events synchronously, on the goroutine that caused them.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Subscribe registers l and returns a function that removes it again.
func (g *Graph) Subscribe(l Listener) (cancel func()) {
	g.nextListener++
	id := g.nextListener
	g.listeners = append(g.listeners, subscription{id: id, fn: l})
	return func() {
		for i, s := range g.listeners {
			if s.id == id {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount reports how many listeners are subscribed.
func (g *Graph) ListenerCount() int { return len(g.listeners) }

func (g *Graph) emit(ev Event) {
	if g == nil || len(g.listeners) == 0 {
		return
	}
	// Listeners may unsubscribe while being notified.
	snapshot := append([]subscription(nil), g.listeners...)
	for _, s := range snapshot {
		s.fn(ev)
	}
}
