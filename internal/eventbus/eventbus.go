// Package eventbus implements Gwen's node-event bus (§4.J): a
// synchronous publish system delivering Before/After events around
// every node evaluated by the step engine, for reporters and other
// observers.
//
// Grounded on the teacher's actor mailbox dispatch
// (internal/kernel/kernel.go's ordered handler chain per message) —
// generalised here from "one handler per actor" to "an ordered list
// of listeners per phase", since the teacher's kernel is a full actor
// runtime this module doesn't need, but its "deliver messages to
// registered handlers in a fixed order, never let a handler's failure
// break delivery" discipline is exactly §4.J's contract.
package eventbus

import (
	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/gwenlog"
)

// Phase is either side of a node's evaluation.
type Phase string

const (
	Before Phase = "Before"
	After  Phase = "After"
)

// Event carries everything a listener needs to react to a node
// transition (§4.J).
type Event struct {
	Phase     Phase
	NodeType  ast.NodeType
	Source    ast.Node
	CallChain []ast.Node // ordered ancestors, Root first, current node last
}

// Listener observes events. Ignore reports node types this listener
// never wants to see, letting the bus skip dispatch entirely for
// high-volume node types a given reporter doesn't care about.
type Listener interface {
	Ignore(nodeType ast.NodeType) bool
	Notify(event Event)
}

// Bus is a simple synchronous publish system (§4.J). Before listeners
// fire in registration order; After listeners fire in reverse
// registration order, mirroring the call-stack discipline of
// before/after hooks around a single evaluation.
type Bus struct {
	listeners []Listener
}

func New() *Bus { return &Bus{} }

func (b *Bus) Register(l Listener) {
	b.listeners = append(b.listeners, l)
}

// PublishBefore and PublishAfter never propagate a listener panic or
// error to the caller — §4.J "Listeners must not raise; failures are
// logged and swallowed" — so a misbehaving reporter can never abort
// evaluation.
func (b *Bus) PublishBefore(nodeType ast.NodeType, source ast.Node, callChain []ast.Node) {
	event := Event{Phase: Before, NodeType: nodeType, Source: source, CallChain: callChain}
	for _, l := range b.listeners {
		b.safeNotify(l, event)
	}
}

func (b *Bus) PublishAfter(nodeType ast.NodeType, source ast.Node, callChain []ast.Node) {
	event := Event{Phase: After, NodeType: nodeType, Source: source, CallChain: callChain}
	for i := len(b.listeners) - 1; i >= 0; i-- {
		b.safeNotify(b.listeners[i], event)
	}
}

func (b *Bus) safeNotify(l Listener, event Event) {
	if l.Ignore(event.NodeType) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			gwenlog.Error("event listener panicked on %s %s: %v", event.Phase, event.NodeType, r)
		}
	}()
	l.Notify(event)
}

// BaseListener is embeddable by listeners that care about only a few
// node types, avoiding the boilerplate of a no-op Ignore per type.
type BaseListener struct {
	Ignored map[ast.NodeType]bool
}

func (b BaseListener) Ignore(nodeType ast.NodeType) bool {
	return b.Ignored[nodeType]
}
