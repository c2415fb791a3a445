package reconcile

// Gate is C2, the re-entrancy gate from spec.md §4.2: a per-binding
// single-owner mutex that breaks the echo cycle between the editor's
// update callback and the CRDT's deep observer. Unlike a normal mutex,
// Gate(f) does not block when held — it drops f entirely, because this
// system is single-threaded cooperative (spec.md §5) and a held gate means
// "this call is a reaction to our own in-flight mutation".
//
// Gate is a bare bool, not a sync.Mutex: there are no suspension points
// inside a gated region (spec.md §5 "Suspension points"), so nothing else
// can observe the gate mid-region from another goroutine in the
// single-threaded model this binding assumes. The demo server (cmd/
// collabd) serializes all access to one document's Binding through its
// Document's own mutex, preserving that assumption under concurrent
// WebSocket connections.
type Gate struct {
	held bool
}

// NewGate returns an unheld gate.
func NewGate() *Gate { return &Gate{} }

// Run invokes f only if the gate is not already held. Nested calls (f
// itself calling Run again, e.g. a snapshot render transacting inside the
// binding's gate) are a silent no-op per spec.md §4.2: "nested gate
// acquisition is silently a no-op and MUST be treated as correct." The gate
// always releases on every exit path, including a panic unwinding through
// f.
func (g *Gate) Run(f func()) {
	if g.held {
		return
	}
	g.held = true
	defer func() { g.held = false }()
	f()
}

// Held reports whether the gate is currently entered, so a caller can
// distinguish "dropped because gated" from "did not run for an unrelated
// reason".
func (g *Gate) Held() bool { return g.held }
