package crdt

import "sync"

// Transaction is the CRDT transaction primitive from spec.md §6
// (Doc.transact). Every mutation of the tree happens inside one.
type Transaction struct {
	doc *Doc
	// Origin is an opaque marker the caller can inspect in afterTransaction
	// hooks (spec.md §4.1: transactions are "tagged with an origin=remote
	// marker").
	Origin any
	events []Event
}

func (tx *Transaction) record(target XmlNode, kind EventKind) {
	tx.events = append(tx.events, Event{Target: target, Kind: kind})
}

// Doc returns the document this transaction belongs to, so callers that
// only hold a *Transaction (e.g. reconcile's build-from-editor helpers) can
// still mint new nodes.
func (tx *Transaction) Doc() *Doc { return tx.doc }

// Doc owns the item store, the single root XmlFragment, and the
// before/afterTransaction hooks that C8 (Selection Bridge) and C9 (Binding
// Controller) subscribe to.
type Doc struct {
	mu sync.Mutex

	Client string
	clock  uint64

	sv StateVector
	ds *DeleteSet

	root *XmlFragment

	before []func(*Transaction)
	after  []func(*Transaction)

	txn *Transaction
}

// NewDoc creates an empty document identified by client (typically a
// uuid.UUID string minted by the caller — see session.NewDocument).
func NewDoc(client string) *Doc {
	d := &Doc{
		Client: client,
		sv:     NewStateVector(),
		ds:     NewDeleteSet(),
	}
	d.root = &XmlFragment{doc: d}
	return d
}

// Get returns the document's single root fragment.
func (d *Doc) Get() *XmlFragment { return d.root }

// StateVector returns a defensive copy of the current state vector.
func (d *Doc) StateVector() StateVector { return d.sv.Clone() }

// DeleteSet returns a defensive copy of the current delete set.
func (d *Doc) DeleteSet() *DeleteSet { return d.ds.Clone() }

// OnBeforeTransaction registers a hook run synchronously before the
// transaction body, per spec.md §4.1/§4.9 (C8 captures selection here).
func (d *Doc) OnBeforeTransaction(fn func(*Transaction)) { d.before = append(d.before, fn) }

// OnAfterTransaction registers a hook run synchronously after the
// transaction commits.
func (d *Doc) OnAfterTransaction(fn func(*Transaction)) { d.after = append(d.after, fn) }

// nextID allocates the next (Client, Clock) pair and records it in the
// state vector. Must be called with d.mu held.
func (d *Doc) nextID() ID {
	d.clock++
	id := ID{Client: d.Client, Clock: d.clock}
	d.sv.Observe(id)
	return id
}

// observe records a foreign id (received from a remote replica) in the
// state vector. Must be called with d.mu held.
func (d *Doc) observe(id ID) { d.sv.Observe(id) }

// Transact runs fn inside a transaction, tagged with origin. Nested calls
// (a transact started while one is already open — e.g. the snapshot
// renderer transacting inside the binding's gate) reuse the outer
// transaction, matching spec.md §4.2's "nested gate acquisition is silently
// a no-op" for the underlying CRDT transaction primitive too.
func (d *Doc) Transact(origin any, fn func(*Transaction)) {
	d.mu.Lock()
	if d.txn != nil {
		// Already inside a transaction: run fn against it without firing
		// hooks again.
		txn := d.txn
		d.mu.Unlock()
		fn(txn)
		return
	}
	txn := &Transaction{doc: d, Origin: origin}
	d.txn = txn
	before := d.before
	d.mu.Unlock()

	for _, h := range before {
		h(txn)
	}

	fn(txn)

	d.mu.Lock()
	d.txn = nil
	after := d.after
	d.mu.Unlock()

	// Deep observers run before the after-transaction hooks, so observer
	// bookkeeping (the binding's identity-map invalidation) is done by the
	// time a hook rebuilds from the tree.
	if len(txn.events) > 0 {
		d.root.fireDeep(txn.events)
	}

	for _, h := range after {
		h(txn)
	}
}
