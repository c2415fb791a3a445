package crdt

// XmlFragment is the root ordered container of a document's tree: "an
// ordered sequence container with no node name" (spec.md §3).
type XmlFragment struct {
	container
	doc       *Doc
	observers []func([]Event)
}

// ID always returns Zero: the root fragment has no creation identity.
func (f *XmlFragment) ID() ID       { return Zero }
func (f *XmlFragment) IsDeleted() bool { return false }
func (f *XmlFragment) Parent() XmlNode { return nil }
func (f *XmlFragment) Doc() *Doc        { return f.doc }

// ToArray returns the fragment's current visible children, in order.
func (f *XmlFragment) ToArray() []XmlNode { return f.ensure().toArray(nil, nil) }

// ToArraySnapshot returns the children visible at the given snapshot,
// spec.md §6's typeListToArraySnapshot.
func (f *XmlFragment) ToArraySnapshot(snap *Snapshot) []XmlNode {
	return f.ensure().toArray(snap, nil)
}

func (f *XmlFragment) ensure() *container {
	if f.index == nil {
		c := newContainer(f.doc)
		f.container = c
	}
	return &f.container
}

// Insert inserts nodes at visible index idx. Must be called inside a
// Doc.Transact with that same transact's tx; returns ErrNotInTransaction
// otherwise.
func (f *XmlFragment) Insert(tx *Transaction, idx int, nodes []XmlNode) error {
	if tx.doc.txn != tx {
		return ErrNotInTransaction
	}
	for _, n := range nodes {
		setParentOf(n, f)
	}
	f.ensure().insertLocal(tx, f, idx, nodes)
	return nil
}

// Delete removes length visible children starting at idx. Must be called
// inside a Doc.Transact with that same transact's tx.
func (f *XmlFragment) Delete(tx *Transaction, idx, length int) error {
	if tx.doc.txn != tx {
		return ErrNotInTransaction
	}
	f.ensure().deleteRange(tx, f, idx, length)
	return nil
}

// DeleteByID removes a single child identified by id, returning whether it
// was found and not already deleted.
func (f *XmlFragment) DeleteByID(tx *Transaction, id ID) bool {
	return f.ensure().deleteByID(tx, f, id)
}

// ObserveDeep registers cb to be called once per transaction that touches
// any node in this fragment's subtree, with the full batch of events —
// spec.md §4.1: "subscribes to the CRDT fragment's deep observer".
func (f *XmlFragment) ObserveDeep(cb func([]Event)) {
	f.observers = append(f.observers, cb)
}

// UnobserveDeep removes all deep observers, used by Binding.destroy (C9
// "break the cycle on destroy by unobserving the fragment").
func (f *XmlFragment) UnobserveDeep() { f.observers = nil }

func (f *XmlFragment) fireDeep(events []Event) {
	if len(f.observers) == 0 {
		return
	}
	relevant := make([]Event, 0, len(events))
	for _, e := range events {
		if rootOf(e.Target) == XmlNode(f) {
			relevant = append(relevant, e)
		}
	}
	if len(relevant) == 0 {
		return
	}
	for _, cb := range f.observers {
		cb(relevant)
	}
}
