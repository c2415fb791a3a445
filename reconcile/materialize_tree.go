package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// ChangeComputer resolves a snapshot-diff annotation ("added"/"removed")
// for one item id into whatever value the caller wants stored under the
// ychange key — spec.md §4.8's computeChange, typically backed by a
// crdt.PermanentUserData plus a color allocator (see snapshot.go).
type ChangeComputer func(kind string, id crdt.ID) any

func changeOf(kind string, id crdt.ID, compute ChangeComputer) any {
	if compute != nil {
		return compute(kind, id)
	}
	return map[string]any{"type": kind}
}

// childContainer is the shared shape of *crdt.XmlFragment and
// *crdt.XmlElement that the tree materializer needs: an ordered list of
// children, optionally bound to a snapshot.
type childContainer interface {
	ToArray() []crdt.XmlNode
	ToArraySnapshot(*crdt.Snapshot) []crdt.XmlNode
}

// combinedSnapshot is spec.md §4.3's "Snapshot(prevSnapshot.ds,
// snapshot.sv)": the iteration order/inclusion a historical render walks,
// distinct from the (snap, prevSnap) pair used purely for the
// added/removed annotation decision.
func combinedSnapshot(snap, prevSnap *crdt.Snapshot) *crdt.Snapshot {
	if snap == nil || prevSnap == nil {
		return snap
	}
	return &crdt.Snapshot{DeleteSet: prevSnap.DeleteSet, StateVector: snap.StateVector}
}

// MaterializeFragmentChildren rebuilds the editor doc's top-level content
// from frag, per spec.md §4.1 ("invokes C3 to rebuild the top-level
// content"). Returns a fatal error only for an unsupported node kind
// (XmlHook); schema-rejected children are silently
// filtered, each having triggered its own self-healing CRDT deletion.
func MaterializeFragmentChildren(tx *crdt.Transaction, schema *editordoc.Schema, m *IdentityMap, frag *crdt.XmlFragment, snap, prevSnap *crdt.Snapshot, compute ChangeComputer) ([]*editordoc.Node, error) {
	return materializeChildren(tx, schema, m, frag, snap, prevSnap, compute)
}

func materializeChildren(tx *crdt.Transaction, schema *editordoc.Schema, m *IdentityMap, owner childContainer, snap, prevSnap *crdt.Snapshot, compute ChangeComputer) ([]*editordoc.Node, error) {
	var children []crdt.XmlNode
	if snap == nil {
		children = owner.ToArray()
	} else {
		children = owner.ToArraySnapshot(combinedSnapshot(snap, prevSnap))
	}

	out := make([]*editordoc.Node, 0, len(children))
	for _, c := range children {
		switch v := c.(type) {
		case *crdt.XmlElement:
			node, err := MaterializeElement(tx, schema, m, v, snap, prevSnap, compute)
			if err != nil {
				return nil, err
			}
			if node != nil {
				out = append(out, node)
			}
		case *crdt.XmlText:
			nodes, err := MaterializeText(tx, schema, m, v, snap, prevSnap, compute)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		default:
			return nil, crdt.ErrHookUnsupported
		}
	}
	return out, nil
}

// MaterializeElement is C3: materializeElement(el, schema, map, snapshot?,
// prevSnapshot?, computeChange?) -> Node | null, spec.md §4.3.
func MaterializeElement(tx *crdt.Transaction, schema *editordoc.Schema, m *IdentityMap, el *crdt.XmlElement, snap, prevSnap *crdt.Snapshot, compute ChangeComputer) (*editordoc.Node, error) {
	if cached, ok := m.GetNode(el); ok {
		return cached, nil
	}

	attrs := el.GetAttributes(snap)
	childPrev := prevSnap
	if snap != nil && prevSnap != nil {
		switch {
		case !crdt.IsVisible(el, snap):
			attrs = withYchange(attrs, changeOf("removed", el.ID(), compute))
			childPrev = snap // descendants are not re-annotated
		case !crdt.IsVisible(el, prevSnap):
			attrs = withYchange(attrs, changeOf("added", el.ID(), compute))
			childPrev = snap
		}
	}

	children, err := materializeChildren(tx, schema, m, el, snap, childPrev, compute)
	if err != nil {
		return nil, err
	}

	node, buildErr := schema.Node(el.NodeName, attrs, children)
	if buildErr != nil {
		// Schema rejection: a concurrent remote edit produced a
		// combination this replica's schema forbids. Self-heal by
		// deleting el from the CRDT inside its own transaction and
		// filtering it out upstream (spec.md §4.3, §7.1).
		crdt.DeleteNode(tx, el)
		return nil, nil
	}

	m.SetNode(el, node)
	return node, nil
}

func withYchange(attrs map[string]any, change any) map[string]any {
	out := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	out["ychange"] = change
	return out
}
