// Package reconcile is the core of spec.md: the reconciler that keeps a
// rich-text editor document (editordoc) in sync with a replicated CRDT
// tree (crdt). Every identifier below (C1..C9) refers to the component
// table in spec.md §2.
package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// mapValue is the identity map's value type: a sum of "one editor node"
// (for an XmlElement/XmlFragment counterpart) or "an ordered list of
// editor text nodes" (for an XmlText counterpart) — spec.md §3/§9. Kept as
// an explicit tagged struct rather than an interface{} because
// mappedIdentity needs a structural comparison that differs for the two
// shapes (single identity vs. element-wise run identity).
type mapValue struct {
	node *editordoc.Node
	run  []*editordoc.Node
}

func singleValue(n *editordoc.Node) mapValue { return mapValue{node: n} }
func runValue(ns []*editordoc.Node) mapValue { return mapValue{run: ns} }

func (v mapValue) isRun() bool { return v.run != nil }

// IdentityMap is C1: the bidirectional association between CRDT nodes and
// editor nodes described in spec.md §3. Only the CRDT→editor lookup
// direction is ever exercised by the algorithms in §4 (map.get(y),
// map.set(y, p)), so that is the only direction this type implements.
//
// Invariants (spec.md §3):
//   - I1 key uniqueness: every CRDT node appears at most once — guaranteed
//     because entries is a Go map keyed by crdt.XmlNode.
//   - I2 tree-consistency outside a reconcile call: not enforced by the
//     type itself, but by every caller only mutating it from within a
//     gated materialize/reconcile pass (C2).
//   - I3 monotone invalidation: entries are only ever added by
//     materializers/reconcilers and removed by Delete/Clear, called from
//     the specific sites spec.md §3 names (CRDT deletions, snapshot
//     render, forced re-render).
type IdentityMap struct {
	entries map[crdt.XmlNode]mapValue
}

// NewIdentityMap returns an empty map, as created at binding construction
// (spec.md §3 "Lifecycle").
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{entries: make(map[crdt.XmlNode]mapValue)}
}

// GetNode returns the cached editor node for an element/fragment key.
func (m *IdentityMap) GetNode(y crdt.XmlNode) (*editordoc.Node, bool) {
	v, ok := m.entries[y]
	if !ok || v.isRun() {
		return nil, false
	}
	return v.node, true
}

// GetRun returns the cached text run for a text key.
func (m *IdentityMap) GetRun(y crdt.XmlNode) ([]*editordoc.Node, bool) {
	v, ok := m.entries[y]
	if !ok || !v.isRun() {
		return nil, false
	}
	return v.run, true
}

// Has reports whether y has any cached counterpart, regardless of shape.
func (m *IdentityMap) Has(y crdt.XmlNode) bool {
	_, ok := m.entries[y]
	return ok
}

// SetNode caches p as y's counterpart.
func (m *IdentityMap) SetNode(y crdt.XmlNode, p *editordoc.Node) {
	m.entries[y] = singleValue(p)
}

// SetRun caches ps as y's counterpart text run.
func (m *IdentityMap) SetRun(y crdt.XmlNode, ps []*editordoc.Node) {
	m.entries[y] = runValue(ps)
}

// Delete removes y's entry, if any. Spec.md §3 I3(a): called explicitly on
// CRDT deletions.
func (m *IdentityMap) Delete(y crdt.XmlNode) {
	delete(m.entries, y)
}

// Clear empties the map. Spec.md §3 I3(b)/(c): called at the start of a
// snapshot render, at forced re-render, and on destroy.
func (m *IdentityMap) Clear() {
	m.entries = make(map[crdt.XmlNode]mapValue)
}

// mappedIdentity is spec.md §4.5's mappedIdentity(mapped, p): for a single
// node, Go reference identity (the *editordoc.Node pointer is exactly the
// one map.get(y) would return); for a text run, element-wise identity and
// equal length.
func mappedIdentity(m *IdentityMap, y crdt.XmlNode, group childGroup) bool {
	v, ok := m.entries[y]
	if !ok {
		return false
	}
	if group.isText() {
		if !v.isRun() || len(v.run) != len(group.run) {
			return false
		}
		for i := range v.run {
			if v.run[i] != group.run[i] {
				return false
			}
		}
		return true
	}
	return !v.isRun() && v.node == group.element
}
