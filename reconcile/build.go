package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// buildFromElement is spec.md §4.7's buildFromElement(node, map): create
// with node.type.name; for every attribute whose value is non-null and key
// != "ychange", set it; insert at 0 the result of buildFromGroup applied
// to each item of normalize(node); map.set(new, node).
func buildFromElement(tx *crdt.Transaction, m *IdentityMap, node *editordoc.Node) *crdt.XmlElement {
	el := crdt.NewXmlElement(tx.Doc(), node.Type.Name)
	for key, value := range node.Attrs {
		if value == nil || key == "ychange" {
			continue
		}
		el.SetAttribute(tx, key, value)
	}
	groups := normalize(node)
	children := make([]crdt.XmlNode, len(groups))
	for i, g := range groups {
		children[i] = buildFromGroup(tx, m, g)
	}
	el.Insert(tx, 0, children)
	m.SetNode(el, node)
	return el
}

// buildFromTextRun is spec.md §4.7's buildFromTextRun(nodes, map): apply a
// delta [{insert: n.text, attributes: marksToAttrs(n.marks)} for n in
// nodes]; map.set(new, nodes).
func buildFromTextRun(tx *crdt.Transaction, m *IdentityMap, nodes []*editordoc.Node) *crdt.XmlText {
	t := crdt.NewXmlText(tx.Doc())
	ops := make([]crdt.DeltaOp, len(nodes))
	for i, n := range nodes {
		ops[i] = crdt.DeltaOp{Insert: n.Text, Attributes: marksToAttrs(n.Marks)}
	}
	t.ApplyDelta(tx, ops)
	m.SetRun(t, nodes)
	return t
}

// buildFromGroup dispatches a normalize(P) entry to the element or text
// builder.
func buildFromGroup(tx *crdt.Transaction, m *IdentityMap, g childGroup) crdt.XmlNode {
	if g.isText() {
		return buildFromTextRun(tx, m, g.run)
	}
	return buildFromElement(tx, m, g.element)
}
