package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// MaterializeText is C4: materializeText(xmlText, schema, map, snapshot?,
// prevSnapshot?, computeChange?) -> Node[] | null, spec.md §4.4. A single
// XmlText expands to zero or more editor text nodes — one per delta item,
// each delta item's attributes becoming that node's marks.
func MaterializeText(tx *crdt.Transaction, schema *editordoc.Schema, m *IdentityMap, xmlText *crdt.XmlText, snap, prevSnap *crdt.Snapshot, compute ChangeComputer) ([]*editordoc.Node, error) {
	if cached, ok := m.GetRun(xmlText); ok {
		return cached, nil
	}

	var computeFn func(kind string, id crdt.ID) any
	if compute != nil {
		computeFn = func(kind string, id crdt.ID) any { return compute(kind, id) }
	}
	delta := xmlText.ToDelta(snap, prevSnap, computeFn)

	nodes := make([]*editordoc.Node, 0, len(delta))
	for _, item := range delta {
		marks, err := marksFromAttrs(schema, item.Attributes)
		if err != nil {
			// A mark this schema doesn't recognize: self-heal by
			// deleting the whole text node, same rule C3 applies to a
			// rejected element (spec.md §4.4, §7.1).
			crdt.DeleteNode(tx, xmlText)
			return nil, nil
		}
		node, err := schema.Text(item.Insert, marks)
		if err != nil {
			crdt.DeleteNode(tx, xmlText)
			return nil, nil
		}
		nodes = append(nodes, node)
	}

	m.SetRun(xmlText, nodes)
	return nodes, nil
}

// marksFromAttrs turns a delta item's attribute map into editor marks,
// inverse of marksToAttrs (spec.md §4.6): one mark per key, "ychange"
// passed through as its own mark so downstream rendering can style it.
func marksFromAttrs(schema *editordoc.Schema, attrs map[string]any) ([]editordoc.Mark, error) {
	marks := make([]editordoc.Mark, 0, len(attrs))
	for name, value := range attrs {
		markAttrs, _ := value.(map[string]any)
		mark, err := schema.Mark(name, markAttrs)
		if err != nil {
			return nil, err
		}
		marks = append(marks, mark)
	}
	return marks, nil
}
