package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// simpleDiffResult is the {index, remove, insert} triple spec.md §4.6 step 3
// asks simpleDiff to produce.
type simpleDiffResult struct {
	index  int
	remove int
	insert string
}

// simpleDiff finds the shortest prefix/suffix-trimmed edit between two
// strings: skip the common prefix and common suffix (not overlapping), and
// report the middle of a as removed and the middle of b as inserted. This
// is the same trim-the-ends heuristic the tree reconciler (C5) applies one
// level up. Indices are byte offsets, matching XmlText's own offset
// convention (text.go splits and measures pieces by len(), not rune count).
func simpleDiff(a, b string) simpleDiffResult {
	start := 0
	for start < len(a) && start < len(b) && a[start] == b[start] {
		start++
	}
	endA, endB := len(a), len(b)
	for endA > start && endB > start && a[endA-1] == b[endB-1] {
		endA--
		endB--
	}
	return simpleDiffResult{
		index:  start,
		remove: endA - start,
		insert: b[start:endB],
	}
}

// reconcileText is C6, spec.md §4.6: bring CRDT text y in line with the
// editor text run ps.
func reconcileText(tx *crdt.Transaction, y *crdt.XmlText, ps []*editordoc.Node) {
	currentKeys := y.ActiveAttributeKeys()
	currentPlain := y.PlainText()

	var targetPlain string
	ops := make([]crdt.DeltaOp, 0, len(ps))
	for _, n := range ps {
		targetPlain += n.Text
		attrs := make(map[string]any, len(currentKeys)+len(n.Marks))
		for k := range currentKeys {
			attrs[k] = nil
		}
		for k, v := range marksToAttrs(n.Marks) {
			attrs[k] = v
		}
		ops = append(ops, crdt.DeltaOp{Insert: n.Text, Attributes: attrs})
	}

	diff := simpleDiff(currentPlain, targetPlain)
	if diff.remove > 0 {
		y.Delete(tx, diff.index, diff.remove)
	}
	if diff.insert != "" {
		y.Insert(tx, diff.index, diff.insert, nil)
	}

	retainOps := make([]crdt.DeltaOp, 0, len(ops))
	for _, op := range ops {
		retainOps = append(retainOps, crdt.DeltaOp{Retain: len(op.Insert), Attributes: op.Attributes})
	}
	y.ApplyDelta(tx, retainOps)
}
