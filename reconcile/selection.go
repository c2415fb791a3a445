package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// capturedSelection is C8's {anchor, head} relative-position pair, spec.md
// §4.9. Either end may be nil if its absolute offset had no resolvable
// waypoint at capture time.
type capturedSelection struct {
	Anchor *crdt.RelativePosition
	Head   *crdt.RelativePosition
}

// captureRelative converts view's current selection into CRDT-relative
// coordinates, anchored to item ids rather than integer offsets so it
// survives structural edits elsewhere in the tree.
func captureRelative(view *editordoc.View, root *crdt.XmlFragment) capturedSelection {
	sel := view.State().Selection
	anchor, _ := crdt.AbsolutePositionToRelativePosition(sel.Anchor, root)
	head, _ := crdt.AbsolutePositionToRelativePosition(sel.Head, root)
	return capturedSelection{Anchor: anchor, Head: head}
}

// restoreRelative converts rel back to absolute offsets and, if both ends
// resolve, sets the resulting selection on tr. A one-sided or total
// resolution failure leaves tr's selection untouched (spec.md §7: "Position
// conversion failure — selection silently not restored").
func restoreRelative(tr *editordoc.Transaction, rel capturedSelection, root *crdt.XmlFragment) {
	if rel.Anchor == nil || rel.Head == nil {
		return
	}
	anchor, errA := crdt.RelativePositionToAbsolutePosition(rel.Anchor, root)
	head, errH := crdt.RelativePositionToAbsolutePosition(rel.Head, root)
	if errA != nil || errH != nil {
		return
	}
	tr.SetSelection(editordoc.Selection{Anchor: anchor, Head: head})
}
