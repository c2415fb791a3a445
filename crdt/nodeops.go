package crdt

// IsVisible reports whether node n itself (as opposed to its position in a
// parent's child list) is visible under snap (nil means "current, live").
// Used by the Tree Materializer (spec.md §4.3) to decide ychange
// annotation independent of how the parent iterated its children.
func IsVisible(n XmlNode, snap *Snapshot) bool {
	return isVisible(n.ID(), n.IsDeleted(), snap)
}

// DeleteNode removes n from its parent container, wherever that parent is
// a fragment or an element. Used by the materializers' self-healing path
// (spec.md §4.3/§4.4/§7): "the offending CRDT element/text is deleted in
// its own document transaction". Returns ErrDetached if n has already been
// removed from its parent (or was never attached).
func DeleteNode(tx *Transaction, n XmlNode) error {
	parent := n.Parent()
	if parent == nil {
		return ErrDetached
	}
	var ok bool
	switch p := parent.(type) {
	case *XmlFragment:
		ok = p.DeleteByID(tx, n.ID())
	case *XmlElement:
		ok = p.DeleteByID(tx, n.ID())
	}
	if !ok {
		return ErrDetached
	}
	return nil
}
