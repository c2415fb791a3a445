package crdt

// Snapshot is the (deleteSet, stateVector) pair from spec.md §3/§6: opaque
// except that two of them bound a diff.
type Snapshot struct {
	DeleteSet   *DeleteSet
	StateVector StateVector
}

// CreateSnapshot captures doc's current (deleteSet, stateVector).
func CreateSnapshot(doc *Doc) *Snapshot {
	return &Snapshot{DeleteSet: doc.DeleteSet(), StateVector: doc.StateVector()}
}

// CreateDeleteSet returns a fresh empty delete set, spec.md §6.
func CreateDeleteSet() *DeleteSet { return NewDeleteSet() }

// EmptySnapshot is used by the Snapshot Renderer (C7) when no prevSnapshot
// is given: spec.md §4.8 "use the empty snapshot (emptyDeleteSet,
// emptyStateVector)".
func EmptySnapshot() *Snapshot {
	return &Snapshot{DeleteSet: NewDeleteSet(), StateVector: NewStateVector()}
}

// TypeListToArraySnapshot returns n's visible children bound to snap,
// spec.md §6. n must be an XmlFragment or XmlElement.
func TypeListToArraySnapshot(n XmlNode, snap *Snapshot) []XmlNode {
	switch v := n.(type) {
	case *XmlFragment:
		return v.ToArraySnapshot(snap)
	case *XmlElement:
		return v.ToArraySnapshot(snap)
	default:
		return nil
	}
}

// DeletedStruct is one tombstoned item surfaced by IterateDeletedStructs.
type DeletedStruct struct {
	ID ID
}

// IterateDeletedStructs walks every item covered by ds and invokes fn for
// each, mirroring spec.md §6's iterateDeletedStructs — used by the
// permanent-user-data precondition in §4.8 ("forces lazy state to
// materialize on this replica").
func (doc *Doc) IterateDeletedStructs(ds *DeleteSet, fn func(DeletedStruct)) {
	if ds == nil {
		return
	}
	for client, rs := range ds.ranges {
		for _, r := range rs {
			for clock := r.Start; clock < r.End; clock++ {
				fn(DeletedStruct{ID: ID{Client: client, Clock: clock}})
			}
		}
	}
}
