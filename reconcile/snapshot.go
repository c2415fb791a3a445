package reconcile

import "github.com/Polqt/docsync/crdt"

// computeChange resolves a snapshot-diff annotation to an
// author+color-attributed value, spec.md §4.8. Falls back to {type: kind}
// when no PermanentUserData is configured.
func (b *Binding) computeChange(kind string, id crdt.ID) any {
	if b.pud == nil {
		return map[string]any{"type": kind}
	}
	var user *crdt.User
	switch kind {
	case "added":
		user = b.pud.GetUserByClientID(id.Client)
	case "removed":
		user = b.pud.GetUserByDeletedID(id)
	}
	if user == nil {
		return map[string]any{"type": kind}
	}
	color := b.colors.ColorFor(user.ID)
	return map[string]any{"type": kind, "user": user.Name, "color": color.Dark}
}

// RenderSnapshot is C7's renderSnapshot(snapshot, prevSnapshot). If prev
// is nil, the empty snapshot is used (spec.md §4.8). Forces the permanent
// user data's lazy deleted-structs index to materialize before the
// change-annotation pass runs, since getUserByDeletedId depends on it.
func (b *Binding) RenderSnapshot(snapshot, prev *crdt.Snapshot) {
	if prev == nil {
		prev = crdt.EmptySnapshot()
	}
	b.identity.Clear()
	b.snapshot = snapshot
	b.prevSnapshot = prev

	b.gate.Run(func() {
		b.doc.Transact(nil, func(tx *crdt.Transaction) {
			if b.pud != nil {
				b.pud.MaterializeDeleted(tx.Doc(), snapshot.DeleteSet)
				b.pud.MaterializeDeleted(tx.Doc(), prev.DeleteSet)
			}
		})
		b.applyEditorChange()
	})
}

// UnrenderSnapshot is C7's unrenderSnapshot(): return to the live
// document. Idempotent — RenderSnapshot and UnrenderSnapshot each clear the
// identity map before rebuilding, so a render superseded before it runs is
// still safe (spec.md §5 "Cancellation: none").
func (b *Binding) UnrenderSnapshot() {
	b.identity.Clear()
	b.snapshot = nil
	b.prevSnapshot = nil
	b.gate.Run(func() {
		b.applyEditorChange()
	})
}
