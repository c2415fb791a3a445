package reconcile

import (
	"go.uber.org/zap"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// remoteOrigin tags the read-only CRDT transaction that applyEditorChange
// opens to materialize the fragment. The binding's own afterTransaction
// hook does not inspect the origin; that transaction's translation is
// dropped because the gate is already held.
type remoteOrigin struct{}

// isChangeOriginKey is the editor transaction meta key spec.md §4.1
// requires plugins to check: "transactions flagged isChangeOrigin:true
// MUST be recognizable by other plugins as remote-originated."
const isChangeOriginKey = "isChangeOrigin"

// Options configures a Binding, spec.md §4.1's opts: colors, colorMapping,
// permanentUserData. All fields are optional.
type Options struct {
	Colors            []ColorPair
	ColorMapping      map[string]ColorPair
	PermanentUserData *crdt.PermanentUserData
	RandIntN          func(int) int
	Logger            *zap.Logger
}

// Binding is C9: owns C1-C8, wires the CRDT fragment's deep observer and
// the editor view's dispatch to each other, and enforces the re-entrancy
// gate around every translation.
type Binding struct {
	doc    *crdt.Doc
	frag   *crdt.XmlFragment
	view   *editordoc.View
	schema *editordoc.Schema

	identity *IdentityMap
	gate     *Gate
	colors   *ColorAllocator
	pud      *crdt.PermanentUserData

	snapshot     *crdt.Snapshot
	prevSnapshot *crdt.Snapshot

	pendingSelection *capturedSelection
	everNonTrivial   bool

	log *zap.Logger
}

// New is C9's create(fragment, view, opts): subscribes to frag's deep
// observer and to its document's before/afterTransaction hooks, and wires
// the view's dispatch callback for the Editor→CRDT direction.
func New(frag *crdt.XmlFragment, view *editordoc.View, schema *editordoc.Schema, opts Options) *Binding {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &Binding{
		doc:      frag.Doc(),
		frag:     frag,
		view:     view,
		schema:   schema,
		identity: NewIdentityMap(),
		gate:     NewGate(),
		colors:   NewColorAllocator(opts.Colors, opts.ColorMapping, opts.RandIntN),
		pud:      opts.PermanentUserData,
		log:      log,
	}

	b.doc.OnBeforeTransaction(func(*crdt.Transaction) {
		if b.pendingSelection == nil {
			sel := captureRelative(b.view, b.frag)
			b.pendingSelection = &sel
		}
	})
	b.doc.OnAfterTransaction(func(*crdt.Transaction) {
		defer func() { b.pendingSelection = nil }()
		// The gate is the sole re-entrancy guard (spec.md §7): when this
		// transaction is our own Editor→CRDT translation, or the
		// transaction applyEditorChange opens purely to read the
		// fragment, the gate is already held and this call is dropped.
		// A genuine remote transaction arrives with the gate free, so
		// the translation actually runs.
		b.gate.Run(func() {
			b.applyEditorChange()
		})
	})
	frag.ObserveDeep(func(events []crdt.Event) {
		b.invalidate(events)
	})
	view.OnApply(func(prev, next editordoc.State, tr *editordoc.Transaction) {
		if _, ok := tr.GetMeta(isChangeOriginKey); ok {
			// This transaction was produced by us (C3/C7 output); do not
			// feed it back into Editor→CRDT translation.
			return
		}
		b.onEditorUpdate(next)
	})

	return b
}

// onEditorUpdate is the Editor→CRDT half of spec.md §4.1's data flow.
func (b *Binding) onEditorUpdate(next editordoc.State) {
	if b.snapshot != nil {
		return // read-only while a historical snapshot is rendered
	}
	if !b.everNonTrivial && contentSize(next.Doc) <= 2 {
		// The size-2 gate: a fresh editor schema always starts with one
		// empty block; translating that on first load would dirty the
		// CRDT with a no-op operation (spec.md §4.1).
		return
	}
	b.everNonTrivial = true

	b.gate.Run(func() {
		b.doc.Transact(nil, func(tx *crdt.Transaction) {
			if err := ReconcileTree(tx, b.identity, b.frag, next.Doc); err != nil {
				b.log.Error("tree reconcile failed", zap.Error(err))
			}
		})
	})
}

// contentSize counts n's content in editor positions: each text node adds its
// length and each element adds its own content plus an opening and a closing
// boundary, so a doc holding one empty paragraph measures 2.
func contentSize(n *editordoc.Node) int {
	size := 0
	for _, c := range n.Content {
		if c.Type.IsText {
			size += len(c.Text)
			continue
		}
		size += 2 + contentSize(c)
	}
	return size
}

// invalidate drops identity-map entries for every node touched by a
// transaction's event batch, and for each such node's ancestors, whose
// cached editor nodes embed the stale subtree, spec.md §4.1: "invalidates
// entries in C1 for every changed or deleted type."
func (b *Binding) invalidate(events []crdt.Event) {
	for _, e := range events {
		for n := e.Target; n != nil; n = n.Parent() {
			b.identity.Delete(n)
		}
	}
}

// applyEditorChange is the CRDT→Editor half: rebuild the top-level
// content from the fragment and dispatch one replacement transaction
// tagged isChangeOrigin, restoring selection via C8.
func (b *Binding) applyEditorChange() {
	// The read transaction below fires the after hook again, which clears
	// pendingSelection; keep the selection captured for this change.
	sel := b.pendingSelection
	var nodes []*editordoc.Node
	var err error
	b.doc.Transact(remoteOrigin{}, func(tx *crdt.Transaction) {
		nodes, err = MaterializeFragmentChildren(tx, b.schema, b.identity, b.frag, b.snapshot, b.prevSnapshot, b.computeChange)
	})
	if err != nil {
		b.log.Error("materialize failed", zap.Error(err))
		return
	}

	doc, buildErr := b.schema.Node("doc", nil, nodes)
	if buildErr != nil {
		b.log.Error("editor doc rejected materialized content", zap.Error(buildErr))
		return
	}

	tr := editordoc.NewTransaction(b.view.State()).ReplaceContent(doc).SetMeta(isChangeOriginKey, true)
	if sel != nil {
		restoreRelative(tr, *sel, b.frag)
	}
	b.view.Dispatch(tr)
}

// ForceRerender discards the identity map and rebuilds the editor document
// from the live CRDT fragment from scratch.
func (b *Binding) ForceRerender() {
	b.identity.Clear()
	b.gate.Run(func() {
		b.applyEditorChange()
	})
}

// Destroy breaks the binding's cyclic ownership with the view: unobserve
// the fragment so neither side retains the other (spec.md §9).
func (b *Binding) Destroy() {
	b.frag.UnobserveDeep()
	b.identity.Clear()
}

// Editable reports whether local edits should be accepted — derived from
// "snapshot == null" per spec.md §6.
func (b *Binding) Editable() bool { return b.snapshot == nil }

// ColorMapping exposes the current author->color assignments, part of the
// plugin-state surface spec.md §6 names ("colorMapping").
func (b *Binding) ColorMapping() map[string]ColorPair { return b.colors.Mapping() }
