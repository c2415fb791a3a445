package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

func testSchema() *editordoc.Schema {
	return editordoc.NewSchema(
		[]editordoc.NodeTypeSpec{
			{Name: "doc"},
			{Name: "paragraph"},
			{Name: "heading", Attrs: map[string]editordoc.AttrSpec{"level": {Default: 1}}},
		},
		[]editordoc.MarkTypeSpec{
			{Name: "bold"},
			{Name: "ychange", Attrs: map[string]editordoc.AttrSpec{
				"type":  {},
				"user":  {},
				"color": {},
			}},
		},
	)
}

func paragraphWithText(t *testing.T, schema *editordoc.Schema, text string) *editordoc.Node {
	t.Helper()
	textNode, err := schema.Text(text, nil)
	require.NoError(t, err)
	para, err := schema.Node("paragraph", nil, []*editordoc.Node{textNode})
	require.NoError(t, err)
	return para
}

// TestReconcileTreeScenario1 is spec.md §8 scenario 1: empty fragment,
// editor dispatches a single paragraph with text "ab".
func TestReconcileTreeScenario1(t *testing.T) {
	schema := testSchema()
	doc := crdt.NewDoc("client-a")
	frag := doc.Get()
	m := NewIdentityMap()

	para := paragraphWithText(t, schema, "ab")
	target, err := schema.Node("doc", nil, []*editordoc.Node{para})
	require.NoError(t, err)

	doc.Transact(nil, func(tx *crdt.Transaction) {
		require.NoError(t, ReconcileTree(tx, m, frag, target))
	})

	children := frag.ToArray()
	require.Len(t, children, 1)
	el, ok := children[0].(*crdt.XmlElement)
	require.True(t, ok)
	assert.Equal(t, "paragraph", el.NodeName)

	elChildren := el.ToArray()
	require.Len(t, elChildren, 1)
	text, ok := elChildren[0].(*crdt.XmlText)
	require.True(t, ok)
	delta := text.ToDelta(nil, nil, nil)
	require.Len(t, delta, 1)
	assert.Equal(t, "ab", delta[0].Insert)
}

// TestReconcileTreeScenario3 is spec.md §8 scenario 3: <doc><p>hello</p>
// <p>world</p></doc>; replacing the first paragraph with <h1>HELLO</h1>
// leaves the second paragraph's CRDT element identity unchanged (P2).
func TestReconcileTreeScenario3(t *testing.T) {
	schema := testSchema()
	doc := crdt.NewDoc("client-a")
	frag := doc.Get()
	m := NewIdentityMap()

	p1 := paragraphWithText(t, schema, "hello")
	p2 := paragraphWithText(t, schema, "world")
	initial, err := schema.Node("doc", nil, []*editordoc.Node{p1, p2})
	require.NoError(t, err)

	doc.Transact(nil, func(tx *crdt.Transaction) {
		require.NoError(t, ReconcileTree(tx, m, frag, initial))
	})

	secondParaBefore := frag.ToArray()[1]

	headingText, err := schema.Text("HELLO", nil)
	require.NoError(t, err)
	heading, err := schema.Node("heading", map[string]any{"level": 1}, []*editordoc.Node{headingText})
	require.NoError(t, err)
	updated, err := schema.Node("doc", nil, []*editordoc.Node{heading, p2})
	require.NoError(t, err)

	doc.Transact(nil, func(tx *crdt.Transaction) {
		require.NoError(t, ReconcileTree(tx, m, frag, updated))
	})

	after := frag.ToArray()
	require.Len(t, after, 2)
	firstEl := after[0].(*crdt.XmlElement)
	assert.Equal(t, "heading", firstEl.NodeName)

	secondParaAfter := after[1]
	assert.Equal(t, secondParaBefore.ID(), secondParaAfter.ID(), "sibling element identity must survive a sibling's replacement")
}

// TestReconcileTreeIdempotence is P4: reconciling against an already
// equalTypeNode-equivalent document must not touch the sole tracked
// observable side effect of a mutation: element identity and child count.
func TestReconcileTreeIdempotence(t *testing.T) {
	schema := testSchema()
	doc := crdt.NewDoc("client-a")
	frag := doc.Get()
	m := NewIdentityMap()

	para := paragraphWithText(t, schema, "same")
	target, err := schema.Node("doc", nil, []*editordoc.Node{para})
	require.NoError(t, err)

	doc.Transact(nil, func(tx *crdt.Transaction) {
		require.NoError(t, ReconcileTree(tx, m, frag, target))
	})
	before := frag.ToArray()[0].ID()

	doc.Transact(nil, func(tx *crdt.Transaction) {
		require.NoError(t, ReconcileTree(tx, m, frag, target))
	})
	after := frag.ToArray()
	require.Len(t, after, 1)
	assert.Equal(t, before, after[0].ID(), "identical content must not rebuild the element")
}

// TestReconcileTreeSelfHealing is P7 / spec.md §8 scenario 6: a schema
// rejection during materialization deletes the offending element from the
// CRDT so the next reconcile pass no longer sees it.
func TestReconcileTreeSelfHealing(t *testing.T) {
	schema := testSchema()
	doc := crdt.NewDoc("client-a")
	frag := doc.Get()
	m := NewIdentityMap()

	var unknownEl *crdt.XmlElement
	var para *crdt.XmlElement
	doc.Transact(nil, func(tx *crdt.Transaction) {
		unknownEl = crdt.NewXmlElement(doc, "unknown-widget")
		para = crdt.NewXmlElement(doc, "paragraph")
		frag.Insert(tx, 0, []crdt.XmlNode{unknownEl, para})
	})

	var nodes []*editordoc.Node
	var err error
	doc.Transact(nil, func(tx *crdt.Transaction) {
		nodes, err = MaterializeFragmentChildren(tx, schema, m, frag, nil, nil, nil)
	})
	require.NoError(t, err)

	// The unknown element was rejected and dropped; the sibling survives.
	assert.Len(t, nodes, 1)
	remaining := frag.ToArray()
	require.Len(t, remaining, 1)
	assert.Equal(t, para.ID(), remaining[0].ID())
}

// TestMaterializeElementCachedAncestorHidesDeletionUntilNextPass is
// spec.md §9's second open question: on schema rejection the CRDT element
// is deleted right away, but a caller's own identity map still holds
// whatever it had already cached for an ancestor — it only sees the
// deletion the next time that ancestor is freshly reconciled/materialized,
// not merely by calling MaterializeElement again with the same map.
func TestMaterializeElementCachedAncestorHidesDeletionUntilNextPass(t *testing.T) {
	schema := testSchema()
	doc := crdt.NewDoc("client-a")
	m := NewIdentityMap()

	var para *crdt.XmlElement
	var child *crdt.XmlText
	doc.Transact(nil, func(tx *crdt.Transaction) {
		para = crdt.NewXmlElement(doc, "paragraph")
		child = crdt.NewXmlText(doc)
		child.Insert(tx, 0, "hi", nil)
		para.Insert(tx, 0, []crdt.XmlNode{child})
	})

	var before *editordoc.Node
	var err error
	doc.Transact(nil, func(tx *crdt.Transaction) {
		before, err = MaterializeElement(tx, schema, m, para, nil, nil, nil)
	})
	require.NoError(t, err)
	require.Len(t, before.Content, 1)

	// Delete the child directly, bypassing any reconcile/invalidate call —
	// the same situation a nested schema-rejection deep in the tree would
	// leave behind: the CRDT changed, m's entry for para did not.
	doc.Transact(nil, func(tx *crdt.Transaction) {
		crdt.DeleteNode(tx, child)
	})

	var after *editordoc.Node
	doc.Transact(nil, func(tx *crdt.Transaction) {
		after, err = MaterializeElement(tx, schema, m, para, nil, nil, nil)
	})
	require.NoError(t, err)
	assert.Same(t, before, after, "a cache hit on the ancestor returns the stale node as-is")
	assert.Len(t, after.Content, 1, "the deletion is not reflected until the ancestor's own entry is invalidated")

	// Only once the caller invalidates para's entry (what a real reconcile
	// pass does via the binding's deep-observer invalidation) does a fresh
	// materialize observe the child's removal.
	m.Delete(para)
	var fresh *editordoc.Node
	doc.Transact(nil, func(tx *crdt.Transaction) {
		fresh, err = MaterializeElement(tx, schema, m, para, nil, nil, nil)
	})
	require.NoError(t, err)
	assert.Empty(t, fresh.Content, "a fresh materialize pass finally observes the deletion")
}
