package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

func TestCaptureAndRestoreRelativeSelection(t *testing.T) {
	doc := crdt.NewDoc("client-a")
	frag := doc.Get()

	var text *crdt.XmlText
	doc.Transact(nil, func(tx *crdt.Transaction) {
		text = crdt.NewXmlText(doc)
		text.Insert(tx, 0, "hello", nil)
		frag.Insert(tx, 0, []crdt.XmlNode{text})
	})

	schema := testSchema()
	doc2, err := schema.Node("doc", nil, nil)
	require.NoError(t, err)
	view := editordoc.NewView(editordoc.State{Doc: doc2, Schema: schema, Selection: editordoc.Selection{Anchor: 2, Head: 2}})

	rel := captureRelative(view, frag)
	require.NotNil(t, rel.Anchor)
	require.NotNil(t, rel.Head)

	tr := editordoc.NewTransaction(view.State())
	restoreRelative(tr, rel, frag)
	view.Dispatch(tr)

	assert.Equal(t, editordoc.Selection{Anchor: 2, Head: 2}, view.State().Selection)
}

func TestRestoreRelativeSilentlyNoOpsOnUnresolvable(t *testing.T) {
	doc := crdt.NewDoc("client-a")
	frag := doc.Get()

	schema := testSchema()
	docNode, err := schema.Node("doc", nil, nil)
	require.NoError(t, err)
	view := editordoc.NewView(editordoc.State{Doc: docNode, Schema: schema, Selection: editordoc.Selection{Anchor: 9, Head: 9}})

	rel := capturedSelection{} // nothing resolvable
	tr := editordoc.NewTransaction(view.State())
	restoreRelative(tr, rel, frag)
	view.Dispatch(tr)

	assert.Equal(t, editordoc.Selection{Anchor: 9, Head: 9}, view.State().Selection, "an unresolvable capture must leave the prior selection untouched")
}
