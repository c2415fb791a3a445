package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

func TestIdentityMapNodeRoundTrip(t *testing.T) {
	doc := crdt.NewDoc("client-a")
	el := crdt.NewXmlElement(doc, "paragraph")
	schema := testSchema()
	node, err := schema.Node("paragraph", nil, nil)
	require.NoError(t, err)

	m := NewIdentityMap()
	assert.False(t, m.Has(el))

	m.SetNode(el, node)
	got, ok := m.GetNode(el)
	assert.True(t, ok)
	assert.Same(t, node, got)

	_, ok = m.GetRun(el)
	assert.False(t, ok, "a node entry must not satisfy a run lookup")
}

func TestIdentityMapDeleteAndClear(t *testing.T) {
	doc := crdt.NewDoc("client-a")
	el := crdt.NewXmlElement(doc, "paragraph")
	schema := testSchema()
	node, err := schema.Node("paragraph", nil, nil)
	require.NoError(t, err)

	m := NewIdentityMap()
	m.SetNode(el, node)
	m.Delete(el)
	assert.False(t, m.Has(el))

	m.SetNode(el, node)
	m.Clear()
	assert.False(t, m.Has(el))
}

func TestIdentityMapRunIdentity(t *testing.T) {
	doc := crdt.NewDoc("client-a")
	y := crdt.NewXmlText(doc)
	schema := testSchema()
	n1, err := schema.Text("hello", nil)
	require.NoError(t, err)
	run := []*editordoc.Node{n1}

	m := NewIdentityMap()
	m.SetRun(y, run)

	assert.True(t, mappedIdentity(m, y, textGroup(run)))
	assert.False(t, mappedIdentity(m, y, textGroup([]*editordoc.Node{n1, n1})), "different length run must not match")

	n2, err := schema.Text("world", nil)
	require.NoError(t, err)
	assert.False(t, mappedIdentity(m, y, textGroup([]*editordoc.Node{n2})))
}
