package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVisibleAcrossSnapshots(t *testing.T) {
	doc := NewDoc("client-a")
	frag := doc.Get()

	var el *XmlElement
	doc.Transact(nil, func(tx *Transaction) {
		el = NewXmlElement(doc, "paragraph")
		frag.Insert(tx, 0, []XmlNode{el})
	})
	before := CreateSnapshot(doc)

	doc.Transact(nil, func(tx *Transaction) {
		frag.Delete(tx, 0, 1)
	})
	after := CreateSnapshot(doc)

	assert.True(t, IsVisible(el, before), "must be visible in the snapshot taken before deletion")
	assert.False(t, IsVisible(el, after), "must not be visible in the snapshot taken after deletion")
	assert.False(t, IsVisible(el, nil), "nil snapshot means live view, which now reflects the deletion")
}

func TestEmptySnapshotIsEmpty(t *testing.T) {
	s := EmptySnapshot()
	require.NotNil(t, s.DeleteSet)
	require.NotNil(t, s.StateVector)
	assert.Empty(t, s.StateVector)
}
