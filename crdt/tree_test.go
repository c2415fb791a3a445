package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentInsertAndDelete(t *testing.T) {
	doc := NewDoc("client-a")
	frag := doc.Get()

	var el *XmlElement
	doc.Transact(nil, func(tx *Transaction) {
		el = NewXmlElement(doc, "paragraph")
		frag.Insert(tx, 0, []XmlNode{el})
	})

	require.Len(t, frag.ToArray(), 1)
	assert.Equal(t, el, frag.ToArray()[0])
	assert.Equal(t, XmlNode(frag), el.Parent())

	doc.Transact(nil, func(tx *Transaction) {
		frag.Delete(tx, 0, 1)
	})
	assert.Empty(t, frag.ToArray())
}

func TestElementAttributes(t *testing.T) {
	doc := NewDoc("client-a")
	frag := doc.Get()

	var el *XmlElement
	doc.Transact(nil, func(tx *Transaction) {
		el = NewXmlElement(doc, "paragraph")
		frag.Insert(tx, 0, []XmlNode{el})
		el.SetAttribute(tx, "align", "center")
	})

	assert.Equal(t, "center", el.GetAttributes(nil)["align"])

	doc.Transact(nil, func(tx *Transaction) {
		el.RemoveAttribute(tx, "align")
	})
	_, ok := el.GetAttributes(nil)["align"]
	assert.False(t, ok)
}

func TestNestedElementChildren(t *testing.T) {
	doc := NewDoc("client-a")
	frag := doc.Get()

	var outer, inner *XmlElement
	doc.Transact(nil, func(tx *Transaction) {
		outer = NewXmlElement(doc, "doc")
		inner = NewXmlElement(doc, "paragraph")
		frag.Insert(tx, 0, []XmlNode{outer})
		outer.Insert(tx, 0, []XmlNode{inner})
	})

	require.Len(t, outer.ToArray(), 1)
	assert.Equal(t, inner, outer.ToArray()[0])
	assert.Equal(t, XmlNode(outer), inner.Parent())
}

func TestXmlTextInsertDeleteAndPlainText(t *testing.T) {
	doc := NewDoc("client-a")
	var text *XmlText
	doc.Transact(nil, func(tx *Transaction) {
		text = NewXmlText(doc)
		text.Insert(tx, 0, "hello world", nil)
	})
	assert.Equal(t, "hello world", text.PlainText())

	doc.Transact(nil, func(tx *Transaction) {
		text.Delete(tx, 5, 6) // remove " world"
	})
	assert.Equal(t, "hello", text.PlainText())
}

func TestXmlTextApplyDeltaInsertWithAttributes(t *testing.T) {
	doc := NewDoc("client-a")
	var text *XmlText
	doc.Transact(nil, func(tx *Transaction) {
		text = NewXmlText(doc)
		text.ApplyDelta(tx, []DeltaOp{
			{Insert: "bold", Attributes: map[string]any{"bold": true}},
			{Insert: " plain"},
		})
	})

	assert.Equal(t, "bold plain", text.PlainText())
	delta := text.ToDelta(nil, nil, nil)
	require.Len(t, delta, 2)
	assert.Equal(t, "bold", delta[0].Insert)
	assert.Equal(t, true, delta[0].Attributes["bold"])
	assert.Equal(t, " plain", delta[1].Insert)
}

func TestXmlTextActiveAttributeKeys(t *testing.T) {
	doc := NewDoc("client-a")
	var text *XmlText
	doc.Transact(nil, func(tx *Transaction) {
		text = NewXmlText(doc)
		text.Insert(tx, 0, "hi", map[string]any{"bold": true})
	})
	keys := text.ActiveAttributeKeys()
	_, ok := keys["bold"]
	assert.True(t, ok)
}

func TestDeepObserverFiresOnNestedChange(t *testing.T) {
	doc := NewDoc("client-a")
	frag := doc.Get()

	var events []Event
	frag.ObserveDeep(func(evs []Event) { events = append(events, evs...) })

	doc.Transact(nil, func(tx *Transaction) {
		el := NewXmlElement(doc, "paragraph")
		frag.Insert(tx, 0, []XmlNode{el})
	})

	assert.NotEmpty(t, events)
}
