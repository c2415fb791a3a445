package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

func TestEqualAttrsIgnoresNullAndYchange(t *testing.T) {
	a := map[string]any{"level": 1, "ychange": "whatever", "dropped": nil}
	b := map[string]any{"level": 1}
	assert.True(t, equalAttrs(a, b))
}

func TestEqualAttrsDetectsDifference(t *testing.T) {
	a := map[string]any{"level": 1}
	b := map[string]any{"level": 2}
	assert.False(t, equalAttrs(a, b))
}

func TestNormalizeCollapsesTextRuns(t *testing.T) {
	schema := testSchema()
	text1, err := schema.Text("a", nil)
	require.NoError(t, err)
	text2, err := schema.Text("b", nil)
	require.NoError(t, err)
	heading, err := schema.Node("heading", nil, nil)
	require.NoError(t, err)
	para, err := schema.Node("paragraph", nil, []*editordoc.Node{text1, text2, heading})
	require.NoError(t, err)

	groups := normalize(para)
	require.Len(t, groups, 2)
	assert.True(t, groups[0].isText())
	assert.Len(t, groups[0].run, 2)
	assert.False(t, groups[1].isText())
}

func TestEqualTypeNodeElementMatch(t *testing.T) {
	schema := testSchema()
	doc := crdt.NewDoc("client-a")
	el := crdt.NewXmlElement(doc, "paragraph")
	para, err := schema.Node("paragraph", nil, nil)
	require.NoError(t, err)

	assert.True(t, equalTypeNode(el, elementGroup(para)))

	other, err := schema.Node("heading", nil, nil)
	require.NoError(t, err)
	assert.False(t, equalTypeNode(el, elementGroup(other)))
}

func TestMarksToAttrsExcludesYchange(t *testing.T) {
	ychangeMark := editordoc.Mark{Type: editordoc.MarkType{Name: "ychange"}}
	boldMark := editordoc.Mark{Type: editordoc.MarkType{Name: "bold"}}
	out := marksToAttrs([]editordoc.Mark{ychangeMark, boldMark})
	_, hasYchange := out["ychange"]
	_, hasBold := out["bold"]
	assert.False(t, hasYchange)
	assert.True(t, hasBold)
}
