package editordoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return NewSchema(
		[]NodeTypeSpec{
			{Name: "doc"},
			{Name: "paragraph"},
			{Name: "heading", Attrs: map[string]AttrSpec{"level": {Default: 1}}},
		},
		[]MarkTypeSpec{
			{Name: "bold"},
			{Name: "link", Attrs: map[string]AttrSpec{"href": {Required: true}}},
		},
	)
}

func TestSchemaNodeUnknownType(t *testing.T) {
	s := testSchema()
	_, err := s.Node("table", nil, nil)
	assert.Error(t, err)
}

func TestSchemaNodeDefaultAttrs(t *testing.T) {
	s := testSchema()
	n, err := s.Node("heading", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Attrs["level"])
}

func TestSchemaNodeRejectsUnknownAttr(t *testing.T) {
	s := testSchema()
	_, err := s.Node("paragraph", map[string]any{"bogus": true}, nil)
	assert.Error(t, err)
}

func TestSchemaTextRejectsEmpty(t *testing.T) {
	s := testSchema()
	_, err := s.Text("", nil)
	assert.Error(t, err)
}

func TestSchemaMarkRequiredAttrMissing(t *testing.T) {
	s := testSchema()
	_, err := s.Mark("link", nil)
	assert.Error(t, err)

	m, err := s.Mark("link", map[string]any{"href": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", m.Attrs["href"])
}

func TestNodeChildCount(t *testing.T) {
	s := testSchema()
	text, err := s.Text("hi", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, text.ChildCount())

	para, err := s.Node("paragraph", nil, []*Node{text})
	require.NoError(t, err)
	assert.Equal(t, 1, para.ChildCount())
}

func TestNodeMarkLookup(t *testing.T) {
	s := testSchema()
	bold, err := s.Mark("bold", nil)
	require.NoError(t, err)
	text, err := s.Text("hi", []Mark{bold})
	require.NoError(t, err)

	_, ok := text.Mark("bold")
	assert.True(t, ok)
	_, ok = text.Mark("italic")
	assert.False(t, ok)
}
