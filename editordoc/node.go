package editordoc

import "fmt"

// NodeType names a node's kind and whether it carries text.
type NodeType struct {
	Name   string
	IsText bool
}

// Node is the editor tree node spec.md §3 describes: typed, with an
// attribute map, and either inline text (IsText, a Text string, and Marks)
// or a Content of child nodes.
type Node struct {
	Type    NodeType
	Attrs   map[string]any
	Text    string
	Marks   []Mark
	Content []*Node
}

// Node constructs a non-text element node, validating attrs; recursing is
// the caller's responsibility (children are assembled bottom-up).
// Construction fails if name is unknown to the schema or attrs don't
// validate — spec.md §3.
func (s *Schema) Node(name string, attrs map[string]any, children []*Node) (*Node, error) {
	spec, err := s.nodeSpec(name)
	if err != nil {
		return nil, err
	}
	if spec.IsText {
		return nil, fmt.Errorf("editordoc: %q is a text type, use Schema.Text", name)
	}
	validated, err := validateAttrs("node "+name, spec.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	return &Node{
		Type:    NodeType{Name: name, IsText: false},
		Attrs:   validated,
		Content: children,
	}, nil
}

// Text constructs an inline text node carrying marks.
func (s *Schema) Text(text string, marks []Mark) (*Node, error) {
	if text == "" {
		return nil, fmt.Errorf("editordoc: text node must be non-empty")
	}
	return &Node{
		Type:  NodeType{Name: "text", IsText: true},
		Text:  text,
		Marks: marks,
	}, nil
}

// ChildCount returns len(Content) for an element node, or 0 for text.
func (n *Node) ChildCount() int {
	if n.Type.IsText {
		return 0
	}
	return len(n.Content)
}

// Mark returns the named mark on a text node, if present.
func (n *Node) Mark(name string) (Mark, bool) {
	for _, m := range n.Marks {
		if m.Type.Name == name {
			return m, true
		}
	}
	return Mark{}, false
}
