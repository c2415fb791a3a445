// Package editordoc is a small, idiomatic stand-in for the rich-text
// editor document model spec.md §1/§6 treats as an external collaborator:
// "The editor framework itself: its schema, transaction objects, node/mark
// types... The core consumes a tree of typed nodes and produces
// replacement transactions." No such editor exists in the Go ecosystem, so
// this package gives the reconcile package something concrete to drive in
// tests and in the demo server, modeled after ProseMirror's schema/node/
// mark shape that spec.md's vocabulary (Node, Schema, Mark) is drawn from.
package editordoc

import "fmt"

// AttrSpec describes one attribute a node or mark type accepts.
type AttrSpec struct {
	Default  any
	Required bool
}

// NodeTypeSpec describes one node type in a Schema.
type NodeTypeSpec struct {
	Name   string
	IsText bool
	// Inline marks whether this node type may appear among a parent's
	// inline (text-run) content, i.e. is itself text or a text decoration.
	Inline bool
	Attrs  map[string]AttrSpec
}

// MarkTypeSpec describes one mark type in a Schema.
type MarkTypeSpec struct {
	Name  string
	Attrs map[string]AttrSpec
}

// Schema constructs nodes and marks, validating attributes and rejecting
// unknown type names or malformed combinations — spec.md §3: "construction
// may fail if attributes or marks do not validate."
type Schema struct {
	nodes map[string]NodeTypeSpec
	marks map[string]MarkTypeSpec
}

// NewSchema builds a schema from node and mark specs.
func NewSchema(nodes []NodeTypeSpec, marks []MarkTypeSpec) *Schema {
	s := &Schema{nodes: make(map[string]NodeTypeSpec), marks: make(map[string]MarkTypeSpec)}
	for _, n := range nodes {
		s.nodes[n.Name] = n
	}
	for _, m := range marks {
		s.marks[m.Name] = m
	}
	return s
}

func (s *Schema) nodeSpec(name string) (NodeTypeSpec, error) {
	spec, ok := s.nodes[name]
	if !ok {
		return NodeTypeSpec{}, fmt.Errorf("editordoc: unknown node type %q", name)
	}
	return spec, nil
}

func (s *Schema) markSpec(name string) (MarkTypeSpec, error) {
	spec, ok := s.marks[name]
	if !ok {
		return MarkTypeSpec{}, fmt.Errorf("editordoc: unknown mark type %q", name)
	}
	return spec, nil
}

func validateAttrs(kind string, specs map[string]AttrSpec, attrs map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(specs))
	for key, spec := range specs {
		v, given := attrs[key]
		if !given {
			if spec.Required {
				return nil, fmt.Errorf("editordoc: %s missing required attribute %q", kind, key)
			}
			out[key] = spec.Default
			continue
		}
		out[key] = v
	}
	for key := range attrs {
		if _, known := specs[key]; !known && key != "ychange" {
			return nil, fmt.Errorf("editordoc: %s has unknown attribute %q", kind, key)
		}
	}
	if v, ok := attrs["ychange"]; ok {
		out["ychange"] = v
	}
	return out, nil
}
