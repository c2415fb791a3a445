package editordoc

// Mark is an inline formatting annotation, spec.md glossary: "an inline
// formatting annotation (name, attrs) attached to an editor text node".
type Mark struct {
	Type  MarkType
	Attrs map[string]any
}

// MarkType names a mark's kind.
type MarkType struct {
	Name string
}

// Mark constructs a mark of the given type, validating attrs against the
// schema.
func (s *Schema) Mark(name string, attrs map[string]any) (Mark, error) {
	spec, err := s.markSpec(name)
	if err != nil {
		return Mark{}, err
	}
	validated, err := validateAttrs("mark "+name, spec.Attrs, attrs)
	if err != nil {
		return Mark{}, err
	}
	return Mark{Type: MarkType{Name: name}, Attrs: validated}, nil
}
