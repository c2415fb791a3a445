package reconcile

import (
	"reflect"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// childGroup is one entry of normalize(P)'s output, spec.md §4.5: either a
// single non-text element node, or a maximal run of text nodes collapsed
// into a list. CRDT children are naturally either *crdt.XmlElement or
// *crdt.XmlText, matching this shape.
type childGroup struct {
	element *editordoc.Node
	run     []*editordoc.Node
}

func elementGroup(n *editordoc.Node) childGroup   { return childGroup{element: n} }
func textGroup(ns []*editordoc.Node) childGroup   { return childGroup{run: ns} }
func (g childGroup) isText() bool                 { return g.run != nil }

// normalize walks p's children in order, collapsing any maximal run of
// text nodes into a single group and leaving non-text nodes as-is —
// spec.md §4.5.
func normalize(p *editordoc.Node) []childGroup {
	var out []childGroup
	var run []*editordoc.Node
	flush := func() {
		if len(run) > 0 {
			out = append(out, textGroup(run))
			run = nil
		}
	}
	for _, child := range p.Content {
		if child.Type.IsText {
			run = append(run, child)
			continue
		}
		flush()
		out = append(out, elementGroup(child))
	}
	flush()
	return out
}

// equalAttrs is spec.md §4.5's pure predicate: same keys after dropping
// null values and the "ychange" key; values equal by == or structurally
// for nested maps/slices.
func equalAttrs(a, b map[string]any) bool {
	na := dropNullAndYchange(a)
	nb := dropNullAndYchange(b)
	if len(na) != len(nb) {
		return false
	}
	for k, v := range na {
		bv, ok := nb[k]
		if !ok {
			return false
		}
		if !deepEqualValue(v, bv) {
			return false
		}
	}
	return true
}

func dropNullAndYchange(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "ychange" || v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

func deepEqualValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// marksToAttrs is spec.md §4.6: map of mark.type.name -> mark.attrs,
// excluding any mark named "ychange".
func marksToAttrs(marks []editordoc.Mark) map[string]any {
	out := make(map[string]any, len(marks))
	for _, m := range marks {
		if m.Type.Name == "ychange" {
			continue
		}
		out[m.Type.Name] = m.Attrs
	}
	return out
}

// equalText is spec.md §4.5's equalText(yText, pTexts): same length; for
// each index, insert strings equal and equalAttrs(delta.attributes[markName]
// || {}, mark.attrs) for every mark, and mark count matches.
func equalText(yText *crdt.XmlText, pTexts []*editordoc.Node) bool {
	delta := yText.ToDelta(nil, nil, nil)
	if len(delta) != len(pTexts) {
		return false
	}
	for i, item := range delta {
		p := pTexts[i]
		if item.Insert != p.Text {
			return false
		}
		if len(p.Marks) != countNonYchangeAttrs(item.Attributes) {
			return false
		}
		for _, mark := range p.Marks {
			if mark.Type.Name == "ychange" {
				continue
			}
			var want map[string]any
			if item.Attributes != nil {
				if v, ok := item.Attributes[mark.Type.Name].(map[string]any); ok {
					want = v
				}
			}
			if !equalAttrs(want, mark.Attrs) {
				return false
			}
		}
	}
	return true
}

func countNonYchangeAttrs(attrs map[string]any) int {
	n := 0
	for k := range attrs {
		if k != "ychange" {
			n++
		}
	}
	return n
}

// equalTypeNode is spec.md §4.5's equalTypeNode(y, p): dispatched on pair —
// element vs. single editor element with matching nodeName, same
// normalized-child length, equalAttrs, and all children pairwise
// equalTypeNode; OR text vs. text run with equalText.
func equalTypeNode(y crdt.XmlNode, group childGroup) bool {
	switch yv := y.(type) {
	case *crdt.XmlElement:
		if group.isText() || group.element == nil || group.element.Type.IsText {
			return false
		}
		p := group.element
		if yv.NodeName != p.Type.Name {
			return false
		}
		if !equalAttrs(yv.GetAttributes(nil), p.Attrs) {
			return false
		}
		yChildren := yv.ToArray()
		pChildren := normalize(p)
		if len(yChildren) != len(pChildren) {
			return false
		}
		for i := range yChildren {
			if !equalTypeNode(yChildren[i], pChildren[i]) {
				return false
			}
		}
		return true
	case *crdt.XmlText:
		if !group.isText() {
			return false
		}
		return equalText(yv, group.run)
	default:
		return false
	}
}
