package crdt

import "errors"

// ErrPositionUnresolvable is returned by the relative↔absolute position
// conversions when the given coordinate no longer has a corresponding
// point in the tree. Spec.md §7.4: "Position conversion failure — selection
// silently not restored"; callers in reconcile treat this as a signal to
// drop that end of the selection, not a fatal error.
var ErrPositionUnresolvable = errors.New("crdt: position could not be resolved")

// RelativePosition is an opaque, CRDT-relative position per spec.md §3's
// glossary entry: it survives structural edits elsewhere in the tree
// because it is anchored to an item id, not an integer offset.
//
// A nil TextOffset means the position sits immediately before the node
// identified by NodeID (an element boundary); a non-nil TextOffset means
// it sits inside the XmlText identified by NodeID, at that character
// offset.
type RelativePosition struct {
	NodeID     ID
	TextOffset *int
}

// waypoint records one addressable unit's absolute coordinate during a
// depth-first walk of the fragment, used by both directions of position
// conversion.
type waypoint struct {
	node       XmlNode
	start      int // absolute offset of the first unit this waypoint covers
	textLength int // > 0 only for XmlText waypoints
}

func flatten(root *XmlFragment, snap *Snapshot) []waypoint {
	var out []waypoint
	pos := 0
	var walk func(children []XmlNode)
	walk = func(children []XmlNode) {
		for _, n := range children {
			switch v := n.(type) {
			case *XmlElement:
				out = append(out, waypoint{node: v, start: pos})
				pos++ // open boundary
				walk(v.ToArraySnapshot(snap))
				pos++ // close boundary
			case *XmlText:
				text := v.PlainText()
				out = append(out, waypoint{node: v, start: pos, textLength: len(text)})
				pos += len(text)
			}
		}
	}
	walk(root.ToArraySnapshot(snap))
	return out
}

// AbsolutePositionToRelativePosition converts an integer offset inside
// root's flattened content into a RelativePosition, per spec.md §6.
func AbsolutePositionToRelativePosition(offset int, root *XmlFragment) (*RelativePosition, error) {
	wps := flatten(root, nil)
	for _, wp := range wps {
		if wp.textLength > 0 {
			if offset >= wp.start && offset <= wp.start+wp.textLength {
				o := offset - wp.start
				return &RelativePosition{NodeID: wp.node.ID(), TextOffset: &o}, nil
			}
			continue
		}
		if offset == wp.start {
			return &RelativePosition{NodeID: wp.node.ID()}, nil
		}
	}
	return nil, ErrPositionUnresolvable
}

// RelativePositionToAbsolutePosition is the inverse conversion.
func RelativePositionToAbsolutePosition(rel *RelativePosition, root *XmlFragment) (int, error) {
	if rel == nil {
		return 0, ErrPositionUnresolvable
	}
	wps := flatten(root, nil)
	for _, wp := range wps {
		if wp.node.ID() != rel.NodeID {
			continue
		}
		if rel.TextOffset != nil {
			return wp.start + *rel.TextOffset, nil
		}
		return wp.start, nil
	}
	return 0, ErrPositionUnresolvable
}
