package crdt

import (
	"reflect"
	"strings"
)

// textPiece is one contiguous run of text sharing the same formatting
// attributes — the unit XmlText splits and merges around, analogous to the
// teacher's per-character RGANode but batched to a run (spec.md only needs
// delta-granularity, not character-granularity, merge).
type textPiece struct {
	id      ID
	deleted bool
	text    string
	attrs   map[string]any
}

// XmlText is "an ordered sequence of inline text pieces, each carrying a
// formatting-attribute map" (spec.md §3), exposed via a delta.
type XmlText struct {
	doc     *Doc
	id      ID
	deleted bool
	parent  XmlNode
	pieces  []*textPiece
}

// NewXmlText constructs a detached, empty text node.
func NewXmlText(doc *Doc) *XmlText {
	doc.mu.Lock()
	id := doc.nextID()
	doc.mu.Unlock()
	return &XmlText{doc: doc, id: id}
}

func (t *XmlText) ID() ID          { return t.id }
func (t *XmlText) IsDeleted() bool { return t.deleted }
func (t *XmlText) Parent() XmlNode { return t.parent }
func (t *XmlText) Doc() *Doc       { return t.doc }
func (t *XmlText) setParent(p XmlNode) { t.parent = p }

// DeltaItem is one entry of a text delta: spec.md's glossary "an ordered
// list of {insert, attributes} entries describing a run".
type DeltaItem struct {
	Insert     string
	Attributes map[string]any
}

// ToDelta returns the text's content as a delta, optionally bounded by a
// snapshot pair and annotated by computeChange, per spec.md §4.4.
// computeChange is called once per visible added/removed piece and its
// result is merged into that piece's attributes under the "ychange" key;
// adjacent pieces whose resulting attributes are equal share one delta item.
func (t *XmlText) ToDelta(snap, prevSnap *Snapshot, computeChange func(kind string, id ID) any) []DeltaItem {
	var out []DeltaItem
	appendRun := func(text string, attrs map[string]any) {
		if text == "" {
			return
		}
		if len(out) > 0 && sameAttrs(out[len(out)-1].Attributes, attrs) {
			out[len(out)-1].Insert += text
			return
		}
		out = append(out, DeltaItem{Insert: text, Attributes: attrs})
	}

	// Per spec.md §4.3, when both snapshots are supplied the iteration
	// walks a synthetic Snapshot(prevSnapshot.ds, snapshot.sv): this
	// includes content deleted between prevSnapshot and snapshot (it was
	// not yet deleted as of prevSnapshot's delete set) while excluding
	// content created after snapshot's state vector.
	iterSnap := snap
	if prevSnap != nil && snap != nil {
		iterSnap = &Snapshot{DeleteSet: prevSnap.DeleteSet, StateVector: snap.StateVector}
	}

	for _, p := range t.pieces {
		if !isVisible(p.id, p.deleted, iterSnap) {
			continue
		}
		attrs := cloneAttrs(p.attrs)
		if prevSnap != nil && snap != nil {
			switch {
			case !isVisible(p.id, p.deleted, snap):
				attrs = mergeYChange(attrs, changeOf("removed", p.id, computeChange))
			case !isVisible(p.id, p.deleted, prevSnap):
				attrs = mergeYChange(attrs, changeOf("added", p.id, computeChange))
			}
		}
		appendRun(p.text, attrs)
	}
	return out
}

func changeOf(kind string, id ID, computeChange func(kind string, id ID) any) any {
	if computeChange != nil {
		return computeChange(kind, id)
	}
	return map[string]any{"type": kind}
}

func mergeYChange(attrs map[string]any, change any) map[string]any {
	out := cloneAttrs(attrs)
	if out == nil {
		out = map[string]any{}
	}
	out["ychange"] = change
	return out
}

func sameAttrs(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || !reflect.DeepEqual(bv, v) {
			return false
		}
	}
	return true
}

func cloneAttrs(a map[string]any) map[string]any {
	if a == nil {
		return nil
	}
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// PlainText returns the concatenated non-deleted text, ignoring attributes.
func (t *XmlText) PlainText() string {
	var b strings.Builder
	for _, p := range t.pieces {
		if !p.deleted {
			b.WriteString(p.text)
		}
	}
	return b.String()
}

// ActiveAttributeKeys returns the set of formatting-attribute keys present
// on any non-deleted piece, used by the text reconciler (spec.md §4.6 step
// 1) to null-clear formats the target delta no longer carries.
func (t *XmlText) ActiveAttributeKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, p := range t.pieces {
		if p.deleted {
			continue
		}
		for k := range p.attrs {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// Insert inserts text with the given attributes at character offset idx.
func (t *XmlText) Insert(tx *Transaction, idx int, text string, attrs map[string]any) {
	if text == "" {
		return
	}
	t.doc.mu.Lock()
	id := t.doc.nextID()
	t.doc.mu.Unlock()
	slot := t.splitAt(idx)
	piece := &textPiece{id: id, text: text, attrs: cloneAttrs(attrs)}
	t.pieces = append(t.pieces[:slot], append([]*textPiece{piece}, t.pieces[slot:]...)...)
	tx.record(t, EventTextChanged)
}

// Delete removes length characters starting at character offset idx.
func (t *XmlText) Delete(tx *Transaction, idx, length int) {
	if length <= 0 {
		return
	}
	t.splitAt(idx)
	t.splitAt(idx + length)
	pos := 0
	for _, p := range t.pieces {
		if p.deleted {
			continue
		}
		plen := len(p.text)
		if pos >= idx && pos < idx+length {
			p.deleted = true
			t.doc.ds.Add(p.id)
		}
		pos += plen
	}
	tx.record(t, EventTextChanged)
}

// splitAt ensures a piece boundary exists at visible character offset idx,
// splitting a piece if idx falls inside one, and returns the piece-slice
// index of that boundary.
func (t *XmlText) splitAt(idx int) int {
	pos := 0
	for i, p := range t.pieces {
		if p.deleted {
			continue
		}
		plen := len(p.text)
		if pos == idx {
			return i
		}
		if pos+plen > idx {
			cut := idx - pos
			t.doc.mu.Lock()
			rightID := t.doc.nextID()
			t.doc.mu.Unlock()
			left := &textPiece{id: p.id, text: p.text[:cut], attrs: cloneAttrs(p.attrs)}
			right := &textPiece{id: rightID, text: p.text[cut:], attrs: cloneAttrs(p.attrs)}
			t.pieces[i] = left
			t.pieces = append(t.pieces[:i+1], append([]*textPiece{right}, t.pieces[i+1:]...)...)
			return i + 1
		}
		pos += plen
	}
	return len(t.pieces)
}

// ApplyDelta applies a sequence of retain/insert/delete ops, used both by
// the text reconciler (C6 step 4: re-stamp marks via retains) and by
// buildFromTextRun (C4.7) to materialize a whole new text node from a
// delta. Retain entries with non-nil Attributes overwrite the retained
// range's attributes (nil-valued keys clear a format).
func (t *XmlText) ApplyDelta(tx *Transaction, ops []DeltaOp) {
	pos := 0
	for _, op := range ops {
		switch {
		case op.Insert != "":
			t.Insert(tx, pos, op.Insert, op.Attributes)
			pos += len(op.Insert)
		case op.Delete > 0:
			t.Delete(tx, pos, op.Delete)
		case op.Retain > 0:
			if op.Attributes != nil {
				t.restamp(tx, pos, op.Retain, op.Attributes)
			}
			pos += op.Retain
		}
	}
}

// restamp overwrites the attributes of the [idx, idx+length) range,
// dropping keys whose override value is nil.
func (t *XmlText) restamp(tx *Transaction, idx, length int, overrides map[string]any) {
	t.splitAt(idx)
	t.splitAt(idx + length)
	pos := 0
	changed := false
	for _, p := range t.pieces {
		if p.deleted {
			continue
		}
		plen := len(p.text)
		if pos >= idx && pos < idx+length {
			next := cloneAttrs(p.attrs)
			if next == nil {
				next = map[string]any{}
			}
			for k, v := range overrides {
				if v == nil {
					delete(next, k)
				} else {
					next[k] = v
				}
			}
			p.attrs = next
			changed = true
		}
		pos += plen
	}
	if changed {
		tx.record(t, EventTextChanged)
	}
}

// DeltaOp is one entry of an applied delta: exactly one of Insert, Delete,
// Retain is meaningful per spec.md §4.6/§4.7.
type DeltaOp struct {
	Insert     string
	Delete     int
	Retain     int
	Attributes map[string]any
}
