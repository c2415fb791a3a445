package crdt

// childSlot is one entry in a container's child sequence: an RGA cell in
// the sense of the teacher's RGANode (ID, InsertAfter, tombstone), carrying
// an XmlNode instead of a single rune. XmlFragment and XmlElement share
// this implementation; only XmlText's leaf content (runs of formatted
// text, not child nodes) needs a different cell shape (see text.go).
type childSlot struct {
	id      ID
	origin  ID // the id this slot was inserted after; Zero means "at the start"
	deleted bool
	node    XmlNode
}

// container is the ordered-sequence behavior shared by XmlFragment and
// XmlElement: insert, delete, toArray, lookup by id. Concurrent inserts at
// the same origin are resolved by ID.Less, per spec.md's RGA heritage
// (teacher: "sort by (Seq desc, NodeID asc) for total order").
type container struct {
	doc      *Doc
	children []*childSlot
	index    map[ID]int
}

func newContainer(doc *Doc) container {
	return container{doc: doc, index: make(map[ID]int)}
}

// visibleIndexToSlot maps a visible (non-deleted) index to a slot index.
// Returns len(children) if idx == count of visible slots (append position).
func (c *container) visibleIndexToSlot(idx int) int {
	seen := 0
	for i, s := range c.children {
		if s.deleted {
			continue
		}
		if seen == idx {
			return i
		}
		seen++
	}
	return len(c.children)
}

// idBeforeSlot returns the id of the last visible slot strictly before
// slot index slotIdx (exclusive), or Zero if none.
func (c *container) idBeforeSlot(slotIdx int) ID {
	for i := slotIdx - 1; i >= 0; i-- {
		if !c.children[i].deleted {
			return c.children[i].id
		}
	}
	return Zero
}

// insertLocal inserts nodes at visible position idx, minting a fresh ID for
// each via the owning transaction's document clock, and records a
// children-changed event on owner.
func (c *container) insertLocal(tx *Transaction, owner XmlNode, idx int, nodes []XmlNode) {
	slot := c.visibleIndexToSlot(idx)
	origin := c.idBeforeSlot(slot)
	ins := make([]*childSlot, len(nodes))
	for i, n := range nodes {
		id := n.ID()
		ins[i] = &childSlot{id: id, origin: origin, node: n}
		origin = id
	}
	c.children = append(c.children[:slot], append(ins, c.children[slot:]...)...)
	c.reindex()
	tx.record(owner, EventChildrenChanged)
}

// insertRemote integrates one remotely-created node at the position implied
// by its origin id, resolving ties with ID.Less.
func (c *container) insertRemote(tx *Transaction, owner XmlNode, origin ID, node XmlNode) {
	pos := 0
	if !origin.IsZero() {
		if i, ok := c.index[origin]; ok {
			pos = i + 1
		}
	}
	for pos < len(c.children) && c.children[pos].origin == origin {
		if node.ID().Less(c.children[pos].id) {
			break
		}
		pos++
	}
	slot := &childSlot{id: node.ID(), origin: origin, node: node}
	c.children = append(c.children[:pos], append([]*childSlot{slot}, c.children[pos:]...)...)
	c.reindex()
	tx.record(owner, EventChildrenChanged)
}

func (c *container) reindex() {
	c.index = make(map[ID]int, len(c.children))
	for i, s := range c.children {
		c.index[s.id] = i
	}
}

// deleteRange tombstones length visible slots starting at visible index
// idx.
func (c *container) deleteRange(tx *Transaction, owner XmlNode, idx, length int) {
	if length <= 0 {
		return
	}
	slot := c.visibleIndexToSlot(idx)
	removed := 0
	for i := slot; i < len(c.children) && removed < length; i++ {
		if c.children[i].deleted {
			continue
		}
		c.children[i].deleted = true
		c.doc.ds.Add(c.children[i].id)
		removed++
	}
	tx.record(owner, EventChildrenChanged)
}

// deleteByID tombstones a single slot, identified by its node's id.
func (c *container) deleteByID(tx *Transaction, owner XmlNode, id ID) bool {
	i, ok := c.index[id]
	if !ok || c.children[i].deleted {
		return false
	}
	c.children[i].deleted = true
	c.doc.ds.Add(id)
	tx.record(owner, EventChildrenChanged)
	return true
}

// toArray returns the visible children in order, optionally bounded by a
// snapshot pair (nil, nil means "current").
func (c *container) toArray(snap, prevSnap *Snapshot) []XmlNode {
	out := make([]XmlNode, 0, len(c.children))
	for _, s := range c.children {
		if !isVisible(s.id, s.deleted, snap) {
			continue
		}
		out = append(out, s.node)
	}
	_ = prevSnap // prevSnap only matters for the added/removed decoration applied by the Tree Materializer, not ordering
	return out
}

// isVisible is spec.md §4.3's visibility predicate: without a snapshot,
// simply "not deleted"; with one, the id must be covered by the snapshot's
// state vector and absent from its delete set.
func isVisible(id ID, deletedNow bool, snap *Snapshot) bool {
	if snap == nil {
		return !deletedNow
	}
	if !snap.StateVector.Covers(id) {
		return false
	}
	return !snap.DeleteSet.Contains(id)
}
