package reconcile

import (
	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
)

// mutableContainer is the shape ReconcileTree needs of its CRDT side: both
// *crdt.XmlFragment (the virtual root) and *crdt.XmlElement satisfy it.
type mutableContainer interface {
	crdt.XmlNode
	ToArray() []crdt.XmlNode
	ToArraySnapshot(*crdt.Snapshot) []crdt.XmlNode
	Insert(*crdt.Transaction, int, []crdt.XmlNode) error
	Delete(*crdt.Transaction, int, int) error
}

// ReconcileTree is C5, spec.md §4.5: the heuristic two-pointer diff that
// brings CRDT container Y in line with editor node P, mutating only what
// changed and preserving the identity of every untouched subtree.
func ReconcileTree(tx *crdt.Transaction, m *IdentityMap, Y mutableContainer, P *editordoc.Node) error {
	if el, ok := Y.(*crdt.XmlElement); ok {
		if el.NodeName != P.Type.Name {
			return ErrNodeNameMismatch
		}
	}
	m.SetNode(Y, P)

	if el, ok := Y.(*crdt.XmlElement); ok {
		reconcileAttrs(tx, el, P.Attrs)
	}

	yChildren := Y.ToArray()
	pChildren := normalize(P)
	yLen, pLen := len(yChildren), len(pChildren)
	minLen := min(yLen, pLen)

	left := 0
	for left < minLen && (mappedIdentity(m, yChildren[left], pChildren[left]) || equalTypeNode(yChildren[left], pChildren[left])) {
		if !mappedIdentity(m, yChildren[left], pChildren[left]) {
			setMapped(m, yChildren[left], pChildren[left])
		}
		left++
	}

	right := 0
	for left+right+1 < minLen {
		yi := yChildren[yLen-1-right]
		pi := pChildren[pLen-1-right]
		if !(mappedIdentity(m, yi, pi) || equalTypeNode(yi, pi)) {
			break
		}
		if !mappedIdentity(m, yi, pi) {
			setMapped(m, yi, pi)
		}
		right++
	}

	for left < yLen-right && left < pLen-right {
		yLeft := yChildren[left]
		pLeft := pChildren[left]

		if yText, ok := yLeft.(*crdt.XmlText); ok && pLeft.isText() {
			if !equalText(yText, pLeft.run) {
				reconcileText(tx, yText, pLeft.run)
			}
			left++
			continue
		}

		yRight := yChildren[yLen-1-right]
		pRight := pChildren[pLen-1-right]

		updL := nameMatches(yLeft, pLeft)
		updR := nameMatches(yRight, pRight)

		if updL && updR {
			eqL, foundL := equalityFactor(m, yLeft.(*crdt.XmlElement), pLeft.element)
			eqR, foundR := equalityFactor(m, yRight.(*crdt.XmlElement), pRight.element)
			switch {
			case foundL && !foundR:
				updR = false
			case foundR && !foundL:
				updL = false
			case eqL > eqR:
				updR = false
			case eqR > eqL:
				updL = false
			default:
				// Full tie: the source this was distilled from prefers the
				// right side here (spec.md §9 open question), so match
				// that bias rather than the naive "prefer left" reading.
				updL = false
			}
		}

		switch {
		case updL:
			if err := ReconcileTree(tx, m, yLeft.(*crdt.XmlElement), pLeft.element); err != nil {
				return err
			}
			left++
		case updR:
			if err := ReconcileTree(tx, m, yRight.(*crdt.XmlElement), pRight.element); err != nil {
				return err
			}
			right++
		default:
			Y.Delete(tx, left, 1)
			fresh := buildFromGroup(tx, m, pLeft)
			Y.Insert(tx, left, []crdt.XmlNode{fresh})
			left++
		}
	}

	if remaining := yLen - left - right; remaining > 0 {
		Y.Delete(tx, left, remaining)
	}
	if left < pLen-right {
		fresh := make([]crdt.XmlNode, 0, pLen-right-left)
		for i := left; i < pLen-right; i++ {
			fresh = append(fresh, buildFromGroup(tx, m, pChildren[i]))
		}
		Y.Insert(tx, left, fresh)
	}
	return nil
}

func setMapped(m *IdentityMap, y crdt.XmlNode, g childGroup) {
	if g.isText() {
		m.SetRun(y, g.run)
	} else {
		m.SetNode(y, g.element)
	}
}

// nameMatches is spec.md §4.5's updL/updR predicate: y is an element whose
// node name matches p's element type.
func nameMatches(y crdt.XmlNode, g childGroup) bool {
	el, ok := y.(*crdt.XmlElement)
	if !ok || g.isText() || g.element == nil {
		return false
	}
	return el.NodeName == g.element.Type.Name
}

// equalityFactor is spec.md §4.5's child-equality factor: scan yEl's
// children against normalize(pNode) from both ends, counting agreeing
// positions until the first mismatch on each side.
func equalityFactor(m *IdentityMap, yEl *crdt.XmlElement, pNode *editordoc.Node) (factor int, foundMappedChild bool) {
	yc := yEl.ToArray()
	pc := normalize(pNode)
	lm, lf := countMatches(m, yc, pc, false)
	rm, rf := countMatches(m, yc, pc, true)
	return lm + rm, lf || rf
}

func countMatches(m *IdentityMap, yc []crdt.XmlNode, pc []childGroup, fromEnd bool) (int, bool) {
	n := min(len(yc), len(pc))
	matches, found := 0, false
	for i := 0; i < n; i++ {
		yi, pi := yc[i], pc[i]
		if fromEnd {
			yi, pi = yc[len(yc)-1-i], pc[len(pc)-1-i]
		}
		switch {
		case mappedIdentity(m, yi, pi):
			matches++
			found = true
		case equalTypeNode(yi, pi):
			matches++
		default:
			return matches, found
		}
	}
	return matches, found
}

// reconcileAttrs is spec.md §4.5 step 2: sync el's attributes to match
// target, dropping "ychange" and null-valued entries (null means "not
// present").
func reconcileAttrs(tx *crdt.Transaction, el *crdt.XmlElement, target map[string]any) {
	current := el.GetAttributes(nil)
	for key, value := range target {
		if key == "ychange" || value == nil {
			continue
		}
		if cur, ok := current[key]; !ok || !deepEqualValue(cur, value) {
			el.SetAttribute(tx, key, value)
		}
	}
	for key := range current {
		if _, ok := target[key]; !ok {
			el.RemoveAttribute(tx, key)
		}
	}
}
