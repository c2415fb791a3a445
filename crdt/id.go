// Package crdt provides a replicated tree of typed XML-like elements and
// formatted text: the collaborative document model that the reconcile
// package keeps in sync with an editor document.
package crdt

import "fmt"

// ID uniquely identifies an item created by one client: the (clientId,
// clock) pair from spec.md §3. Generalizes the teacher's RGANodeID from a
// single flat text sequence to every item in the tree (element opens, text
// runs, attribute writes).
type ID struct {
	Client string
	Clock  uint64
}

// Zero is the nil-equivalent ID, used as an origin marker meaning "start of
// sequence" (the teacher used a zero-value RGANodeID{} for the same role).
var Zero = ID{}

func (id ID) IsZero() bool { return id == Zero }

func (id ID) String() string { return fmt.Sprintf("%s:%d", id.Client, id.Clock) }

// Less gives the total order used to resolve concurrent inserts at the same
// position: higher clock first, then lower client id. Grounded on the
// teacher's RGA.Insert comment: "sort by (Seq desc, NodeID asc) for total
// order".
func (id ID) Less(other ID) bool {
	if id.Clock != other.Clock {
		return id.Clock > other.Clock
	}
	return id.Client < other.Client
}

// Newer reports whether id should win a last-write-wins tie-break against
// other: higher clock wins, ties broken by the higher client id.
func (id ID) Newer(other ID) bool {
	if id.Clock != other.Clock {
		return id.Clock > other.Clock
	}
	return id.Client > other.Client
}

// StateVector is the teacher's VClock, completed and renamed to match its
// role in spec.md §3/§6: a per-client highest-observed-clock map that
// bounds a Snapshot.
type StateVector map[string]uint64

// NewStateVector returns an empty state vector.
func NewStateVector() StateVector { return make(StateVector) }

// Clone returns a deep copy.
func (v StateVector) Clone() StateVector {
	c := make(StateVector, len(v))
	for k, val := range v {
		c[k] = val
	}
	return c
}

// Get returns the highest clock observed for client, or 0.
func (v StateVector) Get(client string) uint64 { return v[client] }

// Covers reports whether id has been observed by this state vector: id is
// covered if its clock is within [1, v[id.Client]].
func (v StateVector) Covers(id ID) bool {
	return id.Clock <= v[id.Client]
}

// Observe records that id has been seen, raising the client's clock if
// needed. Leaves v unchanged if id was already covered.
func (v StateVector) Observe(id ID) {
	if id.Clock > v[id.Client] {
		v[id.Client] = id.Clock
	}
}

// HappensBefore reports whether v causally precedes other: every component
// of v is <= the matching component of other, and at least one is strictly
// less.
func (v StateVector) HappensBefore(other StateVector) bool {
	strictlyLess := false
	for client, clock := range v {
		if clock > other[client] {
			return false
		}
		if clock < other[client] {
			strictlyLess = true
		}
	}
	for client, clock := range other {
		if _, ok := v[client]; !ok && clock > 0 {
			strictlyLess = true
		}
	}
	return strictlyLess
}

// Concurrent reports true if neither v nor other causally precedes the
// other.
func (v StateVector) Concurrent(other StateVector) bool {
	return !v.HappensBefore(other) && !other.HappensBefore(v)
}

// Merge returns the component-wise maximum of v and other.
func (v StateVector) Merge(other StateVector) StateVector {
	out := v.Clone()
	for client, clock := range other {
		if clock > out[client] {
			out[client] = clock
		}
	}
	return out
}
