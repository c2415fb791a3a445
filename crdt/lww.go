package crdt

import (
	"sync"
	"time"
)

// LWWRegister is a Last-Write-Wins register, adapted from the teacher's
// crdt.LWWRegister unchanged in algorithm. On a timestamp tie, the higher
// nodeID wins (lexicographic). SPEC_FULL.md §2.1 uses one of these to back
// a document's title attribute alongside its XmlFragment tree.
type LWWRegister[T any] struct {
	mu        sync.RWMutex
	value     T
	timestamp time.Time
	nodeID    string
}

// NewLWWRegister creates a register holding the zero value of T.
func NewLWWRegister[T any]() *LWWRegister[T] {
	return &LWWRegister[T]{}
}

// Set updates the register if ts is after the current timestamp, or on a
// tie, if nodeID sorts higher than the current writer.
func (r *LWWRegister[T]) Set(val T, ts time.Time, nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ts.After(r.timestamp) || (ts.Equal(r.timestamp) && nodeID > r.nodeID) {
		r.value = val
		r.timestamp = ts
		r.nodeID = nodeID
	}
}

// Get returns the current value and its timestamp.
func (r *LWWRegister[T]) Get() (T, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.timestamp
}

// Merge pulls in a remote register's state.
func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) {
	other.mu.RLock()
	val, ts, nodeID := other.value, other.timestamp, other.nodeID
	other.mu.RUnlock()
	r.Set(val, ts, nodeID)
}
