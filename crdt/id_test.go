package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDLess(t *testing.T) {
	a := ID{Client: "a", Clock: 5}
	b := ID{Client: "b", Clock: 5}
	c := ID{Client: "a", Clock: 6}

	assert.True(t, a.Less(b), "same clock, lower client id sorts first")
	assert.False(t, b.Less(a))
	assert.True(t, c.Less(a), "higher clock sorts first regardless of client id")
}

func TestIDNewer(t *testing.T) {
	a := ID{Client: "a", Clock: 5}
	b := ID{Client: "b", Clock: 5}
	assert.True(t, b.Newer(a), "same clock, higher client id wins")
	assert.True(t, ID{Client: "a", Clock: 6}.Newer(a))
}

func TestStateVectorObserveAndCovers(t *testing.T) {
	sv := NewStateVector()
	sv.Observe(ID{Client: "a", Clock: 3})
	sv.Observe(ID{Client: "a", Clock: 1}) // should not regress

	assert.Equal(t, uint64(3), sv.Get("a"))
	assert.True(t, sv.Covers(ID{Client: "a", Clock: 2}))
	assert.False(t, sv.Covers(ID{Client: "a", Clock: 4}))
}

func TestStateVectorHappensBeforeAndConcurrent(t *testing.T) {
	a := StateVector{"x": 1}
	b := StateVector{"x": 2}
	assert.True(t, a.HappensBefore(b))
	assert.False(t, b.HappensBefore(a))

	c := StateVector{"y": 1}
	assert.True(t, a.Concurrent(c))
}

func TestStateVectorMerge(t *testing.T) {
	a := StateVector{"x": 1, "y": 5}
	b := StateVector{"x": 3, "z": 2}
	merged := a.Merge(b)
	assert.Equal(t, uint64(3), merged["x"])
	assert.Equal(t, uint64(5), merged["y"])
	assert.Equal(t, uint64(2), merged["z"])
}
