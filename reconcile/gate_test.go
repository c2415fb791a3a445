package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateRunsWhenFree(t *testing.T) {
	g := NewGate()
	ran := false
	g.Run(func() { ran = true })
	assert.True(t, ran)
	assert.False(t, g.Held())
}

func TestGateDropsNestedCall(t *testing.T) {
	g := NewGate()
	var outer, inner bool
	g.Run(func() {
		outer = true
		assert.True(t, g.Held())
		g.Run(func() { inner = true })
	})
	assert.True(t, outer)
	assert.False(t, inner, "a nested Run while the gate is held must be a silent no-op")
	assert.False(t, g.Held())
}

func TestGateReleasesOnPanic(t *testing.T) {
	g := NewGate()
	assert.Panics(t, func() {
		g.Run(func() { panic("boom") })
	})
	assert.False(t, g.Held(), "the gate must release even when f panics")
}
