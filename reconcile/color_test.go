package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorAllocatorAssignsFromUnusedPoolFirst(t *testing.T) {
	palette := []ColorPair{{Light: "#ff0000"}, {Light: "#00ff00"}}
	a := NewColorAllocator(palette, nil, func(n int) int { return 0 })

	first := a.ColorFor("user-1")
	second := a.ColorFor("user-2")
	assert.NotEqual(t, first, second, "distinct users must get distinct colors while unused entries remain")
}

func TestColorAllocatorIsStableForSameUser(t *testing.T) {
	a := NewColorAllocator(nil, nil, nil)
	first := a.ColorFor("user-1")
	second := a.ColorFor("user-1")
	assert.Equal(t, first, second)
}

func TestColorAllocatorDerivesDarkFromLight(t *testing.T) {
	a := NewColorAllocator([]ColorPair{{Light: "#ecd444"}}, nil, nil)
	cp := a.ColorFor("user-1")
	assert.NotEmpty(t, cp.Dark)
	assert.NotEqual(t, cp.Light, cp.Dark)
}

func TestColorAllocatorHonorsSeedMapping(t *testing.T) {
	seed := map[string]ColorPair{"user-1": {Light: "#123456", Dark: "#000000"}}
	a := NewColorAllocator(nil, seed, nil)
	assert.Equal(t, ColorPair{Light: "#123456", Dark: "#000000"}, a.ColorFor("user-1"))
}
