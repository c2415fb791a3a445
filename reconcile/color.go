package reconcile

import "github.com/lucasb-eyer/go-colorful"

// ColorPair is one author color, spec.md §6 configuration default: "one
// amber pair {light:'#ecd44433', dark:'#ecd444'}". Light is used for
// background highlight (with alpha), Dark for caret/author-label text.
type ColorPair struct {
	Light string
	Dark  string
}

// DefaultColors is the single-entry palette used when a binding is
// constructed without an explicit color list.
var DefaultColors = []ColorPair{{Light: "#ecd44433", Dark: "#ecd444"}}

// ColorAllocator is spec.md §9's color allocator: "when fewer authors than
// palette entries, pick uniformly from the unused subset; when more, pick
// uniformly from the full palette." The randomness source is injected so
// tests can make allocation deterministic.
type ColorAllocator struct {
	palette []ColorPair
	mapping map[string]ColorPair
	intn    func(n int) int
}

// NewColorAllocator builds an allocator over palette (DefaultColors if
// nil), seeded with an existing mapping (empty if nil). intn(n) must return
// a value in [0,n); pass nil to default to always picking index 0, which
// is deterministic and sufficient for a single-color default palette.
func NewColorAllocator(palette []ColorPair, mapping map[string]ColorPair, intn func(n int) int) *ColorAllocator {
	if palette == nil {
		palette = DefaultColors
	}
	if intn == nil {
		intn = func(int) int { return 0 }
	}
	m := make(map[string]ColorPair, len(mapping))
	for k, v := range mapping {
		m[k] = normalizePair(v)
	}
	norm := make([]ColorPair, len(palette))
	for i, p := range palette {
		norm[i] = normalizePair(p)
	}
	return &ColorAllocator{palette: norm, mapping: m, intn: intn}
}

// normalizePair fills in a missing Dark variant by darkening Light, using
// go-colorful's HSL space so the derived caret color stays legible against
// the lighter highlight. Values that fail to parse as hex are left as-is —
// a caller-supplied named color is passed through unchanged.
func normalizePair(p ColorPair) ColorPair {
	if p.Dark != "" {
		return p
	}
	c, err := colorful.Hex(p.Light)
	if err != nil {
		return p
	}
	h, s, l := c.Hsl()
	dark := colorful.Hsl(h, s, l*0.6)
	p.Dark = dark.Hex()
	return p
}

// ColorFor returns clientID's assigned color, allocating and recording one
// on first use.
func (a *ColorAllocator) ColorFor(clientID string) ColorPair {
	if cp, ok := a.mapping[clientID]; ok {
		return cp
	}
	pool := a.palette
	if unused := a.unusedPalette(); len(unused) > 0 {
		pool = unused
	}
	choice := pool[a.intn(len(pool))]
	a.mapping[clientID] = choice
	return choice
}

func (a *ColorAllocator) unusedPalette() []ColorPair {
	used := make(map[ColorPair]bool, len(a.mapping))
	for _, v := range a.mapping {
		used[v] = true
	}
	var out []ColorPair
	for _, p := range a.palette {
		if !used[p] {
			out = append(out, p)
		}
	}
	return out
}

// Mapping returns a defensive copy of the current client -> color
// assignments, exposed via the binding's plugin-state surface (spec.md §6
// "colorMapping").
func (a *ColorAllocator) Mapping() map[string]ColorPair {
	out := make(map[string]ColorPair, len(a.mapping))
	for k, v := range a.mapping {
		out[k] = v
	}
	return out
}
