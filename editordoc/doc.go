package editordoc

// Selection is {anchor, head} as absolute positions in the flattened
// document, where each element's opening and closing boundary counts one
// and each text byte counts one, spec.md §3 "Relative selection" (the
// absolute side of that conversion).
type Selection struct {
	Anchor int
	Head   int
}

// State is the editor's current {doc, schema, selection} — spec.md §6:
// "view.state.{doc, schema, selection, tr}".
type State struct {
	Doc       *Node
	Schema    *Schema
	Selection Selection
}

// Transaction mutates a State: spec.md §6 "Transactions may carry a meta
// entry keyed by the plugin with any subset of these fields."
type Transaction struct {
	doc       *Node
	selection *Selection
	meta      map[string]any
}

// NewTransaction starts a transaction over the given base state.
func NewTransaction(base State) *Transaction {
	return &Transaction{doc: base.Doc, meta: make(map[string]any)}
}

// ReplaceContent swaps the whole document.
func (tr *Transaction) ReplaceContent(doc *Node) *Transaction {
	tr.doc = doc
	return tr
}

// SetSelection sets the resulting selection.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.selection = &sel
	return tr
}

// SetMeta attaches a plugin-keyed meta value, e.g. isChangeOrigin or
// snapshot/prevSnapshot per spec.md §6.
func (tr *Transaction) SetMeta(key string, value any) *Transaction {
	tr.meta[key] = value
	return tr
}

// GetMeta reads a meta value back.
func (tr *Transaction) GetMeta(key string) (any, bool) {
	v, ok := tr.meta[key]
	return v, ok
}

// Apply produces the next State by applying tr over base.
func (tr *Transaction) Apply(base State) State {
	next := base
	next.Doc = tr.doc
	if tr.selection != nil {
		next.Selection = *tr.selection
	}
	return next
}

// View is the minimal "view.state / view.dispatch" surface spec.md §6
// requires of the editor collaborator: a mutable current state, and a
// dispatch function that commits a transaction and notifies subscribers
// (here, the Binding Controller's Update callback).
type View struct {
	state   State
	onApply []func(prev, next State, tr *Transaction)
}

// NewView creates a view seeded with the given state.
func NewView(state State) *View { return &View{state: state} }

// State returns the current state.
func (v *View) State() State { return v.state }

// OnApply registers a callback invoked after every Dispatch.
func (v *View) OnApply(fn func(prev, next State, tr *Transaction)) {
	v.onApply = append(v.onApply, fn)
}

// Dispatch applies tr to the view's state and notifies subscribers —
// spec.md §6: "view.dispatch(tr)".
func (v *View) Dispatch(tr *Transaction) {
	prev := v.state
	v.state = tr.Apply(prev)
	for _, fn := range v.onApply {
		fn(prev, v.state, tr)
	}
}
