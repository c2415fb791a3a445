package crdt

import "errors"

var (
	// ErrHookUnsupported is returned when the tree contains an XmlHook
	// node. Hooks are a fatal configuration error per spec.md §4.3: this
	// replica has no way to materialize one.
	ErrHookUnsupported = errors.New("crdt: XmlHook nodes are not supported")

	// ErrNotInTransaction is returned when a mutating call is made outside
	// Doc.Transact.
	ErrNotInTransaction = errors.New("crdt: mutation attempted outside a transaction")

	// ErrDetached is returned when an operation is attempted on a node that
	// has been removed from its parent.
	ErrDetached = errors.New("crdt: node is detached from its document")
)
