package reconcile

import "errors"

// ErrNodeNameMismatch is the tree reconciler's precondition violation,
// spec.md §4.5: "either Y is a fragment, or Y.nodeName == P.type.name;
// violation is a fatal programmer error." Reported up through Binding
// rather than panicking, so a host can log and recover a binding instead
// of crashing the whole process.
var ErrNodeNameMismatch = errors.New("reconcile: CRDT element node name does not match editor node type")
