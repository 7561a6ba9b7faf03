package tree

import "errors"

var (
	// ErrInvalidArgument reports a bad name or a missing node reference
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCyclicAttachment reports an attempt to attach a node under itself or
	// one of its own descendants
	ErrCyclicAttachment = errors.New("cyclic attachment")
	// ErrObjectDisposed reports a mutating call on a disposed node
	ErrObjectDisposed = errors.New("object disposed")
)
