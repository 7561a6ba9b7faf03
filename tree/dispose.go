package tree

import (
	"errors"
	"fmt"
	"slices"
)

// Dispose releases the node, its whole subtree and every payload they own.
// Children are disposed before the node itself. Calling Dispose on a disposed
// node is a no-op.
//
// A disposed node holds no children and no payload. Name and Path remain
// readable for diagnostics but every mutating call fails with
// [ErrObjectDisposed]. Payload close errors are returned joined; the node is
// disposed regardless.
func (n *Node) Dispose() error {
	if n.disposed {
		return nil
	}
	if p := n.parent; p != nil && !p.disposed {
		if i := slices.Index(p.children, n); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		n.parent = nil
	}
	return n.dispose()
}

func (n *Node) dispose() error {
	if n.disposed {
		return nil
	}
	errs := []error{n.removeChildren()}
	if n.payload != nil {
		if err := n.payload.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close payload of %s: %w", n.path, err))
		}
		n.payload = nil
	}
	n.disposed = true
	return errors.Join(errs...)
}

func (n *Node) removeChildren() error {
	var errs []error
	children := n.children
	n.children = nil
	for _, c := range children {
		c.parent = nil
		if err := c.dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
