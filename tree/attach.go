package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brettbedarf/nodefs/internal/util"
)

// MergePolicy decides what Add does when a child with the same name exists
type MergePolicy uint8

const (
	// Replace disposes the existing child and installs the new one in its place
	Replace MergePolicy = iota
	// Merge keeps an existing container child and adds the incoming children
	// into it. Existing leaves are replaced.
	Merge
)

func (p MergePolicy) String() string {
	switch p {
	case Replace:
		return "replace"
	case Merge:
		return "merge"
	default:
		return fmt.Sprintf("MergePolicy(%d)", uint8(p))
	}
}

// ParseMergePolicy parses "replace" or "merge" (case-insensitive)
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace", "":
		return Replace, nil
	case "merge":
		return Merge, nil
	}
	return Replace, fmt.Errorf("%w: unknown merge policy %q", ErrInvalidArgument, s)
}

// Add attaches child under n.
//
// The child is detached from any previous parent and n's wildcard tags are
// pushed into its subtree without overwriting tags a node already defines.
// Name collisions then follow policy; installed subtrees get their paths
// recomputed.
func (n *Node) Add(child *Node, policy MergePolicy) error {
	if err := n.validateAdd(child); err != nil {
		return err
	}
	if child.parent == n {
		return nil
	}
	if child.parent != nil {
		if _, err := child.parent.Detach(child); err != nil {
			return err
		}
	}
	if w := n.tags.Wildcards(); w.Len() > 0 {
		child.pushTags(w)
	}

	i := n.indexOf(child.name)
	if i < 0 {
		n.children = append(n.children, child)
		n.install(child)
		return nil
	}

	existing := n.children[i]
	if policy == Merge && !existing.IsLeaf() {
		return n.mergeInto(existing, child)
	}

	logger := util.GetLogger("Tree.Add")
	logger.Trace().Str("path", existing.path).Stringer("policy", policy).Msg("Replacing existing child")
	n.children[i] = child
	existing.parent = nil
	n.install(child)
	return existing.dispose()
}

// AddAll adds every node in order with the same policy.
// It stops at the first failing element and returns its error.
func (n *Node) AddAll(children []*Node, policy MergePolicy) error {
	if n.disposed {
		return fmt.Errorf("%w: add to %s", ErrObjectDisposed, n.path)
	}
	for _, c := range children {
		if err := n.Add(c, policy); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) validateAdd(child *Node) error {
	if n.disposed {
		return fmt.Errorf("%w: add to %s", ErrObjectDisposed, n.path)
	}
	if child == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidArgument)
	}
	if child.disposed {
		return fmt.Errorf("%w: add disposed node %s", ErrObjectDisposed, child.path)
	}
	for cur := n; cur != nil; cur = cur.parent {
		if cur == child {
			return fmt.Errorf("%w: %s is an ancestor of %s", ErrCyclicAttachment, child.path, n.path)
		}
	}
	return nil
}

// install links an already inserted child to n
func (n *Node) install(child *Node) {
	child.parent = n
	child.relink()
}

// mergeInto moves the incoming node's tags and children into existing.
// The emptied incoming node is disposed since nothing owns it anymore.
// Nested Adds cannot fail: every moved child is live and existing is not
// inside the incoming subtree.
func (n *Node) mergeInto(existing, incoming *Node) error {
	logger := util.GetLogger("Tree.Add")
	logger.Trace().Str("path", existing.path).Int("incoming", len(incoming.children)).Msg("Merging into existing child")

	existing.tags.merge(incoming.tags)
	moved := incoming.children
	incoming.children = nil
	var errs []error
	for _, c := range moved {
		c.parent = nil
		if err := existing.Add(c, Merge); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, incoming.dispose())
	return errors.Join(errs...)
}

// AssignTagsRecursive adds every tag of src absent on this node, then does
// the same for every descendant in insertion order. Tags a node already
// defines are never overwritten.
func (n *Node) AssignTagsRecursive(src *Tags) error {
	if n.disposed {
		return fmt.Errorf("%w: assign tags to %s", ErrObjectDisposed, n.path)
	}
	if src == nil {
		return fmt.Errorf("%w: nil tags", ErrInvalidArgument)
	}
	n.pushTags(src)
	return nil
}

// pushTags merges src into every node of the subtree rooted at n,
// breadth-first, first write wins per node. Both wildcard inheritance and
// AssignTagsRecursive go through here.
func (n *Node) pushTags(src *Tags) {
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cur.tags.merge(src)
		queue = append(queue, cur.children...)
	}
}
