package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/brettbedarf/nodefs"
	"github.com/google/uuid"
)

// Separator joins node names into paths
const Separator = "/"

// Node is an entry in the tree. It may act as a container (has children)
// and/or carry a payload.
//
// NOTE: Node is not safe for concurrent mutation; one owner mutates a tree
// at a time
type Node struct {
	id       uuid.UUID
	name     string // Name of the node (last part of the path)
	path     string // Derived from the ancestor chain; see [Node.Path]
	parent   *Node  // Non-owning back-reference; nil for a root
	children []*Node
	tags     *Tags
	payload  nodefs.Payload
	disposed bool
}

// NewNode creates a standalone root node with a random identity.
// The node enters a larger tree only when another node adds it.
func NewNode(name string) (*Node, error) {
	return NewNodeWithID(uuid.Nil, name)
}

// NewNodeWithID is like [NewNode] with a caller supplied identity.
// uuid.Nil is replaced with a random one.
func NewNodeWithID(id uuid.UUID, name string) (*Node, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Node{
		id:   id,
		name: name,
		path: Separator + name,
		tags: NewTags(),
	}, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty node name", ErrInvalidArgument)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: node name %q contains %q", ErrInvalidArgument, name, Separator)
	}
	return nil
}

func (n *Node) ID() uuid.UUID {
	return n.id
}

func (n *Node) Name() string {
	return n.name
}

// Path returns the names of all ancestors and this node joined by [Separator].
// A root's path is Separator + Name.
func (n *Node) Path() string {
	return n.path
}

// Parent returns the owning node; nil for a root
func (n *Node) Parent() *Node {
	return n.parent
}

// Root walks the parent chain up to the tree root
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Children returns a copy of the children in insertion order
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

func (n *Node) Len() int {
	return len(n.children)
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// Child returns the child with the given name
func (n *Node) Child(name string) (*Node, bool) {
	if i := n.indexOf(name); i >= 0 {
		return n.children[i], true
	}
	return nil, false
}

func (n *Node) indexOf(name string) int {
	return slices.IndexFunc(n.children, func(c *Node) bool { return c.name == name })
}

// Tags returns the node's tag store
func (n *Node) Tags() *Tags {
	return n.tags
}

// SetTag stores a tag on this node, overwriting any existing value
func (n *Node) SetTag(key string, v TagValue) error {
	if n.disposed {
		return fmt.Errorf("%w: set tag on %s", ErrObjectDisposed, n.path)
	}
	if key == "" || !v.IsValid() {
		return fmt.Errorf("%w: tag key and value are required", ErrInvalidArgument)
	}
	n.tags.Set(key, v)
	return nil
}

func (n *Node) Payload() nodefs.Payload {
	return n.payload
}

// SetPayload hands p over to the node, closing the payload it held before
func (n *Node) SetPayload(p nodefs.Payload) error {
	if n.disposed {
		return fmt.Errorf("%w: set payload on %s", ErrObjectDisposed, n.path)
	}
	old := n.payload
	n.payload = p
	if old != nil && old != p {
		return old.Close()
	}
	return nil
}

func (n *Node) IsDisposed() bool {
	return n.disposed
}

// Rename changes the node name and recomputes the path of its subtree.
// Fails if a sibling already uses name.
func (n *Node) Rename(name string) error {
	if n.disposed {
		return fmt.Errorf("%w: rename %s", ErrObjectDisposed, n.path)
	}
	if err := validateName(name); err != nil {
		return err
	}
	if name == n.name {
		return nil
	}
	if n.parent != nil {
		if _, ok := n.parent.Child(name); ok {
			return fmt.Errorf("%w: %s already has a child named %q", ErrInvalidArgument, n.parent.path, name)
		}
	}
	n.name = name
	n.relink()
	return nil
}

// Detach removes child (by identity) from this node without disposing it.
// The caller owns the detached node, which becomes a root again.
func (n *Node) Detach(child *Node) (bool, error) {
	if n.disposed {
		return false, fmt.Errorf("%w: detach from %s", ErrObjectDisposed, n.path)
	}
	if child == nil {
		return false, fmt.Errorf("%w: nil node", ErrInvalidArgument)
	}
	i := slices.Index(n.children, child)
	if i < 0 {
		return false, nil
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	child.relink()
	return true, nil
}

// RemoveByName disposes the child with the given name and removes it.
// Use [Node.Detach] to take a child out of the tree without disposing it.
func (n *Node) RemoveByName(name string) (bool, error) {
	if n.disposed {
		return false, fmt.Errorf("%w: remove from %s", ErrObjectDisposed, n.path)
	}
	if name == "" {
		return false, fmt.Errorf("%w: empty node name", ErrInvalidArgument)
	}
	i := n.indexOf(name)
	if i < 0 {
		return false, nil
	}
	child := n.children[i]
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return true, child.dispose()
}

// RemoveAllChildren disposes every child and clears the collection
func (n *Node) RemoveAllChildren() error {
	if n.disposed {
		return fmt.Errorf("%w: remove children of %s", ErrObjectDisposed, n.path)
	}
	return n.removeChildren()
}

// relink recomputes the path of n and its subtree from the parent chain
func (n *Node) relink() {
	prefix := ""
	if n.parent != nil {
		prefix = n.parent.path
	}
	n.path = prefix + Separator + n.name
	for _, c := range n.children {
		c.relink()
	}
}

func (n *Node) String() string {
	return n.path
}
