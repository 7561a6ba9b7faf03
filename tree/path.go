package tree

import (
	"iter"
	"slices"
	"strings"
)

// JoinPath joins names into an absolute path ("/a/b"). Empty parts are skipped.
func JoinPath(names ...string) string {
	var b strings.Builder
	for _, name := range names {
		if name == "" {
			continue
		}
		b.WriteString(Separator)
		b.WriteString(name)
	}
	return b.String()
}

// SplitPath returns the names of a path, ignoring leading, trailing and
// repeated separators
func SplitPath(path string) []string {
	return slices.DeleteFunc(strings.Split(path, Separator), func(s string) bool { return s == "" })
}

// Search returns the node of this subtree whose path is exactly path.
// Children are tried depth-first in insertion order.
func (n *Node) Search(path string) (*Node, bool) {
	if !strings.HasPrefix(path, n.path) {
		return nil, false
	}
	if len(path) == len(n.path) {
		return n, true
	}
	// "/root/ab" must not descend into "/root/a"
	if !strings.HasPrefix(path[len(n.path):], Separator) {
		return nil, false
	}
	for _, c := range n.children {
		if found, ok := c.Search(path); ok {
			return found, true
		}
	}
	return nil, false
}

// Enumerate returns the descendants of n depth-first in insertion order.
// With includeIntermediate false only terminal nodes (childless and holding
// a payload) are returned; containers are walked but not yielded.
func (n *Node) Enumerate(includeIntermediate bool) []*Node {
	return slices.Collect(n.Descendants(includeIntermediate))
}

// Descendants is the streaming form of [Node.Enumerate]
func (n *Node) Descendants(includeIntermediate bool) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(includeIntermediate, yield)
	}
}

func (n *Node) isTerminal() bool {
	return n.IsLeaf() && n.payload != nil
}

func (n *Node) walk(includeIntermediate bool, yield func(*Node) bool) bool {
	for _, c := range n.children {
		if includeIntermediate || c.isTerminal() {
			if !yield(c) {
				return false
			}
		}
		if !c.walk(includeIntermediate, yield) {
			return false
		}
	}
	return true
}
