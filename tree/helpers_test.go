package tree

import (
	"testing"

	"github.com/brettbedarf/nodefs/internal/mocks"
	"github.com/stretchr/testify/require"
)

// newTestNode creates a node or fails the test
func newTestNode(t *testing.T, name string) *Node {
	t.Helper()
	n, err := NewNode(name)
	require.NoError(t, err)
	return n
}

// newTestTree builds root -> children by name and returns the root
func newTestTree(t *testing.T, root string, children ...string) *Node {
	t.Helper()
	r := newTestNode(t, root)
	for _, name := range children {
		require.NoError(t, r.Add(newTestNode(t, name), Replace))
	}
	return r
}

// newTestFile creates a childless node holding a payload
func newTestFile(t *testing.T, name string) *Node {
	t.Helper()
	n := newTestNode(t, name)
	require.NoError(t, n.SetPayload(newClosablePayload()))
	return n
}

// newClosablePayload returns a mock payload expecting Close to be called
func newClosablePayload() *mocks.MockPayload {
	p := &mocks.MockPayload{}
	p.On("Close").Return(nil)
	return p
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}

// assertPaths checks that every path in the subtree matches its ancestry
func assertPaths(t *testing.T, n *Node) {
	t.Helper()
	expected := Separator + n.Name()
	if p := n.Parent(); p != nil {
		expected = p.Path() + Separator + n.Name()
	}
	require.Equal(t, expected, n.Path())
	for _, c := range n.Children() {
		require.Same(t, n, c.Parent())
		assertPaths(t, c)
	}
}

// newTestFailingPayload returns a mock payload whose Close fails with err
func newTestFailingPayload(err error) *mocks.MockPayload {
	p := &mocks.MockPayload{}
	p.On("Close").Return(err)
	return p
}
