package filesystem

import (
	"fmt"
	"io"
	"strings"

	"github.com/brettbedarf/nodefs/tree"
)

// WriteListing writes one line per node below the root: path, payload size
// and tags as sorted key=value pairs, separated by tabs. Containers end
// their path with a separator.
func (fs *FileSystem) WriteListing(w io.Writer) error {
	for _, n := range fs.List() {
		path := n.Path()
		if !n.IsLeaf() {
			path += tree.Separator
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", path, Size(n), formatTags(n.Tags())); err != nil {
			return err
		}
	}
	return nil
}

func formatTags(t *tree.Tags) string {
	pairs := make([]string, 0, t.Len())
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		pairs = append(pairs, k+"="+v.String())
	}
	return strings.Join(pairs, ",")
}
