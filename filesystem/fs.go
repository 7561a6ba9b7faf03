// Package filesystem builds and queries a node tree from create requests.
package filesystem

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/nodefs"
	"github.com/brettbedarf/nodefs/config"
	"github.com/brettbedarf/nodefs/internal/util"
	"github.com/brettbedarf/nodefs/tree"
)

// ErrExists is returned when a file request targets a path already in the tree
var ErrExists = errors.New("node already exists")

// FileSystem owns a tree rooted at cfg.RootName. Mutations are serialized
// with an internal lock so a mounted view can read while definitions load.
type FileSystem struct {
	mu           sync.RWMutex
	cfg          *config.Config
	root         *tree.Node
	policy       tree.MergePolicy
	nodeRegistry *xsync.Map[uuid.UUID, *tree.Node] // maps request UUIDs to the nodes they created
}

func NewFS(cfg *config.Config) (*FileSystem, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	policy, err := tree.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		return nil, err
	}
	root, err := tree.NewNode(cfg.RootName)
	if err != nil {
		return nil, fmt.Errorf("root node: %w", err)
	}

	fs := FileSystem{
		cfg:          cfg,
		root:         root,
		policy:       policy,
		nodeRegistry: xsync.NewMap[uuid.UUID, *tree.Node](),
	}
	fs.nodeRegistry.Store(root.ID(), root)
	return &fs, nil
}

// Root returns the tree root. Callers that mutate it directly bypass the
// lock and the identity index.
func (fs *FileSystem) Root() *tree.Node {
	return fs.root
}

func (fs *FileSystem) Policy() tree.MergePolicy {
	return fs.policy
}

// View runs fn with the tree read-locked
func (fs *FileSystem) View(fn func(root *tree.Node)) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	fn(fs.root)
}

// AddDirNode adds all missing directories in the request's path starting at
// the root and returns the leaf.
// It is equivalent to calling `mkdir -p` from a shell and similarly will only create
// directories that do not already exist and will not error if the leaf already exists.
// Request tags are applied to the leaf without overwriting tags it already has.
func (fs *FileSystem) AddDirNode(req *nodefs.DirCreateRequest) (*tree.Node, error) {
	logger := util.GetLogger("AddDirNode")

	tags, err := tree.TagsFromMap(req.Tags)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Invalid tags")
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	leaf, err := fs.mkdirAll(req.Path, req.UUID, tags)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create dir(s)")
		return nil, err
	}
	return leaf, nil
}

// mkdirAll walks names from the root, creating missing nodes. A newly
// created leaf gets leafID; tags go to the leaf either way.
func (fs *FileSystem) mkdirAll(path string, leafID uuid.UUID, tags *tree.Tags) (*tree.Node, error) {
	logger := util.GetLogger("AddDirNode")

	names := tree.SplitPath(path)
	cur := fs.root
	newCnt := 0
	for i, name := range names {
		if child, ok := cur.Child(name); ok {
			cur = child
			continue
		}
		id := uuid.Nil
		if i == len(names)-1 {
			id = leafID
		}
		node, err := tree.NewNodeWithID(id, name)
		if err != nil {
			return nil, err
		}
		if i == len(names)-1 {
			if err := applyTags(node, tags); err != nil {
				return nil, err
			}
		}
		if err := cur.Add(node, fs.policy); err != nil {
			return nil, err
		}
		fs.register(node)
		newCnt++
		cur = node
	}
	if newCnt == 0 {
		if err := applyTags(cur, tags); err != nil {
			return nil, err
		}
	} else {
		logger.Info().Str("path", cur.Path()).Msg(fmt.Sprintf("Created %d new dir(s)", newCnt))
	}
	return cur, nil
}

// applyTags sets tags absent on n. Wildcards are also pushed into n's
// existing subtree.
func applyTags(n *tree.Node, tags *tree.Tags) error {
	if tags == nil || tags.Len() == 0 {
		return nil
	}
	for _, k := range tags.Keys() {
		v, _ := tags.Get(k)
		n.Tags().SetIfAbsent(k, v)
	}
	if w := tags.Wildcards(); w.Len() > 0 && !n.IsLeaf() {
		return n.AssignTagsRecursive(w)
	}
	return nil
}

// AddFileNode adds a new file node to the tree. It will add any missing
// directories in the path and return the newly created node.
// If a node already exists at the requested path, it returns [ErrExists].
func (fs *FileSystem) AddFileNode(req *nodefs.FileCreateRequest) (*tree.Node, error) {
	logger := util.GetLogger("AddFileNode")

	names := tree.SplitPath(req.Path)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: file request without a name", tree.ErrInvalidArgument)
	}
	dirPath, name := strings.Join(names[:len(names)-1], tree.Separator), names[len(names)-1]

	tags, err := tree.TagsFromMap(req.Tags)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Invalid tags")
		return nil, err
	}
	node, err := tree.NewNodeWithID(req.UUID, name)
	if err != nil {
		return nil, err
	}
	if err := applyTags(node, tags); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.mkdirAll(dirPath, uuid.Nil, nil)
	if err != nil {
		logger.Error().Err(err).Str("path", dirPath).Msg("Failed to create file's ancestor directory(s)")
		return nil, err
	}
	if existing, ok := parent.Child(name); ok {
		err := fmt.Errorf("%w: %s", ErrExists, existing.Path())
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create file")
		return nil, err
	}

	if req.Source != nil {
		p, err := req.Source.Payload()
		if err != nil {
			logger.Error().Err(err).Str("path", req.Path).Msg("Failed to create payload")
			return nil, err
		}
		if err := node.SetPayload(p); err != nil {
			logger.Error().Err(err).Str("path", req.Path).Msg("Failed to attach payload")
			return nil, errors.Join(err, p.Close())
		}
	}

	if err := parent.Add(node, fs.policy); err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to attach file")
		return nil, errors.Join(err, node.Dispose())
	}
	fs.register(node)
	logger.Debug().Str("path", node.Path()).Msg("Added new file node")
	return node, nil
}

// Graft attaches the detached subtree sub under dirPath (created like
// [FileSystem.AddDirNode]) resolving name collisions with the configured
// merge policy. It returns the node now at sub's path, which is not sub
// itself when sub was merged into an existing node.
func (fs *FileSystem) Graft(dirPath string, sub *tree.Node) (*tree.Node, error) {
	logger := util.GetLogger("FS.Graft")
	if sub == nil {
		return nil, fmt.Errorf("%w: nil node", tree.ErrInvalidArgument)
	}
	name := sub.Name()

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, err := fs.mkdirAll(dirPath, uuid.Nil, nil)
	if err != nil {
		return nil, err
	}
	if err := parent.Add(sub, fs.policy); err != nil {
		logger.Error().Err(err).Str("dir", parent.Path()).Str("name", name).Msg("Failed to graft subtree")
		return nil, err
	}
	got, _ := parent.Child(name)
	fs.register(got)
	for n := range got.Descendants(true) {
		fs.register(n)
	}
	logger.Debug().Str("path", got.Path()).Stringer("policy", fs.policy).Msg("Grafted subtree")
	return got, nil
}

// Lookup resolves an absolute path ("/root/a/b") or a path relative to the
// root ("a/b")
func (fs *FileSystem) Lookup(path string) (*tree.Node, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if strings.HasPrefix(path, tree.Separator) {
		return fs.root.Search(path)
	}
	cur := fs.root
	for _, name := range tree.SplitPath(path) {
		child, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// NodeByID returns the live node created for a request UUID
func (fs *FileSystem) NodeByID(id uuid.UUID) (*tree.Node, bool) {
	n, ok := fs.nodeRegistry.Load(id)
	if !ok {
		return nil, false
	}
	fs.mu.RLock()
	live := !n.IsDisposed() && n.Root() == fs.root
	fs.mu.RUnlock()
	if !live {
		fs.nodeRegistry.Delete(id)
		return nil, false
	}
	return n, true
}

// List returns every node below the root depth-first in insertion order
func (fs *FileSystem) List() []*tree.Node {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.root.Enumerate(true)
}

// Close disposes the tree and releases every payload
func (fs *FileSystem) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nodeRegistry = xsync.NewMap[uuid.UUID, *tree.Node]()
	return fs.root.Dispose()
}

func (fs *FileSystem) register(n *tree.Node) {
	fs.nodeRegistry.Store(n.ID(), n)
}

// Size returns the payload length of n or 0 when it has none
func Size(n *tree.Node) int64 {
	if p := n.Payload(); p != nil {
		return p.Len()
	}
	return 0
}
