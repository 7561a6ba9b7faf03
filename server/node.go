package server

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nodefs"
	"github.com/brettbedarf/nodefs/filesystem"
	"github.com/brettbedarf/nodefs/internal/util"
	"github.com/brettbedarf/nodefs/tree"
)

const (
	dirPerms  = 0o555
	filePerms = 0o444
	blksize   = 4096
)

// treeNode exposes one tree node. Nodes with children are directories;
// childless nodes are read-only files holding their payload.
type treeNode struct {
	fs.Inode
	srv  *Server
	node *tree.Node
}

var _ = (fs.NodeLookuper)((*treeNode)(nil))
var _ = (fs.NodeReaddirer)((*treeNode)(nil))
var _ = (fs.NodeGetattrer)((*treeNode)(nil))
var _ = (fs.NodeOpener)((*treeNode)(nil))
var _ = (fs.NodeReader)((*treeNode)(nil))

func (t *treeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	logger := util.GetLogger("Fuse.Lookup")

	var child *tree.Node
	t.srv.fsys.View(func(*tree.Node) {
		if t.node.IsDisposed() {
			return
		}
		if c, ok := t.node.Child(name); ok {
			child = c
			fillAttr(c, t.srv.started, &out.Attr)
		}
	})
	if child == nil {
		logger.Trace().Str("parent", t.node.Path()).Str("name", name).Msg("No such child")
		return nil, syscall.ENOENT
	}
	out.SetAttrTimeout(t.srv.attrTimeout())
	out.SetEntryTimeout(t.srv.entryTimeout())

	stable := fs.StableAttr{Mode: out.Attr.Mode & syscall.S_IFMT, Ino: inoOf(child.ID())}
	return t.NewInode(ctx, &treeNode{srv: t.srv, node: child}, stable), 0
}

func (t *treeNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	t.srv.fsys.View(func(*tree.Node) {
		if !t.node.IsDisposed() {
			entries = dirEntries(t.node)
		}
	})
	return fs.NewListDirStream(entries), 0
}

func (t *treeNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	errno := syscall.Errno(0)
	t.srv.fsys.View(func(*tree.Node) {
		if t.node.IsDisposed() {
			errno = syscall.ENOENT
			return
		}
		fillAttr(t.node, t.srv.started, &out.Attr)
	})
	// the mount point stays a directory even for an empty tree
	if t.IsRoot() {
		out.Mode = syscall.S_IFDIR | dirPerms
	}
	out.SetTimeout(t.srv.attrTimeout())
	return errno
}

func (t *treeNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, 0, syscall.EROFS
	}
	if t.srv.cfg.DirectIO {
		return nil, fuse.FOPEN_DIRECT_IO, 0
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (t *treeNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	logger := util.GetLogger("Fuse.Read")

	var (
		data []byte
		err  error
	)
	t.srv.fsys.View(func(*tree.Node) {
		if t.node.IsDisposed() {
			err = tree.ErrObjectDisposed
			return
		}
		data, err = readPayload(t.node.Payload(), dest, off)
	})
	if err != nil {
		logger.Error().Err(err).Str("path", t.node.Path()).Int64("offset", off).Msg("Read failed")
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(data), 0
}

// modeOf maps a node to its file type and permissions
func modeOf(n *tree.Node) uint32 {
	if n.IsLeaf() {
		return syscall.S_IFREG | filePerms
	}
	return syscall.S_IFDIR | dirPerms
}

// inoOf derives a stable inode number from a node identity. 1 is the FUSE root.
func inoOf(id uuid.UUID) uint64 {
	ino := binary.BigEndian.Uint64(id[:8])
	if ino <= fuse.FUSE_ROOT_ID {
		ino += 2
	}
	return ino
}

func fillAttr(n *tree.Node, mtime time.Time, out *fuse.Attr) {
	out.Ino = inoOf(n.ID())
	out.Mode = modeOf(n)
	out.Nlink = 1
	out.Size = uint64(filesystem.Size(n))
	out.Blksize = blksize
	out.Blocks = (out.Size + 511) / 512
	out.Owner = fuse.Owner{Uid: uint32(os.Getuid()), Gid: uint32(os.Getgid())}
	out.SetTimes(nil, &mtime, &mtime)
}

func dirEntries(n *tree.Node) []fuse.DirEntry {
	children := n.Children()
	entries := make([]fuse.DirEntry, 0, len(children))
	for _, c := range children {
		entries = append(entries, fuse.DirEntry{
			Name: c.Name(),
			Mode: modeOf(c) & syscall.S_IFMT,
			Ino:  inoOf(c.ID()),
		})
	}
	return entries
}

// readPayload reads up to len(dest) bytes at off. A missing payload reads
// as empty; so does an offset past the end.
func readPayload(p nodefs.Payload, dest []byte, off int64) ([]byte, error) {
	if p == nil || off >= p.Len() {
		return []byte{}, nil
	}
	n, err := p.ReadAt(dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return dest[:n], nil
}
