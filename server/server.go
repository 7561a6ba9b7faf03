// Package server mounts a node tree as a read-only FUSE filesystem.
package server

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/nodefs/config"
	"github.com/brettbedarf/nodefs/filesystem"
	"github.com/brettbedarf/nodefs/internal/util"
)

// Server serves a [filesystem.FileSystem] over FUSE
type Server struct {
	fsys    *filesystem.FileSystem
	cfg     *config.Config
	server  *fuse.Server
	started time.Time // reported as mtime/ctime of every node
}

// New creates a Server instance given your config and tree
func New(cfg *config.Config, fsys *filesystem.FileSystem) *Server {
	return &Server{
		fsys:    fsys,
		cfg:     cfg,
		started: time.Now(),
	}
}

// Serve mounts the tree root at mountPoint and returns once the mount is live
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("FuseServer")

	root := &treeNode{srv: s, node: s.fsys.Root()}
	attrTimeout, entryTimeout := s.attrTimeout(), s.entryTimeout()
	opts := s.cfg.MountOptions
	srv, err := fs.Mount(mountPoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  s.cfg.LogLvl == util.TraceLevel,
			Logger: util.NewLogLogger("FuseServer", util.DebugLevel),
		},
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
	})
	if err != nil {
		return err
	}
	s.server = srv
	logger.Info().Str("mnt", mountPoint).Str("root", s.fsys.Root().Path()).Msg("Tree mounted")
	return nil
}

// Wait blocks until the filesystem is unmounted
func (s *Server) Wait() {
	if s.server != nil {
		s.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}

func (s *Server) attrTimeout() time.Duration {
	return seconds(s.cfg.AttrTimeout)
}

func (s *Server) entryTimeout() time.Duration {
	return seconds(s.cfg.EntryTimeout)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
