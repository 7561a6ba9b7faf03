package config

// MountOptions holds high-level settings for mounting a tree.
// No go-fuse types are exposed here.
type MountOptions struct {
	FsName string // mount's FsName
	Name   string // mount's Name
}
