package nodefs

import "github.com/google/uuid"

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
	UUID uuid.UUID      // Identity of the created node
	Tags map[string]any // Decoded tag values; converted by the tree layer
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

// FileCreateRequest describes a node carrying a payload
type FileCreateRequest struct {
	NodeRequest
	Source *FileSource // nil creates an empty file node
}

// DirCreateRequest describes a container node
type DirCreateRequest struct {
	NodeRequest
}
