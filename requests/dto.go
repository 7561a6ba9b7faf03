package requests

import (
	"encoding/json"

	"github.com/brettbedarf/nodefs"
)

// NodeRequestDTO is the JSON representation of [nodefs.NodeRequest]
type NodeRequestDTO struct {
	Path string                       `json:"path"`
	Type nodefs.NodeCreateRequestType `json:"type"`
	UUID *string                      `json:"uuid,omitempty"` // Optional UUID to enable linking at request time
	Tags map[string]any               `json:"tags,omitempty"`
}

// FileRequestDTO is the JSON representation of [nodefs.FileCreateRequest]
type FileRequestDTO struct {
	NodeRequestDTO
	// Source is kept raw since its fields depend on the "type" value:
	//
	// Ex. For type="file" (see [payload.FileSourceConfig]):
	//
	//	Path   string `json:"path"`
	//	Offset int64  `json:"offset,omitempty"`
	//	Length *int64 `json:"length,omitempty"`
	//
	// See payload package for the built-in source fields.
	Source json.RawMessage `json:"source,omitempty"`
}

type DirRequestDTO struct {
	NodeRequestDTO
}
