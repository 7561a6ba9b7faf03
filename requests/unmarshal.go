package requests

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/brettbedarf/nodefs"
	"github.com/brettbedarf/nodefs/payload"
)

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (nodefs.NodeCreateRequestType, error) {
	var meta struct {
		Type nodefs.NodeCreateRequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	switch meta.Type {
	case nodefs.FileNodeType, nodefs.DirNodeType:
		return meta.Type, nil
	}
	return "", fmt.Errorf("unknown node type %q", meta.Type)
}

// UnmarshalFileRequest handles file-specific unmarshaling. The source
// provider is resolved through reg; building the payload is left to the caller.
func UnmarshalFileRequest(data []byte, reg *payload.Registry) (*nodefs.FileCreateRequest, error) {
	var dto FileRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	coreNode, err := convertNodeDTO(dto.NodeRequestDTO)
	if err != nil {
		return nil, err
	}

	req := &nodefs.FileCreateRequest{NodeRequest: coreNode}
	if len(dto.Source) == 0 || bytes.Equal(dto.Source, []byte("null")) {
		return req, nil
	}
	if reg == nil {
		return nil, fmt.Errorf("%s: source given but no payload registry", dto.Path)
	}
	src, err := reg.FileSource(dto.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dto.Path, err)
	}
	req.Source = src
	return req, nil
}

// UnmarshalDirRequest handles explicit directory unmarshaling (no source)
func UnmarshalDirRequest(data []byte) (*nodefs.DirCreateRequest, error) {
	var dto DirRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	coreNode, err := convertNodeDTO(dto.NodeRequestDTO)
	if err != nil {
		return nil, err
	}
	return &nodefs.DirCreateRequest{NodeRequest: coreNode}, nil
}

// Conversion logic with defaults in the unmarshaling layer.
// Paths are NFC normalized so names typed on different systems compare equal.
func convertNodeDTO(dto NodeRequestDTO) (nodefs.NodeRequest, error) {
	dto.Path = norm.NFC.String(dto.Path)
	if dto.Path == "" {
		return nodefs.NodeRequest{}, fmt.Errorf("node request has no path")
	}
	id := uuid.New()
	if dto.UUID != nil {
		parsed, err := uuid.Parse(*dto.UUID)
		if err != nil {
			return nodefs.NodeRequest{}, fmt.Errorf("%s: invalid uuid: %w", dto.Path, err)
		}
		id = parsed
	}
	return nodefs.NodeRequest{
		Path: dto.Path,
		Type: dto.Type,
		UUID: id,
		Tags: dto.Tags,
	}, nil
}
