package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brettbedarf/nodefs"
	"github.com/brettbedarf/nodefs/internal/util"
	"github.com/brettbedarf/nodefs/payload"
	"github.com/brettbedarf/nodefs/requests"
)

// Build applies raw node definitions: directories first so their tags are in
// place before files attach, then files in order. Failing definitions are
// logged and skipped; their errors are returned joined.
func (fs *FileSystem) Build(defs []json.RawMessage, reg *payload.Registry) error {
	logger := util.GetLogger("FS.Build")

	var errs []error
	var files []json.RawMessage
	for i, raw := range defs {
		nodeType, err := requests.GetNodeType(raw)
		if err != nil {
			logger.Error().Err(err).Int("index", i).Msg("Failed to get node type")
			errs = append(errs, fmt.Errorf("definition %d: %w", i, err))
			continue
		}
		if nodeType == nodefs.FileNodeType {
			files = append(files, raw)
			continue
		}
		req, err := requests.UnmarshalDirRequest(raw)
		if err != nil {
			logger.Error().Err(err).Int("index", i).Msg("Failed to unmarshal dir request")
			errs = append(errs, fmt.Errorf("definition %d: %w", i, err))
			continue
		}
		if _, err := fs.AddDirNode(req); err != nil {
			errs = append(errs, err)
		}
	}

	for _, raw := range files {
		req, err := requests.UnmarshalFileRequest(raw, reg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to unmarshal file request")
			errs = append(errs, err)
			continue
		}
		if _, err := fs.AddFileNode(req); err != nil {
			errs = append(errs, err)
		}
	}

	logger.Debug().Int("definitions", len(defs)).Int("failed", len(errs)).Msg("Build finished")
	return errors.Join(errs...)
}
