package requests

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDefinitions reads a JSON array or YAML list of node definitions and
// returns each entry as raw JSON, ready for [GetNodeType] and the
// Unmarshal* functions.
func LoadDefinitions(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSONDefinitions(data)
	case ".yaml", ".yml":
		return ParseYAMLDefinitions(data)
	default:
		return nil, fmt.Errorf("unknown definitions file extension %q", ext)
	}
}

// ParseJSONDefinitions splits a JSON array into its elements
func ParseJSONDefinitions(data []byte) ([]json.RawMessage, error) {
	var defs []json.RawMessage
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definitions: %w", err)
	}
	return defs, nil
}

// ParseYAMLDefinitions decodes a YAML list and re-encodes every element as
// JSON so both formats share one unmarshaling path
func ParseYAMLDefinitions(data []byte) ([]json.RawMessage, error) {
	var items []map[string]any
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definitions: %w", err)
	}
	defs := make([]json.RawMessage, 0, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("definition %d: %w", i, err)
		}
		defs = append(defs, raw)
	}
	return defs, nil
}
