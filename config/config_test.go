package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/nodefs/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestNewConfig_WithNilOverride tests that NewConfig creates a config with all default values
// when no override is provided.
func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values when no config provided")
}

// TestNewConfig_WithAllOverride tests that NewConfig properly applies overrides while
// preserving defaults for unset fields.
func TestNewConfig_WithAllOverride(t *testing.T) {
	t.Parallel()

	override := createOverride()
	override.LogLvl = util.Pointer(TraceVerbose)
	cfg := NewConfig(override)

	expCfg := &Config{
		MountOptions: MountOptions{
			FsName: "test_fs",
			Name:   "test_name",
		},
		LogLvl:       util.TraceLevel,
		RootName:     *override.RootName,
		MergePolicy:  *override.MergePolicy,
		AttrTimeout:  *override.AttrTimeout,
		EntryTimeout: *override.EntryTimeout,
		DirectIO:     *override.DirectIO,
	}
	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields")
}

func TestConfig_Merge_LogLvlConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verboseValue  int
		expectedLevel util.LogLevel
	}{
		{"verbose_1_error", ErrorVerbose, util.ErrorLevel},
		{"verbose_2_warn", WarnVerbose, util.WarnLevel},
		{"verbose_3_info", InfoVerbose, util.InfoLevel},
		{"verbose_4_debug", DebugVerbose, util.DebugLevel},
		{"verbose_5_trace", TraceVerbose, util.TraceLevel},
		{"verbose_0_clamped_to_1", 0, util.ErrorLevel},
		{"verbose_100_clamped_to_5", 100, util.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override := &ConfigOverride{
				LogLvl: &tt.verboseValue,
			}

			cfg := NewConfig(override)

			assert.Equal(t, tt.expectedLevel, cfg.LogLvl,
				"CLI verbose %d should map to util.LogLevel %v", tt.verboseValue, tt.expectedLevel)
		})
	}
}

func TestConfig_Merge_NilOverrideVals(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(&ConfigOverride{})

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values for nil override fields")
}

func TestConfig_Merge_PartialOverride(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{
		FsName:      util.Pointer("test_fs"),
		MergePolicy: util.Pointer("merge"),
	}
	cfg := NewConfig(override)

	expCfg := createDefaultCfg()
	expCfg.FsName = "test_fs"
	expCfg.MergePolicy = "merge"

	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields and leave rest default")
}

func TestLoadConfigOverrideFile_Valid(t *testing.T) {
	t.Parallel()

	type tc struct {
		ext     string
		marshal func(any) ([]byte, error)
	}

	cases := []tc{
		{".yaml", yaml.Marshal},
		{".yml", yaml.Marshal},
		{".json", json.Marshal},
	}

	for _, c := range cases {
		t.Run("valid"+c.ext, func(t *testing.T) {
			t.Parallel()
			override := createOverride()
			data, err := c.marshal(override)
			require.NoError(t, err)
			path := filepath.Join(t.TempDir(), "override"+c.ext)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := LoadConfigOverrideFile(path)

			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, *override, *loaded)
		})
	}
}

func TestNewConfigFromFile_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nodefs.yaml")
	data := []byte("root_name: rom\nmerge_policy: merge\nverbose: 4\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rom", cfg.RootName)
	assert.Equal(t, "merge", cfg.MergePolicy)
	assert.Equal(t, util.DebugLevel, cfg.LogLvl)
	assert.Equal(t, DefaultFsName, cfg.FsName)
}

// TestLoadConfigOverrideFile_NonExistentFile tests error handling
// when trying to load a file that doesn't exist.
func TestLoadConfigOverrideFile_NonExistentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does_not_exist.yaml")

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)
}

// TestLoadConfigOverrideFile_UnsupportedExtension tests error handling
// for file extensions that aren't supported (.txt, .xml, etc).
func TestLoadConfigOverrideFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.txt")
	require.NoError(t, os.WriteFile(path, []byte("root_name: x"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config file extension")
}

func TestLoadConfigOverrideFile_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	assert.ErrorContains(t, err, "failed to unmarshal config file")
}

// TestNewConfigFromFile_FileError tests that file loading errors
// are properly propagated by the convenience function.
func TestNewConfigFromFile_FileError(t *testing.T) {
	t.Parallel()

	_, err := NewConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func createDefaultCfg() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:       DefaultLogLvl,
		RootName:     DefaultRootName,
		MergePolicy:  DefaultMergePolicy,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
		DirectIO:     DefaultDirectIO,
	}
}

// createOverride makes a ConfigOverride with all non-default values
func createOverride() *ConfigOverride {
	return &ConfigOverride{
		FsName:       util.Pointer("test_fs"),
		Name:         util.Pointer("test_name"),
		LogLvl:       util.Pointer(DebugVerbose),
		RootName:     util.Pointer("rom"),
		MergePolicy:  util.Pointer("merge"),
		AttrTimeout:  util.Pointer(float64(DefaultAttrTimeout + 1)),
		EntryTimeout: util.Pointer(float64(DefaultEntryTimeout + 1)),
		DirectIO:     util.Pointer(!DefaultDirectIO),
	}
}
