package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoader_Load_FileNotExists(t *testing.T) {
	loader := NewConfigLoader()
	cfg, err := loader.Load("/nonexistent/config.yaml")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigLoader_Load_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yaml := `
redaction:
  patterns:
    - "password\\s*=\\s*\\S+"
  hash_mode:
    enabled: true
    salt: "test-salt"
plugins:
  dirs: [/opt/parsers]
wasm_memory_limit_mb: 64
chunk_size_bytes: 4096
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))

	cfg, err := NewConfigLoader().Load(configPath)
	require.NoError(t, err)

	assert.Len(t, cfg.Redaction.Patterns, 1)
	assert.True(t, cfg.Redaction.HashMode.Enabled)
	assert.Equal(t, "test-salt", cfg.Redaction.HashMode.Salt)
	assert.Equal(t, []string{"/opt/parsers"}, cfg.Plugins.Dirs)
	assert.Equal(t, 64, cfg.WasmMemoryLimitMB)
	assert.Equal(t, 4096, cfg.ChunkSizeBytes)
}

func TestConfigLoader_Load_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "bad yaml", yaml: "redaction: [", want: "failed to parse"},
		{name: "memory limit", yaml: "wasm_memory_limit_mb: -5", want: "wasm_memory_limit_mb"},
		{name: "chunk size", yaml: "chunk_size_bytes: -1", want: "chunk_size_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			_, err := NewConfigLoader().Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
