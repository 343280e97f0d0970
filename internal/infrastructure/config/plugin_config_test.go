package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/parserkit/internal/infrastructure/system"
)

func TestLoadPluginConfigFromReader(t *testing.T) {
	doc := `
general:
  log_level: debug
vars:
  logdir: /var/log/app
  nested:
    name: api
configs:
  skip_empty: false
  max_record_bytes: 1024
  pattern: "{{ .vars.nested.name }}: (?P<message>.*)"
  files_id:
    - "{{ .vars.logdir }}/a.log"
    - /tmp/b.log
`
	cfg, err := LoadPluginConfigFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, false, cfg.Configs["skip_empty"])
	assert.Equal(t, "api: (?P<message>.*)", cfg.Configs["pattern"])
	assert.Equal(t, []any{"/var/log/app/a.log", "/tmp/b.log"}, cfg.Configs["files_id"])
}

func TestLoadPluginConfigFromReader_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "invalid yaml", doc: "configs: [[[", want: "failed to decode"},
		{name: "missing var", doc: "configs:\n  text_id: \"{{ .vars.nope }}\"", want: "variable not found: nope"},
		{name: "var is a map", doc: "vars:\n  m:\n    k: v\nconfigs:\n  text_id: \"{{ .vars.m }}\"", want: "variable not found: m"},
		{name: "secret without resolver", doc: "configs:\n  text_id: \"{{ .secrets.token }}\"", want: "no secrets are configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPluginConfigFromReader(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPluginConfigFromReader_Secrets(t *testing.T) {
	lookup := func(name string) (string, error) {
		if name == "api_token" {
			return "s3cr3t", nil
		}
		return "", fmt.Errorf("secret %q not found", name)
	}

	cfg, err := LoadPluginConfigFromReader(strings.NewReader(`
vars:
  host: example.org
configs:
  text_id: "https://{{ .vars.host }}/?token={{ .secrets.api_token }}"
`), WithSecrets(lookup))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/?token=s3cr3t", cfg.Configs["text_id"])

	_, err = LoadPluginConfigFromReader(strings.NewReader("configs:\n  text_id: \"{{ .secrets.other }}\"\n"), WithSecrets(lookup))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `secret "other" not found`)
}

func TestLoadPluginConfigFromReader_Empty(t *testing.T) {
	cfg, err := LoadPluginConfigFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Configs)
	assert.Empty(t, cfg.Configs)
}

func TestLoadPluginConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.yaml")
	require.NoError(t, os.WriteFile(path, []byte("configs:\n  skip_empty: true\n"), 0o600))

	cfg, err := LoadPluginConfig(path)
	require.NoError(t, err)
	assert.Equal(t, true, cfg.Configs["skip_empty"])

	_, err = LoadPluginConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseSetFlags(t *testing.T) {
	got, err := ParseSetFlags([]string{"skip_empty=false", "pattern=a=b", " text_id = x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"skip_empty": "false", "pattern": "a=b", "text_id": " x"}, got)

	_, err = ParseSetFlags([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseSetFlags([]string{"=x"})
	assert.Error(t, err)
}

func TestRuntimeConfig_Defaults(t *testing.T) {
	rc := FromSystemConfig(system.DefaultConfig())
	rc.ApplyDefaults()
	assert.Equal(t, DefaultChunkSize, rc.ChunkSize)
	assert.Equal(t, 0, rc.WasmMemoryLimitMB)

	sys := system.DefaultConfig()
	sys.ChunkSizeBytes = 512
	rc = FromSystemConfig(sys)
	rc.ApplyDefaults()
	assert.Equal(t, 512, rc.ChunkSize)
}
