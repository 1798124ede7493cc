package provider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, "mcp_config.json", `{
  "mcpServers": {
    "user_memory": {"command": "agent-memory", "args": ["serve", "memory"], "env": {"MEMORY_FILE": "/tmp/m.json"}},
    "youtube": {"type": "streamable_http", "args": ["http://localhost:8001/mcp"]},
    "calendar": {"command": "streamable_http", "args": ["http://localhost:8002/mcp"]},
    "search": {"type": "http", "url": "http://localhost:8003/mcp"}
  }
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	got := cfg.Providers()
	require.Len(t, got, 4)
	assert.Equal(t, []string{"user_memory", "youtube", "calendar", "search"},
		[]string{got[0].Name, got[1].Name, got[2].Name, got[3].Name})

	assert.Equal(t, KindStdio, got[0].Kind)
	assert.Equal(t, "agent-memory", got[0].Command)
	assert.Equal(t, []string{"serve", "memory"}, got[0].Args)
	assert.Equal(t, []string{"MEMORY_FILE=/tmp/m.json"}, got[0].Environ())
	assert.Equal(t, "agent-memory serve memory", got[0].Target())

	for _, d := range got[1:] {
		assert.Equal(t, KindHTTP, d.Kind, d.Name)
		assert.Empty(t, d.Args, d.Name)
	}
	assert.Equal(t, "http://localhost:8001/mcp", got[1].URL)
	assert.Equal(t, "http://localhost:8002/mcp", got[2].URL)
	assert.Equal(t, "http://localhost:8003/mcp", got[3].Target())
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "providers.yaml", `
mcpServers:
  zeta:
    command: zeta-server
    args: [--quiet]
  alpha:
    type: streamable_http
    url: http://localhost:9000/mcp
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	got := cfg.Providers()
	require.Len(t, got, 2)
	assert.Equal(t, "zeta", got[0].Name)
	assert.Equal(t, []string{"--quiet"}, got[0].Args)
	assert.Equal(t, "alpha", got[1].Name)
	assert.Equal(t, KindHTTP, got[1].Kind)
}

func TestLoadConfigEmptyServers(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "c.json", `{"mcpServers": {}}`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers())
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]struct {
		name string
		body string
	}{
		"missing key":    {"c.json", `{"servers": {}}`},
		"malformed":      {"c.json", `{"mcpServers": {`},
		"not an object":  {"c.json", `["mcpServers"]`},
		"no command":     {"c.json", `{"mcpServers": {"x": {"args": ["a"]}}}`},
		"http no url":    {"c.json", `{"mcpServers": {"x": {"type": "streamable_http"}}}`},
		"unknown type":   {"c.json", `{"mcpServers": {"x": {"type": "carrier_pigeon", "command": "x"}}}`},
		"bad args":       {"c.json", `{"mcpServers": {"x": {"command": "x", "args": "a"}}}`},
		"yaml no key":    {"c.yml", "other: 1\n"},
		"yaml malformed": {"c.yaml", "mcpServers: [\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.name, tc.body))
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
