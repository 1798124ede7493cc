package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welld/agent-memory/internal/store"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	c, err := Load(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, c.Backend)
	assert.Equal(t, "user_memory.json", filepath.Base(c.MemoryFile))
	assert.Equal(t, "user_schedule.json", filepath.Base(c.ScheduleFile))
	assert.Equal(t, 5*time.Second, c.ConnectTimeout)
	assert.Equal(t, 10*time.Second, c.DiscoveryTimeout)

	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, store.JST, loc)
}

func TestLegacyEnvironment(t *testing.T) {
	t.Setenv("MEMORY_FILE", "/data/m.json")
	t.Setenv("USER_SCHEDULE_FILE", "/data/s.json")
	t.Setenv("MCP_CONFIG_FILE", "/data/mcp.json")

	c, err := Load(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "/data/m.json", c.MemoryFile)
	assert.Equal(t, "/data/s.json", c.ScheduleFile)
	assert.Equal(t, "/data/mcp.json", c.ProvidersFile)
}

func TestPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("MEMORY_FILE", "/legacy.json")
	t.Setenv("AGENT_MEMORY_MEMORY_FILE", "/prefixed.json")
	t.Setenv("AGENT_MEMORY_STORAGE_BACKEND", "sqlite")
	t.Setenv("AGENT_MEMORY_PROVIDERS_TIMEOUT", "30s")

	c, err := Load(newViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "/prefixed.json", c.MemoryFile)
	assert.Equal(t, BackendSQLite, c.Backend)
	assert.Equal(t, 30*time.Second, c.DiscoveryTimeout)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent-memory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: UTC
storage:
  backend: sqlite
  sqlite_path: /tmp/x.db
providers:
  connect_timeout: 2s
  timeout: 4s
`), 0o644))

	c, err := Load(newViper(), path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, c.Backend)
	assert.Equal(t, "/tmp/x.db", c.SQLitePath)
	assert.Equal(t, 2*time.Second, c.ConnectTimeout)
	loc, _ := c.Location()
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	v := newViper()
	v.Set(KeyBackend, "postgres")
	_, err := Load(v, "")
	assert.Error(t, err)

	v = newViper()
	v.Set(KeyConnectTimeout, 20*time.Second)
	_, err = Load(v, "")
	assert.Error(t, err)

	v = newViper()
	v.Set(KeyTimezone, "Mars/Olympus_Mons")
	_, err = Load(v, "")
	assert.Error(t, err)

	_, err = Load(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
