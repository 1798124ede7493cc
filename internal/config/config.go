// Package config resolves runtime settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/welld/agent-memory/internal/store"
)

// EnvPrefix prefixes every environment variable read automatically.
const EnvPrefix = "AGENT_MEMORY"

// Keys.
const (
	KeyMemoryFile       = "memory_file"
	KeyScheduleFile     = "schedule_file"
	KeyProvidersFile    = "mcp_config_file"
	KeyBackend          = "storage.backend"
	KeySQLitePath       = "storage.sqlite_path"
	KeyTimezone         = "timezone"
	KeyConnectTimeout   = "providers.connect_timeout"
	KeyDiscoveryTimeout = "providers.timeout"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the resolved settings. It is read once at start.
type Config struct {
	MemoryFile    string
	ScheduleFile  string
	ProvidersFile string

	Backend    string
	SQLitePath string

	Timezone string

	ConnectTimeout   time.Duration
	DiscoveryTimeout time.Duration

	LogLevel  string
	LogFormat string
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agent-memory"
	}
	return filepath.Join(home, ".agent-memory")
}

// SetDefaults registers defaults and environment bindings on v. The
// unprefixed MEMORY_FILE, USER_SCHEDULE_FILE and MCP_CONFIG_FILE are
// honored alongside their AGENT_MEMORY_ forms.
func SetDefaults(v *viper.Viper) {
	dir := defaultDir()
	v.SetDefault(KeyMemoryFile, filepath.Join(dir, "user_memory.json"))
	v.SetDefault(KeyScheduleFile, filepath.Join(dir, "user_schedule.json"))
	v.SetDefault(KeyProvidersFile, filepath.Join(dir, "mcp_config.json"))
	v.SetDefault(KeyBackend, BackendFile)
	v.SetDefault(KeySQLitePath, filepath.Join(dir, "memory.db"))
	v.SetDefault(KeyTimezone, "JST")
	v.SetDefault(KeyConnectTimeout, 5*time.Second)
	v.SetDefault(KeyDiscoveryTimeout, 10*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv(KeyMemoryFile, EnvPrefix+"_MEMORY_FILE", "MEMORY_FILE")
	_ = v.BindEnv(KeyScheduleFile, EnvPrefix+"_SCHEDULE_FILE", "USER_SCHEDULE_FILE")
	_ = v.BindEnv(KeyProvidersFile, EnvPrefix+"_MCP_CONFIG_FILE", "MCP_CONFIG_FILE")
}

// Load reads v into a Config and checks it. When file is set it is read
// first; values from flags and environment still take precedence.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	c := &Config{
		MemoryFile:       v.GetString(KeyMemoryFile),
		ScheduleFile:     v.GetString(KeyScheduleFile),
		ProvidersFile:    v.GetString(KeyProvidersFile),
		Backend:          strings.ToLower(v.GetString(KeyBackend)),
		SQLitePath:       v.GetString(KeySQLitePath),
		Timezone:         v.GetString(KeyTimezone),
		ConnectTimeout:   v.GetDuration(KeyConnectTimeout),
		DiscoveryTimeout: v.GetDuration(KeyDiscoveryTimeout),
		LogLevel:         v.GetString(KeyLogLevel),
		LogFormat:        v.GetString(KeyLogFormat),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Backend)
	}
	if c.ConnectTimeout <= 0 || c.DiscoveryTimeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	if c.ConnectTimeout > c.DiscoveryTimeout {
		return fmt.Errorf("providers.connect_timeout %s exceeds providers.timeout %s", c.ConnectTimeout, c.DiscoveryTimeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the reference timezone. "JST" needs no tz database.
func (c *Config) Location() (*time.Location, error) {
	switch strings.ToUpper(c.Timezone) {
	case "", "JST":
		return store.JST, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
