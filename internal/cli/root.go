// Package cli implements the agent-memory CLI commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/config"
	"github.com/welld/agent-memory/internal/logging"
	"github.com/welld/agent-memory/internal/store"
)

var (
	v          = viper.New()
	configFile string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-memory",
	Short: "User memory and schedules for conversational agents",
	Long: "Stores facts about the user and deadline-bound schedule items, serves them as MCP tools, " +
		"and connects to the tool providers listed in an mcpServers config.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(v, configFile); err != nil {
			return err
		}
		if logger, err = logging.New(cfg.LogLevel, cfg.LogFormat, verbose); err != nil {
			return err
		}
		logger.Debug("config loaded",
			zap.String("memory_file", cfg.MemoryFile),
			zap.String("schedule_file", cfg.ScheduleFile),
			zap.String("backend", cfg.Backend))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	config.SetDefaults(v)

	f := RootCmd.PersistentFlags()
	f.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	f.BoolVar(&verbose, "verbose", false, "Debug logging")
	f.String("memory-file", "", "Memory file (default: $MEMORY_FILE or ~/.agent-memory/user_memory.json)")
	f.String("schedule-file", "", "Schedule file (default: $USER_SCHEDULE_FILE or ~/.agent-memory/user_schedule.json)")
	f.String("providers", "", "Provider config (default: $MCP_CONFIG_FILE or ~/.agent-memory/mcp_config.json)")
	f.String("backend", "", "Storage backend: file or sqlite")
	f.String("sqlite-path", "", "SQLite database for the sqlite backend")
	f.String("timezone", "", "Reference timezone for keys and date ranges (default JST)")
	f.String("log-level", "", "Log level: debug, info, warn, error")
	f.String("log-format", "", "Log format: json or console")

	// Flags only override when set, so env and config file still apply.
	for flag, key := range map[string]string{
		"memory-file":   config.KeyMemoryFile,
		"schedule-file": config.KeyScheduleFile,
		"providers":     config.KeyProvidersFile,
		"backend":       config.KeyBackend,
		"sqlite-path":   config.KeySQLitePath,
		"timezone":      config.KeyTimezone,
		"log-level":     config.KeyLogLevel,
		"log-format":    config.KeyLogFormat,
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

func storeOptions() store.Options {
	loc, _ := cfg.Location()
	return store.Options{Logger: logger, Location: loc}
}

func memoryBackend() (store.Backend, error) {
	if cfg.Backend == config.BackendSQLite {
		return store.NewSQLiteBackend(cfg.SQLitePath, "memories")
	}
	return store.NewFileBackend(cfg.MemoryFile), nil
}

func scheduleBackend() (store.Backend, error) {
	if cfg.Backend == config.BackendSQLite {
		return store.NewSQLiteBackend(cfg.SQLitePath, "schedules")
	}
	return store.NewFileBackend(cfg.ScheduleFile), nil
}

// A degraded load is logged by the store and does not stop the command.
func openMemoryStore(ctx context.Context) (*store.MemoryStore, error) {
	b, err := memoryBackend()
	if err != nil {
		return nil, err
	}
	s, _, _ := store.OpenMemoryStore(ctx, b, storeOptions())
	return s, nil
}

func openScheduleStore(ctx context.Context) (*store.ScheduleStore, error) {
	b, err := scheduleBackend()
	if err != nil {
		return nil, err
	}
	s, _, _ := store.OpenScheduleStore(ctx, b, storeOptions())
	return s, nil
}

func printJSON(cmd *cobra.Command, val any) {
	b, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// readContent joins positional args, falling back to piped stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func exitErr(msg string, err error) {
	_ = logger.Sync()
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
