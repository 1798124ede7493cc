package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/welld/agent-memory/internal/config"
	"github.com/welld/agent-memory/internal/provider"
	"github.com/welld/agent-memory/internal/store"
)

// run executes the root command. Flags stick between runs in one
// process, so every call passes the ones it depends on.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestMemoryCommands(t *testing.T) {
	dir := t.TempDir()
	common := []string{
		"--memory-file", filepath.Join(dir, "memory.json"),
		"--schedule-file", filepath.Join(dir, "schedule.json"),
		"--log-level", "error",
	}
	with := func(args ...string) []string { return append(args, common...) }

	out := run(t, with("memory", "add", "-t", "learning", "-p", "high", "Started", "learning", "guitar")...)
	key := gjson.Get(out, "key").String()
	assert.Regexp(t, `^memory_\d{14}$`, key)
	assert.Equal(t, "high", gjson.Get(out, "priority").String())

	out = run(t, with("memory", "search", "-t", "", "gitar")...)
	require.Equal(t, int64(1), gjson.Get(out, "#").Int())
	assert.Equal(t, key, gjson.Get(out, "0.key").String())

	out = run(t, with("memory", "get", key)...)
	assert.Equal(t, int64(1), gjson.Get(out, "reference_count").Int())

	out = run(t, with("memory", "stats")...)
	assert.Equal(t, int64(1), gjson.Get(out, "total_memories").Int())
	assert.Equal(t, "learning", gjson.Get(out, "most_used_tags.0.0").String())

	out = run(t, with("export", "memory", "-o", "")...)
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.False(t, strings.HasSuffix(out, "\n\n"))
	recs, err := store.DecodeRecords([]byte(out))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, key, recs[0].Key)

	out = run(t, with("memory", "rm", key)...)
	assert.True(t, gjson.Get(out, "deleted").Bool())

	out = run(t, with("memory", "list")...)
	assert.JSONEq(t, `[]`, out)
}

func TestScheduleCommands(t *testing.T) {
	dir := t.TempDir()
	common := []string{
		"--memory-file", filepath.Join(dir, "memory.json"),
		"--schedule-file", filepath.Join(dir, "schedule.json"),
		"--timezone", "JST",
		"--log-level", "error",
	}
	with := func(args ...string) []string { return append(args, common...) }

	today := time.Now().In(store.JST).Format("20060102")
	later := time.Now().In(store.JST).AddDate(0, 0, 10).Format("20060102")

	out := run(t, with("schedule", "add", "-p", "", today+"0900", "Dentist")...)
	id := gjson.Get(out, "schedule_id").String()
	assert.NotEmpty(t, id)
	run(t, with("schedule", "add", "-p", "low", later+"0900", "Trip")...)

	out = run(t, with("schedule", "search", "--before", "1", "--after", "1")...)
	require.Equal(t, int64(1), gjson.Get(out, "#").Int())
	assert.Equal(t, id, gjson.Get(out, "0.schedule_id").String())
	assert.Equal(t, "mid", gjson.Get(out, "0.priority").String())

	out = run(t, with("schedule", "list")...)
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())
}

func useConfig(t *testing.T, providersFile string) {
	t.Helper()
	dir := t.TempDir()
	vv := viper.New()
	config.SetDefaults(vv)
	vv.Set(config.KeyMemoryFile, filepath.Join(dir, "memory.json"))
	vv.Set(config.KeyScheduleFile, filepath.Join(dir, "schedule.json"))
	vv.Set(config.KeyProvidersFile, providersFile)
	c, err := config.Load(vv, "")
	require.NoError(t, err)

	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestBuildToolsFailsOnUnusableProviderConfig(t *testing.T) {
	ctx := context.Background()

	useConfig(t, filepath.Join(t.TempDir(), "missing.json"))
	_, _, err := buildTools(ctx, "all", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"mcpServers": `), 0o644))
	useConfig(t, bad)
	_, _, err = buildTools(ctx, "all", true)
	var cerr *provider.ConfigError
	assert.ErrorAs(t, err, &cerr)

	// Without providers the config is never read.
	served, closeAll, err := buildTools(ctx, "all", false)
	require.NoError(t, err)
	defer closeAll()
	assert.Len(t, served, 15)

	memOnly, closeMem, err := buildTools(ctx, "memory", true)
	require.NoError(t, err)
	defer closeMem()
	assert.Len(t, memOnly, 9)
}
