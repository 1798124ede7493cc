package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/welld/agent-memory/internal/provider"
)

type stubSession struct {
	name  string
	tools []mcp.Tool
}

func (s *stubSession) ListTools(ctx context.Context) ([]mcp.Tool, error) { return s.tools, nil }

func (s *stubSession) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.name + "/" + name), nil
}

func (s *stubSession) Close() error { return nil }

func connectStubs(t *testing.T, providers map[string][]string, order ...string) *provider.Result {
	t.Helper()
	c := &provider.Connector{
		Dial: func(ctx context.Context, def provider.Definition) (provider.Session, error) {
			s := &stubSession{name: def.Name}
			for _, n := range providers[def.Name] {
				s.tools = append(s.tools, mcp.NewTool(n))
			}
			return s, nil
		},
	}
	defs := make([]provider.Definition, len(order))
	for i, n := range order {
		defs[i] = provider.Definition{Name: n, Kind: provider.KindStdio, Command: n}
	}
	res := c.ConnectAll(context.Background(), defs)
	t.Cleanup(func() { res.Close() })
	return res
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRegistryPrecedence(t *testing.T) {
	res := connectStubs(t, map[string][]string{
		"youtube": {"search_videos", "get_tag_list"},
		"web":     {"search_videos", "fetch"},
	}, "youtube", "web")
	require.Len(t, res.Handles, 2)

	local := []server.ServerTool{{
		Tool: mcp.NewTool("get_tag_list"),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("local tags"), nil
		},
	}}

	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRegistry(zap.New(core), local, res.Handles)

	var names []string
	for _, tool := range r.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"get_tag_list", "search_videos", "fetch"}, names)
	assert.Equal(t, 2, logs.FilterMessage("tool shadowed").Len())

	src, ok := r.Source("search_videos")
	require.True(t, ok)
	assert.Equal(t, "youtube", src)
	src, _ = r.Source("get_tag_list")
	assert.Equal(t, LocalSource, src)

	ctx := context.Background()
	out, err := r.Call(ctx, "get_tag_list", nil)
	require.NoError(t, err)
	assert.Equal(t, "local tags", textOf(t, out))

	out, err = r.Call(ctx, "fetch", map[string]any{"url": "x"})
	require.NoError(t, err)
	assert.Equal(t, "web/fetch", textOf(t, out))

	_, err = r.Call(ctx, "nope", nil)
	assert.Error(t, err)
}

func TestRegistryServerToolsProxy(t *testing.T) {
	res := connectStubs(t, map[string][]string{"web": {"fetch"}}, "web")
	r := NewRegistry(nil, nil, res.Handles)

	st := r.ServerTools()
	require.Len(t, st, 1)
	req := mcp.CallToolRequest{}
	req.Params.Name = "fetch"
	out, err := st[0].Handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "web/fetch", textOf(t, out))
}
