package provider

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := server.NewMCPServer("echo", "1.0.0", server.WithToolCapabilities(true))
	s.AddTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echo the message back"),
			mcp.WithString("message", mcp.Required()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			msg, err := req.RequireString("message")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(msg), nil
		},
	)
	ts := httptest.NewServer(server.NewStreamableHTTPServer(s))
	t.Cleanup(ts.Close)
	return ts
}

func TestConnectAll_StreamableHTTP(t *testing.T) {
	ts := newEchoServer(t)

	// A listener that is already closed refuses connections.
	gone := httptest.NewServer(nil)
	goneURL := gone.URL
	gone.Close()

	c := NewConnector(zaptest.NewLogger(t))
	c.Timeout = 5 * time.Second
	c.ConnectTimeout = 3 * time.Second

	res := c.ConnectAll(context.Background(), []Definition{
		{Name: "echo", Kind: KindHTTP, URL: ts.URL},
		{Name: "gone", Kind: KindHTTP, URL: goneURL},
	})
	defer res.Close()

	require.Equal(t, []string{"echo"}, res.Names)
	assert.Equal(t, ConnectionRefused, res.Outcomes[1].State)

	h := res.Handles[0]
	require.True(t, h.HasTool("echo"))
	out, err := h.Call(context.Background(), "echo", map[string]any{"message": "hello"})
	require.NoError(t, err)
	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)
}

func TestDialMCP_UnknownKind(t *testing.T) {
	_, err := DialMCP(context.Background(), Definition{Name: "x", Kind: "pigeon"})
	assert.Error(t, err)
}
