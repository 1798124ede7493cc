package tools

import (
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported by the MCP servers. Set at build time via ldflags.
var Version = "dev"

// NewServer builds an MCP server exposing tools.
func NewServer(name string, tools ...server.ServerTool) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.AddTools(tools...)
	return s
}
