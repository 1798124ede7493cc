package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/provider"
)

// LocalSource names tools served in-process.
const LocalSource = "local"

type registered struct {
	tool    mcp.Tool
	source  string
	handler server.ToolHandlerFunc
	handle  *provider.Handle
}

// Registry is the single callable surface over local tools and the tools
// of connected providers. A local tool shadows a provider tool of the
// same name; between providers the first one wins.
type Registry struct {
	logger *zap.Logger
	order  []string
	tools  map[string]registered
}

// NewRegistry merges local tools with the tools of handles, in order.
func NewRegistry(logger *zap.Logger, local []server.ServerTool, handles []*provider.Handle) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{logger: logger.Named("registry"), tools: make(map[string]registered)}
	for _, st := range local {
		r.add(registered{tool: st.Tool, source: LocalSource, handler: st.Handler})
	}
	for _, h := range handles {
		for _, t := range h.Tools() {
			r.add(registered{tool: t, source: h.Name(), handle: h})
		}
	}
	return r
}

func (r *Registry) add(e registered) {
	if prev, ok := r.tools[e.tool.Name]; ok {
		r.logger.Warn("tool shadowed",
			zap.String("tool", e.tool.Name),
			zap.String("kept", prev.source),
			zap.String("dropped", e.source))
		return
	}
	r.order = append(r.order, e.tool.Name)
	r.tools[e.tool.Name] = e
}

// Tools returns every visible tool in registration order.
func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tools[n].tool)
	}
	return out
}

// Source returns where name is served from.
func (r *Registry) Source(name string) (string, bool) {
	e, ok := r.tools[name]
	return e.source, ok
}

// Call invokes the tool called name.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	e, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	if e.handle != nil {
		return e.handle.Call(ctx, name, args)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return e.handler(ctx, req)
}

// ServerTools exposes the registry as server tools, proxying provider
// tools to their handles, so one MCP server can front everything.
func (r *Registry) ServerTools() []server.ServerTool {
	out := make([]server.ServerTool, 0, len(r.order))
	for _, n := range r.order {
		e := r.tools[n]
		if e.handle == nil {
			out = append(out, server.ServerTool{Tool: e.tool, Handler: e.handler})
			continue
		}
		h := e.handle
		out = append(out, server.ServerTool{
			Tool: e.tool,
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				res, err := h.Call(ctx, req.Params.Name, req.GetArguments())
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return res, nil
			},
		})
	}
	return out
}
