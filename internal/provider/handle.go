package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
)

// Session is a live connection to one provider.
type Session interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	Close() error
}

// Handle is a connected provider and the tools it listed at connect time.
type Handle struct {
	def     Definition
	session Session
	tools   []mcp.Tool

	closeOnce sync.Once
	closeErr  error
}

func newHandle(def Definition, s Session, tools []mcp.Tool) *Handle {
	return &Handle{def: def, session: s, tools: tools}
}

// Name returns the configured provider name.
func (h *Handle) Name() string { return h.def.Name }

// Definition returns the provider's configuration.
func (h *Handle) Definition() Definition { return h.def }

// Tools returns the tools the provider offered.
func (h *Handle) Tools() []mcp.Tool {
	out := make([]mcp.Tool, len(h.tools))
	copy(out, h.tools)
	return out
}

// HasTool reports whether the provider offered a tool called name.
func (h *Handle) HasTool(name string) bool {
	for _, t := range h.tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Call invokes a tool on the provider.
func (h *Handle) Call(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	if !h.HasTool(tool) {
		return nil, fmt.Errorf("provider %q has no tool %q", h.def.Name, tool)
	}
	res, err := h.session.CallTool(ctx, tool, args)
	if err != nil {
		return nil, fmt.Errorf("provider %q call %s: %w", h.def.Name, tool, err)
	}
	return res, nil
}

// Close ends the session. Later calls return the first result.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.session.Close()
	})
	return h.closeErr
}

// Result is the outcome of one discovery pass. Names and Handles are
// parallel and hold only connected providers, in configuration order.
// Outcomes holds every provider in configuration order.
type Result struct {
	PassID   string
	Names    []string
	Handles  []*Handle
	Outcomes []Outcome
}

// Handle returns the connected provider called name.
func (r *Result) Handle(name string) (*Handle, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Handles[i], true
		}
	}
	return nil, false
}

// Close closes every handle.
func (r *Result) Close() error {
	var errs []error
	for _, h := range r.Handles {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", h.Name(), err))
		}
	}
	return errors.Join(errs...)
}
