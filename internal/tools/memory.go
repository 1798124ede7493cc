// Package tools exposes the memory and schedule stores as MCP tools and
// merges them with tools offered by connected providers.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/model"
	"github.com/welld/agent-memory/internal/store"
)

// MemoryTools serves the memory store.
type MemoryTools struct {
	store  *store.MemoryStore
	logger *zap.Logger
}

// NewMemoryTools creates the memory tool set.
func NewMemoryTools(s *store.MemoryStore, logger *zap.Logger) *MemoryTools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryTools{store: s, logger: logger.Named("memory_tools")}
}

func tagList() string {
	var b strings.Builder
	for _, t := range model.AllTags() {
		fmt.Fprintf(&b, "- %s (%s)\n", t, model.TagExamples[t])
	}
	return b.String()
}

// Tools returns every memory tool with its handler.
func (m *MemoryTools) Tools() []server.ServerTool {
	priorities := model.PriorityValues()
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("add_memory",
				mcp.WithDescription("Add a new memory with the user's information: preferences, habits, "+
					"personal facts or instructions worth remembering.\nTags:\n"+tagList()),
				mcp.WithArray("tags", mcp.Required(),
					mcp.Description("One or more tags from the tag list"),
					mcp.Items(map[string]any{"type": "string", "enum": model.TagValues()})),
				mcp.WithString("content", mcp.Required(), mcp.Description("Memory content. Provide a detailed description.")),
				mcp.WithString("priority", mcp.Required(), mcp.Enum(priorities...), mcp.Description("Priority level")),
			),
			Handler: m.addMemory,
		},
		{
			Tool: mcp.NewTool("update_memory",
				mcp.WithDescription("Update the content of an existing memory, optionally replacing its tags or priority."),
				mcp.WithString("key", mcp.Required(), mcp.Description("Memory key (memory_YYYYMMDDHHMMSS)")),
				mcp.WithString("content", mcp.Description("New content")),
				mcp.WithArray("tags", mcp.Description("Replacement tags"),
					mcp.Items(map[string]any{"type": "string", "enum": model.TagValues()})),
				mcp.WithString("priority", mcp.Enum(priorities...), mcp.Description("New priority")),
			),
			Handler: m.updateMemory,
		},
		{
			Tool: mcp.NewTool("search_memories",
				mcp.WithDescription("Fuzzy search memories by content. Returns up to 5 results, best first."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
				mcp.WithString("tag", mcp.Enum(model.TagValues()...), mcp.Description("Only search memories with this tag")),
			),
			Handler: m.searchMemories,
		},
		{
			Tool:    mcp.NewTool("get_all_memories", mcp.WithDescription("List every memory in insertion order.")),
			Handler: m.getAllMemories,
		},
		{
			Tool: mcp.NewTool("delete_memory",
				mcp.WithDescription("Delete a memory by key."),
				mcp.WithString("key", mcp.Required(), mcp.Description("Memory key")),
			),
			Handler: m.deleteMemory,
		},
		{
			Tool:    mcp.NewTool("get_tag_list", mcp.WithDescription("List the valid memory tags.")),
			Handler: m.getTagList,
		},
		{
			Tool:    mcp.NewTool("get_priority_list", mcp.WithDescription("List the valid memory priorities.")),
			Handler: priorityList,
		},
		{
			Tool: mcp.NewTool("get_memory_stats",
				mcp.WithDescription("Memory statistics: total count, key range and tag usage.")),
			Handler: m.getMemoryStats,
		},
		{
			Tool: mcp.NewTool("get_memory_context",
				mcp.WithDescription("Assemble the most relevant memories for a prompt within a character budget, "+
					"highest priority first."),
				mcp.WithString("query", mcp.Description("Optional text to match")),
				mcp.WithString("tag", mcp.Enum(model.TagValues()...), mcp.Description("Optional tag filter")),
				mcp.WithNumber("budget", mcp.Description(fmt.Sprintf("Character budget (default %d)", store.DefaultContextBudget))),
			),
			Handler: m.getMemoryContext,
		},
	}
}

func (m *MemoryTools) addMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := m.store.Add(ctx, store.AddMemoryParams{
		Tags:     stringSliceArg(req, "tags"),
		Content:  stringArg(req, "content"),
		Priority: stringArg(req, "priority"),
	})
	if err != nil {
		m.logger.Debug("add_memory rejected", zap.Error(err))
		return failure(err), nil
	}
	return statusResult(true, "Success to add memory: "+res.Key), nil
}

func (m *MemoryTools) updateMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := stringArg(req, "key")
	if key == "" {
		return statusResult(false, "key is required"), nil
	}
	_, err := m.store.Update(ctx, key, store.UpdateMemoryParams{
		Content:  stringArg(req, "content"),
		Tags:     stringSliceArg(req, "tags"),
		Priority: stringArg(req, "priority"),
	})
	if err != nil {
		return failure(err), nil
	}
	return statusResult(true, "Success to update memory"), nil
}

func (m *MemoryTools) searchMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, err := m.store.Search(ctx, stringArg(req, "query"), firstStringArg(req, "tag", "tags"))
	if err != nil {
		return failure(err), nil
	}
	if results == nil {
		results = []store.MemoryResult{}
	}
	return jsonResult(results), nil
}

func (m *MemoryTools) getAllMemories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(m.store.All()), nil
}

func (m *MemoryTools) deleteMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := stringArg(req, "key")
	found, err := m.store.Delete(ctx, key)
	if err != nil {
		return failure(err), nil
	}
	if !found {
		return statusResult(false, fmt.Sprintf("memory %q not found", key)), nil
	}
	return statusResult(true, "Success to delete memory"), nil
}

func (m *MemoryTools) getTagList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(model.TagValues()), nil
}

func priorityList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(model.PriorityValues()), nil
}

func (m *MemoryTools) getMemoryStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(m.store.Stats()), nil
}

func (m *MemoryTools) getMemoryContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	budget, _, err := intArg(req, "budget")
	if err != nil {
		return statusResult(false, err.Error()), nil
	}
	res, err := m.store.Context(ctx, store.ContextParams{
		Query:  stringArg(req, "query"),
		Tag:    stringArg(req, "tag"),
		Budget: budget,
	})
	if err != nil {
		return failure(err), nil
	}
	return jsonResult(res), nil
}
