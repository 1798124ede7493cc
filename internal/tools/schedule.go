package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/welld/agent-memory/internal/model"
	"github.com/welld/agent-memory/internal/store"
)

// ScheduleTools serves the schedule store.
type ScheduleTools struct {
	store  *store.ScheduleStore
	logger *zap.Logger
}

// NewScheduleTools creates the schedule tool set.
func NewScheduleTools(s *store.ScheduleStore, logger *zap.Logger) *ScheduleTools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleTools{store: s, logger: logger.Named("schedule_tools")}
}

// Tools returns every schedule tool with its handler.
func (s *ScheduleTools) Tools() []server.ServerTool {
	priorities := model.PriorityValues()
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("add_schedule",
				mcp.WithDescription("Add a schedule item with a deadline."),
				mcp.WithString("deadline", mcp.Required(), mcp.Description("Deadline in YYYYMMDDHHMM format")),
				mcp.WithString("content", mcp.Required(), mcp.Description("What is due")),
				mcp.WithString("priority", mcp.Required(), mcp.Enum(priorities...), mcp.Description("Priority level")),
			),
			Handler: s.addSchedule,
		},
		{
			Tool: mcp.NewTool("update_schedule",
				mcp.WithDescription("Update an existing schedule item."),
				mcp.WithString("schedule_id", mcp.Required(), mcp.Description("Schedule ID")),
				mcp.WithString("content", mcp.Description("New content")),
				mcp.WithString("deadline", mcp.Description("New deadline in YYYYMMDDHHMM format")),
				mcp.WithString("priority", mcp.Enum(priorities...), mcp.Description("New priority")),
			),
			Handler: s.updateSchedule,
		},
		{
			Tool: mcp.NewTool("search_schedules",
				mcp.WithDescription("Find schedule items due between days_before days ago and days_after days "+
					"from today, inclusive, sorted by deadline."),
				mcp.WithNumber("days_before", mcp.Description("Days back from today (default 0)")),
				mcp.WithNumber("days_after", mcp.Description("Days ahead of today (default 0)")),
			),
			Handler: s.searchSchedules,
		},
		{
			Tool:    mcp.NewTool("get_all_schedules", mcp.WithDescription("List every schedule item.")),
			Handler: s.getAllSchedules,
		},
		{
			Tool: mcp.NewTool("delete_schedule",
				mcp.WithDescription("Delete a schedule item by ID."),
				mcp.WithString("schedule_id", mcp.Required(), mcp.Description("Schedule ID")),
			),
			Handler: s.deleteSchedule,
		},
		{
			Tool:    mcp.NewTool("get_schedule_priority_list", mcp.WithDescription("List the valid schedule priorities.")),
			Handler: priorityList,
		},
	}
}

func (s *ScheduleTools) addSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.store.Add(ctx, store.AddScheduleParams{
		Deadline: stringArg(req, "deadline"),
		Content:  stringArg(req, "content"),
		Priority: stringArg(req, "priority"),
	})
	if err != nil {
		s.logger.Debug("add_schedule rejected", zap.Error(err))
		return failure(err), nil
	}
	return statusResult(true, "Success to add schedule: "+res.ScheduleID), nil
}

func (s *ScheduleTools) updateSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(req, "schedule_id")
	if id == "" {
		return statusResult(false, "schedule_id is required"), nil
	}
	_, err := s.store.Update(ctx, id, store.UpdateScheduleParams{
		Content:  stringArg(req, "content"),
		Deadline: stringArg(req, "deadline"),
		Priority: stringArg(req, "priority"),
	})
	if err != nil {
		return failure(err), nil
	}
	return statusResult(true, "Success to update schedule"), nil
}

// dayArg reads a day offset under name or its legacy alias.
func dayArg(req mcp.CallToolRequest, name, legacy string) (int, error) {
	n, ok, err := intArg(req, name)
	if err == nil && !ok {
		n, _, err = intArg(req, legacy)
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &model.ValidationError{Field: name, Values: []string{fmt.Sprint(n)}, Reason: "must not be negative"}
	}
	return n, nil
}

func (s *ScheduleTools) searchSchedules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	before, err := dayArg(req, "days_before", "before_date")
	if err != nil {
		return failure(err), nil
	}
	after, err := dayArg(req, "days_after", "after_date")
	if err != nil {
		return failure(err), nil
	}
	results := s.store.SearchRange(before, after)
	if results == nil {
		results = []store.ScheduleResult{}
	}
	return jsonResult(results), nil
}

func (s *ScheduleTools) getAllSchedules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.All()), nil
}

func (s *ScheduleTools) deleteSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(req, "schedule_id")
	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return failure(err), nil
	}
	if !found {
		return statusResult(false, fmt.Sprintf("schedule %q not found", id)), nil
	}
	return statusResult(true, "Success to delete schedule"), nil
}
