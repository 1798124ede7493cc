package tools

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/welld/agent-memory/internal/model"
	"github.com/welld/agent-memory/internal/store"
)

// Status is the answer of every mutating tool.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func statusResult(success bool, msg string) *mcp.CallToolResult {
	res := jsonResult(Status{Success: success, Message: msg})
	res.IsError = !success
	return res
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(data))
}

// failure turns a store error into a status message. Validation and
// not-found errors carry their own detail; anything else is a
// persistence failure.
func failure(err error) *mcp.CallToolResult {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return statusResult(false, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		return statusResult(false, err.Error())
	}
	return statusResult(false, "Error: "+err.Error())
}
