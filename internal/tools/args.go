package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
)

// stringArg returns a trimmed string argument, or "" when absent.
func stringArg(req mcp.CallToolRequest, key string) string {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// firstStringArg returns the first non-empty argument among keys.
func firstStringArg(req mcp.CallToolRequest, keys ...string) string {
	for _, k := range keys {
		if s := stringArg(req, k); s != "" {
			return s
		}
	}
	return ""
}

// intArg extracts an integer argument. JSON numbers arrive as float64;
// numeric strings are accepted too. ok is false when the key is absent.
func intArg(req mcp.CallToolRequest, key string) (n int, ok bool, err error) {
	v, present := req.GetArguments()[key]
	if !present || v == nil {
		return 0, false, nil
	}
	switch t := v.(type) {
	case float64:
		return int(t), true, nil
	case int:
		return t, true, nil
	case json.Number:
		i, err := t.Int64()
		return int(i), true, err
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, true, fmt.Errorf("%s must be an integer, got %q", key, t)
		}
		return i, true, nil
	}
	return 0, true, fmt.Errorf("%s must be an integer", key)
}

// stringSliceArg extracts a list of strings. A single string is split on
// commas. A nil slice means the key was absent.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, strings.TrimSpace(fmt.Sprint(item)))
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		parts := strings.Split(t, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{fmt.Sprint(v)}
}
