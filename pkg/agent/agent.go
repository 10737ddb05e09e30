package agent

import (
	"context"
)

// Agent is the uniform contract every specialized agent satisfies
type Agent interface {
	// Process handles one task request. Expected failures are encoded in
	// the returned payload; the error return is reserved for the
	// unexpected and is recovered by the orchestrator.
	Process(ctx context.Context, data TaskRequest) (interface{}, error)

	// CheckStatus reports whether the agent can process requests
	CheckStatus(ctx context.Context) bool

	// Info returns the agent metadata
	Info() Info
}

// Info holds static agent metadata
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskRequest is the opaque task payload handed to an agent. Field
// validation is the agent's own responsibility.
type TaskRequest map[string]interface{}

// String returns the string value for key, or "" when absent or not a string
func (r TaskRequest) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// StringSlice returns the string values for key, tolerating both typed
// and decoded-from-JSON slices
func (r TaskRequest) StringSlice(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
