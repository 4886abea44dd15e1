package domain

import (
	"time"
)

// ToolDescriptor describes a tool discovered on a tool server.
// A descriptor is unique per (Server, Name).
type ToolDescriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category,omitempty"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Schema       map[string]any `json:"schema,omitempty"`
	Server       string         `json:"server"`
	Summary      string         `json:"summary,omitempty"`
	Idempotent   bool           `json:"idempotent,omitempty"`
}

// Key returns the registry-wide identifier of the tool
func (t ToolDescriptor) Key() string {
	return t.Server + "/" + t.Name
}

// InputSchema returns the JSON schema of the tool arguments, or nil
func (t ToolDescriptor) InputSchema() map[string]any {
	if t.Schema == nil {
		return nil
	}
	schema, _ := t.Schema["inputSchema"].(map[string]any)
	return schema
}

// DiscoveredTool is a tool as reported by a tool server's discover call
type DiscoveredTool struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	InputSchema  any      `json:"input_schema,omitempty"`
	Category     string   `json:"category,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// ToolCallResult is the outcome of a tool server invoke call
type ToolCallResult struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ServerHealth tracks consecutive discovery failures of a tool server
type ServerHealth struct {
	Server      string    `json:"server"`
	ErrorCount  int       `json:"error_count"`
	LastErrorAt time.Time `json:"last_error_at"`
}
