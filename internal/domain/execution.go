package domain

import "time"

// ExecutionStatus is the lifecycle state of a tool execution
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusNotFound  ExecutionStatus = "not_found"
)

// IsTerminal reports whether a persisted record in this state can never change again
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusCancelled
}

// ExecutionRecord tracks a single tool invocation
type ExecutionRecord struct {
	ExecutionID string          `json:"execution_id"`
	Status      ExecutionStatus `json:"status"`
	Tool        string          `json:"tool,omitempty"`
	Server      string          `json:"server,omitempty"`
	Result      string          `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
