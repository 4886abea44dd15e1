package domain

import (
	"context"
)

// Plan is the proposed invocation evaluated before anything is executed.
// Plans are built per attempt and never persisted.
type Plan struct {
	Tool            ToolDescriptor `json:"tool"`
	Parameters      map[string]any `json:"parameters"`
	ExpectedOutcome string         `json:"expected_outcome"`
	Risks           []string       `json:"risks"`
	ShouldBlock     bool           `json:"should_block"`
	Alternatives    []string       `json:"alternatives,omitempty"`
}

// RiskAssessment is the classified result of a safety assessment
type RiskAssessment struct {
	Risks       []string `json:"risks"`
	ShouldBlock bool     `json:"should_block"`
}

// ConsentRequest is what a consent channel is shown for a blocked plan
type ConsentRequest struct {
	Explanation  string
	Plan         Plan
	Alternatives []string
}

// ConsentDecision is the answer to one plan presentation.
// Exactly one of approved, modification requested or rejected applies.
type ConsentDecision struct {
	Approved              bool   `json:"approved"`
	ModificationRequested bool   `json:"modification_requested"`
	UserFeedback          string `json:"user_feedback,omitempty"`
	Reason                string `json:"reason,omitempty"`
}

// Rejected reports whether the decision neither approves nor asks for changes
func (d ConsentDecision) Rejected() bool {
	return !d.Approved && !d.ModificationRequested
}

// ConsentChannel renders approve, deny or modify decisions for blocked plans.
// Implementations may ask a human or apply an automated policy; the call
// blocks until a decision is available.
type ConsentChannel interface {
	RequestConsent(ctx context.Context, request ConsentRequest) (ConsentDecision, error)
}
