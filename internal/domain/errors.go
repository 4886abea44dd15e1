package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheMiss is returned by cache stores for absent or expired keys
	ErrCacheMiss = errors.New("cache miss")

	// ErrDiscoveryUnavailable means no server answered and nothing is cached
	ErrDiscoveryUnavailable = errors.New("tool discovery unavailable")

	// ErrSelectionFailed means the model could not be asked to pick a tool
	ErrSelectionFailed = errors.New("tool selection failed")

	// ErrExtractionFailed means parameters could not be extracted
	ErrExtractionFailed = errors.New("parameter extraction failed")

	// ErrExecutionFailed wraps tool server and network failures
	ErrExecutionFailed = errors.New("tool execution failed")

	// ErrSafetyAssessmentFailed means the safety assessment call failed
	ErrSafetyAssessmentFailed = errors.New("safety assessment failed")

	// ErrConsentChannel wraps failures of the consent channel
	ErrConsentChannel = errors.New("consent channel error")

	// ErrConsentChannelNotWired means a blocked plan had no channel to ask
	ErrConsentChannelNotWired = errors.New("consent channel not configured")

	// ErrUnknownServer is returned for servers missing from configuration
	ErrUnknownServer = errors.New("unknown tool server")
)

// ToolError is a failure reported while talking to a tool server
type ToolError struct {
	Server string
	Tool   string
	Err    error
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("tool server %s: %v", e.Server, e.Err)
	}
	return fmt.Sprintf("tool %s on server %s: %v", e.Tool, e.Server, e.Err)
}

// Unwrap returns the underlying cause
func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrExecutionFailed) match any ToolError
func (e *ToolError) Is(target error) bool {
	return target == ErrExecutionFailed
}
