package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	config "github.com/inference-gateway/toolgate/config"
	codec "github.com/inference-gateway/toolgate/internal/codec"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	logger "github.com/inference-gateway/toolgate/internal/logger"
)

const defaultResultTTL = time.Hour

// ExecutionTracker invokes tools and keeps their status in the shared cache.
// Only running, completed and cancelled records are persisted; failures are
// returned to the caller and the running marker is removed.
type ExecutionTracker struct {
	client domain.ToolServerClient
	cache  domain.CacheStore
	config *config.Config
	now    func() time.Time
	newID  func() string
}

// NewExecutionTracker creates a tracker
func NewExecutionTracker(client domain.ToolServerClient, cache domain.CacheStore, cfg *config.Config) *ExecutionTracker {
	return &ExecutionTracker{
		client: client,
		cache:  cache,
		config: cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func executionKey(id string, status domain.ExecutionStatus) string {
	return storage.PrefixExecution + id + ":" + string(status)
}

func (t *ExecutionTracker) resultTTL() time.Duration {
	return config.Seconds(t.config.Execution.ResultTTL, defaultResultTTL)
}

// NewExecutionID returns a fresh opaque execution identifier
func (t *ExecutionTracker) NewExecutionID() string {
	return t.newID()
}

// ExecuteTool runs tool under a new execution id
func (t *ExecutionTracker) ExecuteTool(ctx context.Context, tool domain.ToolDescriptor, params map[string]any) domain.ExecutionRecord {
	return t.ExecuteToolWithID(ctx, t.NewExecutionID(), tool, params)
}

// ExecuteToolWithID runs tool under a caller-chosen id, so the id can be
// published (e.g. against a session) before the call starts
func (t *ExecutionTracker) ExecuteToolWithID(ctx context.Context, id string, tool domain.ToolDescriptor, params map[string]any) domain.ExecutionRecord {
	record := domain.ExecutionRecord{
		ExecutionID: id,
		Status:      domain.ExecutionStatusRunning,
		Tool:        tool.Name,
		Server:      tool.Server,
		UpdatedAt:   t.now(),
	}

	if t.isCancelled(ctx, id) {
		return t.cancelledRecord(record)
	}
	t.persist(ctx, record)

	idempotent := tool.Idempotent || t.config.IsIdempotentTool(tool.Server, tool.Name)
	resultKey := ""
	if idempotent {
		key, err := resultCacheKey(tool, params)
		if err != nil {
			logger.S(ctx).Warnw("Failed to derive result cache key", "tool", tool.Key(), "error", err)
		} else {
			resultKey = key
		}
	}

	if resultKey != "" {
		var cached string
		found, err := storage.Load(ctx, t.cache, resultKey, &cached)
		if err != nil {
			logger.S(ctx).Warnw("Failed to read cached tool result", "tool", tool.Key(), "error", err)
		}
		if found {
			logger.S(ctx).Debugw("Serving tool result from cache", "tool", tool.Key(), "execution_id", id)
			record.Result = cached
			record.Cached = true
			return t.complete(ctx, record)
		}
	}

	result, err := t.client.CallTool(ctx, tool.Server, tool.Name, params)
	if err == nil && (result == nil || !result.Success) {
		message := "tool reported failure"
		if result != nil && result.Error != "" {
			message = result.Error
		}
		err = &domain.ToolError{Server: tool.Server, Tool: tool.Name, Err: fmt.Errorf("%s", message)}
	}
	if err != nil {
		return t.fail(ctx, record, err)
	}

	record.Result = result.Content
	if resultKey != "" {
		if err := storage.Save(ctx, t.cache, resultKey, result.Content, t.resultTTL()); err != nil {
			logger.S(ctx).Warnw("Failed to cache tool result", "tool", tool.Key(), "error", err)
		}
	}

	return t.complete(ctx, record)
}

func resultCacheKey(tool domain.ToolDescriptor, params map[string]any) (string, error) {
	digest, err := codec.Digest(params)
	if err != nil {
		return "", err
	}
	return storage.PrefixToolResult + tool.Server + ":" + tool.Name + ":" + digest, nil
}

// complete persists the completed record unless the execution was cancelled meanwhile
func (t *ExecutionTracker) complete(ctx context.Context, record domain.ExecutionRecord) domain.ExecutionRecord {
	if t.isCancelled(ctx, record.ExecutionID) {
		t.clearRunning(ctx, record.ExecutionID)
		return t.cancelledRecord(record)
	}

	record.Status = domain.ExecutionStatusCompleted
	record.UpdatedAt = t.now()
	t.persist(ctx, record)
	t.clearRunning(ctx, record.ExecutionID)

	logger.S(ctx).Infow("Tool execution completed",
		"execution_id", record.ExecutionID,
		"tool", record.Tool,
		"server", record.Server,
		"cached", record.Cached)
	return record
}

func (t *ExecutionTracker) fail(ctx context.Context, record domain.ExecutionRecord, err error) domain.ExecutionRecord {
	logger.S(ctx).Errorw("Tool execution failed",
		"execution_id", record.ExecutionID,
		"tool", record.Tool,
		"server", record.Server,
		"error", err)

	t.clearRunning(ctx, record.ExecutionID)
	if t.isCancelled(ctx, record.ExecutionID) {
		return t.cancelledRecord(record)
	}

	record.Status = domain.ExecutionStatusFailed
	record.Error = err.Error()
	record.UpdatedAt = t.now()
	return record
}

func (t *ExecutionTracker) cancelledRecord(record domain.ExecutionRecord) domain.ExecutionRecord {
	record.Status = domain.ExecutionStatusCancelled
	record.Result = ""
	record.UpdatedAt = t.now()
	return record
}

func (t *ExecutionTracker) persist(ctx context.Context, record domain.ExecutionRecord) {
	if err := storage.Save(ctx, t.cache, executionKey(record.ExecutionID, record.Status), record, t.resultTTL()); err != nil {
		logger.S(ctx).Warnw("Failed to persist execution record",
			"execution_id", record.ExecutionID,
			"status", record.Status,
			"error", err)
	}
}

func (t *ExecutionTracker) clearRunning(ctx context.Context, id string) {
	if err := t.cache.Delete(ctx, executionKey(id, domain.ExecutionStatusRunning)); err != nil {
		logger.S(ctx).Warnw("Failed to clear running marker", "execution_id", id, "error", err)
	}
}

func (t *ExecutionTracker) load(ctx context.Context, id string, status domain.ExecutionStatus) (domain.ExecutionRecord, bool) {
	var record domain.ExecutionRecord
	found, err := storage.Load(ctx, t.cache, executionKey(id, status), &record)
	if err != nil {
		logger.S(ctx).Warnw("Failed to read execution record", "execution_id", id, "status", status, "error", err)
		return domain.ExecutionRecord{}, false
	}
	return record, found
}

func (t *ExecutionTracker) isCancelled(ctx context.Context, id string) bool {
	_, found := t.load(ctx, id, domain.ExecutionStatusCancelled)
	return found
}

// CancelExecution marks an execution cancelled. The marker is cooperative:
// an in-flight tool call is not aborted, but its result is never recorded
// as completed. A completed execution stays completed.
func (t *ExecutionTracker) CancelExecution(ctx context.Context, id string) error {
	if _, completed := t.load(ctx, id, domain.ExecutionStatusCompleted); completed {
		logger.S(ctx).Debugw("Ignoring cancel of completed execution", "execution_id", id)
		return nil
	}

	record := domain.ExecutionRecord{
		ExecutionID: id,
		Status:      domain.ExecutionStatusCancelled,
		UpdatedAt:   t.now(),
	}
	if running, found := t.load(ctx, id, domain.ExecutionStatusRunning); found {
		record.Tool = running.Tool
		record.Server = running.Server
	}

	if err := storage.Save(ctx, t.cache, executionKey(id, domain.ExecutionStatusCancelled), record, t.resultTTL()); err != nil {
		return fmt.Errorf("failed to cancel execution %s: %w", id, err)
	}

	logger.S(ctx).Infow("Execution cancelled", "execution_id", id)
	return nil
}

// GetExecutionStatus returns the persisted record for id. Terminal states
// win over running: cancelled first, then completed, then running.
func (t *ExecutionTracker) GetExecutionStatus(ctx context.Context, id string) domain.ExecutionRecord {
	for _, status := range []domain.ExecutionStatus{
		domain.ExecutionStatusCancelled,
		domain.ExecutionStatusCompleted,
		domain.ExecutionStatusRunning,
	} {
		if record, found := t.load(ctx, id, status); found {
			return record
		}
	}

	return domain.ExecutionRecord{
		ExecutionID: id,
		Status:      domain.ExecutionStatusNotFound,
	}
}
