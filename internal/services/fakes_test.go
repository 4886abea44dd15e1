package services

import (
	"context"
	"time"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	mock "github.com/stretchr/testify/mock"
)

type FakeToolServerClient struct {
	mock.Mock
}

func (f *FakeToolServerClient) DiscoverTools(ctx context.Context, serverName string) ([]domain.DiscoveredTool, error) {
	args := f.Called(ctx, serverName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DiscoveredTool), args.Error(1)
}

func (f *FakeToolServerClient) CallTool(ctx context.Context, serverName, toolName string, params map[string]any) (*domain.ToolCallResult, error) {
	args := f.Called(ctx, serverName, toolName, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ToolCallResult), args.Error(1)
}

type FakeLanguageModel struct {
	mock.Mock
}

func (f *FakeLanguageModel) Send(ctx context.Context, prompt domain.Prompt) (string, error) {
	args := f.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// onOperation scripts the reply for every prompt of one operation
func (f *FakeLanguageModel) onOperation(operation, reply string, err error) *mock.Call {
	return f.On("Send", mock.Anything, mock.MatchedBy(func(p domain.Prompt) bool {
		return p.Operation == operation
	})).Return(reply, err)
}

type FakeConsentChannel struct {
	mock.Mock
}

func (f *FakeConsentChannel) RequestConsent(ctx context.Context, request domain.ConsentRequest) (domain.ConsentDecision, error) {
	args := f.Called(ctx, request)
	return args.Get(0).(domain.ConsentDecision), args.Error(1)
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// failingCache fails every operation, for degradation tests
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func (failingCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return context.DeadlineExceeded
}

func (failingCache) Delete(ctx context.Context, key string) error { return context.DeadlineExceeded }

func (failingCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	return context.DeadlineExceeded
}

func (failingCache) Close() error { return nil }

func testConfig(servers ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.MCP.Servers = nil
	for _, name := range servers {
		cfg.MCP.Servers = append(cfg.MCP.Servers, config.MCPServerEntry{
			Name:    name,
			URL:     "http://" + name + ".test/mcp",
			Enabled: true,
		})
	}
	return cfg
}

func objectSchema(required []any, properties ...string) map[string]any {
	props := map[string]any{}
	for _, p := range properties {
		props[p] = map[string]any{"type": "string"}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if required != nil {
		schema["required"] = required
	}
	return schema
}

func discovered(name, description string) domain.DiscoveredTool {
	return domain.DiscoveredTool{
		Name:        name,
		Description: description,
		InputSchema: objectSchema([]any{"path"}, "path"),
	}
}

func newTestCache(clock *fakeClock) *storage.MemoryCache {
	return storage.NewMemoryCache().WithClock(clock.Now)
}
