package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	logger "github.com/inference-gateway/toolgate/internal/logger"
)

const (
	defaultDiscoveryCooldown = 30 * time.Second
	defaultDiscoveryTTL      = 5 * time.Minute
	defaultSemanticResults   = 10
	maxSummaryLength         = 120

	// health records never expire on their own
	serverHealthTTL time.Duration = 0
)

// ToolRegistry discovers tools from the configured servers and serves them
// from the shared cache. Discovery fans out one goroutine per server and a
// failing server never fails the whole discovery.
type ToolRegistry struct {
	client   domain.ToolServerClient
	cache    domain.CacheStore
	vectors  domain.VectorStore
	embedder domain.Embedder
	config   *config.Config
	breaker  *CircuitBreaker
	now      func() time.Time

	mu          sync.Mutex
	lastAttempt time.Time
}

// NewToolRegistry creates a registry. vectors and embedder may be nil, in
// which case capability search only uses substring matching.
func NewToolRegistry(
	client domain.ToolServerClient,
	cache domain.CacheStore,
	vectors domain.VectorStore,
	embedder domain.Embedder,
	cfg *config.Config,
) *ToolRegistry {
	return &ToolRegistry{
		client:   client,
		cache:    cache,
		vectors:  vectors,
		embedder: embedder,
		config:   cfg,
		breaker: NewCircuitBreaker(
			cfg.Registry.BreakerThreshold,
			config.Seconds(cfg.Registry.BreakerWindow, defaultBreakerWindow),
		),
		now: time.Now,
	}
}

func toolsKey(server string) string {
	return storage.PrefixDiscovery + server + ":tools"
}

func lastGoodKey(server string) string {
	return storage.PrefixDiscovery + server + ":last_good"
}

func schemaKey(tool domain.ToolDescriptor) string {
	return storage.PrefixToolSchema + tool.Key()
}

func statusKey(server string) string {
	return storage.PrefixServerStatus + server
}

func (r *ToolRegistry) discoveryTTL() time.Duration {
	return config.Seconds(r.config.Registry.DiscoveryTTL, defaultDiscoveryTTL)
}

// GetAllTools returns the union of every enabled server's tool set. Fresh
// per-server sets are served from the cache; missing sets are fetched at
// most once per cooldown window. Servers that cannot be fetched contribute
// their last good set. It never returns an error.
func (r *ToolRegistry) GetAllTools(ctx context.Context) []domain.ToolDescriptor {
	servers := r.config.MCP.EnabledServers()
	sets := make(map[string][]domain.ToolDescriptor, len(servers))

	var missing []config.MCPServerEntry
	for _, server := range servers {
		var tools []domain.ToolDescriptor
		found, err := storage.Load(ctx, r.cache, toolsKey(server.Name), &tools)
		if err != nil {
			logger.S(ctx).Warnw("Failed to read cached tools", "server", server.Name, "error", err)
		}
		if found {
			sets[server.Name] = tools
			continue
		}
		missing = append(missing, server)
	}

	if len(missing) > 0 {
		if r.startAttempt() {
			r.discover(ctx, missing, sets)
		} else {
			logger.S(ctx).Debugw("Discovery cooldown active, serving cached tools", "missing_servers", len(missing))
		}

		for _, server := range missing {
			if _, ok := sets[server.Name]; ok {
				continue
			}
			if tools, ok := r.lastGood(ctx, server.Name); ok {
				sets[server.Name] = tools
			}
		}
	}

	var result []domain.ToolDescriptor
	for _, server := range servers {
		result = append(result, sets[server.Name]...)
	}

	if len(result) == 0 && len(servers) > 0 {
		logger.S(ctx).Warnw("No tools available", "error", domain.ErrDiscoveryUnavailable)
	}
	return result
}

// startAttempt reports whether the cooldown has elapsed and marks a new attempt
func (r *ToolRegistry) startAttempt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cooldown := config.Seconds(r.config.Registry.DiscoveryCooldown, defaultDiscoveryCooldown)
	if !r.lastAttempt.IsZero() && now.Sub(r.lastAttempt) < cooldown {
		return false
	}
	r.lastAttempt = now
	return true
}

func (r *ToolRegistry) discover(ctx context.Context, servers []config.MCPServerEntry, sets map[string][]domain.ToolDescriptor) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, server := range servers {
		r.restoreHealth(ctx, server.Name)
		if r.breaker.IsOpen(server.Name) {
			logger.S(ctx).Infow("Skipping tool server with open circuit breaker", "server", server.Name)
			continue
		}

		wg.Add(1)
		go func(srv config.MCPServerEntry) {
			defer wg.Done()

			tools, err := r.fetchServer(ctx, srv)
			if err != nil {
				logger.S(ctx).Warnw("Failed to discover tools from server",
					"server", srv.Name,
					"error", err)
				return
			}

			mu.Lock()
			sets[srv.Name] = tools
			mu.Unlock()

			r.indexTools(ctx, tools)
			logger.S(ctx).Infow("Discovered tools from server",
				"server", srv.Name,
				"tool_count", len(tools))
		}(server)
	}

	wg.Wait()
}

// fetchServer discovers one server, records its health and caches the result
func (r *ToolRegistry) fetchServer(ctx context.Context, server config.MCPServerEntry) ([]domain.ToolDescriptor, error) {
	discovered, err := r.client.DiscoverTools(ctx, server.Name)
	if err != nil {
		r.recordFailure(ctx, server.Name)
		return nil, err
	}
	r.recordSuccess(ctx, server.Name)

	tools := make([]domain.ToolDescriptor, 0, len(discovered))
	for _, d := range discovered {
		tool := r.toDescriptor(server, d)
		if !ValidateToolSchema(tool) {
			logger.S(ctx).Warnw("Dropping tool with invalid schema", "server", server.Name, "tool", d.Name)
			continue
		}
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	r.storeServerTools(ctx, server.Name, tools)
	for _, tool := range tools {
		if err := storage.Save(ctx, r.cache, schemaKey(tool), tool, r.discoveryTTL()); err != nil {
			logger.S(ctx).Warnw("Failed to cache tool schema", "tool", tool.Key(), "error", err)
		}
	}

	return tools, nil
}

func (r *ToolRegistry) storeServerTools(ctx context.Context, server string, tools []domain.ToolDescriptor) {
	if err := storage.Save(ctx, r.cache, toolsKey(server), tools, r.discoveryTTL()); err != nil {
		logger.S(ctx).Warnw("Failed to cache discovered tools", "server", server, "error", err)
	}
	if err := storage.Save(ctx, r.cache, lastGoodKey(server), tools, 0); err != nil {
		logger.S(ctx).Warnw("Failed to cache last good tools", "server", server, "error", err)
	}
}

func (r *ToolRegistry) lastGood(ctx context.Context, server string) ([]domain.ToolDescriptor, bool) {
	var tools []domain.ToolDescriptor
	found, err := storage.Load(ctx, r.cache, lastGoodKey(server), &tools)
	if err != nil {
		logger.S(ctx).Warnw("Failed to read last good tools", "server", server, "error", err)
		return nil, false
	}
	return tools, found
}

// restoreHealth picks up failures recorded by other processes sharing the cache
// recordFailure counts a failed fetch and shares the health record with
// other processes until a success or reset clears it
func (r *ToolRegistry) recordFailure(ctx context.Context, server string) {
	health := r.breaker.RecordFailure(server)
	if err := storage.Save(ctx, r.cache, statusKey(server), health, serverHealthTTL); err != nil {
		logger.S(ctx).Warnw("Failed to persist server health", "server", server, "error", err)
	}
}

func (r *ToolRegistry) recordSuccess(ctx context.Context, server string) {
	r.breaker.RecordSuccess(server)
	if err := r.cache.Delete(ctx, statusKey(server)); err != nil {
		logger.S(ctx).Warnw("Failed to clear server health", "server", server, "error", err)
	}
}

func (r *ToolRegistry) restoreHealth(ctx context.Context, server string) {
	var health domain.ServerHealth
	found, err := storage.Load(ctx, r.cache, statusKey(server), &health)
	if err != nil || !found {
		return
	}
	r.breaker.Restore(health)
}

func (r *ToolRegistry) toDescriptor(server config.MCPServerEntry, d domain.DiscoveredTool) domain.ToolDescriptor {
	tool := domain.ToolDescriptor{
		Name:         d.Name,
		Description:  strings.TrimSpace(d.Description),
		Category:     d.Category,
		Capabilities: d.Capabilities,
		Server:       server.Name,
		Idempotent:   r.config.IsIdempotentTool(server.Name, d.Name),
	}

	if tool.Category == "" {
		tool.Category = server.Category
	}
	if tool.Category == "" {
		tool.Category = server.Name
	}
	if len(tool.Capabilities) == 0 {
		tool.Capabilities = nameTokens(d.Name)
	}

	if schema := normalizeSchema(d.InputSchema); schema != nil {
		tool.Schema = map[string]any{"inputSchema": schema}
	}

	tool.Summary = summarize(tool)
	return tool
}

// normalizeSchema converts whatever the wire client decoded into plain maps
func normalizeSchema(raw any) map[string]any {
	if raw == nil {
		return nil
	}
	if schema, ok := raw.(map[string]any); ok {
		return schema
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil
	}
	return schema
}

func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func summarize(tool domain.ToolDescriptor) string {
	description := tool.Description
	if idx := strings.IndexAny(description, ".\n"); idx > 0 {
		description = description[:idx]
	}

	summary := tool.Name + ": " + description
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength-3] + "..."
	}
	return summary
}

// indexTools upserts embeddings for tools; failures only degrade semantic search
func (r *ToolRegistry) indexTools(ctx context.Context, tools []domain.ToolDescriptor) {
	if r.vectors == nil || r.embedder == nil {
		return
	}

	for _, tool := range tools {
		embedding, err := r.embedder.Embed(ctx, embeddingText(tool))
		if err != nil {
			logger.S(ctx).Warnw("Failed to embed tool", "tool", tool.Key(), "error", err)
			continue
		}

		metadata := map[string]string{
			"server":   tool.Server,
			"name":     tool.Name,
			"category": tool.Category,
		}
		if err := r.vectors.Upsert(ctx, tool.Key(), embedding, metadata); err != nil {
			logger.S(ctx).Warnw("Failed to index tool", "tool", tool.Key(), "error", err)
		}
	}
}

func embeddingText(tool domain.ToolDescriptor) string {
	return strings.Join([]string{
		tool.Name,
		tool.Description,
		tool.Category,
		strings.Join(tool.Capabilities, " "),
	}, "\n")
}

// FindToolsByCategory returns tools whose name, description, category or
// capabilities contain term, ignoring case
func (r *ToolRegistry) FindToolsByCategory(ctx context.Context, term string) []domain.ToolDescriptor {
	return filterTools(r.GetAllTools(ctx), term)
}

// FindToolsByCapability tries a semantic nearest-neighbour lookup first and
// falls back to substring matching when it yields nothing
func (r *ToolRegistry) FindToolsByCapability(ctx context.Context, term string) []domain.ToolDescriptor {
	tools := r.GetAllTools(ctx)

	if matches := r.semanticSearch(ctx, tools, term); len(matches) > 0 {
		return matches
	}
	return filterTools(tools, term)
}

func (r *ToolRegistry) semanticSearch(ctx context.Context, tools []domain.ToolDescriptor, term string) []domain.ToolDescriptor {
	if r.vectors == nil || r.embedder == nil || strings.TrimSpace(term) == "" || len(tools) == 0 {
		return nil
	}

	embedding, err := r.embedder.Embed(ctx, term)
	if err != nil {
		logger.S(ctx).Warnw("Failed to embed search term", "error", err)
		return nil
	}

	k := r.config.Registry.SemanticResults
	if k <= 0 {
		k = defaultSemanticResults
	}

	hits, err := r.vectors.Query(ctx, embedding, k)
	if err != nil {
		logger.S(ctx).Warnw("Semantic tool search failed", "error", err)
		return nil
	}

	byKey := make(map[string]domain.ToolDescriptor, len(tools))
	for _, tool := range tools {
		byKey[tool.Key()] = tool
	}

	var result []domain.ToolDescriptor
	for _, hit := range hits {
		if tool, ok := byKey[hit.ID]; ok {
			result = append(result, tool)
		}
	}
	return result
}

func filterTools(tools []domain.ToolDescriptor, term string) []domain.ToolDescriptor {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tools
	}

	var result []domain.ToolDescriptor
	for _, tool := range tools {
		if matchesTerm(tool, term) {
			result = append(result, tool)
		}
	}
	return result
}

func matchesTerm(tool domain.ToolDescriptor, term string) bool {
	if strings.Contains(strings.ToLower(tool.Name), term) ||
		strings.Contains(strings.ToLower(tool.Description), term) ||
		strings.Contains(strings.ToLower(tool.Category), term) {
		return true
	}
	for _, capability := range tool.Capabilities {
		if strings.Contains(strings.ToLower(capability), term) {
			return true
		}
	}
	return false
}

// ValidateToolSchema checks the structure of a descriptor. It logs the first
// problem found and never panics.
func ValidateToolSchema(tool domain.ToolDescriptor) bool {
	if strings.TrimSpace(tool.Name) == "" {
		logger.Debug("Invalid tool schema: missing name", "server", tool.Server)
		return false
	}
	if strings.TrimSpace(tool.Description) == "" {
		logger.Debug("Invalid tool schema: missing description", "tool", tool.Name)
		return false
	}

	if tool.Schema == nil {
		return true
	}
	raw, present := tool.Schema["inputSchema"]
	if !present || raw == nil {
		return true
	}

	inputSchema, ok := raw.(map[string]any)
	if !ok {
		logger.Debug("Invalid tool schema: inputSchema is not an object", "tool", tool.Name)
		return false
	}

	var properties map[string]any
	if rawProperties, present := inputSchema["properties"]; present && rawProperties != nil {
		properties, ok = rawProperties.(map[string]any)
		if !ok {
			logger.Debug("Invalid tool schema: properties is not an object", "tool", tool.Name)
			return false
		}
		for key, value := range properties {
			if _, isObject := value.(map[string]any); !isObject {
				logger.Debug("Invalid tool schema: property is not an object", "tool", tool.Name, "property", key)
				return false
			}
		}
	}

	rawRequired, present := inputSchema["required"]
	if !present || rawRequired == nil {
		return true
	}

	required, ok := rawRequired.([]any)
	if !ok {
		if names, isStrings := rawRequired.([]string); isStrings {
			required = make([]any, len(names))
			for i, name := range names {
				required[i] = name
			}
		} else {
			logger.Debug("Invalid tool schema: required is not an array", "tool", tool.Name)
			return false
		}
	}

	for _, entry := range required {
		name, isString := entry.(string)
		if !isString {
			logger.Debug("Invalid tool schema: required entry is not a string", "tool", tool.Name)
			return false
		}
		if _, exists := properties[name]; !exists {
			logger.Debug("Invalid tool schema: required property missing", "tool", tool.Name, "property", name)
			return false
		}
	}

	return true
}

// RefreshToolSchema re-fetches server and updates the cached set plus the
// schema cache and vector entry of the named tool
func (r *ToolRegistry) RefreshToolSchema(ctx context.Context, name, server string) error {
	entry, ok := r.config.MCP.FindServer(server)
	if !ok {
		return &domain.ToolError{Server: server, Tool: name, Err: domain.ErrUnknownServer}
	}

	if err := r.cache.Delete(ctx, toolsKey(server)); err != nil {
		logger.S(ctx).Warnw("Failed to invalidate cached tools", "server", server, "error", err)
	}

	discovered, err := r.client.DiscoverTools(ctx, server)
	if err != nil {
		r.recordFailure(ctx, server)
		return fmt.Errorf("failed to refresh tools from %s: %w", server, err)
	}
	r.recordSuccess(ctx, server)

	var (
		tools []domain.ToolDescriptor
		tool  domain.ToolDescriptor
		found bool
	)
	for _, d := range discovered {
		descriptor := r.toDescriptor(entry, d)
		if !ValidateToolSchema(descriptor) {
			continue
		}
		tools = append(tools, descriptor)
		if descriptor.Name == name {
			tool, found = descriptor, true
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	r.storeServerTools(ctx, server, tools)

	if !found {
		return fmt.Errorf("tool %s not found on server %s", name, server)
	}

	if err := storage.Save(ctx, r.cache, schemaKey(tool), tool, r.discoveryTTL()); err != nil {
		return fmt.Errorf("failed to cache refreshed schema: %w", err)
	}
	r.indexTools(ctx, []domain.ToolDescriptor{tool})

	logger.S(ctx).Infow("Refreshed tool schema", "server", server, "tool", name)
	return nil
}

// GetToolSchema returns the cached descriptor of one tool
func (r *ToolRegistry) GetToolSchema(ctx context.Context, name, server string) (domain.ToolDescriptor, bool) {
	var tool domain.ToolDescriptor
	found, err := storage.Load(ctx, r.cache, schemaKey(domain.ToolDescriptor{Name: name, Server: server}), &tool)
	if err != nil || !found {
		return domain.ToolDescriptor{}, false
	}
	return tool, true
}

// ServerHealth returns the breaker record for server
func (r *ToolRegistry) ServerHealth(ctx context.Context, server string) domain.ServerHealth {
	r.restoreHealth(ctx, server)
	return r.breaker.Health(server)
}

// ResetServerHealth closes the breaker for server
func (r *ToolRegistry) ResetServerHealth(ctx context.Context, server string) error {
	r.breaker.Reset(server)
	if err := r.cache.Delete(ctx, statusKey(server)); err != nil {
		return fmt.Errorf("failed to reset server health: %w", err)
	}
	return nil
}
