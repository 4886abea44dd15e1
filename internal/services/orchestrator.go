package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	logger "github.com/inference-gateway/toolgate/internal/logger"
)

// User-facing replies
const (
	MessageStopped              = "Okay, I've stopped. Let me know if you need anything else."
	MessageNoSuitableTool       = "I couldn't find a suitable tool for your request. Please try rephrasing your request."
	MessageTooManyModifications = "We've changed this plan several times without settling on it, so I've stopped here. Please send a new request describing exactly what you'd like to do."
	MessageNoOutput             = "Done. The action finished without returning any output."

	defaultRejectionReason    = "no reason given"
	defaultModificationRounds = 5
	maxSelectionTools         = 40
)

var defaultStopWords = []string{"stop", "cancel", "quit", "exit"}

// RejectionMessage is the reply to a rejected plan
func RejectionMessage(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}
	return "Understood, I won't proceed with that action. Reason: " + reason
}

// FailureMessage is the reply to a failed execution
func FailureMessage(tool string) string {
	return fmt.Sprintf("Sorry, something went wrong while running %s. Please try again or rephrase your request.", tool)
}

// Orchestrator runs one user request through discovery, selection,
// parameter extraction, the risk and consent gate, execution and result
// formatting. It keeps no per-request state of its own; the current
// execution of each session lives in the cache.
type Orchestrator struct {
	registry *ToolRegistry
	tracker  *ExecutionTracker
	risks    *RiskAssessor
	consent  domain.ConsentChannel
	model    domain.LanguageModel
	cache    domain.CacheStore
	config   *config.Config
}

// NewOrchestrator wires an orchestrator. model should be memoized.
func NewOrchestrator(
	registry *ToolRegistry,
	tracker *ExecutionTracker,
	risks *RiskAssessor,
	consent domain.ConsentChannel,
	model domain.LanguageModel,
	cache domain.CacheStore,
	cfg *config.Config,
) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		tracker:  tracker,
		risks:    risks,
		consent:  consent,
		model:    model,
		cache:    cache,
		config:   cfg,
	}
}

func sessionKey(sessionID string) string {
	return storage.PrefixSession + sessionID + ":execution"
}

func (o *Orchestrator) isStopRequest(text string) bool {
	words := o.config.Orchestrator.StopWords
	if len(words) == 0 {
		words = defaultStopWords
	}

	lower := strings.ToLower(text)
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" && strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// ProcessUserRequest answers one free-text request for sessionID. Only
// consent channel failures are returned as errors; every other failure
// becomes a plain reply.
func (o *Orchestrator) ProcessUserRequest(ctx context.Context, sessionID, request string) (string, error) {
	ctx = logger.WithRequest(ctx, sessionID, uuid.NewString())
	logger.S(ctx).Infow("Processing request", "request_length", len(request))

	if o.isStopRequest(request) {
		o.cancelSession(ctx, sessionID)
		return MessageStopped, nil
	}

	tools := o.registry.GetAllTools(ctx)
	if len(tools) == 0 {
		return MessageNoSuitableTool, nil
	}
	if len(tools) > maxSelectionTools {
		if narrowed := o.registry.FindToolsByCapability(ctx, request); len(narrowed) > 0 {
			tools = narrowed
		}
	}

	selection := o.selectTool(ctx, request, tools)
	tool, ok := resolveTool(tools, selection.Tool)
	if !ok {
		logger.S(ctx).Infow("No tool selected", "selected", selection.Tool)
		return MessageNoSuitableTool, nil
	}

	extraction := o.extractParameters(ctx, request, tool, selection.Reasoning)
	logger.S(ctx).Debugw("Extracted parameters",
		"tool", tool.Key(),
		"parameter_count", len(extraction.Parameters),
		"confidence", extraction.Confidence)

	return o.ExecuteDynamicFlow(ctx, sessionID, tool, extraction.Parameters, request)
}

func (o *Orchestrator) selectTool(ctx context.Context, request string, tools []domain.ToolDescriptor) ToolSelection {
	reply, err := o.model.Send(ctx, SelectionPrompt(request, tools))
	if err != nil {
		logger.S(ctx).Warnw("Tool selection failed", "error", domain.ErrSelectionFailed, "cause", err)
		return ToolSelection{}
	}
	return ParseToolSelection(reply)
}

func (o *Orchestrator) extractParameters(ctx context.Context, request string, tool domain.ToolDescriptor, reasoning string) ParameterExtraction {
	reply, err := o.model.Send(ctx, ExtractionPrompt(request, tool, reasoning))
	if err != nil {
		logger.S(ctx).Warnw("Parameter extraction failed", "tool", tool.Key(), "error", domain.ErrExtractionFailed, "cause", err)
		return ParameterExtraction{Parameters: map[string]any{}}
	}
	return ParseParameterExtraction(reply)
}

// resolveTool matches a selection against "server/name" first, then name
func resolveTool(tools []domain.ToolDescriptor, selected string) (domain.ToolDescriptor, bool) {
	if selected == "" {
		return domain.ToolDescriptor{}, false
	}
	for _, tool := range tools {
		if strings.EqualFold(tool.Key(), selected) {
			return tool, true
		}
	}
	for _, tool := range tools {
		if strings.EqualFold(tool.Name, selected) {
			return tool, true
		}
	}
	return domain.ToolDescriptor{}, false
}

// ExecuteDynamicFlow gates the plan (tool, params) on risk and consent, then
// executes it. Requested modifications loop back through the gate with the
// changed parameters, up to the configured number of rounds.
func (o *Orchestrator) ExecuteDynamicFlow(ctx context.Context, sessionID string, tool domain.ToolDescriptor, params map[string]any, originalRequest string) (string, error) {
	maxRounds := o.config.Orchestrator.MaxModificationRounds
	if maxRounds <= 0 {
		maxRounds = defaultModificationRounds
	}
	if params == nil {
		params = map[string]any{}
	}

	for round := 0; ; round++ {
		if o.isStopRequest(originalRequest) {
			o.cancelSession(ctx, sessionID)
			return MessageStopped, nil
		}

		plan := o.buildPlan(ctx, tool, params)
		if !plan.ShouldBlock {
			return o.run(ctx, sessionID, tool, params, originalRequest), nil
		}

		decision, err := o.requestConsent(ctx, plan)
		if err != nil {
			return "", err
		}

		switch {
		case decision.Approved:
			return o.run(ctx, sessionID, tool, params, originalRequest), nil

		case decision.ModificationRequested:
			if o.isStopRequest(decision.UserFeedback) {
				o.cancelSession(ctx, sessionID)
				return MessageStopped, nil
			}
			if round+1 >= maxRounds {
				logger.S(ctx).Infow("Modification limit reached", "rounds", maxRounds)
				return MessageTooManyModifications, nil
			}

			changes := o.analyzeFeedback(ctx, tool, params, decision.UserFeedback)
			params = mergeParameters(params, changes)
			logger.S(ctx).Debugw("Plan modified", "tool", tool.Key(), "round", round+1, "changed", len(changes))

		default:
			return RejectionMessage(decision.Reason), nil
		}
	}
}

func (o *Orchestrator) buildPlan(ctx context.Context, tool domain.ToolDescriptor, params map[string]any) domain.Plan {
	plan := domain.Plan{
		Tool:       tool,
		Parameters: params,
	}

	if reply, err := o.model.Send(ctx, OutcomePrompt(tool, params)); err != nil {
		logger.S(ctx).Warnw("Outcome prediction failed", "tool", tool.Key(), "error", err)
	} else {
		prediction := ParseOutcomePrediction(reply)
		plan.ExpectedOutcome = prediction.ExpectedOutcome
		plan.Alternatives = prediction.Alternatives
	}

	assessment := o.risks.AssessRisks(ctx, tool, params)
	plan.Risks = assessment.Risks
	plan.ShouldBlock = assessment.ShouldBlock
	return plan
}

func (o *Orchestrator) requestConsent(ctx context.Context, plan domain.Plan) (domain.ConsentDecision, error) {
	if o.consent == nil {
		return domain.ConsentDecision{}, domain.ErrConsentChannelNotWired
	}

	decision, err := o.consent.RequestConsent(ctx, domain.ConsentRequest{
		Explanation:  ExplainPlan(plan),
		Plan:         plan,
		Alternatives: plan.Alternatives,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConsentChannel) {
			return domain.ConsentDecision{}, err
		}
		return domain.ConsentDecision{}, fmt.Errorf("%w: %w", domain.ErrConsentChannel, err)
	}
	return decision, nil
}

func (o *Orchestrator) analyzeFeedback(ctx context.Context, tool domain.ToolDescriptor, params map[string]any, feedback string) map[string]any {
	reply, err := o.model.Send(ctx, ModificationPrompt(tool, params, feedback))
	if err != nil {
		logger.S(ctx).Warnw("Feedback analysis failed", "tool", tool.Key(), "error", err)
		return map[string]any{}
	}
	return ParseChanges(reply)
}

// run executes an approved or low-risk plan and turns the record into a reply
func (o *Orchestrator) run(ctx context.Context, sessionID string, tool domain.ToolDescriptor, params map[string]any, request string) string {
	id := o.tracker.NewExecutionID()
	o.trackSession(ctx, sessionID, id)

	record := o.tracker.ExecuteToolWithID(ctx, id, tool, params)
	switch record.Status {
	case domain.ExecutionStatusCompleted:
		return o.formatResult(ctx, request, tool, record.Result)
	case domain.ExecutionStatusCancelled:
		return MessageStopped
	default:
		return FailureMessage(tool.Name)
	}
}

func (o *Orchestrator) formatResult(ctx context.Context, request string, tool domain.ToolDescriptor, result string) string {
	if strings.TrimSpace(result) == "" {
		return MessageNoOutput
	}

	reply, err := o.model.Send(ctx, FormatResultPrompt(request, tool, result))
	if err != nil || strings.TrimSpace(reply) == "" {
		logger.S(ctx).Warnw("Result formatting failed, returning raw result", "tool", tool.Key(), "error", err)
		return result
	}
	return reply
}

func (o *Orchestrator) trackSession(ctx context.Context, sessionID, executionID string) {
	if sessionID == "" {
		return
	}
	if err := storage.Save(ctx, o.cache, sessionKey(sessionID), executionID, o.tracker.resultTTL()); err != nil {
		logger.S(ctx).Warnw("Failed to track session execution", "execution_id", executionID, "error", err)
	}
}

// SessionExecution returns the id of the execution last started for sessionID
func (o *Orchestrator) SessionExecution(ctx context.Context, sessionID string) (string, bool) {
	var id string
	found, err := storage.Load(ctx, o.cache, sessionKey(sessionID), &id)
	if err != nil || !found {
		return "", false
	}
	return id, true
}

func (o *Orchestrator) cancelSession(ctx context.Context, sessionID string) {
	id, ok := o.SessionExecution(ctx, sessionID)
	if !ok {
		return
	}
	if err := o.tracker.CancelExecution(ctx, id); err != nil {
		logger.S(ctx).Warnw("Failed to cancel session execution", "execution_id", id, "error", err)
	}
}
