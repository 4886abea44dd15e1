package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	assert "github.com/stretchr/testify/assert"
	mock "github.com/stretchr/testify/mock"
	require "github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	client       *FakeToolServerClient
	model        *FakeLanguageModel
	orchestrator *Orchestrator
	tracker      *ExecutionTracker
}

func newOrchestratorFixture(consent domain.ConsentChannel) *orchestratorFixture {
	client := &FakeToolServerClient{}
	model := &FakeLanguageModel{}
	cache := storage.NewMemoryCache()
	cfg := testConfig("files")

	registry := NewToolRegistry(client, cache, nil, nil, cfg)
	tracker := NewExecutionTracker(client, cache, cfg)
	risks := NewRiskAssessor(model, cfg)

	return &orchestratorFixture{
		client:       client,
		model:        model,
		orchestrator: NewOrchestrator(registry, tracker, risks, consent, model, cache, cfg),
		tracker:      tracker,
	}
}

// withFileTools scripts discovery plus tool selection and parameter extraction
func (f *orchestratorFixture) withFileTools(selected, params string) {
	f.client.On("DiscoverTools", mock.Anything, "files").Return([]domain.DiscoveredTool{
		discovered("read_file", "Read a file"),
		discovered("delete_file", "Delete a file"),
	}, nil)
	f.model.onOperation(OperationSelectTool, "NEEDS_TOOLS: yes\nSELECTED TOOL: "+selected+"\nREASONING: matches the request", nil)
	f.model.onOperation(OperationExtractParameters, "PARAMETERS: "+params+"\nCONFIDENCE: 0.9", nil)
	f.model.onOperation(OperationPredictOutcome, "EXPECTED OUTCOME: the file is handled\nALTERNATIVES: none", nil)
}

func TestOrchestrator_StopRequest(t *testing.T) {
	consent := &FakeConsentChannel{}
	f := newOrchestratorFixture(consent)

	for _, request := range []string{"stop", "Please CANCEL that", "ok exit now"} {
		reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", request)
		require.NoError(t, err)
		assert.Equal(t, MessageStopped, reply)
	}

	f.client.AssertNotCalled(t, "DiscoverTools", mock.Anything, mock.Anything)
	f.model.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	consent.AssertNotCalled(t, "RequestConsent", mock.Anything, mock.Anything)
}

func TestOrchestrator_StopCancelsSessionExecution(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	ctx := context.Background()

	f.orchestrator.trackSession(ctx, "s1", "exec-42")
	reply, err := f.orchestrator.ProcessUserRequest(ctx, "s1", "stop")
	require.NoError(t, err)
	assert.Equal(t, MessageStopped, reply)

	assert.Equal(t, domain.ExecutionStatusCancelled, f.tracker.GetExecutionStatus(ctx, "exec-42").Status)
}

func TestOrchestrator_TagsRequestLogs(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	ctx, logs := logger.TestContext()

	_, err := f.orchestrator.ProcessUserRequest(ctx, "s-logs", "stop")
	require.NoError(t, err)

	entries := logs.FilterMessage("Processing request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "s-logs", fields["session_id"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestOrchestrator_TagsDownstreamLogs(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	f.client.On("DiscoverTools", mock.Anything, "files").Return(nil, errors.New("down"))
	ctx, logs := logger.TestContext()

	reply, err := f.orchestrator.ProcessUserRequest(ctx, "s-down", "read notes.txt")
	require.NoError(t, err)
	assert.Equal(t, MessageNoSuitableTool, reply)

	entries := logs.FilterMessage("Failed to discover tools from server").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "s-down", fields["session_id"])
	assert.Equal(t, "files", fields["server"])
}

func TestOrchestrator_NoToolsDiscovered(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	f.client.On("DiscoverTools", mock.Anything, "files").Return(nil, errors.New("down"))

	reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read notes.txt")
	require.NoError(t, err)
	assert.Equal(t, MessageNoSuitableTool, reply)
	f.model.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestOrchestrator_NoSuitableTool(t *testing.T) {
	tests := []struct {
		name      string
		selection string
	}{
		{"selection of none", "NEEDS_TOOLS: yes\nSELECTED TOOL: none"},
		{"no tools needed", "NEEDS_TOOLS: no\nREASONING: just a greeting"},
		{"unknown tool", "SELECTED TOOL: calendar/create_event"},
		{"unparseable reply", "I'd love to help!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consent := &FakeConsentChannel{}
			f := newOrchestratorFixture(consent)
			f.client.On("DiscoverTools", mock.Anything, "files").Return([]domain.DiscoveredTool{
				discovered("read_file", "Read a file"),
			}, nil)
			f.model.onOperation(OperationSelectTool, tt.selection, nil)

			reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "hello there")
			require.NoError(t, err)
			assert.Equal(t, "I couldn't find a suitable tool for your request. Please try rephrasing your request.", reply)
			f.client.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			consent.AssertNotCalled(t, "RequestConsent", mock.Anything, mock.Anything)
		})
	}
}

func TestOrchestrator_SelectionFailure(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	f.client.On("DiscoverTools", mock.Anything, "files").Return([]domain.DiscoveredTool{
		discovered("read_file", "Read a file"),
	}, nil)
	f.model.onOperation(OperationSelectTool, "", errors.New("gateway down"))

	reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read notes.txt")
	require.NoError(t, err)
	assert.Equal(t, MessageNoSuitableTool, reply)
}

func TestOrchestrator_LowRiskExecutesWithoutConsent(t *testing.T) {
	consent := &FakeConsentChannel{}
	f := newOrchestratorFixture(consent)
	f.withFileTools("files/read_file", `{"path": "notes.txt"}`)
	f.model.onOperation(OperationAssessSafety, "read only", nil)
	f.model.onOperation(OperationFormatResult, "Your notes say: buy milk.", nil)
	f.client.On("CallTool", mock.Anything, "files", "read_file", map[string]any{"path": "notes.txt"}).
		Return(&domain.ToolCallResult{Success: true, Content: "buy milk"}, nil)

	ctx := context.Background()
	reply, err := f.orchestrator.ProcessUserRequest(ctx, "s1", "what is in notes.txt?")
	require.NoError(t, err)
	assert.Equal(t, "Your notes say: buy milk.", reply)
	consent.AssertNotCalled(t, "RequestConsent", mock.Anything, mock.Anything)

	id, ok := f.orchestrator.SessionExecution(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, domain.ExecutionStatusCompleted, f.tracker.GetExecutionStatus(ctx, id).Status)
}

func TestOrchestrator_ResolvesBareToolName(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	f.withFileTools("read_file", `{"path": "notes.txt"}`)
	f.model.onOperation(OperationAssessSafety, "read only", nil)
	f.model.onOperation(OperationFormatResult, "formatted", nil)
	f.client.On("CallTool", mock.Anything, "files", "read_file", mock.Anything).
		Return(&domain.ToolCallResult{Success: true, Content: "raw"}, nil)

	reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "formatted", reply)
}

func TestOrchestrator_BlockedPlan(t *testing.T) {
	tests := []struct {
		name      string
		decision  domain.ConsentDecision
		wantReply string
		wantCall  bool
	}{
		{
			name:      "approved",
			decision:  domain.ConsentDecision{Approved: true},
			wantReply: "Deleted old.log.",
			wantCall:  true,
		},
		{
			name:      "rejected with reason",
			decision:  domain.ConsentDecision{Reason: "I still need it"},
			wantReply: "Understood, I won't proceed with that action. Reason: I still need it",
		},
		{
			name:      "rejected without reason",
			decision:  domain.ConsentDecision{},
			wantReply: "Understood, I won't proceed with that action. Reason: no reason given",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consent := &FakeConsentChannel{}
			consent.On("RequestConsent", mock.Anything, mock.MatchedBy(func(r domain.ConsentRequest) bool {
				return r.Plan.ShouldBlock && r.Plan.Tool.Name == "delete_file" && r.Explanation != ""
			})).Return(tt.decision, nil).Once()

			f := newOrchestratorFixture(consent)
			f.withFileTools("files/delete_file", `{"path": "old.log"}`)
			f.model.onOperation(OperationAssessSafety, "This will delete old.log permanently.", nil)
			f.model.onOperation(OperationFormatResult, "Deleted old.log.", nil)
			f.client.On("CallTool", mock.Anything, "files", "delete_file", map[string]any{"path": "old.log"}).
				Return(&domain.ToolCallResult{Success: true, Content: "removed"}, nil)

			reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "remove old.log")
			require.NoError(t, err)
			assert.Equal(t, tt.wantReply, reply)
			consent.AssertExpectations(t)

			if tt.wantCall {
				f.client.AssertNumberOfCalls(t, "CallTool", 1)
			} else {
				f.client.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrchestrator_ModificationLoop(t *testing.T) {
	consent := &FakeConsentChannel{}
	consent.On("RequestConsent", mock.Anything, mock.Anything).
		Return(domain.ConsentDecision{ModificationRequested: true, UserFeedback: "delete old2.log instead"}, nil).Once()
	consent.On("RequestConsent", mock.Anything, mock.MatchedBy(func(r domain.ConsentRequest) bool {
		return r.Plan.Parameters["path"] == "old2.log"
	})).Return(domain.ConsentDecision{Approved: true}, nil).Once()

	f := newOrchestratorFixture(consent)
	f.withFileTools("files/delete_file", `{"path": "old.log"}`)
	f.model.onOperation(OperationAssessSafety, "This will delete the file.", nil)
	f.model.onOperation(OperationAnalyzeFeedback, `CHANGES: {"path": "old2.log"}`, nil)
	f.model.onOperation(OperationFormatResult, "Deleted old2.log.", nil)
	f.client.On("CallTool", mock.Anything, "files", "delete_file", map[string]any{"path": "old2.log"}).
		Return(&domain.ToolCallResult{Success: true, Content: "removed"}, nil)

	reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "remove old.log")
	require.NoError(t, err)
	assert.Equal(t, "Deleted old2.log.", reply)
	consent.AssertNumberOfCalls(t, "RequestConsent", 2)
	f.client.AssertNumberOfCalls(t, "CallTool", 1)
}

func TestOrchestrator_ModificationLimit(t *testing.T) {
	consent := &FakeConsentChannel{}
	consent.On("RequestConsent", mock.Anything, mock.Anything).
		Return(domain.ConsentDecision{ModificationRequested: true, UserFeedback: "try another file"}, nil)

	f := newOrchestratorFixture(consent)
	f.orchestrator.config.Orchestrator.MaxModificationRounds = 2
	f.withFileTools("files/delete_file", `{"path": "old.log"}`)
	f.model.onOperation(OperationAssessSafety, "This will delete the file.", nil)
	f.model.onOperation(OperationAnalyzeFeedback, `CHANGES: {"path": "other.log"}`, nil)

	reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "remove old.log")
	require.NoError(t, err)
	assert.Equal(t, MessageTooManyModifications, reply)
	consent.AssertNumberOfCalls(t, "RequestConsent", 2)
	f.client.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_StopDuringModification(t *testing.T) {
	consent := &FakeConsentChannel{}
	consent.On("RequestConsent", mock.Anything, mock.Anything).
		Return(domain.ConsentDecision{ModificationRequested: true, UserFeedback: "actually, stop"}, nil).Once()

	f := newOrchestratorFixture(consent)
	f.withFileTools("files/delete_file", `{"path": "old.log"}`)
	f.model.onOperation(OperationAssessSafety, "This will delete the file.", nil)

	reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "remove old.log")
	require.NoError(t, err)
	assert.Equal(t, MessageStopped, reply)
	f.client.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_ConsentErrors(t *testing.T) {
	t.Run("no channel configured", func(t *testing.T) {
		f := newOrchestratorFixture(nil)
		f.withFileTools("files/delete_file", `{"path": "old.log"}`)
		f.model.onOperation(OperationAssessSafety, "This will delete the file.", nil)

		_, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "remove old.log")
		assert.ErrorIs(t, err, domain.ErrConsentChannelNotWired)
		f.client.AssertNotCalled(t, "CallTool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("channel failure", func(t *testing.T) {
		consent := &FakeConsentChannel{}
		consent.On("RequestConsent", mock.Anything, mock.Anything).
			Return(domain.ConsentDecision{}, errors.New("terminal closed"))

		f := newOrchestratorFixture(consent)
		f.withFileTools("files/delete_file", `{"path": "old.log"}`)
		f.model.onOperation(OperationAssessSafety, "This will delete the file.", nil)

		_, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "remove old.log")
		assert.ErrorIs(t, err, domain.ErrConsentChannel)
		assert.ErrorContains(t, err, "terminal closed")
	})

	t.Run("failed safety assessment asks for consent", func(t *testing.T) {
		consent := &FakeConsentChannel{}
		consent.On("RequestConsent", mock.Anything, mock.MatchedBy(func(r domain.ConsentRequest) bool {
			return len(r.Plan.Risks) == 1 && r.Plan.Risks[0] == RiskAssessmentFailed
		})).Return(domain.ConsentDecision{Reason: "unsure"}, nil)

		f := newOrchestratorFixture(consent)
		f.withFileTools("files/read_file", `{"path": "notes.txt"}`)
		f.model.onOperation(OperationAssessSafety, "", errors.New("timeout"))

		reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read notes.txt")
		require.NoError(t, err)
		assert.Equal(t, RejectionMessage("unsure"), reply)
	})
}

func TestOrchestrator_ExecutionOutcomes(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		f := newOrchestratorFixture(&FakeConsentChannel{})
		f.withFileTools("files/read_file", `{"path": "notes.txt"}`)
		f.model.onOperation(OperationAssessSafety, "read only", nil)
		f.client.On("CallTool", mock.Anything, "files", "read_file", mock.Anything).
			Return(&domain.ToolCallResult{Success: false, Error: "no such file"}, nil)

		reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read notes.txt")
		require.NoError(t, err)
		assert.Equal(t, FailureMessage("read_file"), reply)
		f.model.AssertNotCalled(t, "Send", mock.Anything, mock.MatchedBy(func(p domain.Prompt) bool {
			return p.Operation == OperationFormatResult
		}))
	})

	t.Run("empty result", func(t *testing.T) {
		f := newOrchestratorFixture(&FakeConsentChannel{})
		f.withFileTools("files/read_file", `{"path": "empty.txt"}`)
		f.model.onOperation(OperationAssessSafety, "read only", nil)
		f.client.On("CallTool", mock.Anything, "files", "read_file", mock.Anything).
			Return(&domain.ToolCallResult{Success: true, Content: "  "}, nil)

		reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read empty.txt")
		require.NoError(t, err)
		assert.Equal(t, MessageNoOutput, reply)
	})

	t.Run("formatting failure returns raw result", func(t *testing.T) {
		f := newOrchestratorFixture(&FakeConsentChannel{})
		f.withFileTools("files/read_file", `{"path": "notes.txt"}`)
		f.model.onOperation(OperationAssessSafety, "read only", nil)
		f.model.onOperation(OperationFormatResult, "", errors.New("gateway down"))
		f.client.On("CallTool", mock.Anything, "files", "read_file", mock.Anything).
			Return(&domain.ToolCallResult{Success: true, Content: "buy milk"}, nil)

		reply, err := f.orchestrator.ProcessUserRequest(context.Background(), "s1", "read notes.txt")
		require.NoError(t, err)
		assert.Equal(t, "buy milk", reply)
	})
}

func TestOrchestrator_ExecuteDynamicFlow_StopRequest(t *testing.T) {
	f := newOrchestratorFixture(&FakeConsentChannel{})
	tool := domain.ToolDescriptor{Name: "delete_file", Server: "files", Description: "Delete a file"}

	reply, err := f.orchestrator.ExecuteDynamicFlow(context.Background(), "s1", tool, nil, "never mind, cancel")
	require.NoError(t, err)
	assert.Equal(t, MessageStopped, reply)
	f.model.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRejectionAndFailureMessages(t *testing.T) {
	assert.Equal(t, "Understood, I won't proceed with that action. Reason: no reason given", RejectionMessage("  "))
	assert.Equal(t, "Understood, I won't proceed with that action. Reason: too risky", RejectionMessage("too risky"))
	assert.Equal(t, "Sorry, something went wrong while running fetch. Please try again or rephrase your request.", FailureMessage("fetch"))
}
