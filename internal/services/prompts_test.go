package services

import (
	"strings"
	"testing"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	assert "github.com/stretchr/testify/assert"
)

func TestParseToolSelection(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ToolSelection
	}{
		{
			name: "plain markers",
			text: "NEEDS_TOOLS: yes\nSELECTED TOOL: files/read_file\nREASONING: The user wants file contents.",
			want: ToolSelection{NeedsTools: true, Tool: "files/read_file", Reasoning: "The user wants file contents."},
		},
		{
			name: "bold markers and backticks",
			text: "**NEEDS_TOOLS:** yes\n**SELECTED TOOL:** `read_file`\n**REASONING:** reads a file",
			want: ToolSelection{NeedsTools: true, Tool: "read_file", Reasoning: "reads a file"},
		},
		{
			name: "case insensitive markers",
			text: "needs_tools: Yes\nselected tool: web/fetch",
			want: ToolSelection{NeedsTools: true, Tool: "web/fetch"},
		},
		{
			name: "no tools needed",
			text: "NEEDS_TOOLS: no\nSELECTED TOOL: files/read_file\nREASONING: small talk",
			want: ToolSelection{NeedsTools: false, Reasoning: "small talk"},
		},
		{
			name: "selection of none",
			text: "NEEDS_TOOLS: yes\nSELECTED TOOL: none",
			want: ToolSelection{NeedsTools: true},
		},
		{
			name: "missing selection",
			text: "I am not sure what you mean.",
			want: ToolSelection{NeedsTools: true},
		},
		{
			name: "first occurrence wins",
			text: "SELECTED TOOL: files/read_file\nSELECTED TOOL: files/delete_file",
			want: ToolSelection{NeedsTools: true, Tool: "files/read_file"},
		},
		{
			name: "multi line reasoning",
			text: "SELECTED TOOL: web/fetch\nREASONING: first line\nsecond line",
			want: ToolSelection{NeedsTools: true, Tool: "web/fetch", Reasoning: "first line\nsecond line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseToolSelection(tt.text))
		})
	}
}

func TestParseParameterExtraction(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		wantParams     map[string]any
		wantConfidence float64
	}{
		{
			name:           "inline object",
			text:           `PARAMETERS: {"path": "notes.txt", "limit": 10}` + "\nCONFIDENCE: 0.9",
			wantParams:     map[string]any{"path": "notes.txt", "limit": float64(10)},
			wantConfidence: 0.9,
		},
		{
			name:           "fenced object",
			text:           "PARAMETERS:\n```json\n{\"query\": \"a}b\", \"filters\": {\"lang\": \"go\"}}\n```\nCONFIDENCE: 85%",
			wantParams:     map[string]any{"query": "a}b", "filters": map[string]any{"lang": "go"}},
			wantConfidence: 0.85,
		},
		{
			name:           "confidence out of hundred",
			text:           `PARAMETERS: {}` + "\nCONFIDENCE: 70",
			wantParams:     map[string]any{},
			wantConfidence: 0.7,
		},
		{
			name:           "malformed object",
			text:           "PARAMETERS: {path: notes.txt}\nCONFIDENCE: high",
			wantParams:     map[string]any{},
			wantConfidence: 0,
		},
		{
			name:           "no markers",
			text:           "Sorry, I cannot help.",
			wantParams:     map[string]any{},
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseParameterExtraction(tt.text)
			assert.Equal(t, tt.wantParams, got.Parameters)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
		})
	}
}

func TestParseOutcomePrediction(t *testing.T) {
	tests := []struct {
		name             string
		text             string
		wantOutcome      string
		wantAlternatives []string
	}{
		{
			name:             "bulleted alternatives",
			text:             "EXPECTED OUTCOME: The file is removed.\nALTERNATIVES:\n- Move it to trash\n2. Archive it first",
			wantOutcome:      "The file is removed.",
			wantAlternatives: []string{"Move it to trash", "Archive it first"},
		},
		{
			name:             "semicolon alternatives",
			text:             "EXPECTED OUTCOME: Sends a message\nALTERNATIVES: Draft it; Send to yourself",
			wantOutcome:      "Sends a message",
			wantAlternatives: []string{"Draft it", "Send to yourself"},
		},
		{
			name:        "no alternatives",
			text:        "EXPECTED OUTCOME: Lists files\nALTERNATIVES: none.",
			wantOutcome: "Lists files",
		},
		{
			name: "missing markers",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutcomePrediction(tt.text)
			assert.Equal(t, tt.wantOutcome, got.ExpectedOutcome)
			assert.Equal(t, tt.wantAlternatives, got.Alternatives)
		})
	}
}

func TestParseChanges(t *testing.T) {
	assert.Equal(t, map[string]any{"path": "b.txt"}, ParseChanges(`CHANGES: {"path": "b.txt"}`))
	assert.Equal(t, map[string]any{}, ParseChanges("CHANGES: nothing to change"))
	assert.Equal(t, map[string]any{}, ParseChanges(""))
}

func TestMergeParameters(t *testing.T) {
	base := map[string]any{"path": "a.txt", "force": true}
	changes := map[string]any{"path": "b.txt"}

	merged := mergeParameters(base, changes)
	assert.Equal(t, map[string]any{"path": "b.txt", "force": true}, merged)
	assert.Equal(t, "a.txt", base["path"])
}

func TestSelectionPrompt_ListsTools(t *testing.T) {
	tools := []domain.ToolDescriptor{
		{Name: "read_file", Server: "files", Category: "files", Summary: "read_file: Read a file"},
		{Name: "fetch", Server: "web", Category: "web", Summary: "fetch: Fetch a URL"},
	}

	prompt := SelectionPrompt("show me notes.txt", tools)
	assert.Equal(t, OperationSelectTool, prompt.Operation)
	assert.Contains(t, prompt.User, "- files/read_file [files]: read_file: Read a file")
	assert.Contains(t, prompt.User, "- web/fetch [web]: fetch: Fetch a URL")
	assert.Contains(t, prompt.User, "show me notes.txt")
	for _, marker := range []string{MarkerNeedsTools, MarkerSelectedTool, MarkerReasoning} {
		assert.True(t, strings.Contains(prompt.System, marker), marker)
	}
}

func TestPromptsAreDeterministic(t *testing.T) {
	tool := domain.ToolDescriptor{Name: "write_file", Server: "files", Description: "Write a file"}
	params := map[string]any{"b": 2, "a": 1, "path": "x"}

	assert.Equal(t, SafetyPrompt(tool, params), SafetyPrompt(tool, params))
	assert.Equal(t, OutcomePrompt(tool, params), OutcomePrompt(tool, params))
}
