package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	assert "github.com/stretchr/testify/assert"
	mock "github.com/stretchr/testify/mock"
)

func TestClassifyAssessment(t *testing.T) {
	tests := []struct {
		name         string
		assessment   string
		systemBlocks bool
		wantRisks    []string
		wantBlock    bool
	}{
		{
			name:       "read only",
			assessment: "Read only. The tool lists files.",
			wantRisks:  []string{RiskLow},
		},
		{
			name:       "delete",
			assessment: "This will DELETE the backup directory.",
			wantRisks:  []string{RiskDeletesData},
			wantBlock:  true,
		},
		{
			name:       "write and sensitive",
			assessment: "Writes credentials, which are sensitive.",
			wantRisks:  []string{RiskModifiesData, RiskSensitiveData},
			wantBlock:  true,
		},
		{
			name:       "modify",
			assessment: "It will modify the configuration",
			wantRisks:  []string{RiskModifiesData},
			wantBlock:  true,
		},
		{
			name:         "system with blocking policy",
			assessment:   "Changes a system preference",
			systemBlocks: true,
			wantRisks:    []string{RiskSystemSettings},
			wantBlock:    true,
		},
		{
			name:         "system without blocking policy",
			assessment:   "Changes a system preference",
			systemBlocks: false,
			wantRisks:    []string{RiskSystemSettings},
			wantBlock:    false,
		},
		{
			name:       "empty assessment",
			assessment: "",
			wantRisks:  []string{RiskLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyAssessment(tt.assessment, tt.systemBlocks)
			assert.Equal(t, tt.wantRisks, got.Risks)
			assert.Equal(t, tt.wantBlock, got.ShouldBlock)
		})
	}
}

func TestRiskAssessor_AssessRisks(t *testing.T) {
	tool := domain.ToolDescriptor{Name: "remove_file", Description: "Remove a file", Server: "files"}
	params := map[string]any{"path": "/tmp/report.txt"}

	t.Run("classifies model reply", func(t *testing.T) {
		model := &FakeLanguageModel{}
		model.onOperation(OperationAssessSafety, "This will delete /tmp/report.txt", nil)

		assessor := NewRiskAssessor(model, testConfig())
		got := assessor.AssessRisks(context.Background(), tool, params)

		assert.True(t, got.ShouldBlock)
		assert.Equal(t, []string{RiskDeletesData}, got.Risks)
		model.AssertExpectations(t)
	})

	t.Run("prompt carries tool and parameters", func(t *testing.T) {
		model := &FakeLanguageModel{}
		model.On("Send", mock.Anything, mock.MatchedBy(func(p domain.Prompt) bool {
			return p.Operation == OperationAssessSafety &&
				strings.Contains(p.User, "remove_file") &&
				strings.Contains(p.User, "/tmp/report.txt")
		})).Return("read only", nil)

		assessor := NewRiskAssessor(model, testConfig())
		got := assessor.AssessRisks(context.Background(), tool, params)

		assert.False(t, got.ShouldBlock)
		model.AssertExpectations(t)
	})

	t.Run("failed assessment blocks", func(t *testing.T) {
		model := &FakeLanguageModel{}
		model.onOperation(OperationAssessSafety, "", errors.New("gateway unavailable"))

		assessor := NewRiskAssessor(model, testConfig())
		got := assessor.AssessRisks(context.Background(), tool, params)

		assert.True(t, got.ShouldBlock)
		assert.Equal(t, []string{RiskAssessmentFailed}, got.Risks)
	})

	t.Run("system policy from config", func(t *testing.T) {
		model := &FakeLanguageModel{}
		model.onOperation(OperationAssessSafety, "changes a system setting", nil)

		cfg := testConfig()
		cfg.Risk.SystemBlocks = false
		got := NewRiskAssessor(model, cfg).AssessRisks(context.Background(), tool, params)

		assert.False(t, got.ShouldBlock)
		assert.Equal(t, []string{RiskSystemSettings}, got.Risks)
	})
}
