package services

import (
	"context"
	"strings"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	logger "github.com/inference-gateway/toolgate/internal/logger"
)

// Risk descriptions shown to users
const (
	RiskModifiesData     = "may modify your data"
	RiskDeletesData      = "may delete data"
	RiskSensitiveData    = "may access sensitive information"
	RiskSystemSettings   = "may affect system settings"
	RiskLow              = "Low risk operation"
	RiskAssessmentFailed = "Unable to assess safety"
)

// RiskAssessor classifies a model's safety assessment of a plan
type RiskAssessor struct {
	model  domain.LanguageModel
	config *config.Config
}

// NewRiskAssessor creates an assessor; model is normally a Memoizer
func NewRiskAssessor(model domain.LanguageModel, cfg *config.Config) *RiskAssessor {
	return &RiskAssessor{
		model:  model,
		config: cfg,
	}
}

// AssessRisks asks the model for a safety assessment and classifies it.
// A failed assessment blocks.
func (a *RiskAssessor) AssessRisks(ctx context.Context, tool domain.ToolDescriptor, params map[string]any) domain.RiskAssessment {
	assessment, err := a.model.Send(ctx, SafetyPrompt(tool, params))
	if err != nil {
		logger.S(ctx).Warnw("Safety assessment failed, blocking plan",
			"tool", tool.Key(),
			"error", domain.ErrSafetyAssessmentFailed,
			"cause", err)
		return domain.RiskAssessment{
			Risks:       []string{RiskAssessmentFailed},
			ShouldBlock: true,
		}
	}

	return ClassifyAssessment(assessment, a.config.Risk.SystemBlocks)
}

// ClassifyAssessment maps keywords in a free-text assessment to risks
func ClassifyAssessment(assessment string, systemBlocks bool) domain.RiskAssessment {
	text := strings.ToLower(assessment)
	result := domain.RiskAssessment{}

	if strings.Contains(text, "write") || strings.Contains(text, "modify") {
		result.Risks = append(result.Risks, RiskModifiesData)
		result.ShouldBlock = true
	}
	if strings.Contains(text, "delete") {
		result.Risks = append(result.Risks, RiskDeletesData)
		result.ShouldBlock = true
	}
	if strings.Contains(text, "sensitive") {
		result.Risks = append(result.Risks, RiskSensitiveData)
		result.ShouldBlock = true
	}
	if strings.Contains(text, "system") {
		result.Risks = append(result.Risks, RiskSystemSettings)
		if systemBlocks {
			result.ShouldBlock = true
		}
	}

	if len(result.Risks) == 0 {
		result.Risks = []string{RiskLow}
	}
	return result
}
