package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	domain "github.com/inference-gateway/toolgate/internal/domain"
)

// Field markers shared by the prompts and the response parsers. Every
// parser has a total fallback for an absent or malformed marker.
const (
	MarkerNeedsTools      = "NEEDS_TOOLS:"
	MarkerSelectedTool    = "SELECTED TOOL:"
	MarkerReasoning       = "REASONING:"
	MarkerParameters      = "PARAMETERS:"
	MarkerConfidence      = "CONFIDENCE:"
	MarkerExpectedOutcome = "EXPECTED OUTCOME:"
	MarkerAlternatives    = "ALTERNATIVES:"
	MarkerChanges         = "CHANGES:"
)

var allMarkers = []string{
	MarkerNeedsTools,
	MarkerSelectedTool,
	MarkerReasoning,
	MarkerParameters,
	MarkerConfidence,
	MarkerExpectedOutcome,
	MarkerAlternatives,
	MarkerChanges,
}

var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// Operation names, also used as memoization namespaces
const (
	OperationSelectTool        = "select_tool"
	OperationExtractParameters = "extract_parameters"
	OperationPredictOutcome    = "predict_outcome"
	OperationAssessSafety      = "assess_safety"
	OperationAnalyzeFeedback   = "analyze_feedback"
	OperationFormatResult      = "format_result"
)

// ToolSelection is the parsed answer to a selection prompt
type ToolSelection struct {
	NeedsTools bool
	Tool       string
	Reasoning  string
}

// ParameterExtraction is the parsed answer to an extraction prompt
type ParameterExtraction struct {
	Parameters map[string]any
	Confidence float64
}

// OutcomePrediction is the parsed answer to an outcome prompt
type OutcomePrediction struct {
	ExpectedOutcome string
	Alternatives    []string
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SelectionPrompt asks the model to pick one tool for request
func SelectionPrompt(request string, tools []domain.ToolDescriptor) domain.Prompt {
	var list strings.Builder
	for _, tool := range tools {
		fmt.Fprintf(&list, "- %s [%s]: %s\n", tool.Key(), tool.Category, tool.Summary)
	}

	return domain.Prompt{
		Operation: OperationSelectTool,
		System: "You route user requests to tools. Answer using exactly these lines:\n" +
			MarkerNeedsTools + " yes or no\n" +
			MarkerSelectedTool + " the tool identifier from the list, or none\n" +
			MarkerReasoning + " one or two sentences",
		User: fmt.Sprintf("Available tools:\n%s\nUser request: %s", list.String(), request),
	}
}

// ExtractionPrompt asks the model for the arguments of tool
func ExtractionPrompt(request string, tool domain.ToolDescriptor, reasoning string) domain.Prompt {
	return domain.Prompt{
		Operation: OperationExtractParameters,
		System: "You extract tool arguments from user requests. Answer using exactly these lines:\n" +
			MarkerParameters + " a single JSON object matching the input schema\n" +
			MarkerConfidence + " a number between 0 and 1",
		User: fmt.Sprintf("Tool: %s\nDescription: %s\nInput schema:\n%s\nWhy this tool was chosen: %s\nUser request: %s",
			tool.Key(), tool.Description, toJSON(tool.InputSchema()), reasoning, request),
	}
}

// OutcomePrompt asks the model what running the plan will do
func OutcomePrompt(tool domain.ToolDescriptor, params map[string]any) domain.Prompt {
	return domain.Prompt{
		Operation: OperationPredictOutcome,
		System: "You predict the effect of tool calls. Answer using exactly these lines:\n" +
			MarkerExpectedOutcome + " what will happen, in one sentence\n" +
			MarkerAlternatives + " safer alternatives, one per line, or none",
		User: fmt.Sprintf("Tool: %s\nDescription: %s\nArguments:\n%s", tool.Key(), tool.Description, toJSON(params)),
	}
}

// SafetyPrompt asks for a free-text safety assessment of the plan
func SafetyPrompt(tool domain.ToolDescriptor, params map[string]any) domain.Prompt {
	return domain.Prompt{
		Operation: OperationAssessSafety,
		System: "You review tool calls for safety. Name only the effects this call can actually have, " +
			"using the words write, modify, delete, sensitive or system where they apply. " +
			"Never mention an effect the call cannot have. If it only reads ordinary data, reply: read only.",
		User: fmt.Sprintf("Tool: %s\nDescription: %s\nArguments:\n%s", tool.Key(), tool.Description, toJSON(params)),
	}
}

// ModificationPrompt asks the model to turn user feedback into argument changes
func ModificationPrompt(tool domain.ToolDescriptor, params map[string]any, feedback string) domain.Prompt {
	return domain.Prompt{
		Operation: OperationAnalyzeFeedback,
		System: "You adjust tool arguments based on user feedback. Answer using exactly this line:\n" +
			MarkerChanges + " a JSON object with only the arguments to change",
		User: fmt.Sprintf("Tool: %s\nInput schema:\n%s\nCurrent arguments:\n%s\nUser feedback: %s",
			tool.Key(), toJSON(tool.InputSchema()), toJSON(params), feedback),
	}
}

// FormatResultPrompt asks the model to describe a raw tool result in prose
func FormatResultPrompt(request string, tool domain.ToolDescriptor, result string) domain.Prompt {
	return domain.Prompt{
		Operation: OperationFormatResult,
		System:    "You explain tool results to users in short plain prose. Do not mention internal identifiers.",
		User:      fmt.Sprintf("User request: %s\nTool: %s\nRaw result:\n%s", request, tool.Name, result),
	}
}

// parseMarkers collects marker values from text. A value runs until the
// next marker line; the first occurrence of a marker wins.
func parseMarkers(text string) map[string]string {
	fields := make(map[string]string)
	current := ""

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(strings.TrimSpace(line), "*#- ")
		upper := strings.ToUpper(trimmed)

		matched := ""
		for _, marker := range allMarkers {
			if strings.HasPrefix(upper, marker) {
				matched = marker
				break
			}
		}

		if matched != "" {
			if _, seen := fields[matched]; seen {
				current = ""
				continue
			}
			value := strings.TrimSpace(strings.Trim(trimmed[len(matched):], "* "))
			fields[matched] = value
			current = matched
			continue
		}

		if current != "" {
			fields[current] = strings.TrimSpace(fields[current] + "\n" + strings.TrimSpace(line))
		}
	}

	return fields
}

// extractJSONObject decodes the first balanced {...} in text
func extractJSONObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				var object map[string]any
				if err := json.Unmarshal([]byte(text[start:i+1]), &object); err != nil {
					return nil, false
				}
				return object, true
			}
		}
	}
	return nil, false
}

func cleanIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, "\n"); idx >= 0 {
		value = value[:idx]
	}
	return strings.Trim(strings.TrimSpace(value), "`\"'*.[]")
}

func isNone(value string) bool {
	switch strings.ToLower(value) {
	case "", "none", "null", "nil", "n/a", "no tool", "no":
		return true
	}
	return false
}

// ParseToolSelection reads NEEDS_TOOLS, SELECTED TOOL and REASONING. A
// missing selection means no tool.
func ParseToolSelection(text string) ToolSelection {
	fields := parseMarkers(text)

	selection := ToolSelection{
		NeedsTools: true,
		Reasoning:  fields[MarkerReasoning],
	}

	if needs, ok := fields[MarkerNeedsTools]; ok {
		answer := strings.ToLower(cleanIdentifier(needs))
		if strings.HasPrefix(answer, "no") || answer == "false" {
			selection.NeedsTools = false
		}
	}

	tool := cleanIdentifier(fields[MarkerSelectedTool])
	if selection.NeedsTools && !isNone(tool) {
		selection.Tool = tool
	}
	return selection
}

// ParseParameterExtraction reads PARAMETERS and CONFIDENCE, defaulting to
// no parameters with zero confidence
func ParseParameterExtraction(text string) ParameterExtraction {
	fields := parseMarkers(text)

	extraction := ParameterExtraction{Parameters: map[string]any{}}
	if params, ok := extractJSONObject(fields[MarkerParameters]); ok {
		extraction.Parameters = params
	}

	extraction.Confidence = parseConfidence(fields[MarkerConfidence])
	return extraction
}

func parseConfidence(value string) float64 {
	value = strings.TrimSpace(cleanIdentifier(value))
	percent := strings.HasSuffix(value, "%")
	value = strings.TrimSuffix(value, "%")

	confidence, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	if percent || confidence > 1 {
		confidence /= 100
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// ParseOutcomePrediction reads EXPECTED OUTCOME and ALTERNATIVES
func ParseOutcomePrediction(text string) OutcomePrediction {
	fields := parseMarkers(text)

	prediction := OutcomePrediction{
		ExpectedOutcome: fields[MarkerExpectedOutcome],
	}

	raw := fields[MarkerAlternatives]
	parts := strings.Split(raw, "\n")
	if len(parts) == 1 {
		parts = strings.Split(raw, ";")
	}
	for _, part := range parts {
		part = strings.TrimSpace(bulletPattern.ReplaceAllString(part, ""))
		if isNone(strings.Trim(part, ".")) {
			continue
		}
		prediction.Alternatives = append(prediction.Alternatives, part)
	}
	return prediction
}

// ParseChanges reads the CHANGES object, defaulting to no changes
func ParseChanges(text string) map[string]any {
	fields := parseMarkers(text)
	if changes, ok := extractJSONObject(fields[MarkerChanges]); ok {
		return changes
	}
	return map[string]any{}
}

// mergeParameters overlays changes on base without mutating either
func mergeParameters(base, changes map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(changes))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range changes {
		merged[k] = v
	}
	return merged
}
