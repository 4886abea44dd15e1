package adapters

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	sdk "github.com/inference-gateway/sdk"
)

var _ domain.LanguageModel = (*SDKLanguageModel)(nil)

// SDKClient is the subset of sdk.Client used to send prompts
type SDKClient interface {
	WithOptions(opts *sdk.CreateChatCompletionRequest) SDKClient
	WithMiddlewareOptions(opts *sdk.MiddlewareOptions) SDKClient
	GenerateContent(ctx context.Context, provider sdk.Provider, model string, messages []sdk.Message) (*sdk.CreateChatCompletionResponse, error)
}

// sdkClientAdapter adapts sdk.Client to SDKClient
type sdkClientAdapter struct {
	client sdk.Client
}

func (a *sdkClientAdapter) WithOptions(opts *sdk.CreateChatCompletionRequest) SDKClient {
	return &sdkClientAdapter{client: a.client.WithOptions(opts)}
}

func (a *sdkClientAdapter) WithMiddlewareOptions(opts *sdk.MiddlewareOptions) SDKClient {
	return &sdkClientAdapter{client: a.client.WithMiddlewareOptions(opts)}
}

func (a *sdkClientAdapter) GenerateContent(ctx context.Context, provider sdk.Provider, model string, messages []sdk.Message) (*sdk.CreateChatCompletionResponse, error) {
	return a.client.GenerateContent(ctx, provider, model, messages)
}

// SDKLanguageModel sends prompts to the inference gateway
type SDKLanguageModel struct {
	client SDKClient
	model  string
}

// NewSDKLanguageModel creates a language model backed by the gateway SDK.
// model must be in "provider/model" form.
func NewSDKLanguageModel(client sdk.Client, model string) *SDKLanguageModel {
	return NewSDKLanguageModelWithClient(&sdkClientAdapter{client: client}, model)
}

// NewSDKLanguageModelWithClient creates a language model with a custom SDKClient (for testing)
func NewSDKLanguageModelWithClient(client SDKClient, model string) *SDKLanguageModel {
	return &SDKLanguageModel{
		client: client,
		model:  model,
	}
}

func splitModel(model string) (sdk.Provider, string, error) {
	slashIndex := strings.Index(model, "/")
	if slashIndex <= 0 || slashIndex == len(model)-1 {
		return "", "", fmt.Errorf("invalid model format %q, expected 'provider/model'", model)
	}
	return sdk.Provider(model[:slashIndex]), model[slashIndex+1:], nil
}

// Send runs a single system+user exchange and returns the trimmed reply
func (m *SDKLanguageModel) Send(ctx context.Context, prompt domain.Prompt) (string, error) {
	provider, modelName, err := splitModel(m.model)
	if err != nil {
		return "", err
	}

	messages := make([]sdk.Message, 0, 2)
	if prompt.System != "" {
		messages = append(messages, sdk.Message{Role: sdk.System, Content: sdk.NewMessageContent(prompt.System)})
	}
	messages = append(messages, sdk.Message{Role: sdk.User, Content: sdk.NewMessageContent(prompt.User)})

	logger.S(ctx).Debugw("Sending prompt to language model",
		"operation", prompt.Operation,
		"provider", string(provider),
		"model", modelName)

	response, err := m.client.
		WithOptions(&sdk.CreateChatCompletionRequest{
			MaxTokens: &[]int{1024}[0],
		}).
		WithMiddlewareOptions(&sdk.MiddlewareOptions{
			SkipMCP: true,
		}).
		GenerateContent(ctx, provider, modelName, messages)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate content: %w", prompt.Operation, err)
	}

	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", prompt.Operation)
	}

	content, err := response.Choices[0].Message.Content.AsMessageContent0()
	if err != nil {
		return "", fmt.Errorf("%s: failed to read reply content: %w", prompt.Operation, err)
	}

	return strings.TrimSpace(content), nil
}
