package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/havenlabs/haven/backend/internal/config"
)

// ArkProvider drives the Ark chat endpoint through a compiled eino chain.
type ArkProvider struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewArkProvider creates the Ark-backed provider.
func NewArkProvider(ctx context.Context, cfg config.AIConfig) (*ArkProvider, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ArkProvider{chatModel: chatModel, chain: runnable}, nil
}

// Name identifies the backend in logs and health output.
func (p *ArkProvider) Name() string {
	return config.ProviderArk
}

// Generate runs the chain once and returns the assistant text.
func (p *ArkProvider) Generate(ctx context.Context, input PromptInput) (string, error) {
	response, err := p.chain.Invoke(ctx, chainInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", errors.New("chat backend returned an empty reply")
	}
	return response.Content, nil
}

// Stream runs the chain in streaming mode.
func (p *ArkProvider) Stream(ctx context.Context, input PromptInput) (*schema.StreamReader[*schema.Message], error) {
	stream, err := p.chain.Stream(ctx, chainInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}
	return stream, nil
}

func chainInput(input PromptInput) map[string]any {
	return map[string]any{
		"system":  input.System,
		"history": input.History,
		"query":   input.Query,
	}
}
