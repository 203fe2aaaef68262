package ai

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"
	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/model/chat"
)

// ErrNotConfigured indicates that no chat backend credentials are present.
var ErrNotConfigured = errors.New("no chat backend configured")

// PromptInput carries one fully assembled backend request: the system
// prompt, the prior transcript and the new user query.
type PromptInput struct {
	System  string
	History []*schema.Message
	Query   string
}

// Provider abstracts the chat backend so the orchestrator never depends on
// the concrete vendor. Generate must return non-empty text on success.
type Provider interface {
	Name() string
	Generate(ctx context.Context, input PromptInput) (string, error)
	Stream(ctx context.Context, input PromptInput) (*schema.StreamReader[*schema.Message], error)
}

// New selects the chat backend from configuration.
func New(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	switch cfg.ResolveProvider() {
	case config.ProviderArk:
		return NewArkProvider(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg)
	default:
		return nil, ErrNotConfigured
	}
}

// HistoryMessages converts stored turns into backend messages. The whole
// transcript is forwarded on every call; a bounding or summarization policy
// would slot in here without touching the orchestrator contract.
func HistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}
