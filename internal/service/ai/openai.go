package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider 通过 OpenAI 兼容端点提供聊天能力。
// 配合 OPENAI_BASE_URL 也可以指向本地 Ollama 或 vLLM 的 /v1 接口。
type OpenAIProvider struct {
	client openai.Client
	cfg    config.AIConfig
}

// NewOpenAIProvider 创建 OpenAI 兼容后端。
func NewOpenAIProvider(cfg config.AIConfig) (*OpenAIProvider, error) {
	if !cfg.OpenAIEnabled() {
		return nil, fmt.Errorf("OpenAI 配置缺失,至少提供 OPENAI_MODEL 加上密钥或 OPENAI_BASE_URL")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &OpenAIProvider{client: openai.NewClient(opts...), cfg: cfg}, nil
}

// Name identifies the backend in logs and health output.
func (p *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Generate 发起一次补全请求并返回助手文本。
func (p *OpenAIProvider) Generate(ctx context.Context, input PromptInput) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(input))
	if err != nil {
		return "", fmt.Errorf("failed to call chat completions: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("chat backend returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("chat backend returned an empty reply")
	}
	return content, nil
}

// Stream 将增量块适配为 eino 的流读取器,与 Ark 链共用同一个消费面。
func (p *OpenAIProvider) Stream(ctx context.Context, input PromptInput) (*schema.StreamReader[*schema.Message], error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(input))
	reader, writer := schema.Pipe[*schema.Message](8)

	go func() {
		defer writer.Close()
		defer func() {
			if err := stream.Close(); err != nil {
				log.Printf("[ai] failed to close completion stream: %v", err)
			}
		}()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if closed := writer.Send(schema.AssistantMessage(delta, nil), nil); closed {
				return
			}
		}
		if err := stream.Err(); err != nil {
			writer.Send(nil, fmt.Errorf("completion stream failed: %w", err))
		}
	}()

	return reader, nil
}

func (p *OpenAIProvider) buildParams(input PromptInput) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input.History)+2)
	if input.System != "" {
		messages = append(messages, openai.SystemMessage(input.System))
	}
	for _, msg := range input.History {
		switch msg.Role {
		case schema.User:
			messages = append(messages, openai.UserMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(input.Query))

	params := openai.ChatCompletionNewParams{
		Model:    p.cfg.OpenAIModel,
		Messages: messages,
	}
	if p.cfg.Temperature != nil {
		params.Temperature = openai.Float(*p.cfg.Temperature)
	}
	if p.cfg.TopP != nil {
		params.TopP = openai.Float(*p.cfg.TopP)
	}
	if p.cfg.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*p.cfg.MaxTokens))
	}
	return params
}
