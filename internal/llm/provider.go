// Package llm abstracts the completion backend behind a small provider
// contract so agents can be exercised against fakes in tests and against an
// OpenAI-compatible or DeepSeek chat model in production.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/config"
)

// Provider is the completion contract the agents depend on.
type Provider interface {
	// Complete returns the assistant's free-text answer.
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
	// CompleteWithTools lets the model answer with either text or a tool
	// call; the raw message is returned so callers can inspect ToolCalls.
	CompleteWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error)
	// CompleteStructured asks for a JSON answer and unmarshals it into out.
	CompleteStructured(ctx context.Context, messages []*schema.Message, out any) error
}

// ChatModelProvider implements Provider on top of an eino chat model.
type ChatModelProvider struct {
	model model.ToolCallingChatModel
}

// New builds the provider selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (*ChatModelProvider, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "deepseek":
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:  cfg.DeepSeekAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.BackendURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek chat model: %w", err)
		}
		return &ChatModelProvider{model: cm}, nil
	case "openai", "":
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.BackendURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return &ChatModelProvider{model: cm}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func (p *ChatModelProvider) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	msg, err := p.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return msg.Content, nil
}

func (p *ChatModelProvider) CompleteWithTools(ctx context.Context, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	tm, err := p.model.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}
	msg, err := tm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("llm generate with tools: %w", err)
	}
	return msg, nil
}

func (p *ChatModelProvider) CompleteStructured(ctx context.Context, messages []*schema.Message, out any) error {
	prompted := append([]*schema.Message{}, messages...)
	prompted = append(prompted, schema.UserMessage("Answer with a single JSON object only, no prose and no code fences."))

	text, err := p.Complete(ctx, prompted)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(ExtractJSON(text)), out); err != nil {
		return fmt.Errorf("parse structured response: %w", err)
	}
	return nil
}

// ExtractJSON strips markdown fences and surrounding prose from a model
// answer, returning the outermost JSON object or array when one exists.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	end := strings.LastIndexAny(text, "}]")
	if end <= start {
		return text
	}
	return text[start : end+1]
}
