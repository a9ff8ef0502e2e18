// Package llm provides the chat-completion client shared by the mapping
// generator and quality reviewer, with presets for the supported
// OpenAI-compatible providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/matty6409/album-cleaner/internal/config"
	"github.com/matty6409/album-cleaner/internal/retry"
)

type Client interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

type providerPreset struct {
	BaseURL string
	Model   string
}

func presetFor(provider string) (providerPreset, error) {
	switch provider {
	case config.ProviderPerplexity:
		return providerPreset{BaseURL: "https://api.perplexity.ai", Model: "sonar-pro"}, nil
	case config.ProviderDeepSeek:
		return providerPreset{BaseURL: "https://api.deepseek.com", Model: "deepseek-chat"}, nil
	case config.ProviderOpenRouter:
		return providerPreset{BaseURL: "https://openrouter.ai/api/v1", Model: "deepseek/deepseek-chat"}, nil
	default:
		return providerPreset{}, fmt.Errorf("unsupported llm provider %q", provider)
	}
}

type ChatClient struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewChatClient builds a chat client for the given provider. An empty model
// selects the provider's default.
func NewChatClient(provider string, apiKey string, model string, timeout time.Duration) (*ChatClient, error) {
	preset, err := presetFor(provider)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required for provider %q", provider)
	}
	if strings.TrimSpace(model) == "" {
		model = preset.Model
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = preset.BaseURL

	return &ChatClient{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *ChatClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var content string
	err := retry.Do(ctx, 3, time.Second, 10*time.Second, func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: 0.2,
		})
		if err != nil {
			return normalizeAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty completion response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func normalizeAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{
			StatusCode: apiErr.HTTPStatusCode,
			Status:     fmt.Sprintf("%d", apiErr.HTTPStatusCode),
			Message:    apiErr.Message,
		}
	}
	return err
}
