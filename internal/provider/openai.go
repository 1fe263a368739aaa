package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/comicbench/comicbench/internal/domain"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const xaiBaseURL = "https://api.x.ai/v1"

// OpenAIProvider translates completion requests into chat completion calls.
// It also backs the xAI adapter: Grok exposes an OpenAI-compatible API, so
// the only difference is the base URL and the provider tag.
type OpenAIProvider struct {
	client *openai.Client
	name   domain.Provider
	logger *zap.Logger
}

func NewOpenAIProvider(apiKey string, logger *zap.Logger) (*OpenAIProvider, error) {
	return newOpenAICompatible(domain.ProviderOpenAI, apiKey, "", logger)
}

func NewXAIProvider(apiKey string, logger *zap.Logger) (*OpenAIProvider, error) {
	return newOpenAICompatible(domain.ProviderXAI, apiKey, xaiBaseURL, logger)
}

func newOpenAICompatible(name domain.Provider, apiKey, baseURL string, logger *zap.Logger) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is empty", name)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client, name: name, logger: logger}, nil
}

func (o *OpenAIProvider) Name() domain.Provider {
	return o.name
}

func (o *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	start := time.Now()

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(req.Prompt),
	}
	if len(req.Image) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			req.ImageMIME, base64.StdEncoding.EncodeToString(req.Image))
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}))
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		Temperature:         openai.Float(req.Temperature),
	})
	if err != nil {
		o.logger.Error("Chat completion failed",
			zap.String("provider", o.name.String()),
			zap.Error(err),
		)
		return CompletionResult{}, Classify(o.name, err)
	}

	if len(resp.Choices) == 0 {
		return CompletionResult{}, Classify(o.name,
			fmt.Errorf("no choices in %s response", o.name))
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return CompletionResult{}, Classify(o.name,
			fmt.Errorf("empty response from %s", o.name))
	}

	o.logger.Debug("Chat completion received",
		zap.String("provider", o.name.String()),
		zap.String("model", req.Model),
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return CompletionResult{
		Text:         text,
		Model:        req.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Latency:      time.Since(start),
	}, nil
}
