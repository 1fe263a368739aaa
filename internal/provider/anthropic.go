package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/comicbench/comicbench/internal/domain"
	"go.uber.org/zap"
)

// AnthropicProvider translates completion requests into Claude message calls.
type AnthropicProvider struct {
	client anthropic.Client
	logger *zap.Logger
}

func NewAnthropicProvider(apiKey string, logger *zap.Logger) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is empty")
	}
	// Retries are owned by the runner, not the SDK.
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: client, logger: logger}, nil
}

func (a *AnthropicProvider) Name() domain.Provider {
	return domain.ProviderAnthropic
}

func (a *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	start := time.Now()

	var blocks []anthropic.ContentBlockParamUnion
	if len(req.Image) > 0 {
		encoded := base64.StdEncoding.EncodeToString(req.Image)
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.ImageMIME, encoded))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		a.logger.Error("Anthropic generation failed", zap.Error(err))
		return CompletionResult{}, Classify(domain.ProviderAnthropic, err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return CompletionResult{}, Classify(domain.ProviderAnthropic,
			fmt.Errorf("empty response from Anthropic"))
	}

	a.logger.Debug("Anthropic response received",
		zap.String("model", req.Model),
		zap.Int("length", len(text)),
	)

	return CompletionResult{
		Text:         text,
		Model:        req.Model,
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
		Latency:      time.Since(start),
	}, nil
}
