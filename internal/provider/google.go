package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comicbench/comicbench/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GoogleProvider translates completion requests into Gemini calls.
type GoogleProvider struct {
	client *genai.Client
	logger *zap.Logger
}

func NewGoogleProvider(ctx context.Context, apiKey string, logger *zap.Logger) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GoogleProvider{client: client, logger: logger}, nil
}

func (g *GoogleProvider) Name() domain.Provider {
	return domain.ProviderGoogle
}

func (g *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	start := time.Now()

	temperature := float32(req.Temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}

	var parts []*genai.Part
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: req.ImageMIME, Data: req.Image},
		})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, []*genai.Content{
		{Parts: parts},
	}, genConfig)
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return CompletionResult{}, Classify(domain.ProviderGoogle, err)
	}

	text := extractGeminiText(resp)
	if text == "" {
		return CompletionResult{}, Classify(domain.ProviderGoogle,
			fmt.Errorf("empty response from Gemini"))
	}

	g.logger.Debug("Gemini response received",
		zap.String("model", req.Model),
		zap.Int("length", len(text)),
	)

	result := CompletionResult{
		Text:    text,
		Model:   req.Model,
		Latency: time.Since(start),
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}
