package provider

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/comicbench/comicbench/internal/domain"
)

// Completer is one vendor adapter: a uniform completion request in, plain
// text out. Adapters share nothing; each owns its auth and wire shape.
type Completer interface {
	Name() domain.Provider
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest carries everything a single provider call needs.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Image       []byte
	ImageMIME   string
	MaxTokens   int
	Temperature float64
}

type CompletionResult struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Latency      time.Duration
}

// MediaTypeForPath maps a comic image path to its MIME type. The corpus
// contains png, gif and jpeg files.
func MediaTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
