// Package app assembles the dependency graph shared by the CLI commands.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/corpus"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/judge"
	"github.com/comicbench/comicbench/internal/provider"
	"github.com/comicbench/comicbench/internal/runner"
	"github.com/comicbench/comicbench/internal/store"
)

// Container bundles the assembled services. Heavy initialization happens
// in Build so the commands stay orchestration-only.
type Container struct {
	Config *config.Config
	Models *config.Models
	Logger *zap.Logger
	Runner *runner.Runner

	Explanations store.Store[domain.ComicExplanations]
	GroundTruth  store.Store[domain.GroundTruthLabel]
}

// Build loads the models config, opens the JSON stores, and constructs
// one provider adapter per vendor named in the model table. A missing
// API key for any configured vendor is a configuration error: failing
// here beats discovering the gap halfway through a paid run.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	models, err := config.LoadModels(cfg.Paths.ModelsFile)
	if err != nil {
		return nil, err
	}

	completers, err := buildProviders(ctx, models, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:       cfg,
		Models:       models,
		Logger:       logger,
		Runner:       runner.New(completers, models, logger),
		Explanations: store.NewJSONStore[domain.ComicExplanations](cfg.Paths.Explanations, logger),
		GroundTruth:  store.NewJSONStore[domain.GroundTruthLabel](cfg.Paths.GroundTruth, logger),
	}
	return c, nil
}

func buildProviders(ctx context.Context, models *config.Models, logger *zap.Logger) ([]provider.Completer, error) {
	// Every model of one provider shares the same key env var; remember
	// the first.
	keyEnvs := make(map[domain.Provider]string)
	for _, mc := range models.Models {
		if _, ok := keyEnvs[mc.Provider]; !ok {
			keyEnvs[mc.Provider] = mc.APIKeyEnv
		}
	}

	completers := make([]provider.Completer, 0, len(keyEnvs))
	for _, p := range models.Providers() {
		apiKey := os.Getenv(keyEnvs[p])
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s is configured but %s is not set", p, keyEnvs[p])
		}

		var (
			c   provider.Completer
			err error
		)
		switch p {
		case domain.ProviderAnthropic:
			c, err = provider.NewAnthropicProvider(apiKey, logger)
		case domain.ProviderGoogle:
			c, err = provider.NewGoogleProvider(ctx, apiKey, logger)
		case domain.ProviderOpenAI:
			c, err = provider.NewOpenAIProvider(apiKey, logger)
		case domain.ProviderXAI:
			c, err = provider.NewXAIProvider(apiKey, logger)
		default:
			err = fmt.Errorf("unknown provider %s", p)
		}
		if err != nil {
			return nil, fmt.Errorf("init %s provider: %w", p, err)
		}
		completers = append(completers, c)
	}

	if len(completers) == 0 {
		return nil, fmt.Errorf("models config names no providers")
	}
	return completers, nil
}

// Corpus loads the downloaded comic collection. Separate from Build
// because the download command runs before a corpus exists.
func (c *Container) Corpus() (*corpus.Corpus, error) {
	return corpus.Load(c.Config.Paths.MetadataFile, c.Config.Paths.CorpusDir)
}

// Judge constructs the judge over the shared runner.
func (c *Container) Judge() (*judge.Judge, error) {
	return judge.New(c.Runner, c.Models, c.Logger)
}
