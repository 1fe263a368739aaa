// Package generate walks the comic corpus and collects one explanation
// per (comic, model) pair, persisting after every comic so an
// interrupted run resumes where it stopped.
package generate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/corpus"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/prompt"
	"github.com/comicbench/comicbench/internal/runner"
	"github.com/comicbench/comicbench/internal/store"
)

type Generator struct {
	corpus *corpus.Corpus
	runner *runner.Runner
	models *config.Models
	store  store.Store[domain.ComicExplanations]
	logger *zap.Logger
}

type Options struct {
	// Models overrides the phase-1 roster from models.yaml.
	Models []string
	// Limit stops after the first N comics; 0 means all.
	Limit int
	// NoSkip regenerates pairs that already have an explanation.
	NoSkip bool
}

func New(c *corpus.Corpus, r *runner.Runner, models *config.Models, s store.Store[domain.ComicExplanations], logger *zap.Logger) *Generator {
	return &Generator{corpus: c, runner: r, models: models, store: s, logger: logger}
}

// Run generates explanations for every comic in the corpus. A pair that
// already has a usable explanation is skipped unless NoSkip is set;
// error entries from earlier runs are always retried. Failures are
// recorded per pair and never stop the run.
func (g *Generator) Run(ctx context.Context, opts Options) error {
	roster := opts.Models
	if len(roster) == 0 {
		roster = g.models.Phase1Models
	}
	if len(roster) == 0 {
		return fmt.Errorf("no models to run: roster is empty")
	}

	configs := make([]*domain.ModelConfig, 0, len(roster))
	for _, name := range roster {
		mc, err := g.models.Lookup(name)
		if err != nil {
			return err
		}
		configs = append(configs, mc)
	}

	explainPrompt := prompt.ExplainComic(g.models.Prompts.ExplainComic)

	var processed, skipped, failures int
	for i := range g.corpus.Comics {
		if opts.Limit > 0 && i >= opts.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		comic := &g.corpus.Comics[i]

		record, _, err := g.store.Get(comic.ID)
		if err != nil {
			return err
		}

		pending := make([]*domain.ModelConfig, 0, len(configs))
		for _, mc := range configs {
			if !opts.NoSkip && record.Has(mc.Name) {
				continue
			}
			pending = append(pending, mc)
		}
		if len(pending) == 0 {
			skipped++
			continue
		}

		if record.Explanations == nil {
			record.ComicTitle = comic.Title
			record.ImagePath = g.corpus.ImagePath(comic)
			record.AltText = comic.AltText
			record.Explanations = make(map[string]string, len(pending))
		}

		image, mime, err := g.corpus.ReadImage(comic)
		if err != nil {
			g.logger.Warn("image unreadable, recording failure for pending models",
				zap.String("comic", comic.ID),
				zap.Error(err))
			// The error entry keeps the pair visible in the store and
			// retried on the next run, same as a provider failure.
			for _, mc := range pending {
				record.Explanations[mc.Name] = domain.ErrorEntry(err)
				failures++
			}
			if err := g.store.Put(comic.ID, record); err != nil {
				return err
			}
			processed++
			continue
		}

		tasks := make([]runner.Task, 0, len(pending))
		for _, mc := range pending {
			tasks = append(tasks, runner.Task{
				Model: mc,
				Request: runner.Request{
					Prompt:    explainPrompt,
					Image:     image,
					ImageMIME: mime,
				},
			})
		}

		for _, outcome := range g.runner.RunAll(ctx, tasks) {
			if outcome.Err != nil {
				g.logger.Error("explanation failed",
					zap.String("comic", comic.ID),
					zap.String("model", outcome.Model),
					zap.Error(outcome.Err))
				record.Explanations[outcome.Model] = domain.ErrorEntry(outcome.Err)
				failures++
				continue
			}
			record.Explanations[outcome.Model] = outcome.Result.Text
		}

		// Persist after each comic so progress survives interruption.
		if err := g.store.Put(comic.ID, record); err != nil {
			return err
		}
		processed++

		g.logger.Info("comic processed",
			zap.Int("index", i+1),
			zap.Int("total", g.corpus.Len()),
			zap.String("comic", comic.ID),
			zap.Int("models", len(pending)))
	}

	g.logger.Info("explanation run complete",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
		zap.Int("pair_failures", failures))
	return nil
}

type Stats struct {
	TotalComics            int
	ComicsWithExplanations int
	ModelCounts            map[string]int
}

// Statistics summarizes the explanation store against the corpus.
func (g *Generator) Statistics() (Stats, error) {
	all, err := g.store.All()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalComics: g.corpus.Len(),
		ModelCounts: make(map[string]int),
	}
	for _, record := range all {
		usable := 0
		for model, text := range record.Explanations {
			if domain.IsErrorEntry(text) {
				continue
			}
			stats.ModelCounts[model]++
			usable++
		}
		// A record holding only error entries gives labeling nothing to
		// show, so it does not count as explained.
		if usable > 0 {
			stats.ComicsWithExplanations++
		}
	}
	return stats, nil
}
