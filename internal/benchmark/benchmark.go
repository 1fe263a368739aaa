// Package benchmark runs the scored evaluation: fresh explanations from
// the benchmark roster for every comic with a ground-truth label, judged
// against that label, aggregated per model.
package benchmark

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/corpus"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/judge"
	"github.com/comicbench/comicbench/internal/prompt"
	"github.com/comicbench/comicbench/internal/runner"
	"github.com/comicbench/comicbench/internal/store"
)

// ComicResult is one comic's benchmark outcome: the generated
// explanations, the judge's verdicts, and any per-pair failures.
type ComicResult struct {
	ComicID      string                        `json:"comic_id"`
	ComicTitle   string                        `json:"comic_title,omitempty"`
	GroundTruth  string                        `json:"ground_truth"`
	Explanations map[string]string             `json:"explanations"`
	Scores       map[string]*domain.JudgeScore `json:"scores"`
	Failures     map[string]string             `json:"failures,omitempty"`
	Timestamp    time.Time                     `json:"timestamp"`
}

// ModelSummary aggregates a model's overall scores. Failed pairs are
// excluded, never counted as zero.
type ModelSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type Report struct {
	Timestamp  time.Time               `json:"timestamp"`
	Models     []string                `json:"models"`
	JudgeModel string                  `json:"judge_model"`
	Results    []ComicResult           `json:"detailed_results"`
	Summary    map[string]ModelSummary `json:"summary"`
}

type Runner struct {
	corpus      *corpus.Corpus
	runner      *runner.Runner
	models      *config.Models
	judge       *judge.Judge
	groundTruth store.Store[domain.GroundTruthLabel]
	logger      *zap.Logger
}

type Options struct {
	// Models overrides the benchmark roster from models.yaml.
	Models []string
	// Limit stops after the first N labeled comics; 0 means all.
	Limit int
	// Comics restricts the run to specific comic IDs.
	Comics []string
}

func New(c *corpus.Corpus, r *runner.Runner, models *config.Models, j *judge.Judge, gt store.Store[domain.GroundTruthLabel], logger *zap.Logger) *Runner {
	return &Runner{corpus: c, runner: r, models: models, judge: j, groundTruth: gt, logger: logger}
}

// Run evaluates the roster against every labeled comic. Each (comic,
// model) pair fails or scores on its own; a failure is recorded in the
// result and excluded from the aggregates.
func (b *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	roster := opts.Models
	if len(roster) == 0 {
		roster = b.models.BenchmarkModels
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("no models to benchmark: roster is empty")
	}
	configs := make([]*domain.ModelConfig, 0, len(roster))
	for _, name := range roster {
		mc, err := b.models.Lookup(name)
		if err != nil {
			return nil, err
		}
		configs = append(configs, mc)
	}

	labels, err := b.groundTruth.All()
	if err != nil {
		return nil, err
	}

	comics, err := b.selectComics(labels, opts)
	if err != nil {
		return nil, err
	}
	b.logger.Info("benchmark starting",
		zap.Int("comics", len(comics)),
		zap.Strings("models", roster))

	report := &Report{
		Timestamp:  time.Now().UTC(),
		Models:     roster,
		JudgeModel: b.models.JudgeModel,
		Summary:    make(map[string]ModelSummary, len(roster)),
	}

	explainPrompt := prompt.ExplainComic(b.models.Prompts.ExplainComic)

	for _, comic := range comics {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := labels[comic.ID]
		result := b.runComic(ctx, comic, configs, explainPrompt, label.Explanation)
		report.Results = append(report.Results, *result)
	}

	for _, model := range roster {
		report.Summary[model] = summarize(report.Results, model)
	}
	return report, nil
}

func (b *Runner) selectComics(labels map[string]domain.GroundTruthLabel, opts Options) ([]*domain.Comic, error) {
	comics := make([]*domain.Comic, 0, len(labels))

	if len(opts.Comics) > 0 {
		for _, id := range opts.Comics {
			comic, ok := b.corpus.Get(id)
			if !ok {
				b.logger.Warn("comic skipped, not in corpus", zap.String("comic", id))
				continue
			}
			if _, labeled := labels[id]; !labeled {
				b.logger.Warn("comic skipped, no ground truth", zap.String("comic", id))
				continue
			}
			comics = append(comics, comic)
		}
	} else {
		for i := range b.corpus.Comics {
			comic := &b.corpus.Comics[i]
			if label, ok := labels[comic.ID]; !ok || label.Explanation == "" {
				continue
			}
			comics = append(comics, comic)
			if opts.Limit > 0 && len(comics) >= opts.Limit {
				break
			}
		}
	}

	if len(comics) == 0 {
		return nil, fmt.Errorf("no comics to benchmark: label some comics first")
	}
	return comics, nil
}

func (b *Runner) runComic(ctx context.Context, comic *domain.Comic, configs []*domain.ModelConfig, explainPrompt, groundTruth string) *ComicResult {
	result := &ComicResult{
		ComicID:      comic.ID,
		ComicTitle:   comic.Title,
		GroundTruth:  groundTruth,
		Explanations: make(map[string]string, len(configs)),
		Scores:       make(map[string]*domain.JudgeScore, len(configs)),
		Failures:     make(map[string]string),
		Timestamp:    time.Now().UTC(),
	}

	image, mime, err := b.corpus.ReadImage(comic)
	if err != nil {
		b.logger.Error("comic unreadable", zap.String("comic", comic.ID), zap.Error(err))
		for _, mc := range configs {
			result.Failures[mc.Name] = err.Error()
		}
		return result
	}

	tasks := make([]runner.Task, 0, len(configs))
	for _, mc := range configs {
		tasks = append(tasks, runner.Task{
			Model: mc,
			Request: runner.Request{
				Prompt:    explainPrompt,
				Image:     image,
				ImageMIME: mime,
			},
		})
	}

	for _, outcome := range b.runner.RunAll(ctx, tasks) {
		if outcome.Err != nil {
			b.logger.Warn("explanation failed",
				zap.String("comic", comic.ID),
				zap.String("model", outcome.Model),
				zap.Error(outcome.Err))
			result.Failures[outcome.Model] = outcome.Err.Error()
			continue
		}
		result.Explanations[outcome.Model] = outcome.Result.Text
	}

	for _, mc := range configs {
		explanation, ok := result.Explanations[mc.Name]
		if !ok {
			continue
		}
		score, err := b.judge.Score(ctx, image, mime, groundTruth, explanation)
		if err != nil {
			b.logger.Warn("judging failed",
				zap.String("comic", comic.ID),
				zap.String("model", mc.Name),
				zap.Error(err))
			result.Failures[mc.Name] = err.Error()
			continue
		}
		result.Scores[mc.Name] = score
	}

	b.logger.Info("comic benchmarked",
		zap.String("comic", comic.ID),
		zap.Int("scored", len(result.Scores)),
		zap.Int("failed", len(result.Failures)))
	return result
}
