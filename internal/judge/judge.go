// Package judge scores candidate explanations against human ground truth
// using a strong model and a fixed rubric.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/prompt"
	"github.com/comicbench/comicbench/internal/runner"
)

type Judge struct {
	runner *runner.Runner
	model  *domain.ModelConfig
	logger *zap.Logger
}

func New(r *runner.Runner, models *config.Models, logger *zap.Logger) (*Judge, error) {
	if models.JudgeModel == "" {
		return nil, fmt.Errorf("models config has no judge_model")
	}
	mc, err := models.Lookup(models.JudgeModel)
	if err != nil {
		return nil, err
	}
	return &Judge{runner: r, model: mc, logger: logger}, nil
}

// Score sends one (ground truth, explanation) pair to the judge model and
// returns the parsed verdict. The overall score is recomputed from the
// sub-scores; whatever the judge put in overall_score is discarded.
func (j *Judge) Score(ctx context.Context, image []byte, imageMIME, groundTruth, explanation string) (*domain.JudgeScore, error) {
	result, err := j.runner.Run(ctx, j.model, runner.Request{
		Prompt:    prompt.Judge(groundTruth, explanation),
		Image:     image,
		ImageMIME: imageMIME,
	})
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}

	score, err := ParseVerdict(result.Text)
	if err != nil {
		preview := result.Text
		if len(preview) > 200 {
			preview = preview[:200]
		}
		j.logger.Error("judge verdict unparseable",
			zap.String("judge_model", j.model.Name),
			zap.String("response_preview", preview),
			zap.Error(err))
		return nil, err
	}

	score.JudgeModel = j.model.Name
	score.Timestamp = time.Now().UTC()
	return score, nil
}

// ParseError reports a verdict that could not be turned into a valid
// score. These are permanent for the pair; the caller records the failure
// instead of retrying.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("judge verdict invalid: field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("judge verdict invalid: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var fenceRegex = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// rawVerdict uses pointers so a missing field is distinguishable from an
// explicit zero.
type rawVerdict struct {
	Accuracy     *float64 `json:"accuracy_score"`
	Completeness *float64 `json:"completeness_score"`
	Insight      *float64 `json:"insight_score"`
	Clarity      *float64 `json:"clarity_score"`
	Reasoning    *string  `json:"reasoning"`
}

// ParseVerdict extracts the rubric JSON from the judge's response text.
// The JSON is expected in a ```json fence; a bare object is accepted as a
// fallback. Every sub-score must be present and within [1,10].
func ParseVerdict(text string) (*domain.JudgeScore, error) {
	payload, err := extractJSON(text)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decode: %w", err)}
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"accuracy_score", raw.Accuracy},
		{"completeness_score", raw.Completeness},
		{"insight_score", raw.Insight},
		{"clarity_score", raw.Clarity},
	}
	for _, f := range fields {
		if f.value == nil {
			return nil, &ParseError{Field: f.name, Err: fmt.Errorf("missing")}
		}
		if !domain.InScoreRange(*f.value) {
			return nil, &ParseError{Field: f.name, Err: fmt.Errorf("%.2f outside [%.0f,%.0f]", *f.value, domain.ScoreMin, domain.ScoreMax)}
		}
	}
	if raw.Reasoning == nil {
		return nil, &ParseError{Field: "reasoning", Err: fmt.Errorf("missing")}
	}

	return &domain.JudgeScore{
		Overall:      domain.WeightedOverall(*raw.Accuracy, *raw.Completeness, *raw.Insight, *raw.Clarity),
		Accuracy:     *raw.Accuracy,
		Completeness: *raw.Completeness,
		Insight:      *raw.Insight,
		Clarity:      *raw.Clarity,
		Reasoning:    *raw.Reasoning,
	}, nil
}

func extractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("empty response")
	}

	if m := fenceRegex.FindStringSubmatch(trimmed); m != nil {
		return m[1], nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return trimmed[start : end+1], nil
}
