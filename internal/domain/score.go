package domain

import "time"

// Rubric weights. The overall score is a fixed linear combination and is
// always recomputed from the sub-scores, never taken from the judge.
const (
	WeightAccuracy     = 0.40
	WeightCompleteness = 0.25
	WeightInsight      = 0.25
	WeightClarity      = 0.10

	ScoreMin = 1.0
	ScoreMax = 10.0
)

// JudgeScore is the parsed rubric verdict for one (comic, model) pair.
// Derived data: recomputed each benchmark run, never updated in place.
type JudgeScore struct {
	Overall      float64   `json:"overall_score"`
	Accuracy     float64   `json:"accuracy_score"`
	Completeness float64   `json:"completeness_score"`
	Insight      float64   `json:"insight_score"`
	Clarity      float64   `json:"clarity_score"`
	Reasoning    string    `json:"reasoning"`
	JudgeModel   string    `json:"judge_model"`
	Timestamp    time.Time `json:"timestamp"`
}

// WeightedOverall computes 0.4·accuracy + 0.25·completeness + 0.25·insight
// + 0.10·clarity. Sub-scores in [1,10] keep the result in [1,10].
func WeightedOverall(accuracy, completeness, insight, clarity float64) float64 {
	return WeightAccuracy*accuracy +
		WeightCompleteness*completeness +
		WeightInsight*insight +
		WeightClarity*clarity
}

// InScoreRange reports whether v is a valid rubric sub-score.
func InScoreRange(v float64) bool {
	return v >= ScoreMin && v <= ScoreMax
}
