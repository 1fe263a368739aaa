package benchmark

import "sort"

func summarize(results []ComicResult, model string) ModelSummary {
	scores := make([]float64, 0, len(results))
	for _, result := range results {
		if score, ok := result.Scores[model]; ok {
			scores = append(scores, score.Overall)
		}
	}
	if len(scores) == 0 {
		return ModelSummary{}
	}

	sort.Float64s(scores)
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return ModelSummary{
		Count:  len(scores),
		Mean:   sum / float64(len(scores)),
		Median: scores[len(scores)/2],
		Min:    scores[0],
		Max:    scores[len(scores)-1],
	}
}
