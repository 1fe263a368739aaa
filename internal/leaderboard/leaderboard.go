// Package leaderboard turns the benchmark CSV into a static HTML page:
// parse, recompute aggregates from the per-comic scores, sort by average
// descending, rank, render.
package leaderboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank        int
	DisplayName string
	ModelID     string
	Provider    string
	Version     string
	Average     float64
	Median      float64
	Min         float64
	Max         float64
	TotalComics int
	Scores      map[string]float64 // comic ID -> overall score
}

// ProviderFor infers the vendor from the model name prefix.
func ProviderFor(model string) string {
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gemini"):
		return "google"
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return "openai"
	case strings.HasPrefix(model, "grok"):
		return "xai"
	default:
		return "unknown"
	}
}

// DisplayName prettifies a model identifier: separators become spaces and
// each word is capitalized.
func DisplayName(model string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(model)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Load parses the benchmark CSV into ranked leaderboard entries. The
// aggregate columns are recomputed from the per-comic scores so the page
// always agrees with the scores it displays; pairs marked ERROR are
// simply absent.
func Load(csvPath string) ([]Entry, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open benchmark results: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func Parse(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	comicCols := make([]int, 0)
	for i, name := range header {
		col[name] = i
		if strings.HasPrefix(name, "comic_") {
			comicCols = append(comicCols, i)
		}
	}
	for _, required := range []string{"model_name", "median_score"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("benchmark CSV missing column %s", required)
		}
	}

	entries := make([]Entry, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}

		model := row[col["model_name"]]
		if model == "" {
			continue
		}

		entry := Entry{
			ModelID:     model,
			DisplayName: DisplayName(model),
			Provider:    ProviderFor(model),
			Scores:      make(map[string]float64, len(comicCols)),
		}
		if i, ok := col["model_version"]; ok {
			entry.Version = row[i]
		}
		entry.Median, _ = strconv.ParseFloat(row[col["median_score"]], 64)

		for _, i := range comicCols {
			score, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				continue // ERROR or blank
			}
			entry.Scores[strings.TrimPrefix(header[i], "comic_")] = score
		}
		if len(entry.Scores) == 0 {
			continue
		}

		var sum float64
		first := true
		for _, s := range entry.Scores {
			sum += s
			if first || s < entry.Min {
				entry.Min = s
			}
			if first || s > entry.Max {
				entry.Max = s
			}
			first = false
		}
		entry.Average = sum / float64(len(entry.Scores))
		entry.TotalComics = len(entry.Scores)

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Average > entries[j].Average
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Generate reads the benchmark CSV and writes the leaderboard page.
func Generate(csvPath, outPath string, logger *zap.Logger) error {
	entries, err := Load(csvPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("benchmark results contain no scored models")
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create leaderboard page: %w", err)
	}
	defer f.Close()

	if err := Render(f, entries); err != nil {
		return fmt.Errorf("render leaderboard: %w", err)
	}

	logger.Info("leaderboard generated",
		zap.String("path", outPath),
		zap.Int("models", len(entries)),
		zap.String("top", entries[0].ModelID))
	return nil
}
