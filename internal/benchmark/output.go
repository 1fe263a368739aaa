package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/comicbench/comicbench/internal/config"
)

// WriteCSV emits one row per model: per-comic overall scores first, then
// the aggregate columns. A pair with no score gets the literal ERROR.
func WriteCSV(w io.Writer, report *Report, models *config.Models) error {
	cw := csv.NewWriter(w)

	header := []string{"model_name", "model_version", "timestamp"}
	for _, result := range report.Results {
		header = append(header, "comic_"+result.ComicID)
	}
	header = append(header, "average_score", "median_score", "min_score", "max_score", "total_comics")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, model := range report.Models {
		version := "unknown"
		if mc, err := models.Lookup(model); err == nil {
			version = mc.Model
		}
		row := []string{model, version, report.Timestamp.Format(time.RFC3339)}

		for _, result := range report.Results {
			if score, ok := result.Scores[model]; ok {
				row = append(row, formatScore(score.Overall))
			} else {
				row = append(row, "ERROR")
			}
		}

		summary := report.Summary[model]
		if summary.Count > 0 {
			row = append(row,
				formatScore(summary.Mean),
				formatScore(summary.Median),
				formatScore(summary.Min),
				formatScore(summary.Max),
				strconv.Itoa(summary.Count))
		} else {
			row = append(row, "ERROR", "ERROR", "ERROR", "ERROR", "0")
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SaveReport writes the detailed JSON and the CSV summary.
func SaveReport(report *Report, models *config.Models, detailsPath, csvPath string) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(detailsPath, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", detailsPath, err)
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	defer f.Close()
	if err := WriteCSV(f, report, models); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	return nil
}

// WriteSummary prints the per-model aggregates as an aligned table.
func WriteSummary(w io.Writer, report *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "MODEL\tCOMICS\tMEAN\tMEDIAN\tMIN\tMAX")
	for _, model := range report.Models {
		summary := report.Summary[model]
		if summary.Count == 0 {
			fmt.Fprintf(tw, "%s\t0\t-\t-\t-\t-\n", model)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			model, summary.Count, summary.Mean, summary.Median, summary.Min, summary.Max)
	}
	return tw.Flush()
}
