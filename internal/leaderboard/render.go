package leaderboard

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

var pageTemplate = template.Must(template.New("leaderboard").Funcs(template.FuncMap{
	"score": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"medal": medal,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Comic Explanation Benchmark</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 960px; color: #2c3e50; }
  h1 { margin-bottom: 0.25rem; }
  .subtitle { color: #7f8c8d; margin-bottom: 1.5rem; }
  table { border-collapse: collapse; width: 100%; }
  th, td { padding: 0.6rem 0.9rem; text-align: left; border-bottom: 1px solid #ecf0f1; }
  th { background: #f8f9fa; text-transform: uppercase; font-size: 0.75rem; letter-spacing: 0.05em; }
  .rank { font-weight: 700; width: 60px; }
  .num { text-align: right; font-variant-numeric: tabular-nums; }
  .provider-badge { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 10px; font-size: 0.7rem; color: #fff; }
  .anthropic { background: #d97757; }
  .google { background: #4285f4; }
  .openai { background: #10a37f; }
  .xai { background: #1c1c1e; }
  .unknown { background: #95a5a6; }
  footer { margin-top: 2rem; color: #95a5a6; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>Comic Explanation Benchmark</h1>
<p class="subtitle">How well do vision models explain comics, judged against human-curated ground truth.</p>
<table>
  <thead>
    <tr>
      <th class="rank">Rank</th>
      <th>Model</th>
      <th>Provider</th>
      <th class="num">Average</th>
      <th class="num">Median</th>
      <th class="num">Min</th>
      <th class="num">Max</th>
      <th class="num">Comics</th>
    </tr>
  </thead>
  <tbody>
    {{- range .Entries}}
    <tr>
      <td class="rank">{{medal .Rank}}{{.Rank}}</td>
      <td>{{.DisplayName}}</td>
      <td><span class="provider-badge {{.Provider}}">{{.Provider}}</span></td>
      <td class="num">{{score .Average}}</td>
      <td class="num">{{score .Median}}</td>
      <td class="num">{{score .Min}}</td>
      <td class="num">{{score .Max}}</td>
      <td class="num">{{.TotalComics}}</td>
    </tr>
    {{- end}}
  </tbody>
</table>
<footer>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}. Scores are weighted rubric averages on a 1&ndash;10 scale.</footer>
</body>
</html>
`))

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇 "
	case 2:
		return "🥈 "
	case 3:
		return "🥉 "
	default:
		return ""
	}
}

// Render writes the static leaderboard page for the given entries.
func Render(w io.Writer, entries []Entry) error {
	return pageTemplate.Execute(w, struct {
		Entries     []Entry
		GeneratedAt time.Time
	}{
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	})
}
