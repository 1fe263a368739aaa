package label

import (
	"html/template"
	"sort"
	"strings"

	"github.com/comicbench/comicbench/internal/domain"
)

var labelingTemplate = template.Must(template.New("labeling").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Label: {{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 900px; color: #2c3e50; }
  .progress { color: #7f8c8d; margin-bottom: 1rem; }
  img.comic { max-width: 100%; border: 1px solid #ecf0f1; margin-bottom: 1.5rem; }
  .candidate { border: 1px solid #ecf0f1; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
  .candidate h3 { margin-top: 0; font-size: 0.9rem; text-transform: uppercase; color: #7f8c8d; }
  textarea { width: 100%; min-height: 100px; }
  button { padding: 0.5rem 1.25rem; margin-top: 1rem; }
</style>
</head>
<body>
<p class="progress">Comic {{.Index}} of {{.Total}} &middot; {{.Progress.Labeled}}/{{.Progress.Total}} labeled ({{printf "%.0f" .Progress.Percentage}}%)</p>
<h1>{{.Title}}</h1>
{{if .AltText}}<p><em>{{.AltText}}</em></p>{{end}}
<img class="comic" src="/images/{{.ComicID}}" alt="{{.Title}}">
<form id="label-form">
  {{range .Candidates}}
  <div class="candidate">
    <h3><label><input type="radio" name="selected" value="{{.Model}}"{{if .Checked}} checked{{end}}> {{.Model}}</label></h3>
    <p>{{.Text}}</p>
  </div>
  {{end}}
  <div class="candidate">
    <h3><label><input type="radio" name="selected" value="custom"{{if .CustomChecked}} checked{{end}}> Write my own</label></h3>
    <textarea name="custom_explanation" placeholder="Write the reference explanation here">{{.CustomText}}</textarea>
  </div>
  <button type="submit">Save &amp; Next</button>
</form>
<script>
document.getElementById('label-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const form = new FormData(e.target);
  const resp = await fetch('/api/labels', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({
      comic_id: {{.ComicID}},
      selected: form.get('selected'),
      custom_explanation: form.get('custom_explanation')
    })
  });
  const data = await resp.json();
  if (!resp.ok) { alert(data.message || 'save failed'); return; }
  window.location = data.next_comic ? '/?comic_id=' + encodeURIComponent(data.next_comic) : '/';
});
</script>
</body>
</html>
`))

var completeTemplate = template.Must(template.New("complete").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Labeling complete</title></head>
<body style="font-family: sans-serif; margin: 2rem auto; max-width: 600px;">
<h1>All comics labeled 🎉</h1>
<p>{{.Labeled}} of {{.Total}} comics have ground-truth labels. You can run the benchmark now.</p>
</body>
</html>
`))

type candidateView struct {
	Model   string
	Text    string
	Checked bool
}

type labelingView struct {
	ComicID       string
	Title         string
	AltText       string
	Index         int
	Total         int
	Progress      Progress
	Candidates    []candidateView
	CustomChecked bool
	CustomText    string
}

func renderLabeling(comicID string, record *domain.ComicExplanations, existing *domain.GroundTruthLabel, progress Progress, index, total int) string {
	view := labelingView{
		ComicID:  comicID,
		Title:    record.ComicTitle,
		AltText:  record.AltText,
		Index:    index,
		Total:    total,
		Progress: progress,
	}
	if view.Title == "" {
		view.Title = comicID
	}

	models := make([]string, 0, len(record.Explanations))
	for model := range record.Explanations {
		models = append(models, model)
	}
	sort.Strings(models)
	for _, model := range models {
		text := record.Explanations[model]
		if domain.IsErrorEntry(text) {
			continue
		}
		view.Candidates = append(view.Candidates, candidateView{
			Model:   model,
			Text:    text,
			Checked: existing.SourceModel == model && !existing.IsCustom,
		})
	}
	if existing.IsCustom {
		view.CustomChecked = true
		view.CustomText = existing.Explanation
	}

	var sb strings.Builder
	if err := labelingTemplate.Execute(&sb, view); err != nil {
		return "template error: " + template.HTMLEscapeString(err.Error())
	}
	return sb.String()
}

func renderComplete(progress Progress) string {
	var sb strings.Builder
	if err := completeTemplate.Execute(&sb, progress); err != nil {
		return "template error: " + template.HTMLEscapeString(err.Error())
	}
	return sb.String()
}
