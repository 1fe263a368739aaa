package domain

import (
	"fmt"
	"strings"
)

// ComicExplanations groups every model's explanation for one comic.
// Stored in ai_explanations.json keyed by comic ID; overwritten on
// re-run, never versioned.
type ComicExplanations struct {
	ComicTitle   string            `json:"comic_title"`
	ImagePath    string            `json:"image_path"`
	AltText      string            `json:"alt_text"`
	Explanations map[string]string `json:"explanations"`
}

// Has reports whether a usable (non-error) explanation exists for the model.
func (ce *ComicExplanations) Has(model string) bool {
	if ce == nil {
		return false
	}
	text, ok := ce.Explanations[model]
	return ok && text != "" && !IsErrorEntry(text)
}

// ErrorEntry marks a failed (comic, model) pair in the explanation store so
// a resumed run retries it instead of treating it as done.
func ErrorEntry(err error) string {
	return fmt.Sprintf("[Error: %v]", err)
}

func IsErrorEntry(text string) bool {
	return strings.HasPrefix(text, "[Error: ")
}
