package domain

import "time"

// SelectionCustom is the sentinel selection value for a free-text label
// written by the human instead of picking a model candidate.
const SelectionCustom = "custom"

// GroundTruthLabel is the human-approved reference explanation for a comic.
// Created and mutated only by the labeling web app.
type GroundTruthLabel struct {
	Explanation string    `json:"explanation"`
	SourceModel string    `json:"source_model,omitempty"`
	IsCustom    bool      `json:"is_custom"`
	LabeledBy   string    `json:"labeled_by"`
	LabeledAt   time.Time `json:"labeled_at"`
}

func NewGroundTruthLabel(selected, text string) *GroundTruthLabel {
	label := &GroundTruthLabel{
		Explanation: text,
		IsCustom:    selected == SelectionCustom,
		LabeledBy:   "human",
		LabeledAt:   time.Now().UTC(),
	}
	if !label.IsCustom {
		label.SourceModel = selected
	}
	return label
}
