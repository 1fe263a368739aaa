package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedOverallStaysInRange(t *testing.T) {
	assert.InDelta(t, 1.0, WeightedOverall(1, 1, 1, 1), 1e-9)
	assert.InDelta(t, 10.0, WeightedOverall(10, 10, 10, 10), 1e-9)
	assert.InDelta(t, 6.95, WeightedOverall(8, 6, 7, 5), 1e-9)
}

func TestInScoreRange(t *testing.T) {
	assert.True(t, InScoreRange(1))
	assert.True(t, InScoreRange(10))
	assert.False(t, InScoreRange(0.9))
	assert.False(t, InScoreRange(10.1))
}

func TestErrorEntryRoundTrip(t *testing.T) {
	entry := ErrorEntry(errors.New("connection reset"))
	assert.Equal(t, "[Error: connection reset]", entry)
	assert.True(t, IsErrorEntry(entry))
	assert.False(t, IsErrorEntry("a real explanation"))
}

func TestExplanationsHas(t *testing.T) {
	var nilRecord *ComicExplanations
	assert.False(t, nilRecord.Has("claude"))

	record := &ComicExplanations{Explanations: map[string]string{
		"claude": "good",
		"gemini": "[Error: boom]",
		"gpt-4o": "",
	}}
	assert.True(t, record.Has("claude"))
	assert.False(t, record.Has("gemini"))
	assert.False(t, record.Has("gpt-4o"))
	assert.False(t, record.Has("grok"))
}

func TestNewGroundTruthLabel(t *testing.T) {
	model := NewGroundTruthLabel("claude", "text from claude")
	assert.Equal(t, "claude", model.SourceModel)
	assert.False(t, model.IsCustom)
	assert.Equal(t, "human", model.LabeledBy)
	assert.False(t, model.LabeledAt.IsZero())

	custom := NewGroundTruthLabel(SelectionCustom, "my own words")
	assert.True(t, custom.IsCustom)
	assert.Empty(t, custom.SourceModel)
}

func TestProviderValidity(t *testing.T) {
	for _, p := range []Provider{ProviderAnthropic, ProviderGoogle, ProviderOpenAI, ProviderXAI} {
		assert.True(t, p.IsValid())
	}
	assert.False(t, Provider("acme").IsValid())
}
