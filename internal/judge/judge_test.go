package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodVerdict = "Here is my evaluation.\n\n```json\n" + `{
    "accuracy_score": 8.0,
    "completeness_score": 7.0,
    "insight_score": 6.0,
    "clarity_score": 9.0,
    "overall_score": 1.0,
    "reasoning": "Identifies the main gag; misses the background detail."
}` + "\n```\n"

func TestParseVerdictFromFence(t *testing.T) {
	score, err := ParseVerdict(goodVerdict)
	require.NoError(t, err)

	assert.Equal(t, 8.0, score.Accuracy)
	assert.Equal(t, 7.0, score.Completeness)
	assert.Equal(t, 6.0, score.Insight)
	assert.Equal(t, 9.0, score.Clarity)
	assert.Equal(t, "Identifies the main gag; misses the background detail.", score.Reasoning)
}

func TestParseVerdictRecomputesOverall(t *testing.T) {
	// The judge claimed overall_score 1.0; the weighted formula wins.
	score, err := ParseVerdict(goodVerdict)
	require.NoError(t, err)

	want := 0.4*8.0 + 0.25*7.0 + 0.25*6.0 + 0.1*9.0
	assert.InDelta(t, want, score.Overall, 1e-9)
}

func TestParseVerdictBareObject(t *testing.T) {
	score, err := ParseVerdict(`Scores below.
{"accuracy_score": 5, "completeness_score": 5, "insight_score": 5, "clarity_score": 5, "reasoning": "Average."}`)
	require.NoError(t, err)
	assert.Equal(t, 5.0, score.Accuracy)
}

func TestParseVerdictMissingField(t *testing.T) {
	_, err := ParseVerdict("```json\n" + `{
    "accuracy_score": 8.0,
    "completeness_score": 7.0,
    "insight_score": 6.0,
    "reasoning": "No clarity score given."
}` + "\n```")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "clarity_score", parseErr.Field)
}

func TestParseVerdictOutOfRange(t *testing.T) {
	_, err := ParseVerdict("```json\n" + `{
    "accuracy_score": 11.0,
    "completeness_score": 7.0,
    "insight_score": 6.0,
    "clarity_score": 9.0,
    "reasoning": "Too generous."
}` + "\n```")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "accuracy_score", parseErr.Field)
}

func TestParseVerdictNoJSON(t *testing.T) {
	_, err := ParseVerdict("I would rate this explanation as quite good overall.")
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseVerdictEmpty(t *testing.T) {
	_, err := ParseVerdict("   ")
	require.Error(t, err)
}
