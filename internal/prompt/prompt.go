// Package prompt builds the model-facing prompts: the explanation request
// sent to candidate models and the scoring rubric sent to the judge.
package prompt

import "fmt"

// DefaultExplainComic is used when models.yaml does not override the
// explanation prompt.
const DefaultExplainComic = `Please explain this comic strip. Describe what happens in each panel, identify the characters and visual elements, and explain the humor, irony, or message the comic conveys. Be thorough but concise.`

// ExplainComic returns the explanation prompt, preferring the configured
// override.
func ExplainComic(configured string) string {
	if configured != "" {
		return configured
	}
	return DefaultExplainComic
}

const judgeTemplate = `You are an expert judge evaluating AI explanations of comic strips. Your task is to score an AI model's explanation against a high-quality ground truth explanation.

**Comic Image**: [The judge will see the comic image]

**Ground Truth Explanation**: %s

**AI Model Explanation**: %s

**Scoring Criteria** (each scored 1-10):
1. **Accuracy**: Does the AI explanation correctly identify what's happening in the comic?
2. **Completeness**: Does it cover all important visual elements and story beats?
3. **Insight**: Does it understand and explain the humor, irony, or message?
4. **Clarity**: Is the explanation well-written and easy to understand?

**Instructions**:
- Compare the AI explanation to the ground truth explanation
- The AI explanation doesn't need to be identical to ground truth, just accurate and comprehensive
- Consider that there can be multiple valid interpretations
- Focus on factual accuracy and understanding rather than writing style
- Be fair but rigorous in your evaluation

**Response Format**:
Provide your scores as a JSON object in a code block. IMPORTANT: The "reasoning" field must be a single line string without newlines. Use spaces or semicolons to separate thoughts.

` + "```json" + `
{
    "accuracy_score": X.X,
    "completeness_score": X.X,
    "insight_score": X.X,
    "clarity_score": X.X,
    "overall_score": X.X,
    "reasoning": "Detailed explanation of your scoring reasoning highlighting what the AI explanation did well and where it fell short compared to the ground truth. Keep this as a single line without newlines."
}
` + "```" + `

The overall_score should be a weighted average: (accuracy * 0.4 + completeness * 0.25 + insight * 0.25 + clarity * 0.1)`

// Judge renders the scoring rubric for one (ground truth, explanation)
// pair. The comic image rides alongside as an image block.
func Judge(groundTruth, modelExplanation string) string {
	return fmt.Sprintf(judgeTemplate, groundTruth, modelExplanation)
}
